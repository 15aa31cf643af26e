// Package client talks to a wildproof daemon over its REST API.
package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/wildproof/wildproof/api"
	"github.com/wildproof/wildproof/registry"
)

var (
	ErrUnavailable     = errors.New("unavailable")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Client is a REST client of the wildproof API. Failures reported by the
// registry are returned wrapping the matching registry sentinel error.
type Client struct {
	baseURL   *url.URL
	client    *retryablehttp.Client
	principal string
}

type clientOptionFunc func(*Client)

// WithPrincipal sets the identity sent with every request.
func WithPrincipal(principal string) clientOptionFunc {
	return func(c *Client) {
		c.principal = principal
	}
}

func WithRetryMax(retries int) clientOptionFunc {
	return func(c *Client) {
		c.client.RetryMax = retries
	}
}

func WithLogger(logger *zap.Logger) clientOptionFunc {
	return func(c *Client) {
		c.client.Logger = &leveledLogger{logger.Sugar()}
	}
}

func WithHTTPClient(httpClient *http.Client) clientOptionFunc {
	return func(c *Client) {
		c.client.HTTPClient = httpClient
	}
}

// New returns a client of the daemon at baseURL.
func New(baseURL string, opts ...clientOptionFunc) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing address: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.Logger = nil

	c := &Client{
		baseURL: parsed,
		client:  httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Settings(ctx context.Context) (*api.Settings, error) {
	var resBody api.Settings
	if err := c.req(ctx, http.MethodGet, "/v1/settings", nil, &resBody); err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	return &resBody, nil
}

func (c *Client) SetVerifier(ctx context.Context, verifier string) (*api.Settings, error) {
	var resBody api.Settings
	req := api.SetVerifierRequest{Verifier: verifier}
	if err := c.req(ctx, http.MethodPost, "/v1/settings/verifier", &req, &resBody); err != nil {
		return nil, fmt.Errorf("setting verifier: %w", err)
	}
	return &resBody, nil
}

func (c *Client) SetMaxProofs(ctx context.Context, value uint64) (*api.Settings, error) {
	return c.setValue(ctx, "max-proofs", value)
}

func (c *Client) SetSubmissionFee(ctx context.Context, value uint64) (*api.Settings, error) {
	return c.setValue(ctx, "submission-fee", value)
}

func (c *Client) SetMinStake(ctx context.Context, value uint64) (*api.Settings, error) {
	return c.setValue(ctx, "min-stake", value)
}

func (c *Client) SetProofExpiry(ctx context.Context, value uint64) (*api.Settings, error) {
	return c.setValue(ctx, "proof-expiry", value)
}

func (c *Client) setValue(ctx context.Context, setting string, value uint64) (*api.Settings, error) {
	var resBody api.Settings
	req := api.SetValueRequest{Value: value}
	if err := c.req(ctx, http.MethodPost, "/v1/settings/"+setting, &req, &resBody); err != nil {
		return nil, fmt.Errorf("setting %s: %w", setting, err)
	}
	return &resBody, nil
}

// Submit registers a proof and returns its id.
func (c *Client) Submit(ctx context.Context, req api.SubmitRequest) (uint64, error) {
	var resBody api.SubmitResponse
	if err := c.req(ctx, http.MethodPost, "/v1/proofs", &req, &resBody); err != nil {
		return 0, fmt.Errorf("submitting proof: %w", err)
	}
	return resBody.ID, nil
}

// Verify records the verifier's attestation of proof id.
func (c *Client) Verify(ctx context.Context, id uint64, status bool, score uint32) (*api.ProofUpdate, error) {
	var resBody api.ProofUpdate
	req := api.VerifyRequest{Status: status, Score: score}
	if err := c.req(ctx, http.MethodPost, proofPath(id, "verify"), &req, &resBody); err != nil {
		return nil, fmt.Errorf("verifying proof %d: %w", id, err)
	}
	return &resBody, nil
}

func (c *Client) Proof(ctx context.Context, id uint64) (*api.Proof, error) {
	var resBody api.Proof
	if err := c.req(ctx, http.MethodGet, proofPath(id), nil, &resBody); err != nil {
		return nil, fmt.Errorf("getting proof %d: %w", id, err)
	}
	return &resBody, nil
}

func (c *Client) ProofUpdate(ctx context.Context, id uint64) (*api.ProofUpdate, error) {
	var resBody api.ProofUpdate
	if err := c.req(ctx, http.MethodGet, proofPath(id, "update"), nil, &resBody); err != nil {
		return nil, fmt.Errorf("getting update of proof %d: %w", id, err)
	}
	return &resBody, nil
}

func (c *Client) ProofCount(ctx context.Context) (uint64, error) {
	var resBody api.CountResponse
	if err := c.req(ctx, http.MethodGet, "/v1/proof-count", nil, &resBody); err != nil {
		return 0, fmt.Errorf("getting proof count: %w", err)
	}
	return resBody.Count, nil
}

func (c *Client) ProofExists(ctx context.Context, proofHash []byte) (bool, error) {
	var resBody api.ExistsResponse
	if err := c.req(ctx, http.MethodGet, "/v1/proof-exists/"+hex.EncodeToString(proofHash), nil, &resBody); err != nil {
		return false, fmt.Errorf("checking proof existence: %w", err)
	}
	return resBody.Exists, nil
}

func (c *Client) Transfers(ctx context.Context) ([]api.Transfer, error) {
	var resBody api.TransfersResponse
	if err := c.req(ctx, http.MethodGet, "/v1/transfers", nil, &resBody); err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	return resBody.Transfers, nil
}

func proofPath(id uint64, suffix ...string) string {
	path := "/v1/proofs/" + strconv.FormatUint(id, 10)
	for _, s := range suffix {
		path += "/" + s
	}
	return path
}

func (c *Client) req(ctx context.Context, method, path string, reqBody, resBody any) error {
	var body io.Reader
	if reqBody != nil {
		jsonReqBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(jsonReqBody)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.principal != "" {
		req.Header.Set(api.PrincipalHeader, c.principal)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response body (%w)", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return decodeError(res, data)
	}

	if resBody != nil {
		if err := json.Unmarshal(data, resBody); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}

func decodeError(res *http.Response, data []byte) error {
	var apiErr api.Error
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Code != 0 {
		if sentinel := registry.ErrorFromCode(registry.Code(apiErr.Code)); sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, apiErr.Message)
		}
	}

	switch res.StatusCode {
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrUnavailable, res.Status, string(data))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrInvalidRequest, res.Status, string(data))
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrUnauthenticated, res.Status, string(data))
	default:
		return fmt.Errorf("unrecognized error: status code: %s, body: %s", res.Status, string(data))
	}
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger *zap.SugaredLogger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}
