package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/wildproof/wildproof/api"
	"github.com/wildproof/wildproof/logging"
	"github.com/wildproof/wildproof/registry"
)

const maxRequestBody = 1 << 16

var errMissingPrincipal = errors.New("missing " + api.PrincipalHeader + " header")

// handlers serves the REST API of a registry.
type handlers struct {
	reg    *registry.Registry
	ledger *registry.MemLedger
}

type route struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

// NewHandler returns the REST API of reg. If ledger is not nil its audit
// trail is exposed under /v1/transfers.
func NewHandler(logger *zap.Logger, reg *registry.Registry, ledger *registry.MemLedger) (http.Handler, error) {
	h := &handlers{reg: reg, ledger: ledger}
	routes := []route{
		{http.MethodGet, "/v1/settings", h.getSettings},
		{http.MethodPost, "/v1/settings/verifier", h.setVerifier},
		{http.MethodPost, "/v1/settings/max-proofs", h.setValue(reg.SetMaxProofs)},
		{http.MethodPost, "/v1/settings/submission-fee", h.setValue(reg.SetSubmissionFee)},
		{http.MethodPost, "/v1/settings/min-stake", h.setValue(reg.SetMinStake)},
		{http.MethodPost, "/v1/settings/proof-expiry", h.setValue(reg.SetProofExpiry)},
		{http.MethodPost, "/v1/proofs", h.submit},
		{http.MethodGet, "/v1/proofs/{id}", h.getProof},
		{http.MethodPost, "/v1/proofs/{id}/verify", h.verify},
		{http.MethodGet, "/v1/proofs/{id}/update", h.getUpdate},
		{http.MethodGet, "/v1/proof-count", h.getCount},
		{http.MethodGet, "/v1/proof-exists/{hash}", h.getExists},
		{http.MethodGet, "/v1/transfers", h.getTransfers},
	}

	mux := runtime.NewServeMux()
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return nil, fmt.Errorf("registering %s %s: %w", r.method, r.pattern, err)
		}
	}
	return withRequestLogger(logger, mux), nil
}

// withRequestLogger attaches a logger tagged with a fresh request id to
// every request context.
func withRequestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New()
		logger := logger.Named(r.Method).With(zap.Stringer("request_id", id), zap.String("path", r.URL.Path))
		logger.Debug("new request", zap.String("from", r.RemoteAddr))

		w.Header().Set(api.RequestIDHeader, id.String())
		next.ServeHTTP(w, r.WithContext(logging.NewContext(r.Context(), logger)))
	})
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, r, http.StatusOK, api.FromSettings(h.reg.Settings()))
}

func (h *handlers) setVerifier(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	caller, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req api.SetVerifierRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.reg.SetVerifier(r.Context(), caller, registry.Identity(req.Verifier)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.FromSettings(h.reg.Settings()))
}

func (h *handlers) setValue(
	set func(ctx context.Context, caller registry.Identity, value uint64) error,
) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		caller, err := principal(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req api.SetValueRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := set(r.Context(), caller, req.Value); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, api.FromSettings(h.reg.Settings()))
	}
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	caller, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req api.SubmitRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.reg.Submit(r.Context(), caller, req.Submission())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, api.SubmitResponse{ID: id})
}

func (h *handlers) getProof(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := proofID(params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	proof, err := h.reg.Proof(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.FromProof(id, proof))
}

func (h *handlers) verify(w http.ResponseWriter, r *http.Request, params map[string]string) {
	caller, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := proofID(params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req api.VerifyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	update, err := h.reg.Verify(r.Context(), caller, id, req.Status, req.Score)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.FromProofUpdate(update))
}

func (h *handlers) getUpdate(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := proofID(params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	update, err := h.reg.ProofUpdate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.FromProofUpdate(update))
}

func (h *handlers) getCount(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, r, http.StatusOK, api.CountResponse{Count: h.reg.ProofCount()})
}

func (h *handlers) getExists(w http.ResponseWriter, r *http.Request, params map[string]string) {
	hash, err := hex.DecodeString(params["hash"])
	if err != nil {
		writeError(w, r, badRequest(fmt.Errorf("decoding proof hash: %w", err)))
		return
	}
	exists, err := h.reg.ProofExists(r.Context(), hash)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.ExistsResponse{Exists: exists})
}

func (h *handlers) getTransfers(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if h.ledger == nil {
		writeJSON(w, r, http.StatusOK, api.FromTransfers(nil))
		return
	}
	writeJSON(w, r, http.StatusOK, api.FromTransfers(h.ledger.Transfers()))
}

func principal(r *http.Request) (registry.Identity, error) {
	p := r.Header.Get(api.PrincipalHeader)
	if p == "" {
		return "", errMissingPrincipal
	}
	return registry.Identity(p), nil
}

func proofID(params map[string]string) (uint64, error) {
	id, err := strconv.ParseUint(params["id"], 10, 64)
	if err != nil {
		return 0, badRequest(fmt.Errorf("parsing proof id: %w", err))
	}
	return id, nil
}

// requestError marks failures caused by a malformed request.
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequest(err error) error {
	return &requestError{err: err}
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("decoding request body: %w", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := api.Error{Message: err.Error()}
	var regErr *registry.Error
	if errors.As(err, &regErr) {
		body.Code = uint32(regErr.Code())
		body.Kind = regErr.Kind()
	}
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", zap.Error(err))
	} else {
		logging.FromContext(r.Context()).Info("request rejected", zap.Error(err))
	}
	writeJSON(w, r, status, body)
}

func statusOf(err error) int {
	var reqErr *requestError
	switch {
	case errors.Is(err, errMissingPrincipal):
		return http.StatusUnauthorized
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	}

	switch registry.CodeOf(err) {
	case registry.CodeUnknown:
		return http.StatusInternalServerError
	case registry.CodeUnauthorized, registry.CodeInvalidVerifier:
		return http.StatusForbidden
	case registry.CodeNotFound:
		return http.StatusNotFound
	case registry.CodeAlreadyExists, registry.CodeAlreadyVerified, registry.CodeMaxProofsExceeded:
		return http.StatusConflict
	case registry.CodeProofExpired:
		return http.StatusGone
	case registry.CodeTransferFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}
