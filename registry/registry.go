package registry

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wildproof/wildproof/logging"
)

// DefaultTimeUnit is the length of one registry time unit when no clock is supplied.
const DefaultTimeUnit = 10 * time.Minute

// Registry owns the proof table, the proof hash index, the update records
// and the admin-mutable settings.
type Registry struct {
	// mu serializes every operation.
	mu       sync.Mutex
	settings Settings
	nextID   uint64
	db       *database

	ledger Ledger
	clock  Clock
}

type newRegistryOptionFunc func(*newRegistryOptions)

type newRegistryOptions struct {
	cfg    Config
	ledger Ledger
	clock  Clock
}

func WithConfig(cfg Config) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.cfg = cfg
	}
}

func WithLedger(ledger Ledger) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.ledger = ledger
	}
}

func WithClock(clock Clock) newRegistryOptionFunc {
	return func(opts *newRegistryOptions) {
		opts.clock = clock
	}
}

func New(ctx context.Context, opts ...newRegistryOptionFunc) (*Registry, error) {
	options := newRegistryOptions{
		cfg: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry config: %w", err)
	}
	if options.ledger == nil {
		options.ledger = NewMemLedger()
	}
	if options.clock == nil {
		options.clock = NewUnitClock(time.Now(), DefaultTimeUnit)
	}

	db, err := newDatabase(options.cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	nextID, err := db.NextID()
	if err != nil {
		db.Close()
		return nil, err
	}

	r := &Registry{
		settings: options.cfg.settings(),
		nextID:   nextID,
		db:       db,
		ledger:   options.ledger,
		clock:    options.clock,
	}
	logging.FromContext(ctx).Info("opened registry", zap.Object("settings", r.settings), zap.Uint64("proofs", nextID))
	return r, nil
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

// Settings returns a snapshot of the current configuration.
func (r *Registry) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// SetVerifier designates the principal allowed to verify proofs.
// The identity is not validated; setting it to the empty identity blocks submissions again.
func (r *Registry) SetVerifier(ctx context.Context, caller, verifier Identity) error {
	return r.updateSettings(ctx, caller, "verifier", true, func(s *Settings) {
		s.Verifier = verifier
	})
}

func (r *Registry) SetMaxProofs(ctx context.Context, caller Identity, maxProofs uint64) error {
	return r.updateSettings(ctx, caller, "max-proofs", maxProofs > 0, func(s *Settings) {
		s.MaxProofs = maxProofs
	})
}

// SetSubmissionFee accepts any amount, including zero.
func (r *Registry) SetSubmissionFee(ctx context.Context, caller Identity, fee uint64) error {
	return r.updateSettings(ctx, caller, "submission-fee", true, func(s *Settings) {
		s.SubmissionFee = fee
	})
}

func (r *Registry) SetMinStake(ctx context.Context, caller Identity, minStake uint64) error {
	return r.updateSettings(ctx, caller, "min-stake", minStake > 0, func(s *Settings) {
		s.MinStake = minStake
	})
}

func (r *Registry) SetProofExpiry(ctx context.Context, caller Identity, expiry uint64) error {
	return r.updateSettings(ctx, caller, "proof-expiry", expiry > 0, func(s *Settings) {
		s.ProofExpiry = expiry
	})
}

func (r *Registry) updateSettings(
	ctx context.Context,
	caller Identity,
	name string,
	valid bool,
	apply func(*Settings),
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.FromContext(ctx).With(zap.String("caller", string(caller)), zap.String("setting", name))
	if caller != r.settings.Admin {
		logger.Debug("rejecting settings change from non-admin")
		return ErrUnauthorized
	}
	if !valid {
		logger.Debug("rejecting invalid settings value")
		return ErrInvalidUpdate
	}
	apply(&r.settings)
	logger.Info("updated settings", zap.Object("settings", r.settings))
	return nil
}

// Submit validates and stores a new unverified proof and returns its id.
// The submission fee is transferred from caller to the verifier as part of
// the same step; if the transfer fails nothing is stored.
func (r *Registry) Submit(ctx context.Context, caller Identity, sub Submission) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.FromContext(ctx).With(zap.String("submitter", string(caller)))
	id, err := r.submit(ctx, logger, caller, &sub)
	switch {
	case err == nil:
		submissionsMetric.WithLabelValues(resultAccepted).Inc()
	case CodeOf(err) != CodeUnknown:
		submissionsMetric.WithLabelValues(resultRejected).Inc()
		logger.Debug("rejected submission", zap.Error(err))
	default:
		submissionsMetric.WithLabelValues(resultFailed).Inc()
		logger.Error("failed to store submission", zap.Error(err))
	}
	return id, err
}

func (r *Registry) submit(ctx context.Context, logger *zap.Logger, caller Identity, sub *Submission) (uint64, error) {
	if r.nextID >= r.settings.MaxProofs {
		return 0, ErrMaxProofsExceeded
	}
	if err := validateSubmission(sub); err != nil {
		return 0, err
	}
	exists, err := r.db.HasHash(sub.ProofHash)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrAlreadyExists
	}
	if r.settings.Verifier == "" {
		return 0, ErrInvalidVerifier
	}

	id := r.nextID
	now := r.clock.Now()
	transfer := Transfer{
		Amount:  r.settings.SubmissionFee,
		From:    caller,
		To:      r.settings.Verifier,
		ProofID: id,
		Time:    now,
	}
	if err := r.ledger.Transfer(ctx, transfer); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	proof := &Proof{
		ProofHash:   bytes.Clone(sub.ProofHash),
		DataHash:    bytes.Clone(sub.DataHash),
		Submitter:   caller,
		Timestamp:   now,
		Species:     sub.Species,
		PatternType: sub.PatternType,
		Region:      sub.Region,
		HerdSize:    sub.HerdSize,
		Duration:    sub.Duration,
		Metadata:    bytes.Clone(sub.Metadata),
		Status:      false,
		Score:       sub.Score,
	}
	if err := r.db.InsertProof(id, proof); err != nil {
		refund := Transfer{
			Amount:  transfer.Amount,
			From:    transfer.To,
			To:      transfer.From,
			ProofID: id,
			Time:    now,
			Refund:  true,
		}
		if rerr := r.ledger.Transfer(ctx, refund); rerr != nil {
			logger.Error("failed to refund submission fee", zap.Uint64("id", id), zap.Error(rerr))
		}
		return 0, err
	}
	r.nextID++

	proofsMetric.Set(float64(r.nextID))
	feesMetric.Add(float64(transfer.Amount))
	logger.Info("accepted proof",
		zap.Uint64("id", id),
		zap.String("proof_hash", hex.EncodeToString(proof.ProofHash)),
		zap.String("species", proof.Species),
		zap.String("pattern", string(proof.PatternType)),
		zap.Uint64("fee", transfer.Amount),
	)
	return id, nil
}

// Verify records the verifier's attestation of proof id and returns the stored
// update record. A proof can be attested until it holds a positive status, no
// later than ProofExpiry time units after its submission. Attesting again
// after a negative attestation replaces the update record.
func (r *Registry) Verify(ctx context.Context, caller Identity, id uint64, status bool, score uint32) (*ProofUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.FromContext(ctx).With(zap.String("caller", string(caller)), zap.Uint64("id", id))
	update, err := r.verify(caller, id, status, score)
	switch {
	case err == nil:
		verificationsMetric.WithLabelValues(resultAccepted).Inc()
		logger.Info("verified proof", zap.Bool("status", status), zap.Uint32("score", score))
	case CodeOf(err) != CodeUnknown:
		verificationsMetric.WithLabelValues(resultRejected).Inc()
		logger.Debug("rejected verification", zap.Error(err))
	default:
		verificationsMetric.WithLabelValues(resultFailed).Inc()
		logger.Error("failed to store verification", zap.Error(err))
	}
	return update, err
}

func (r *Registry) verify(caller Identity, id uint64, status bool, score uint32) (*ProofUpdate, error) {
	proof, err := r.db.GetProof(id)
	if err != nil {
		return nil, err
	}
	if r.settings.Verifier == "" || caller != r.settings.Verifier {
		return nil, ErrInvalidVerifier
	}
	now := r.clock.Now()
	if elapsed(now, proof.Timestamp) > r.settings.ProofExpiry {
		return nil, ErrProofExpired
	}
	if score > MaxScore {
		return nil, ErrInvalidScore
	}
	if proof.Status {
		return nil, ErrAlreadyVerified
	}

	proof.Status = status
	proof.Score = score
	update := &ProofUpdate{
		UpdateTimestamp: now,
		Updater:         caller,
		NewStatus:       status,
		NewScore:        score,
	}
	if err := r.db.SaveVerification(id, proof, update); err != nil {
		return nil, err
	}
	return update, nil
}

// Proof returns the proof stored under id, or ErrNotFound.
func (r *Registry) Proof(ctx context.Context, id uint64) (*Proof, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.GetProof(id)
}

// ProofUpdate returns the verification record of proof id, or ErrNotFound
// if the proof does not exist or has not been verified.
func (r *Registry) ProofUpdate(ctx context.Context, id uint64) (*ProofUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.GetUpdate(id)
}

// ProofCount returns the number of proofs ever accepted, which is also the next id.
func (r *Registry) ProofCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

// ProofExists reports whether a proof with the given hash has been accepted.
func (r *Registry) ProofExists(ctx context.Context, proofHash []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.HasHash(proofHash)
}

func elapsed(now, since uint64) uint64 {
	if now < since {
		return 0
	}
	return now - since
}
