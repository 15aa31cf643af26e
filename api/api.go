package api

import (
	"encoding/hex"
	"fmt"

	"github.com/wildproof/wildproof/registry"
)

// PrincipalHeader carries the identity of the calling principal.
const PrincipalHeader = "X-Principal"

// RequestIDHeader is set on every response.
const RequestIDHeader = "X-Request-Id"

// HexBytes is a byte slice encoded as a hex string.
type HexBytes []byte

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decoding hex: %w", err)
	}
	*b = decoded
	return nil
}

type Settings struct {
	Admin         string `json:"admin"`
	Verifier      string `json:"verifier,omitempty"`
	MaxProofs     uint64 `json:"max_proofs"`
	SubmissionFee uint64 `json:"submission_fee"`
	MinStake      uint64 `json:"min_stake"`
	ProofExpiry   uint64 `json:"proof_expiry"`
}

func FromSettings(s registry.Settings) Settings {
	return Settings{
		Admin:         string(s.Admin),
		Verifier:      string(s.Verifier),
		MaxProofs:     s.MaxProofs,
		SubmissionFee: s.SubmissionFee,
		MinStake:      s.MinStake,
		ProofExpiry:   s.ProofExpiry,
	}
}

type SetVerifierRequest struct {
	Verifier string `json:"verifier"`
}

type SetValueRequest struct {
	Value uint64 `json:"value"`
}

type SubmitRequest struct {
	ProofHash   HexBytes `json:"proof_hash"`
	DataHash    HexBytes `json:"data_hash"`
	Species     string   `json:"species"`
	PatternType string   `json:"pattern_type"`
	Region      string   `json:"region"`
	HerdSize    uint64   `json:"herd_size"`
	Duration    uint64   `json:"duration"`
	Metadata    HexBytes `json:"metadata,omitempty"`
	Score       uint32   `json:"score"`
}

func (r *SubmitRequest) Submission() registry.Submission {
	return registry.Submission{
		ProofHash:   r.ProofHash,
		DataHash:    r.DataHash,
		Species:     r.Species,
		PatternType: registry.PatternType(r.PatternType),
		Region:      r.Region,
		HerdSize:    r.HerdSize,
		Duration:    r.Duration,
		Metadata:    r.Metadata,
		Score:       r.Score,
	}
}

type SubmitResponse struct {
	ID uint64 `json:"id"`
}

type Proof struct {
	ID          uint64   `json:"id"`
	ProofHash   HexBytes `json:"proof_hash"`
	DataHash    HexBytes `json:"data_hash"`
	Submitter   string   `json:"submitter"`
	Timestamp   uint64   `json:"timestamp"`
	Species     string   `json:"species"`
	PatternType string   `json:"pattern_type"`
	Region      string   `json:"region"`
	HerdSize    uint64   `json:"herd_size"`
	Duration    uint64   `json:"duration"`
	Metadata    HexBytes `json:"metadata,omitempty"`
	Status      bool     `json:"status"`
	Score       uint32   `json:"score"`
}

func FromProof(id uint64, p *registry.Proof) Proof {
	return Proof{
		ID:          id,
		ProofHash:   p.ProofHash,
		DataHash:    p.DataHash,
		Submitter:   string(p.Submitter),
		Timestamp:   p.Timestamp,
		Species:     p.Species,
		PatternType: string(p.PatternType),
		Region:      p.Region,
		HerdSize:    p.HerdSize,
		Duration:    p.Duration,
		Metadata:    p.Metadata,
		Status:      p.Status,
		Score:       p.Score,
	}
}

type VerifyRequest struct {
	Status bool   `json:"status"`
	Score  uint32 `json:"score"`
}

type ProofUpdate struct {
	UpdateTimestamp uint64 `json:"update_timestamp"`
	Updater         string `json:"updater"`
	NewStatus       bool   `json:"new_status"`
	NewScore        uint32 `json:"new_score"`
}

func FromProofUpdate(u *registry.ProofUpdate) ProofUpdate {
	return ProofUpdate{
		UpdateTimestamp: u.UpdateTimestamp,
		Updater:         string(u.Updater),
		NewStatus:       u.NewStatus,
		NewScore:        u.NewScore,
	}
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type Transfer struct {
	Amount  uint64 `json:"amount"`
	From    string `json:"from"`
	To      string `json:"to"`
	ProofID uint64 `json:"proof_id"`
	Time    uint64 `json:"time"`
	Refund  bool   `json:"refund,omitempty"`
}

type TransfersResponse struct {
	Transfers []Transfer `json:"transfers"`
}

func FromTransfers(transfers []registry.Transfer) TransfersResponse {
	out := TransfersResponse{Transfers: make([]Transfer, 0, len(transfers))}
	for _, t := range transfers {
		out.Transfers = append(out.Transfers, Transfer{
			Amount:  t.Amount,
			From:    string(t.From),
			To:      string(t.To),
			ProofID: t.ProofID,
			Time:    t.Time,
			Refund:  t.Refund,
		})
	}
	return out
}

// Error is the body of every non-2xx response.
// Code is a registry.Code, or 0 for failures outside the registry.
type Error struct {
	Code    uint32 `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}
