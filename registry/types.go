package registry

import (
	"bytes"

	"go.uber.org/zap/zapcore"
)

const (
	HashSize          = 32
	MaxSpeciesLength  = 50
	MaxRegionLength   = 100
	MaxMetadataLength = 256
	MaxScore          = 100
)

// Identity is an opaque principal. The empty identity means "unset".
type Identity string

type PatternType string

const (
	PatternMigration PatternType = "migration"
	PatternBreeding  PatternType = "breeding"
	PatternFeeding   PatternType = "feeding"
)

var patternTypes = []PatternType{PatternMigration, PatternBreeding, PatternFeeding}

// Submission holds the caller-supplied fields of a new proof.
type Submission struct {
	ProofHash   []byte
	DataHash    []byte
	Species     string
	PatternType PatternType
	Region      string
	HerdSize    uint64
	Duration    uint64
	Metadata    []byte
	Score       uint32
}

// Proof is a stored submission.
// Status flips from false to true at most once, by Verify.
type Proof struct {
	ProofHash   []byte
	DataHash    []byte
	Submitter   Identity
	Timestamp   uint64
	Species     string
	PatternType PatternType
	Region      string
	HerdSize    uint64
	Duration    uint64
	Metadata    []byte
	Status      bool
	Score       uint32
}

func (p *Proof) clone() *Proof {
	c := *p
	c.ProofHash = bytes.Clone(p.ProofHash)
	c.DataHash = bytes.Clone(p.DataHash)
	c.Metadata = bytes.Clone(p.Metadata)
	return &c
}

// ProofUpdate is the audit record written by a successful verification.
type ProofUpdate struct {
	UpdateTimestamp uint64
	Updater         Identity
	NewStatus       bool
	NewScore        uint32
}

// Settings is the admin-mutable configuration of a registry.
type Settings struct {
	Admin         Identity
	Verifier      Identity
	MaxProofs     uint64
	SubmissionFee uint64
	// MinStake is stored and settable but not enforced by any operation.
	MinStake    uint64
	ProofExpiry uint64
}

// implement zap.ObjectMarshaler interface.
func (s Settings) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("admin", string(s.Admin))
	enc.AddString("verifier", string(s.Verifier))
	enc.AddUint64("max-proofs", s.MaxProofs)
	enc.AddUint64("submission-fee", s.SubmissionFee)
	enc.AddUint64("min-stake", s.MinStake)
	enc.AddUint64("proof-expiry", s.ProofExpiry)
	return nil
}
