package registry

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

func DefaultConfig() Config {
	return Config{
		Admin:         "admin",
		MaxProofs:     10000,
		SubmissionFee: 500,
		MinStake:      1000,
		ProofExpiry:   144,
		CacheSize:     1024,
	}
}

//nolint:lll
type Config struct {
	Admin         string `long:"admin"          description:"Principal allowed to change the registry configuration"`
	Verifier      string `long:"verifier"       description:"Initial verifier principal (submissions are rejected until one is set)"`
	MaxProofs     uint64 `long:"max-proofs"     description:"Maximum number of proofs the registry accepts"`
	SubmissionFee uint64 `long:"submission-fee" description:"Amount transferred from the submitter to the verifier on each submission"`
	MinStake      uint64 `long:"min-stake"      description:"Minimum stake (stored, not enforced)"`
	ProofExpiry   uint64 `long:"proof-expiry"   description:"Number of time units after submission within which a proof can be verified"`
	CacheSize     int    `long:"cache-size"     description:"Number of decoded proofs kept in memory"`
}

func (c Config) settings() Settings {
	return Settings{
		Admin:         Identity(c.Admin),
		Verifier:      Identity(c.Verifier),
		MaxProofs:     c.MaxProofs,
		SubmissionFee: c.SubmissionFee,
		MinStake:      c.MinStake,
		ProofExpiry:   c.ProofExpiry,
	}
}

// Validate applies the same constraints as the admin setters.
func (c Config) Validate() error {
	switch {
	case c.Admin == "":
		return fmt.Errorf("%w: admin must be set", ErrInvalidUpdate)
	case c.MaxProofs == 0:
		return fmt.Errorf("%w: max proofs must be positive", ErrInvalidUpdate)
	case c.MinStake == 0:
		return fmt.Errorf("%w: min stake must be positive", ErrInvalidUpdate)
	case c.ProofExpiry == 0:
		return fmt.Errorf("%w: proof expiry must be positive", ErrInvalidUpdate)
	case c.CacheSize <= 0:
		return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
	}
	return nil
}

// implement zap.ObjectMarshaler interface.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if err := c.settings().MarshalLogObject(enc); err != nil {
		return err
	}
	enc.AddInt("cache-size", c.CacheSize)
	return nil
}
