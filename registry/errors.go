package registry

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a registry failure.
// The numeric values are stable and shared with API clients.
type Code uint32

const (
	CodeInvalidProof      Code = 100
	CodeUnauthorized      Code = 101
	CodeNotFound          Code = 102
	CodeAlreadyExists     Code = 103
	CodeInvalidHash       Code = 104
	CodeInvalidTimestamp  Code = 105
	CodeInvalidSpecies    Code = 106
	CodeInvalidPattern    Code = 107
	CodeInvalidSubmitter  Code = 108
	CodeProofExpired      Code = 109
	CodeInvalidRegion     Code = 110
	CodeInvalidHerdSize   Code = 111
	CodeInvalidDuration   Code = 112
	CodeInvalidVerifier   Code = 113
	CodeMaxProofsExceeded Code = 114
	CodeInvalidStatus     Code = 115
	CodeInvalidMetadata   Code = 116
	CodeInvalidScore      Code = 117
	CodeInsufficientStake Code = 118
	CodeAlreadyVerified   Code = 119
	CodeInvalidUpdate     Code = 120
	CodeTransferFailed    Code = 121

	// CodeUnknown is reported by CodeOf for errors that are not registry errors.
	CodeUnknown Code = 0
)

// Error is a registry failure of a specific kind.
type Error struct {
	code Code
	kind string
}

func newError(code Code, kind string) *Error {
	e := &Error{code: code, kind: kind}
	byCode[code] = e
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.kind, e.code)
}

// Code returns the numeric code of the error kind.
func (e *Error) Code() Code {
	return e.code
}

// Kind returns the name of the error kind.
func (e *Error) Kind() string {
	return e.kind
}

var byCode = make(map[Code]*Error)

var (
	// Declared for code compatibility; no operation raises these.
	ErrInvalidProof      = newError(CodeInvalidProof, "InvalidProof")
	ErrInvalidTimestamp  = newError(CodeInvalidTimestamp, "InvalidTimestamp")
	ErrInvalidSubmitter  = newError(CodeInvalidSubmitter, "InvalidSubmitter")
	ErrInvalidStatus     = newError(CodeInvalidStatus, "InvalidStatus")
	ErrInsufficientStake = newError(CodeInsufficientStake, "InsufficientStake")

	ErrUnauthorized      = newError(CodeUnauthorized, "Unauthorized")
	ErrNotFound          = newError(CodeNotFound, "NotFound")
	ErrAlreadyExists     = newError(CodeAlreadyExists, "AlreadyExists")
	ErrInvalidHash       = newError(CodeInvalidHash, "InvalidHash")
	ErrInvalidSpecies    = newError(CodeInvalidSpecies, "InvalidSpecies")
	ErrInvalidPattern    = newError(CodeInvalidPattern, "InvalidPattern")
	ErrProofExpired      = newError(CodeProofExpired, "ProofExpired")
	ErrInvalidRegion     = newError(CodeInvalidRegion, "InvalidRegion")
	ErrInvalidHerdSize   = newError(CodeInvalidHerdSize, "InvalidHerdSize")
	ErrInvalidDuration   = newError(CodeInvalidDuration, "InvalidDuration")
	ErrInvalidVerifier   = newError(CodeInvalidVerifier, "InvalidVerifier")
	ErrMaxProofsExceeded = newError(CodeMaxProofsExceeded, "MaxProofsExceeded")
	ErrInvalidMetadata   = newError(CodeInvalidMetadata, "InvalidMetadata")
	ErrInvalidScore      = newError(CodeInvalidScore, "InvalidScore")
	ErrAlreadyVerified   = newError(CodeAlreadyVerified, "AlreadyVerified")
	ErrInvalidUpdate     = newError(CodeInvalidUpdate, "InvalidUpdate")

	// ErrTransferFailed wraps the ledger error that aborted a submission.
	ErrTransferFailed = newError(CodeTransferFailed, "TransferFailed")
)

// ErrorFromCode returns the sentinel error for a code, or nil if the code is unknown.
func ErrorFromCode(code Code) *Error {
	return byCode[code]
}

// CodeOf returns the code of the registry error wrapped in err, or CodeUnknown.
func CodeOf(err error) Code {
	var target *Error
	if errors.As(err, &target) {
		return target.code
	}
	return CodeUnknown
}
