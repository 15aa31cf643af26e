package registry_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wildproof/wildproof/registry"
)

func TestErrorCodes(t *testing.T) {
	t.Parallel()
	require.Equal(t, registry.CodeUnauthorized, registry.ErrUnauthorized.Code())
	require.Equal(t, "AlreadyVerified", registry.ErrAlreadyVerified.Kind())
	require.Equal(t, "InvalidVerifier (113)", registry.ErrInvalidVerifier.Error())

	wrapped := fmt.Errorf("submitting: %w", registry.ErrInvalidHash)
	require.Equal(t, registry.CodeInvalidHash, registry.CodeOf(wrapped))
	require.Equal(t, registry.CodeUnknown, registry.CodeOf(errors.New("boom")))
	require.Equal(t, registry.CodeUnknown, registry.CodeOf(nil))
}

func TestErrorFromCode(t *testing.T) {
	t.Parallel()
	for code := registry.CodeInvalidProof; code <= registry.CodeTransferFailed; code++ {
		err := registry.ErrorFromCode(code)
		require.NotNil(t, err, "code %d", code)
		require.Equal(t, code, err.Code())
	}
	require.Same(t, registry.ErrProofExpired, registry.ErrorFromCode(registry.CodeProofExpired))
	require.Nil(t, registry.ErrorFromCode(7))
}
