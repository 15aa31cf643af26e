package integration

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wildproof/wildproof/api"
	"github.com/wildproof/wildproof/registry"
)

func spawnHarness(t *testing.T, cfg *ServerConfig) *Harness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	h, err := NewHarness(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, h.TearDown()) })
	return h
}

func TestHarness(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the daemon")
	}
	cfg, err := DefaultConfig(t.TempDir())
	require.NoError(t, err)
	cfg.Verifier = "ST2VERIFIER"
	cfg.Balances = map[string]uint64{"ST1TEST": 600}
	h := spawnHarness(t, cfg)
	ctx := context.Background()

	sub, err := h.Client("ST1TEST")
	require.NoError(t, err)
	ver, err := h.Client("ST2VERIFIER")
	require.NoError(t, err)

	req := api.SubmitRequest{
		ProofHash:   bytes.Repeat([]byte{1}, registry.HashSize),
		DataHash:    bytes.Repeat([]byte{2}, registry.HashSize),
		Species:     "Elephant",
		PatternType: "migration",
		Region:      "Africa",
		HerdSize:    50,
		Duration:    30,
		Score:       80,
	}
	id, err := sub.Submit(ctx, req)
	require.NoError(t, err)
	require.Zero(t, id)

	// the balance only covers one fee
	req.ProofHash = bytes.Repeat([]byte{3}, registry.HashSize)
	_, err = sub.Submit(ctx, req)
	require.ErrorIs(t, err, registry.ErrTransferFailed)

	update, err := ver.Verify(ctx, id, true, 95)
	require.NoError(t, err)
	require.True(t, update.NewStatus)

	count, err := sub.ProofCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
	require.Contains(t, h.Stdout(), "starting wildproof")
}

func TestHarnessAdminOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the daemon")
	}
	cfg, err := DefaultConfig(t.TempDir())
	require.NoError(t, err)
	h := spawnHarness(t, cfg)
	ctx := context.Background()

	stranger, err := h.Client("ST3FAKE")
	require.NoError(t, err)
	_, err = stranger.SetVerifier(ctx, "ST3FAKE")
	require.ErrorIs(t, err, registry.ErrUnauthorized)

	admin, err := h.Client(cfg.Admin)
	require.NoError(t, err)
	settings, err := admin.SetVerifier(ctx, "ST2VERIFIER")
	require.NoError(t, err)
	require.Equal(t, "ST2VERIFIER", settings.Verifier)
}
