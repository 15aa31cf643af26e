package server_test

// End to end tests running a wildproof server and talking to it over HTTP.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/wildproof/wildproof/logging"
	"github.com/wildproof/wildproof/server"
)

const randomHost = "localhost:0"

func spawnServer(t *testing.T, cfg *server.Config) *server.Server {
	t.Helper()
	req := require.New(t)

	cfg.Dir = t.TempDir()
	cfg.RawRESTListener = randomHost
	_, err := server.SetupConfig(cfg)
	req.NoError(err)

	srv, err := server.New(context.Background(), *cfg)
	req.NoError(err)
	t.Cleanup(func() { assert.NoError(t, srv.Close()) })
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerStartAndShutdown(t *testing.T) {
	t.Parallel()
	port := uint16(0)
	cfg := server.DefaultConfig()
	cfg.MetricsPort = &port
	srv := spawnServer(t, cfg)
	require.NotNil(t, srv.MetricsAddr())

	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), zaptest.NewLogger(t)))
	defer cancel()
	var eg errgroup.Group
	eg.Go(func() error { return srv.Start(ctx) })

	settingsURL := fmt.Sprintf("http://%s/v1/settings", srv.RestAddr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(settingsURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second*5, time.Millisecond*20)

	status, body := get(t, settingsURL)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"admin":"admin"`)

	status, body = get(t, fmt.Sprintf("http://%s/metrics", srv.MetricsAddr()))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "wildproof_registry_proofs")

	cancel()
	require.NoError(t, eg.Wait())
}

func TestServerWithoutMetrics(t *testing.T) {
	t.Parallel()
	srv := spawnServer(t, server.DefaultConfig())
	require.Nil(t, srv.MetricsAddr())
	require.NotNil(t, srv.Registry())
	require.NotNil(t, srv.Ledger())
}

func TestServerEnforcesConfiguredBalances(t *testing.T) {
	t.Parallel()
	cfg := server.DefaultConfig()
	cfg.Balances = map[string]uint64{"ST1TEST": 42}
	srv := spawnServer(t, cfg)

	balance, tracked := srv.Ledger().Balance("ST1TEST")
	require.True(t, tracked)
	require.Equal(t, uint64(42), balance)
}

func TestServerRejectsInvalidListener(t *testing.T) {
	t.Parallel()
	cfg := server.DefaultConfig()
	cfg.RawRESTListener = "not a host:port"
	_, err := server.New(context.Background(), *cfg)
	require.Error(t, err)
}
