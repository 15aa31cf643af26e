package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/wildproof/wildproof/logging"
)

func TestContextRoundTrip(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := logging.NewContext(context.Background(), logger)
	require.Same(t, logger, logging.FromContext(ctx))
}

func TestFromEmptyContext(t *testing.T) {
	require.NotNil(t, logging.FromContext(context.Background()))
}

func TestFileReceivesDebugAsJSON(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Filename = filepath.Join(t.TempDir(), "wildproof.log")
	logger := logging.New(cfg)
	logger.Debug("observed", zap.String("species", "Elephant"))
	_ = logger.Sync() // stdout may not support fsync

	data, err := os.ReadFile(cfg.Filename)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "Elephant", entry["species"])
	require.Equal(t, "observed", entry["msg"])
}
