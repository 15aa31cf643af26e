package registry

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSubmissionMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verifier = "ST2VERIFIER"
	reg, err := New(context.Background(), WithConfig(cfg), WithClock(NewManualClock(0)))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	accepted := testutil.ToFloat64(submissionsMetric.WithLabelValues(resultAccepted))
	rejected := testutil.ToFloat64(submissionsMetric.WithLabelValues(resultRejected))
	fees := testutil.ToFloat64(feesMetric)

	sub := Submission{
		ProofHash:   bytes.Repeat([]byte{1}, HashSize),
		DataHash:    bytes.Repeat([]byte{2}, HashSize),
		Species:     "Wildebeest",
		PatternType: PatternMigration,
		Region:      "Serengeti",
		HerdSize:    1000,
		Duration:    60,
	}
	_, err = reg.Submit(context.Background(), "ST1TEST", sub)
	require.NoError(t, err)
	_, err = reg.Submit(context.Background(), "ST1TEST", sub)
	require.ErrorIs(t, err, ErrAlreadyExists)

	require.Equal(t, accepted+1, testutil.ToFloat64(submissionsMetric.WithLabelValues(resultAccepted)))
	require.Equal(t, rejected+1, testutil.ToFloat64(submissionsMetric.WithLabelValues(resultRejected)))
	require.Equal(t, fees+500, testutil.ToFloat64(feesMetric))

	verified := testutil.ToFloat64(verificationsMetric.WithLabelValues(resultAccepted))
	_, err = reg.Verify(context.Background(), "ST2VERIFIER", 0, true, 70)
	require.NoError(t, err)
	require.Equal(t, verified+1, testutil.ToFloat64(verificationsMetric.WithLabelValues(resultAccepted)))
}
