package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

var (
	submissionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wildproof",
		Subsystem: "registry",
		Name:      "submissions_total",
		Help:      "Number of proof submissions by result",
	}, []string{"result"})

	verificationsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wildproof",
		Subsystem: "registry",
		Name:      "verifications_total",
		Help:      "Number of proof verifications by result",
	}, []string{"result"})

	proofsMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wildproof",
		Subsystem: "registry",
		Name:      "proofs",
		Help:      "Number of proofs stored in the registry",
	})

	feesMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wildproof",
		Subsystem: "registry",
		Name:      "fees_total",
		Help:      "Sum of submission fees transferred to the verifier",
	})
)
