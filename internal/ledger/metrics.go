package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// outcomes counts ledger operations by operation, purpose and result.
	outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_outcomes_total",
		Help: "Ledger operations by operation, purpose and result",
	}, []string{"op", "purpose", "result"})

	// sweptTotal counts entries removed by the memory ledger sweeper.
	sweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_swept_total",
		Help: "Expired ledger entries removed by garbage collection",
	})
)

func observe(op string, purpose Purpose, r Result) {
	outcomes.WithLabelValues(op, string(purpose), r.String()).Inc()
}
