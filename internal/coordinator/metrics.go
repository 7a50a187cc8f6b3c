package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cartsync",
		Name:      "operations_total",
		Help:      "Cart operations by name and result.",
	}, []string{"operation", "result"})

	mergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cartsync",
		Name:      "merges_total",
		Help:      "Guest cart merge attempts by result.",
	}, []string{"result"})
)

func recordOperation(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
}
