package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "itam",
	Subsystem: "authz",
	Name:      "decisions_total",
	Help:      "Capability checks broken down by object and result.",
}, []string{"object", "result"})

func recordDecision(object string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	decisions.WithLabelValues(object, result).Inc()
}
