package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels used by the counters below.
const (
	resultSuccess  = "success"
	resultFailure  = "failure"
	resultConflict = "conflict"
	resultNotFound = "not_found"
)

// Metrics holds the custom Prometheus counters of the backend
type Metrics struct {
	Logins        *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	RobotClaims   *prometheus.CounterVec
}

// metrics is registered once with the default registry, which fiberprometheus also serves.
var metrics = &Metrics{
	Logins: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "michi_logins_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"}),

	Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "michi_registrations_total",
		Help: "Total number of registrations by result",
	}, []string{"result"}),

	RobotClaims: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "michi_robot_claims_total",
		Help: "Total number of robot claims by result",
	}, []string{"result"}),
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return metrics
}
