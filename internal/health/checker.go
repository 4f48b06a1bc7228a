package health

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckResult represents the health of a single dependency.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResult is the top-level health response.
type HealthResult struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Checker reports whether the service has what it needs to mint tokens and
// deliver verification emails. The service is stateless, so readiness is a
// question of configuration, not of reachable backends.
type Checker struct {
	signingReady bool
	mailReady    bool
	logger       *slog.Logger
	gauge        *prometheus.GaugeVec
}

// NewChecker creates a health checker and registers its Prometheus gauge.
func NewChecker(signingReady, mailReady bool, logger *slog.Logger, reg prometheus.Registerer) *Checker {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "auth",
		Name:      "health_check_up",
		Help:      "Whether a dependency is usable. 1 = up, 0 = down.",
	}, []string{"dependency"})
	reg.MustRegister(gauge)

	return &Checker{
		signingReady: signingReady,
		mailReady:    mailReady,
		logger:       logger.With("component", "health"),
		gauge:        gauge,
	}
}

// Liveness returns a simple "up" response if the process is running.
func (c *Checker) Liveness(_ context.Context) HealthResult {
	return HealthResult{Status: "up"}
}

// Readiness reports per-dependency status for the signing secret and the
// mail credential.
func (c *Checker) Readiness(_ context.Context) HealthResult {
	result := HealthResult{
		Status: "up",
		Checks: make(map[string]CheckResult),
	}

	c.check(&result, "signing", c.signingReady, "signing secret not configured")
	c.check(&result, "mail", c.mailReady, "mail credential not configured")
	return result
}

func (c *Checker) check(result *HealthResult, name string, ready bool, reason string) {
	if !ready {
		c.logger.Warn("health check failed", "dependency", name, "reason", reason)
		result.Status = "down"
		result.Checks[name] = CheckResult{Status: "down", Error: reason}
		c.gauge.WithLabelValues(name).Set(0)
		return
	}
	result.Checks[name] = CheckResult{Status: "up"}
	c.gauge.WithLabelValues(name).Set(1)
}
