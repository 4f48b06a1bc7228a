package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thiagohmg/capitaoanimais/internal/health"
)

var (
	// Verification flow

	VerificationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "verification_requests_total",
		Help:      "Verification requests, by outcome (sent, email_failed).",
	}, []string{"outcome"})

	CodeConfirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "code_confirmations_total",
		Help:      "Code confirmation attempts, by outcome (ok, mismatch).",
	}, []string{"outcome"})

	SessionsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "sessions_issued_total",
		Help:      "Session tokens minted, by entry path (code, link).",
	}, []string{"via"})

	EmailSendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "auth",
		Name:      "email_send_duration_seconds",
		Help:      "Latency of outbound verification emails.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "auth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		VerificationRequests,
		CodeConfirmations,
		SessionsIssued,
		EmailSendDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer returns the operational server exposing Prometheus metrics and
// the health endpoints, separate from the public listener.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
