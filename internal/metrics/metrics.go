// Package metrics provides Prometheus metrics for strm123.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway outcome labels.
const (
	OutcomeRedirect   = "redirect"
	OutcomeBadRequest = "bad_request"
	OutcomeAuthError  = "auth_error"
	OutcomeUpstream   = "upstream_error"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strm123_gateway_requests_total",
			Help: "Total number of gateway requests by outcome",
		},
		[]string{"outcome"},
	)

	sessionLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strm123_session_logins_total",
			Help: "Total number of sign-in attempts by result",
		},
		[]string{"result"},
	)

	mirrorRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strm123_mirror_runs_total",
			Help: "Total number of completed mirror runs",
		},
	)

	mirrorEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strm123_mirror_entries_total",
			Help: "Total number of mirrored entries by kind",
		},
		[]string{"kind"},
	)
)

// RecordGatewayRequest counts one gateway request with the given outcome.
func RecordGatewayRequest(outcome string) {
	gatewayRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordLogin counts one sign-in attempt.
func RecordLogin(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}

	sessionLoginsTotal.WithLabelValues(result).Inc()
}

// RecordMirrorRun adds a finished run's tally.
func RecordMirrorRun(video, subtitle, errs int) {
	mirrorRunsTotal.Inc()
	mirrorEntriesTotal.WithLabelValues("video").Add(float64(video))
	mirrorEntriesTotal.WithLabelValues("subtitle").Add(float64(subtitle))
	mirrorEntriesTotal.WithLabelValues("error").Add(float64(errs))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
