// Package telemetry holds the Prometheus instruments for the adapter
// layer. Everything is registered on the default registry and served by
// promhttp in the demo service.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts accepted connections by adapter kind and method.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connkit_requests_total",
		Help: "Connections accepted, by adapter kind and request method.",
	}, []string{"adapter", "method"})

	// ResponsesTotal counts committed responses by status class and mode.
	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connkit_responses_total",
		Help: "Responses committed, by status class (2xx..5xx) and mode (full|chunked).",
	}, []string{"class", "mode"})

	// BodyBytesTotal counts request-body bytes pulled through the
	// streaming reader.
	BodyBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connkit_body_bytes_total",
		Help: "Request body bytes streamed from adapters.",
	})

	// BodyTooLargeTotal counts streaming reads rejected over the limit.
	BodyTooLargeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connkit_body_too_large_total",
		Help: "Request bodies rejected for exceeding the caller limit.",
	})

	// UploadsSpooledTotal counts multipart file parts spooled to disk.
	UploadsSpooledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connkit_uploads_spooled_total",
		Help: "Multipart file parts spooled to temp files.",
	})

	// SweepRunsTotal counts upload-ledger sweep runs.
	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connkit_sweep_runs_total",
		Help: "Upload ledger sweep runs.",
	})

	// SweepRemovedTotal counts temp files removed by the sweeper.
	SweepRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connkit_sweep_removed_total",
		Help: "Orphaned upload temp files removed by the sweeper.",
	})
)

// ObserveResponse records one committed response.
func ObserveResponse(status int, mode string) {
	class := "2xx"
	if status >= 100 && status < 600 {
		class = strconv.Itoa(status/100) + "xx"
	}
	ResponsesTotal.WithLabelValues(class, mode).Inc()
}
