// Package metrics 定義 Prometheus 指標。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medbridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 15, 30},
		},
		[]string{"method", "path"},
	)

	// 業務指標
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbridge_messages_sent_total",
			Help: "Total messages stored",
		},
		[]string{"kind"}, // "text" or "audio"
	)

	TranslationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medbridge_translation_failures_total",
			Help: "Translations that fell back to the original text",
		},
	)

	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbridge_search_queries_total",
			Help: "Total search queries",
		},
		[]string{"outcome"}, // "ok" or "invalid_pattern"
	)

	Summaries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbridge_summaries_total",
			Help: "Summarization requests by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "unavailable"
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medbridge_llm_request_duration_seconds",
			Help:    "Latency of calls to the inference endpoint",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"outcome"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medbridge_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)
)
