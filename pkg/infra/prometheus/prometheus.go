package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWithPrefix("guardrails_", registry)

var (
	// Agent calls can take tens of seconds.
	latencyBuckets = []float64{
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000, 60000,
	}

	InputVerdictsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "input_verdicts_total",
			Help: "Input validation verdicts by outcome",
		},
		[]string{"outcome"}, // "safe" or "blocked"
	)

	InputFlagsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "input_flags_total",
			Help: "Input validation flags raised",
		},
		[]string{"flag"},
	)

	OutputRedactionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "output_redactions_total",
			Help: "Output sanitization categories applied",
		},
		[]string{"category"},
	)

	AgentCallsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_calls_total",
			Help: "Wrapped agent invocations by result",
		},
		[]string{"result"}, // "ok" or "error"
	)

	AgentLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_latency_ms",
			Help:    "Wrapped agent call latency in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	HTTPRequestsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)
)

type MetricsConfig struct {
	EnableFlags      bool // per-flag input counters
	EnableRedactions bool // per-category output counters
	EnableLatency    bool // agent latency histogram
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnableFlags:      true,
		EnableRedactions: true,
		EnableLatency:    true,
	}
}

var Config = DefaultMetricsConfig()

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

// Gatherer exposes the guardrails registry for the metrics endpoint.
func Gatherer() prometheus.Gatherer {
	return registry
}
