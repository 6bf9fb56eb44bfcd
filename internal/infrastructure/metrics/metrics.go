// Package metrics exposes pipeline observations as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements ports.Metrics on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	chatRequests       *prometheus.CounterVec
	generationFailures prometheus.Counter
	generationDuration prometheus.Histogram
	chatlogFailures    *prometheus.CounterVec
	corpusEntries      prometheus.Gauge
}

// New registers the collectors plus Go runtime and process metrics.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		chatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_chat_requests_total",
				Help: "Chat requests by pipeline path",
			},
			[]string{"path"},
		),
		generationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "faqbot_generation_failures_total",
			Help: "Completion calls that failed or timed out",
		}),
		generationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "faqbot_generation_duration_seconds",
			Help:    "Completion call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		chatlogFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_chatlog_failures_total",
				Help: "Interaction log problems by kind",
			},
			[]string{"kind"},
		),
		corpusEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "faqbot_corpus_entries",
			Help: "Entries in the live index",
		}),
	}
}

func (p *Prometheus) ObserveChat(path string) {
	p.chatRequests.WithLabelValues(path).Inc()
}

func (p *Prometheus) ObserveGeneration(d time.Duration, err error) {
	p.generationDuration.Observe(d.Seconds())
	if err != nil {
		p.generationFailures.Inc()
	}
}

func (p *Prometheus) ObserveChatlogFailure(kind string) {
	p.chatlogFailures.WithLabelValues(kind).Inc()
}

func (p *Prometheus) SetCorpusEntries(n int) {
	p.corpusEntries.Set(float64(n))
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
