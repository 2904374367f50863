// Package metrics exposes the bot's Prometheus collectors. Every method is
// safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry   *prometheus.Registry
	updates    *prometheus.CounterVec
	commands   *prometheus.CounterVec
	workflows  *prometheus.CounterVec
	ingest     *prometheus.CounterVec
	writes     *prometheus.CounterVec
	leads      *prometheus.CounterVec
	sessionsFn func() int
}

// New registers the collectors on a private registry. sessions reports the
// number of open dialogues and may be nil.
func New(sessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alevit_updates_total",
			Help: "Telegram updates by kind.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alevit_commands_total",
			Help: "Bot commands by name and authorization outcome.",
		}, []string{"command", "allowed"}),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alevit_workflows_total",
			Help: "Workflow lifecycle events.",
		}, []string{"workflow", "result"}),
		ingest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alevit_ingest_attempts_total",
			Help: "Photo download attempts by result.",
		}, []string{"result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alevit_repository_writes_total",
			Help: "Content document writes.",
		}, []string{"document"}),
		leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alevit_leads_total",
			Help: "Site leads forwarded to admins.",
		}, []string{"result"}),
		sessionsFn: sessions,
	}
	reg.MustRegister(m.updates, m.commands, m.workflows, m.ingest, m.writes, m.leads)
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "alevit_active_sessions",
		Help: "Dialogues currently in progress.",
	}, func() float64 {
		if m.sessionsFn == nil {
			return 0
		}
		return float64(m.sessionsFn())
	}))
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Registry is exposed for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveUpdate(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveCommand(command string, allowed bool) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) ObserveWorkflow(workflow, result string) {
	if m == nil {
		return
	}
	m.workflows.WithLabelValues(workflow, result).Inc()
}

func (m *Metrics) ObserveIngestAttempt(result string) {
	if m == nil {
		return
	}
	m.ingest.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveWrite(document string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(document).Inc()
}

func (m *Metrics) ObserveLead(result string) {
	if m == nil {
		return
	}
	m.leads.WithLabelValues(result).Inc()
}
