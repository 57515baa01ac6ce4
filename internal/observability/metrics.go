package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Command outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeForbidden = "forbidden"
	OutcomeUserError = "user_error"
	OutcomeFailed    = "failed"
	OutcomePanic     = "panic"
)

// Metrics is the bot's Prometheus instrumentation. A nil *Metrics records nothing.
type Metrics struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	purgedMessages  prometheus.Counter
	purgeRuns       *prometheus.CounterVec
	escalations     prometheus.Counter
	welcomes        prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupguard_commands_total",
				Help: "Commands handled, by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "groupguard_command_duration_seconds",
				Help:    "Time spent handling commands",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		purgedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groupguard_purged_messages_total",
			Help: "Message ids submitted for deletion by purge",
		}),
		purgeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupguard_purge_runs_total",
				Help: "Purge runs, by result",
			},
			[]string{"result"},
		),
		escalations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groupguard_warn_escalations_total",
			Help: "Warnings that reached the limit and triggered a mute",
		}),
		welcomes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groupguard_welcomes_total",
			Help: "Welcome messages sent to new members",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.commands, m.commandDuration, m.purgedMessages, m.purgeRuns, m.escalations, m.welcomes)
	}
	return m
}

// StartCommand returns a func that records the command once its outcome is known.
func (m *Metrics) StartCommand(command string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	return func(outcome string) {
		m.commands.WithLabelValues(command, outcome).Inc()
		m.commandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObservePurge(count, failedBatches int) {
	if m == nil {
		return
	}
	m.purgedMessages.Add(float64(count))
	switch {
	case count == 0:
		m.purgeRuns.WithLabelValues("empty").Inc()
	case failedBatches > 0:
		m.purgeRuns.WithLabelValues("partial").Inc()
	default:
		m.purgeRuns.WithLabelValues("ok").Inc()
	}
}

func (m *Metrics) ObserveEscalation() {
	if m == nil {
		return
	}
	m.escalations.Inc()
}

func (m *Metrics) ObserveWelcome() {
	if m == nil {
		return
	}
	m.welcomes.Inc()
}

// CacheStats is implemented by the admin status cache.
type CacheStats interface {
	Lookups() int64
	Hits() int64
	Len() int
}

// WatchAdminCache exports cache counters as gauges read at scrape time.
func WatchAdminCache(reg prometheus.Registerer, cache CacheStats) {
	if reg == nil || cache == nil {
		return
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "groupguard_admin_cache_lookups",
			Help: "Remote member status lookups issued by the admin cache",
		}, func() float64 { return float64(cache.Lookups()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "groupguard_admin_cache_hits",
			Help: "Admin checks answered from memory",
		}, func() float64 { return float64(cache.Hits()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "groupguard_admin_cache_entries",
			Help: "Entries held by the admin cache",
		}, func() float64 { return float64(cache.Len()) }),
	)
}
