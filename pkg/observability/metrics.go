package observability

import (
	"net/http"
	"strconv"

	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finjector"

// Registration outcomes.
const (
	OutcomeAccepted         = "accepted"
	OutcomeRejectedNil      = "rejected_nil"
	OutcomeRejectedDisabled = "rejected_disabled"
)

// Command outcomes.
const (
	OutcomeForwarded = "forwarded"
	OutcomeDropped   = "dropped"
)

// Metrics holds the collectors shared by every shard.
type Metrics struct {
	registrations   *prometheus.CounterVec
	deregistrations *prometheus.CounterVec
	commands        *prometheus.CounterVec
	registered      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_registrations_total",
				Help:      "Probe registration attempts by outcome",
			},
			[]string{"shard", "outcome"},
		),
		deregistrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_deregistrations_total",
				Help:      "Probes removed from a registry",
			},
			[]string{"shard"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fault_commands_total",
				Help:      "Fault commands by fault type and outcome",
			},
			[]string{"shard", "fault", "outcome"},
		),
		registered: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_probes",
				Help:      "Probes currently registered",
			},
			[]string{"shard"},
		),
	}

	for _, c := range []prometheus.Collector{m.registrations, m.deregistrations, m.commands, m.registered} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ForShard returns an observer labelled with the shard id.
// The observer must only be used by that shard's registry.
func (m *Metrics) ForShard(id int) registry.Observer {
	label := strconv.Itoa(id)
	m.registered.WithLabelValues(label).Set(0)
	return &shardObserver{
		metrics: m,
		shard:   label,
		modules: make(map[string]struct{}),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// shardObserver tracks registered modules itself so that overwrites keep the gauge steady.
type shardObserver struct {
	metrics *Metrics
	shard   string
	modules map[string]struct{}
}

func (o *shardObserver) ProbeRegistered(module string) {
	o.metrics.registrations.WithLabelValues(o.shard, OutcomeAccepted).Inc()
	o.modules[module] = struct{}{}
	o.metrics.registered.WithLabelValues(o.shard).Set(float64(len(o.modules)))
}

func (o *shardObserver) ProbeRejected(module string, reason registry.RejectReason) {
	outcome := OutcomeRejectedNil
	if reason == registry.RejectDisabled {
		outcome = OutcomeRejectedDisabled
	}
	o.metrics.registrations.WithLabelValues(o.shard, outcome).Inc()
}

func (o *shardObserver) ProbeDeregistered(module string) {
	o.metrics.deregistrations.WithLabelValues(o.shard).Inc()
	delete(o.modules, module)
	o.metrics.registered.WithLabelValues(o.shard).Set(float64(len(o.modules)))
}

func (o *shardObserver) CommandForwarded(cmd domain.Command) {
	o.metrics.commands.WithLabelValues(o.shard, cmd.Fault.String(), OutcomeForwarded).Inc()
}

func (o *shardObserver) CommandDropped(cmd domain.Command) {
	o.metrics.commands.WithLabelValues(o.shard, cmd.Fault.String(), OutcomeDropped).Inc()
}
