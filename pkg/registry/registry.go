package registry

import (
	"log/slog"
	"reflect"

	"github.com/aretw0/finjector/internal/logging"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/probe"
)

// Registry manages the probes registered on one shard.
type Registry struct {
	probes   map[string]probe.Probe
	logger   *slog.Logger
	observer Observer
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for registry diagnostics. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver attaches an Observer notified of every admission and dispatch outcome.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		probes:   make(map[string]probe.Probe),
		logger:   logging.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProbe adds p under name if p is non-nil and enabled.
// If a probe with the same name exists, it is overwritten.
func (r *Registry) RegisterProbe(name string, p probe.Probe) {
	if isNil(p) {
		r.logger.Debug("Invalid probe", domain.KeyModule, name, "reason", RejectNil.String())
		r.observer.ProbeRejected(name, RejectNil)
		return
	}
	if !p.IsEnabled() {
		r.logger.Debug("Invalid probe", domain.KeyModule, name, "reason", RejectDisabled.String())
		r.observer.ProbeRejected(name, RejectDisabled)
		return
	}
	logging.Trace(r.logger, "Probe registration", domain.KeyModule, name)
	r.probes[name] = p
	r.observer.ProbeRegistered(name)
}

// DeregisterProbe removes the probe registered under name, if any.
func (r *Registry) DeregisterProbe(name string) {
	if _, ok := r.probes[name]; !ok {
		return
	}
	logging.Trace(r.logger, "Probe deregistration", domain.KeyModule, name)
	delete(r.probes, name)
	r.observer.ProbeDeregistered(name)
}

// SetException arms point of module with an exception fault.
func (r *Registry) SetException(module, point string) {
	r.dispatch(domain.Command{Module: module, Point: point, Fault: domain.FaultException})
}

// SetDelay arms point of module with a delay fault.
func (r *Registry) SetDelay(module, point string) {
	r.dispatch(domain.Command{Module: module, Point: point, Fault: domain.FaultDelay})
}

// SetTermination arms point of module with a termination fault.
func (r *Registry) SetTermination(module, point string) {
	r.dispatch(domain.Command{Module: module, Point: point, Fault: domain.FaultTermination})
}

// Unset disarms point of module.
func (r *Registry) Unset(module, point string) {
	r.dispatch(domain.Command{Module: module, Point: point, Fault: domain.FaultNone})
}

// Apply routes cmd to the operation matching its fault.
// Unknown fault values are dropped like unknown modules.
func (r *Registry) Apply(cmd domain.Command) {
	r.dispatch(cmd)
}

// Points returns a fresh snapshot of every registered module's current points.
func (r *Registry) Points() domain.Snapshot {
	out := make(domain.Snapshot, len(r.probes))
	for module, p := range r.probes {
		out[module] = p.Points()
	}
	return out
}

// Has reports whether a probe is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.probes[name]
	return ok
}

// Len returns the number of registered probes.
func (r *Registry) Len() int {
	return len(r.probes)
}

func (r *Registry) dispatch(cmd domain.Command) {
	p, ok := r.probes[cmd.Module]
	if !ok {
		r.logger.Debug("Dropping command for unknown module", domain.KeyModule, cmd.Module, domain.KeyPoint, cmd.Point, domain.KeyFault, cmd.Fault.String())
		r.observer.CommandDropped(cmd)
		return
	}
	switch cmd.Fault {
	case domain.FaultException:
		r.logger.Debug("Setting exception probe", domain.KeyModule, cmd.Module, domain.KeyPoint, cmd.Point)
		p.SetException(cmd.Point)
	case domain.FaultDelay:
		r.logger.Debug("Setting delay probe", domain.KeyModule, cmd.Module, domain.KeyPoint, cmd.Point)
		p.SetDelay(cmd.Point)
	case domain.FaultTermination:
		r.logger.Debug("Setting termination probe", domain.KeyModule, cmd.Module, domain.KeyPoint, cmd.Point)
		p.SetTermination(cmd.Point)
	case domain.FaultNone:
		r.logger.Debug("Unsetting probes", domain.KeyModule, cmd.Module, domain.KeyPoint, cmd.Point)
		p.Unset(cmd.Point)
	default:
		r.logger.Debug("Dropping command with unknown fault", domain.KeyModule, cmd.Module, domain.KeyPoint, cmd.Point, domain.KeyFault, cmd.Fault.String())
		r.observer.CommandDropped(cmd)
		return
	}
	r.observer.CommandForwarded(cmd)
}

// isNil also catches typed nil pointers stored in the interface.
func isNil(p probe.Probe) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
