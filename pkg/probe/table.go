package probe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/finjector/internal/logging"
	"github.com/aretw0/finjector/pkg/domain"
)

// DefaultDelay is how long a delay-armed point sleeps unless WithDelay is given.
const DefaultDelay = 100 * time.Millisecond

// Table is a Probe backed by an ordered table of points.
type Table struct {
	enabled   bool
	order     []string
	faults    map[string]domain.FaultType
	delay     time.Duration
	terminate func(point string)
	logger    *slog.Logger
}

var _ Probe = (*Table)(nil)

// Option configures a Table.
type Option func(*Table)

// WithDelay sets the sleep applied by delay-armed points.
func WithDelay(d time.Duration) Option {
	return func(t *Table) {
		t.delay = d
	}
}

// WithTerminate replaces the process termination hook.
func WithTerminate(fn func(point string)) Option {
	return func(t *Table) {
		t.terminate = fn
	}
}

// WithLogger configures a logger for point diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a probe with the given points, all disarmed.
// Duplicate point names are collapsed, keeping the first position.
func New(enabled bool, points []string, opts ...Option) *Table {
	t := &Table{
		enabled: enabled,
		faults:  make(map[string]domain.FaultType, len(points)),
		delay:   DefaultDelay,
		logger:  logging.NewNop(),
	}
	for _, p := range points {
		if _, dup := t.faults[p]; dup {
			continue
		}
		t.order = append(t.order, p)
		t.faults[p] = domain.FaultNone
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.terminate == nil {
		t.terminate = func(point string) {
			t.logger.Error("Terminating on injected fault", "point", point)
			os.Exit(1)
		}
	}
	return t
}

// IsEnabled implements Probe.
func (t *Table) IsEnabled() bool {
	return t.enabled
}

// SetException implements Probe.
func (t *Table) SetException(point string) {
	t.arm(point, domain.FaultException)
}

// SetDelay implements Probe.
func (t *Table) SetDelay(point string) {
	t.arm(point, domain.FaultDelay)
}

// SetTermination implements Probe.
func (t *Table) SetTermination(point string) {
	t.arm(point, domain.FaultTermination)
}

// Unset implements Probe.
func (t *Table) Unset(point string) {
	t.arm(point, domain.FaultNone)
}

// Points implements Probe.
func (t *Table) Points() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Fault reports what point is armed with. Unknown points report FaultNone.
func (t *Table) Fault(point string) domain.FaultType {
	return t.faults[point]
}

// Inject applies the fault armed on point.
//
// An exception fault returns an error wrapping domain.ErrInjectedFailure. A delay
// fault sleeps for the configured delay or until ctx is done. A termination fault
// calls the terminate hook, which does not return by default.
func (t *Table) Inject(ctx context.Context, point string) error {
	switch t.faults[point] {
	case domain.FaultException:
		return fmt.Errorf("%w: exception at %s", domain.ErrInjectedFailure, point)
	case domain.FaultDelay:
		timer := time.NewTimer(t.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	case domain.FaultTermination:
		t.terminate(point)
		return fmt.Errorf("%w: termination at %s", domain.ErrInjectedFailure, point)
	default:
		return nil
	}
}

func (t *Table) arm(point string, fault domain.FaultType) {
	if _, ok := t.faults[point]; !ok {
		t.logger.Debug("Ignoring unknown probe point", "point", point, "fault", fault.String())
		return
	}
	t.faults[point] = fault
}
