package registry

import "github.com/aretw0/finjector/pkg/domain"

// RejectReason explains why a registration was dropped.
type RejectReason int

const (
	RejectNil RejectReason = iota
	RejectDisabled
)

func (r RejectReason) String() string {
	switch r {
	case RejectNil:
		return "nil"
	case RejectDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Observer receives the outcome of every registry operation.
// It only observes; the no-op contract of the registry does not change.
type Observer interface {
	ProbeRegistered(module string)
	ProbeRejected(module string, reason RejectReason)
	ProbeDeregistered(module string)
	CommandForwarded(cmd domain.Command)
	CommandDropped(cmd domain.Command)
}

type nopObserver struct{}

func (nopObserver) ProbeRegistered(string) {}
func (nopObserver) ProbeRejected(string, RejectReason) {}
func (nopObserver) ProbeDeregistered(string) {}
func (nopObserver) CommandForwarded(domain.Command) {}
func (nopObserver) CommandDropped(domain.Command) {}
