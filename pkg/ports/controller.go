package ports

import (
	"context"

	"github.com/aretw0/finjector/pkg/domain"
)

// Controller is the administrative control surface of the fault injector.
//
// Commands that target an unknown module succeed silently. Errors only report that
// the command could not be delivered (cancelled context, closed runtime).
type Controller interface {
	SetException(ctx context.Context, module, point string) error
	SetDelay(ctx context.Context, module, point string) error
	SetTermination(ctx context.Context, module, point string) error
	Unset(ctx context.Context, module, point string) error

	// Apply routes cmd to the operation matching cmd.Fault.
	Apply(ctx context.Context, cmd domain.Command) error

	// Points returns a fresh module to points snapshot.
	Points(ctx context.Context) (domain.Snapshot, error)
}
