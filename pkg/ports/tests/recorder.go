package tests

import (
	"context"
	"sync"

	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/ports"
)

// RecordingController is a ports.Controller fake that records every command.
type RecordingController struct {
	mu       sync.Mutex
	commands []domain.Command

	// Snapshot is returned by Points.
	Snapshot domain.Snapshot
	// Err, when set, is returned by every call.
	Err error
}

var _ ports.Controller = (*RecordingController)(nil)

// Commands returns a copy of the commands recorded so far.
func (r *RecordingController) Commands() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Command, len(r.commands))
	copy(out, r.commands)
	return out
}

func (r *RecordingController) SetException(ctx context.Context, module, point string) error {
	return r.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultException})
}

func (r *RecordingController) SetDelay(ctx context.Context, module, point string) error {
	return r.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultDelay})
}

func (r *RecordingController) SetTermination(ctx context.Context, module, point string) error {
	return r.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultTermination})
}

func (r *RecordingController) Unset(ctx context.Context, module, point string) error {
	return r.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultNone})
}

func (r *RecordingController) Apply(ctx context.Context, cmd domain.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.commands = append(r.commands, cmd)
	return nil
}

func (r *RecordingController) Points(ctx context.Context) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Snapshot, nil
}
