package tests

import (
	"context"
	"testing"

	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/ports"
)

// FaultReader reports the fault currently armed on a module point, as seen by the probe.
type FaultReader func(module, point string) domain.FaultType

// ControllerContractTest is a reusable test suite that verifies if an implementation
// complies with ports.Controller.
//
// The controller must already expose module "storage" with points "write" and "flush",
// both disarmed, and must not know module "ghost".
func ControllerContractTest(t *testing.T, ctrl ports.Controller, fault FaultReader) {
	t.Helper()
	ctx := context.Background()

	t.Run("Points", func(t *testing.T) {
		snap, err := ctrl.Points(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing points: %v", err)
		}
		got := snap["storage"]
		if len(got) != 2 || got[0] != "write" || got[1] != "flush" {
			t.Errorf("storage points = %v, want [write flush]", got)
		}
		if _, ok := snap["ghost"]; ok {
			t.Error("unexpected ghost module in snapshot")
		}
	})

	t.Run("ArmAndDisarm", func(t *testing.T) {
		steps := []struct {
			call func() error
			want domain.FaultType
		}{
			{func() error { return ctrl.SetException(ctx, "storage", "write") }, domain.FaultException},
			{func() error { return ctrl.SetDelay(ctx, "storage", "write") }, domain.FaultDelay},
			{func() error { return ctrl.SetTermination(ctx, "storage", "write") }, domain.FaultTermination},
			{func() error { return ctrl.Unset(ctx, "storage", "write") }, domain.FaultNone},
		}
		for i, step := range steps {
			if err := step.call(); err != nil {
				t.Fatalf("step %d: unexpected error: %v", i, err)
			}
			if got := fault("storage", "write"); got != step.want {
				t.Errorf("step %d: fault = %s, want %s", i, got, step.want)
			}
		}
	})

	t.Run("Apply", func(t *testing.T) {
		cmd := domain.Command{Module: "storage", Point: "flush", Fault: domain.FaultDelay}
		if err := ctrl.Apply(ctx, cmd); err != nil {
			t.Fatalf("unexpected error applying %s: %v", cmd, err)
		}
		if got := fault("storage", "flush"); got != domain.FaultDelay {
			t.Errorf("fault = %s, want delay", got)
		}
		cmd.Fault = domain.FaultNone
		if err := ctrl.Apply(ctx, cmd); err != nil {
			t.Fatalf("unexpected error applying %s: %v", cmd, err)
		}
		if got := fault("storage", "flush"); got != domain.FaultNone {
			t.Errorf("fault = %s, want none", got)
		}
	})

	t.Run("UnknownModuleIsNoop", func(t *testing.T) {
		for _, call := range []func() error{
			func() error { return ctrl.SetException(ctx, "ghost", "write") },
			func() error { return ctrl.SetDelay(ctx, "ghost", "write") },
			func() error { return ctrl.SetTermination(ctx, "ghost", "write") },
			func() error { return ctrl.Unset(ctx, "ghost", "write") },
		} {
			if err := call(); err != nil {
				t.Errorf("unknown module must not fail: %v", err)
			}
		}
	})
}
