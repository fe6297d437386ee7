package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/finjector/pkg/observability"
	"github.com/aretw0/finjector/pkg/probe"
	"github.com/aretw0/finjector/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*registry.Registry, *prometheus.Registry) {
	t.Helper()
	promReg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(promReg)
	require.NoError(t, err)
	return registry.NewRegistry(registry.WithObserver(m.ForShard(0))), promReg
}

func TestMetrics_RegistrationOutcomes(t *testing.T) {
	reg, promReg := newRegistry(t)

	reg.RegisterProbe("storage", probe.New(true, []string{"write"}))
	reg.RegisterProbe("storage", probe.New(true, []string{"write", "flush"}))
	reg.RegisterProbe("raft", probe.New(false, []string{"vote"}))
	reg.RegisterProbe("ghost", nil)

	expected := `
# HELP finjector_probe_registrations_total Probe registration attempts by outcome
# TYPE finjector_probe_registrations_total counter
finjector_probe_registrations_total{outcome="accepted",shard="0"} 2
finjector_probe_registrations_total{outcome="rejected_disabled",shard="0"} 1
finjector_probe_registrations_total{outcome="rejected_nil",shard="0"} 1
# HELP finjector_registered_probes Probes currently registered
# TYPE finjector_registered_probes gauge
finjector_registered_probes{shard="0"} 1
`
	err := testutil.GatherAndCompare(promReg, bytesReader(expected),
		"finjector_probe_registrations_total", "finjector_registered_probes")
	assert.NoError(t, err)
}

func TestMetrics_DeregistrationLowersGauge(t *testing.T) {
	reg, promReg := newRegistry(t)

	reg.RegisterProbe("storage", probe.New(true, []string{"write"}))
	reg.DeregisterProbe("storage")
	reg.DeregisterProbe("storage")

	expected := `
# HELP finjector_probe_deregistrations_total Probes removed from a registry
# TYPE finjector_probe_deregistrations_total counter
finjector_probe_deregistrations_total{shard="0"} 1
# HELP finjector_registered_probes Probes currently registered
# TYPE finjector_registered_probes gauge
finjector_registered_probes{shard="0"} 0
`
	err := testutil.GatherAndCompare(promReg, bytesReader(expected),
		"finjector_probe_deregistrations_total", "finjector_registered_probes")
	assert.NoError(t, err)
}

func TestMetrics_DroppedCommandsAreCounted(t *testing.T) {
	reg, promReg := newRegistry(t)
	reg.RegisterProbe("storage", probe.New(true, []string{"write"}))

	reg.SetException("storage", "write")
	reg.SetDelay("ghost", "write")
	reg.SetDelay("ghost", "flush")

	expected := `
# HELP finjector_fault_commands_total Fault commands by fault type and outcome
# TYPE finjector_fault_commands_total counter
finjector_fault_commands_total{fault="delay",outcome="dropped",shard="0"} 2
finjector_fault_commands_total{fault="exception",outcome="forwarded",shard="0"} 1
`
	err := testutil.GatherAndCompare(promReg, bytesReader(expected), "finjector_fault_commands_total")
	assert.NoError(t, err)
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	promReg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(promReg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(promReg)
	assert.Error(t, err)
}

func TestHandler_ServesExposition(t *testing.T) {
	reg, promReg := newRegistry(t)
	reg.RegisterProbe("storage", probe.New(true, []string{"write"}))

	srv := httptest.NewServer(observability.Handler(promReg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `finjector_registered_probes{shard="0"} 1`)
}

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}
