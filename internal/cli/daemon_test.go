package cli

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/finjector/internal/config"
	"github.com/aretw0/finjector/internal/logging"
	adminhttp "github.com/aretw0/finjector/pkg/adapters/http"
	"github.com/aretw0/finjector/pkg/adapters/redis"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Shards = 2
	cfg.Admin.Listen = "127.0.0.1:0"
	cfg.Probes = []config.ProbeConfig{
		{Module: "storage", Points: []string{"write", "flush"}},
	}
	return cfg
}

func TestNewDaemon_RegistersConfiguredProbes(t *testing.T) {
	d, err := NewDaemon(context.Background(), testConfig(), logging.NewNop())
	require.NoError(t, err)
	defer d.Injector.Close()

	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	snap, err := adminhttp.NewClient(srv.URL).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Snapshot{"storage": {"write", "flush"}}, snap)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewDaemon_DisabledFaultsRegisterNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Faults.Enabled = false
	cfg.Admin.Metrics = false

	d, err := NewDaemon(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer d.Injector.Close()
	assert.Nil(t, d.Gatherer)

	snap, err := d.Injector.Points(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestDaemon_RunServesAdminAndFeed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()

	d, err := NewDaemon(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	var addr net.Addr
	select {
	case addr = <-d.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("daemon never became ready")
	}

	client := adminhttp.NewClient(addr.String())
	require.NoError(t, client.SetDelay(ctx, "storage", "write"))

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(cfg.Redis.Channel)[cfg.Redis.Channel] == 1
	}, 2*time.Second, 10*time.Millisecond)
	pub := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer pub.Close()
	require.NoError(t, redis.Publish(ctx, pub, cfg.Redis.Channel,
		domain.Command{Module: "ghost", Point: "write", Fault: domain.FaultException}))

	expected := `
# HELP finjector_fault_commands_total Fault commands by fault type and outcome
# TYPE finjector_fault_commands_total counter
finjector_fault_commands_total{fault="delay",outcome="forwarded",shard="0"} 1
finjector_fault_commands_total{fault="delay",outcome="forwarded",shard="1"} 1
finjector_fault_commands_total{fault="exception",outcome="dropped",shard="0"} 1
finjector_fault_commands_total{fault="exception",outcome="dropped",shard="1"} 1
`
	require.Eventually(t, func() bool {
		return testutil.GatherAndCompare(d.Gatherer, strings.NewReader(expected), "finjector_fault_commands_total") == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestDaemon_RunFailsOnBadListenAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.Listen = "256.0.0.1:bad"

	d, err := NewDaemon(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Error(t, d.Run(context.Background()))
}
