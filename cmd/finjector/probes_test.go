package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/finjector"
	"github.com/aretw0/finjector/internal/testutils"
	adminhttp "github.com/aretw0/finjector/pkg/adapters/http"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProbesCommands(t *testing.T) {
	inj := testutils.NewInjector(t, finjector.WithShards(2))
	tables := testutils.NewTables()
	require.NoError(t, inj.RegisterEverywhere(context.Background(), "storage", tables.Factory("write", "flush")))

	srv := httptest.NewServer(adminhttp.NewHandler(inj))
	defer srv.Close()

	out, err := run(t, "probes", "list", "--admin", srv.URL, "--format", "json")
	require.NoError(t, err)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, domain.Snapshot{"storage": {"write", "flush"}}, snap)

	out, err = run(t, "probes", "list", "--admin", srv.URL, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "| storage | `write`, `flush` |")

	out, err = run(t, "probes", "list", "--admin", srv.URL, "--format", "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph LR"))

	out, err = run(t, "probes", "set", "storage", "write", "delay", "--admin", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "storage-write:delay\n", out)
	assert.Equal(t, domain.FaultDelay, tables.Fault(t, inj, "write"))

	_, err = run(t, "probes", "unset", "storage", "write", "--admin", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, domain.FaultNone, tables.Fault(t, inj, "write"))
}

func TestProbesSet_RejectsUnknownFault(t *testing.T) {
	_, err := run(t, "probes", "set", "storage", "write", "explode", "--admin", "http://127.0.0.1:1")
	assert.ErrorIs(t, err, domain.ErrUnknownFault)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "finjector version "+strings.TrimSpace(finjector.Version)+"\n", out)
}
