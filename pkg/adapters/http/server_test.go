package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/finjector"
	"github.com/aretw0/finjector/internal/testutils"
	adminhttp "github.com/aretw0/finjector/pkg/adapters/http"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/observability"
	"github.com/aretw0/finjector/pkg/ports/tests"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSetProbe_MapsTypeToCommand(t *testing.T) {
	ctrl := &tests.RecordingController{}
	h := adminhttp.NewHandler(ctrl)

	cases := []struct {
		method, path string
		want         domain.FaultType
	}{
		{http.MethodPut, "/v1/failure-probes/storage/write/exception", domain.FaultException},
		{http.MethodPost, "/v1/failure-probes/storage/write/delay", domain.FaultDelay},
		{http.MethodPut, "/v1/failure-probes/storage/write/terminate", domain.FaultTermination},
		{http.MethodPut, "/v1/failure-probes/storage/write/termination", domain.FaultTermination},
		{http.MethodDelete, "/v1/failure-probes/storage/write", domain.FaultNone},
	}
	for _, tc := range cases {
		w := serve(t, h, tc.method, tc.path)
		require.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
	}

	cmds := ctrl.Commands()
	require.Len(t, cmds, len(cases))
	for i, tc := range cases {
		assert.Equal(t, domain.Command{Module: "storage", Point: "write", Fault: tc.want}, cmds[i])
	}
}

func TestSetProbe_UnknownTypeIsBadRequest(t *testing.T) {
	ctrl := &tests.RecordingController{}
	h := adminhttp.NewHandler(ctrl)

	for _, kind := range []string{"explode", "none"} {
		w := serve(t, h, http.MethodPut, "/v1/failure-probes/storage/write/"+kind)
		assert.Equal(t, http.StatusBadRequest, w.Code, kind)
	}
	assert.Empty(t, ctrl.Commands())
}

func TestSetProbe_ControllerErrorIsUnavailable(t *testing.T) {
	ctrl := &tests.RecordingController{Err: errors.New("shard closed")}
	h := adminhttp.NewHandler(ctrl)

	w := serve(t, h, http.MethodPut, "/v1/failure-probes/storage/write/delay")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body adminhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "shard closed", body.Error)

	w = serve(t, h, http.MethodGet, "/v1/failure-probes")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListProbes_SortedByModule(t *testing.T) {
	ctrl := &tests.RecordingController{Snapshot: domain.Snapshot{
		"storage": {"write", "flush"},
		"raft":    {"vote"},
		"empty":   nil,
	}}
	h := adminhttp.NewHandler(ctrl)

	w := serve(t, h, http.MethodGet, "/v1/failure-probes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"probes":[
		{"module":"empty","points":[]},
		{"module":"raft","points":["vote"]},
		{"module":"storage","points":["write","flush"]}
	]}`, w.Body.String())
}

func TestHealthAndInfo(t *testing.T) {
	h := adminhttp.NewHandler(&tests.RecordingController{})

	w := serve(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(t, h, http.MethodGet, "/info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "finjector-admin")
}

func TestMetrics_MountedOnlyWithGatherer(t *testing.T) {
	w := serve(t, adminhttp.NewHandler(&tests.RecordingController{}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)

	promReg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(promReg)
	require.NoError(t, err)

	h := adminhttp.NewHandler(&tests.RecordingController{}, adminhttp.WithGatherer(promReg))
	w = serve(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClient_AgainstInjector(t *testing.T) {
	inj := testutils.NewInjector(t, finjector.WithShards(2))
	ctx := context.Background()
	tables := testutils.NewTables()
	require.NoError(t, inj.RegisterEverywhere(ctx, "storage", tables.Factory("write", "flush")))

	srv := httptest.NewServer(adminhttp.NewHandler(inj))
	defer srv.Close()
	client := adminhttp.NewClient(srv.URL)

	snap, err := client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Snapshot{"storage": {"write", "flush"}}, snap)

	require.NoError(t, client.Set(ctx, "storage", "write", domain.FaultDelay))
	require.NoError(t, client.Set(ctx, "ghost", "write", domain.FaultException))
	assert.Equal(t, domain.FaultDelay, tables.Fault(t, inj, "write"))

	require.NoError(t, client.Unset(ctx, "storage", "write"))
	assert.Equal(t, domain.FaultNone, tables.Fault(t, inj, "write"))
}

func TestClient_ReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(adminhttp.NewHandler(&tests.RecordingController{}))
	defer srv.Close()

	err := adminhttp.NewClient(srv.URL).Set(context.Background(), "storage", "write", domain.FaultType(42))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestClient_ControllerContract(t *testing.T) {
	inj := testutils.NewInjector(t, finjector.WithShards(2))
	tables := testutils.NewTables()
	require.NoError(t, inj.RegisterEverywhere(context.Background(), "storage", tables.Factory("write", "flush")))

	srv := httptest.NewServer(adminhttp.NewHandler(inj))
	defer srv.Close()

	tests.ControllerContractTest(t, adminhttp.NewClient(srv.URL), func(module, point string) domain.FaultType {
		return tables.Fault(t, inj, point)
	})
}

func TestClient_NamesRoundTripThroughPath(t *testing.T) {
	ctrl := &tests.RecordingController{}
	srv := httptest.NewServer(adminhttp.NewHandler(ctrl))
	defer srv.Close()
	client := adminhttp.NewClient(srv.URL)
	ctx := context.Background()

	names := []string{"storage/log", "raft;v2", "a,b", "what?", "a b", "50%", "plain"}
	for _, name := range names {
		require.NoError(t, client.SetDelay(ctx, name, "write/ahead"), name)
		require.NoError(t, client.Unset(ctx, name, "write/ahead"), name)
	}

	cmds := ctrl.Commands()
	require.Len(t, cmds, 2*len(names))
	for i, name := range names {
		assert.Equal(t, domain.Command{Module: name, Point: "write/ahead", Fault: domain.FaultDelay}, cmds[2*i])
		assert.Equal(t, domain.Command{Module: name, Point: "write/ahead", Fault: domain.FaultNone}, cmds[2*i+1])
	}
}

func TestSetProbe_MalformedEscapeIsBadRequest(t *testing.T) {
	ctrl := &tests.RecordingController{}
	h := adminhttp.NewHandler(ctrl)

	req := httptest.NewRequest(http.MethodPut, "/v1/failure-probes/storage/write/delay", nil)
	req.URL.RawPath = "/v1/failure-probes/storage%zz/write/delay"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ctrl.Commands())
}
