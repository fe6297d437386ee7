package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/ports/tests"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSet_DecodesFaultType(t *testing.T) {
	ctrl := &tests.RecordingController{}
	s := NewServer(ctrl)
	ctx := context.Background()

	for _, kind := range []string{"exception", "delay", "terminate", "termination"} {
		resp, err := s.handleSet(ctx, mcp.CallToolRequest{}, map[string]interface{}{
			"module": "storage", "point": "write", "type": kind,
		})
		require.NoError(t, err, kind)
		assert.Equal(t, "storage", resp.Module)
	}

	cmds := ctrl.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, domain.FaultException, cmds[0].Fault)
	assert.Equal(t, domain.FaultDelay, cmds[1].Fault)
	assert.Equal(t, domain.FaultTermination, cmds[2].Fault)
	assert.Equal(t, domain.FaultTermination, cmds[3].Fault)
}

func TestHandleSet_RejectsBadArguments(t *testing.T) {
	ctrl := &tests.RecordingController{}
	s := NewServer(ctrl)
	ctx := context.Background()

	_, err := s.handleSet(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"module": "storage", "point": "write", "type": "explode",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownFault)

	_, err = s.handleSet(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"module": "storage", "point": "write", "type": "none",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownFault)

	_, err = s.handleSet(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"point": "write", "type": "delay",
	})
	assert.Error(t, err)

	assert.Empty(t, ctrl.Commands())
}

func TestHandleUnset(t *testing.T) {
	ctrl := &tests.RecordingController{}
	s := NewServer(ctrl)

	resp, err := s.handleUnset(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"module": "ghost", "point": "write",
	})
	require.NoError(t, err)
	assert.Equal(t, CommandResponse{Module: "ghost", Point: "write", Fault: "none"}, resp)
	assert.Equal(t, []domain.Command{{Module: "ghost", Point: "write", Fault: domain.FaultNone}}, ctrl.Commands())
}

func TestHandleList_Sorted(t *testing.T) {
	ctrl := &tests.RecordingController{Snapshot: domain.Snapshot{
		"storage": {"write"},
		"raft":    {"vote", "append"},
	}}
	s := NewServer(ctrl)

	resp, err := s.handleList(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []ProbeEntry{
		{Module: "raft", Points: []string{"vote", "append"}},
		{Module: "storage", Points: []string{"write"}},
	}, resp.Probes)
}

func TestControllerErrorsPropagate(t *testing.T) {
	ctrl := &tests.RecordingController{Err: errors.New("shard closed")}
	s := NewServer(ctrl)
	ctx := context.Background()

	_, err := s.handleList(ctx, mcp.CallToolRequest{}, nil)
	assert.Error(t, err)

	_, err = s.handleUnset(ctx, mcp.CallToolRequest{}, map[string]interface{}{"module": "storage", "point": "write"})
	assert.Error(t, err)
}

func TestReadProbesResource(t *testing.T) {
	ctrl := &tests.RecordingController{Snapshot: domain.Snapshot{"storage": {"write", "flush"}}}
	s := NewServer(ctrl)

	contents, err := s.readProbes(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ProbesURI, text.URI)

	var list ListResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &list))
	assert.Equal(t, []ProbeEntry{{Module: "storage", Points: []string{"write", "flush"}}}, list.Probes)
}
