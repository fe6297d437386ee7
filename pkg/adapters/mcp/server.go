package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/finjector"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// ProbesURI is the resource exposing the current probe snapshot.
const ProbesURI = "finjector://probes"

// ProbeEntry is one module of a listing.
type ProbeEntry struct {
	Module string   `json:"module" jsonschema_description:"Name the probe was registered under"`
	Points []string `json:"points" jsonschema_description:"Injection points the probe currently exposes"`
}

// ListResponse is the structured result of list_failure_probes.
type ListResponse struct {
	Probes []ProbeEntry `json:"probes" jsonschema_description:"Registered probes sorted by module"`
}

// CommandResponse is the structured result of set_failure_probe and unset_failure_probe.
type CommandResponse struct {
	Module string `json:"module" jsonschema_description:"Target module"`
	Point  string `json:"point" jsonschema_description:"Target injection point"`
	Fault  string `json:"fault" jsonschema_description:"Fault now requested for the point"`
}

// probeArgs are the arguments of set_failure_probe and unset_failure_probe.
type probeArgs struct {
	Module string `mapstructure:"module"`
	Point  string `mapstructure:"point"`
	Type   string `mapstructure:"type"`
}

// Server exposes a Controller as an MCP Server.
type Server struct {
	controller ports.Controller
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(ctrl ports.Controller) *Server {
	s := &Server{
		controller: ctrl,
		mcpServer:  server.NewMCPServer("finjector-mcp", strings.TrimSpace(finjector.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_failure_probes",
		mcp.WithDescription("List every registered failure probe and its injection points."),
		mcp.WithOutputSchema[ListResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleList))

	setTool := mcp.NewTool("set_failure_probe",
		mcp.WithDescription("Arm an injection point with a fault on every shard. Unknown modules are ignored."),
		mcp.WithString(domain.KeyModule, mcp.Required(), mcp.Description("Module the probe was registered under")),
		mcp.WithString(domain.KeyPoint, mcp.Required(), mcp.Description("Injection point name")),
		mcp.WithString("type", mcp.Required(),
			mcp.Description("Fault to inject"),
			mcp.Enum("exception", "delay", "terminate"),
		),
		mcp.WithOutputSchema[CommandResponse](),
	)
	s.mcpServer.AddTool(setTool, mcp.NewStructuredToolHandler(s.handleSet))

	unsetTool := mcp.NewTool("unset_failure_probe",
		mcp.WithDescription("Disarm an injection point on every shard."),
		mcp.WithString(domain.KeyModule, mcp.Required(), mcp.Description("Module the probe was registered under")),
		mcp.WithString(domain.KeyPoint, mcp.Required(), mcp.Description("Injection point name")),
		mcp.WithOutputSchema[CommandResponse](),
	)
	s.mcpServer.AddTool(unsetTool, mcp.NewStructuredToolHandler(s.handleUnset))
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ListResponse, error) {
	snap, err := s.controller.Points(ctx)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list failed: %w", err)
	}
	return toListResponse(snap), nil
}

func (s *Server) handleSet(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CommandResponse, error) {
	var in probeArgs
	if err := decodeArgs(args, &in); err != nil {
		return CommandResponse{}, err
	}
	fault, err := domain.ParseFaultType(in.Type)
	if err != nil {
		return CommandResponse{}, err
	}
	if fault == domain.FaultNone {
		return CommandResponse{}, fmt.Errorf("%w: use unset_failure_probe to disarm", domain.ErrUnknownFault)
	}
	return s.apply(ctx, domain.Command{Module: in.Module, Point: in.Point, Fault: fault})
}

func (s *Server) handleUnset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CommandResponse, error) {
	var in probeArgs
	if err := decodeArgs(args, &in); err != nil {
		return CommandResponse{}, err
	}
	return s.apply(ctx, domain.Command{Module: in.Module, Point: in.Point, Fault: domain.FaultNone})
}

func (s *Server) apply(ctx context.Context, cmd domain.Command) (CommandResponse, error) {
	if cmd.Module == "" || cmd.Point == "" {
		return CommandResponse{}, fmt.Errorf("module and point are required")
	}
	if err := s.controller.Apply(ctx, cmd); err != nil {
		slog.Error("MCP: apply failed", "command", cmd.String(), "error", err)
		return CommandResponse{}, fmt.Errorf("apply failed: %w", err)
	}
	return CommandResponse{Module: cmd.Module, Point: cmd.Point, Fault: cmd.Fault.String()}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ProbesURI, "Registered Failure Probes",
		mcp.WithMIMEType("application/json"),
	), s.readProbes)
}

func (s *Server) readProbes(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := s.controller.Points(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list probes: %w", err)
	}
	jsonBytes, err := json.Marshal(toListResponse(snap))
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ProbesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func decodeArgs(args map[string]interface{}, out any) error {
	if err := mapstructure.Decode(args, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func toListResponse(snap domain.Snapshot) ListResponse {
	resp := ListResponse{Probes: make([]ProbeEntry, 0, len(snap))}
	for module, points := range snap {
		if points == nil {
			points = []string{}
		}
		resp.Probes = append(resp.Probes, ProbeEntry{Module: module, Points: points})
	}
	sort.Slice(resp.Probes, func(i, j int) bool {
		return resp.Probes[i].Module < resp.Probes[j].Module
	})
	return resp
}
