package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/aretw0/finjector"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/observability"
	"github.com/aretw0/finjector/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// ProbePoints is one module entry of the probe listing.
type ProbePoints struct {
	Module string   `json:"module"`
	Points []string `json:"points"`
}

// ProbeList is the body of GET /v1/failure-probes.
type ProbeList struct {
	Probes []ProbePoints `json:"probes"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server exposes a Controller over HTTP.
type Server struct {
	Controller ports.Controller
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer mounts GET /metrics serving g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the admin HTTP handler for ctrl.
func NewHandler(ctrl ports.Controller, opts ...Option) http.Handler {
	s := &Server{
		Controller: ctrl,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Route("/v1/failure-probes", func(r chi.Router) {
		r.Get("/", s.ListProbes)
		r.Put("/{module}/{point}/{type}", s.SetProbe)
		r.Post("/{module}/{point}/{type}", s.SetProbe)
		r.Delete("/{module}/{point}", s.UnsetProbe)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", observability.Handler(s.gatherer))
	}
	return r
}

// ListProbes handles GET /v1/failure-probes.
func (s *Server) ListProbes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Controller.Points(r.Context())
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, "List failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toProbeList(snap))
}

// SetProbe handles PUT|POST /v1/failure-probes/{module}/{point}/{type}.
func (s *Server) SetProbe(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "module", "point", "type")
	if err != nil {
		s.fail(w, http.StatusBadRequest, "SetProbe: malformed path", err)
		return
	}
	fault, err := domain.ParseFaultType(params[2])
	if err != nil || fault == domain.FaultNone {
		if err == nil {
			err = errors.New("use DELETE to unset a probe")
		}
		s.fail(w, http.StatusBadRequest, "SetProbe: invalid fault type", err)
		return
	}
	s.apply(w, r, domain.Command{Module: params[0], Point: params[1], Fault: fault})
}

// UnsetProbe handles DELETE /v1/failure-probes/{module}/{point}.
func (s *Server) UnsetProbe(w http.ResponseWriter, r *http.Request) {
	params, err := pathParams(r, "module", "point")
	if err != nil {
		s.fail(w, http.StatusBadRequest, "UnsetProbe: malformed path", err)
		return
	}
	s.apply(w, r, domain.Command{Module: params[0], Point: params[1], Fault: domain.FaultNone})
}

// pathParams returns decoded URL parameters. chi routes on RawPath when it is
// set, leaving parameters percent-encoded; otherwise they are already decoded.
func pathParams(r *http.Request, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, key := range keys {
		v := chi.URLParam(r, key)
		if r.URL.RawPath != "" {
			decoded, err := url.PathUnescape(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			v = decoded
		}
		out[i] = v
	}
	return out, nil
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "finjector-admin",
		"version": strings.TrimSpace(finjector.Version),
	})
}

// Commands for unknown modules still succeed; the registry drops them silently.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd domain.Command) {
	if err := s.Controller.Apply(r.Context(), cmd); err != nil {
		s.fail(w, http.StatusServiceUnavailable, "Apply failed", err)
		return
	}
	s.logger.Debug("Command applied", "command", cmd.String())
	writeJSON(w, http.StatusOK, cmd)
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	} else {
		s.logger.Warn(msg, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func toProbeList(snap domain.Snapshot) ProbeList {
	list := ProbeList{Probes: make([]ProbePoints, 0, len(snap))}
	for module, points := range snap {
		if points == nil {
			points = []string{}
		}
		list.Probes = append(list.Probes, ProbePoints{Module: module, Points: points})
	}
	sort.Slice(list.Probes, func(i, j int) bool {
		return list.Probes[i].Module < list.Probes[j].Module
	})
	return list
}

// Snapshot converts the listing back into a domain.Snapshot.
func (l ProbeList) Snapshot() domain.Snapshot {
	snap := make(domain.Snapshot, len(l.Probes))
	for _, p := range l.Probes {
		snap[p.Module] = p.Points
	}
	return snap
}
