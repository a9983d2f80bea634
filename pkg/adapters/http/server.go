package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/scriptor/internal/logging"
	"github.com/aretw0/scriptor/internal/presentation/graph"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run statuses reported by RunResponse.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Engine defines what the server needs from the scriptor engine.
type Engine interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*domain.Script, error)
	RunState(ctx context.Context, script *domain.Script, state *domain.ExecutionState) (*domain.Report, error)
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// RunRequest is the body of POST /scripts/{name}/runs.
type RunRequest struct {
	ProfileID string         `json:"profile_id,omitempty"`
	Profile   map[string]any `json:"profile,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// RunResponse describes a finished run.
type RunResponse struct {
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	Report    *domain.Report `json:"report,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
	Buffer    string         `json:"buffer,omitempty"`
}

// Server serves the scriptor HTTP API.
type Server struct {
	Engine   Engine
	Sessions *session.Manager
	Version  string

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithSessions enables runs against stored profiles (profile_id).
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.Sessions = m
	}
}

// WithGatherer serves g on /metrics instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the application version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/scripts", s.ListScripts)
	r.Get("/scripts/{name}", s.GetScript)
	r.Get("/scripts/{name}/graph", s.GetScriptGraph)
	r.With(s.validate).Post("/scripts/{name}/runs", s.RunScript)
	r.Get("/events", s.SubscribeEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validate rejects requests that do not match the OpenAPI document.
func (s *Server) validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := validateRequest(r); err != nil {
			s.logger.Warn("Request rejected", "path", r.URL.Path, "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "scriptor-http",
		"version":     s.Version,
		"api_version": apiVersion,
	})
}

// GetSpec handles GET /openapi.yaml.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(rawSpec)
}

// ListScripts handles GET /scripts.
func (s *Server) ListScripts(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.List(r.Context())
	if err != nil {
		s.logger.Error("List scripts failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"scripts": names})
}

// GetScript handles GET /scripts/{name}.
func (s *Server) GetScript(w http.ResponseWriter, r *http.Request) {
	script, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, script)
}

// GetScriptGraph handles GET /scripts/{name}/graph.
func (s *Server) GetScriptGraph(w http.ResponseWriter, r *http.Request) {
	script, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(script, nil)))
}

// RunScript handles POST /scripts/{name}/runs.
func (s *Server) RunScript(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	if body.ProfileID != "" && s.Sessions == nil {
		writeError(w, http.StatusBadRequest, errors.New("profile_id requires a profile store"))
		return
	}

	script, ok := s.load(w, r)
	if !ok {
		return
	}

	var (
		state  *domain.ExecutionState
		report *domain.Report
		runErr error
	)
	run := func(ctx context.Context, p *domain.Profile) error {
		state = domain.NewExecutionState(p)
		for k, v := range body.Variables {
			state.Set(k, v)
		}
		report, runErr = s.Engine.RunState(ctx, script, state)
		return runErr
	}

	if body.ProfileID != "" {
		err := s.Sessions.WithProfile(r.Context(), body.ProfileID, run)
		if state == nil || errors.Is(err, session.ErrSaveFailed) || (err != nil && !errors.Is(err, runErr)) {
			s.logger.Error("Profile session failed", "profile_id", body.ProfileID, "err", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		p := domain.NewProfile("")
		if body.Profile != nil {
			p.Data = body.Profile
		}
		_ = run(r.Context(), p)
	}

	if errors.Is(runErr, domain.ErrInvalidScript) {
		writeError(w, http.StatusUnprocessableEntity, runErr)
		return
	}

	resp := RunResponse{
		Status:    StatusOK,
		Report:    report,
		Variables: state.Variables,
		Buffer:    state.Buffer,
	}
	switch {
	case errors.Is(runErr, domain.ErrTimeout):
		resp.Status, resp.Error = StatusTimeout, runErr.Error()
	case runErr != nil:
		resp.Status, resp.Error = StatusError, runErr.Error()
	}
	s.logger.Info("Run served", "script", script.Name, "status", resp.Status)
	writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles GET /events (SSE): one "reload" event per change
// of the underlying scripts.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		writeError(w, http.StatusNotImplemented, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*domain.Script, bool) {
	name := chi.URLParam(r, "name")
	script, err := s.Engine.Load(r.Context(), name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrScriptNotFound) {
			status = http.StatusNotFound
		} else {
			s.logger.Error("Load script failed", "script", name, "err", err)
		}
		writeError(w, status, err)
		return nil, false
	}
	return script, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
