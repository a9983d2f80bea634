package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/scriptor/internal/logging"
	"github.com/aretw0/scriptor/internal/presentation/graph"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ScriptsURI is the resource listing every script.
const ScriptsURI = "scriptor://scripts"

// Engine defines what the MCP server needs from the scriptor engine.
type Engine interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*domain.Script, error)
	RunState(ctx context.Context, script *domain.Script, state *domain.ExecutionState) (*domain.Report, error)
}

// RunArgs are the arguments of the run_script tool.
type RunArgs struct {
	Name      string         `json:"name"`
	ProfileID string         `json:"profile_id,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// RunResult aligns with the HTTP RunResponse.
type RunResult struct {
	Status    string         `json:"status" jsonschema_description:"ok, error or timeout"`
	Error     string         `json:"error,omitempty" jsonschema_description:"Why the run failed"`
	Report    *domain.Report `json:"report,omitempty" jsonschema_description:"Run statistics"`
	Variables map[string]any `json:"variables,omitempty" jsonschema_description:"Run variables at the end of the run"`
	Buffer    string         `json:"buffer,omitempty" jsonschema_description:"Scratch buffer at the end of the run"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions enables runs against stored profiles.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("scriptor-mcp", version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_scripts",
		mcp.WithDescription("List the names of every available script."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.engine.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(strings.Join(names, "\n")), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_script",
		mcp.WithDescription("Get a script definition, as JSON or as a Mermaid flowchart."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Script name")),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), s.handleGetScript)

	s.mcpServer.AddTool(mcp.NewTool("run_script",
		mcp.WithDescription("Run a script and report its outcome."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Script name")),
		mcp.WithString("profile_id", mcp.Description("Stored profile to run against; saved back after the run")),
		mcp.WithObject("variables", mcp.Description("Initial run variables")),
		mcp.WithOutputSchema[RunResult](),
	), mcp.NewStructuredToolHandler(s.handleRunScript))
}

func (s *Server) handleGetScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	script, err := s.engine.Load(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(script, nil)), nil
	}
	data, err := json.Marshal(script)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRunScript(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (RunResult, error) {
	if args.Name == "" {
		return RunResult{}, errors.New("name is required")
	}
	if args.ProfileID != "" && s.sessions == nil {
		return RunResult{}, errors.New("profile_id requires a profile store")
	}
	script, err := s.engine.Load(ctx, args.Name)
	if err != nil {
		return RunResult{}, err
	}

	var (
		state  *domain.ExecutionState
		report *domain.Report
		runErr error
	)
	run := func(ctx context.Context, p *domain.Profile) error {
		state = domain.NewExecutionState(p)
		for k, v := range args.Variables {
			state.Set(k, v)
		}
		report, runErr = s.engine.RunState(ctx, script, state)
		return runErr
	}

	if args.ProfileID != "" {
		err := s.sessions.WithProfile(ctx, args.ProfileID, run)
		if state == nil || errors.Is(err, session.ErrSaveFailed) || (err != nil && !errors.Is(err, runErr)) {
			return RunResult{}, err
		}
	} else {
		_ = run(ctx, domain.NewProfile(""))
	}
	if errors.Is(runErr, domain.ErrInvalidScript) {
		return RunResult{}, runErr
	}

	res := RunResult{Status: "ok", Report: report, Variables: state.Variables, Buffer: state.Buffer}
	switch {
	case errors.Is(runErr, domain.ErrTimeout):
		res.Status, res.Error = "timeout", runErr.Error()
	case runErr != nil:
		res.Status, res.Error = "error", runErr.Error()
	}
	s.logger.Info("MCP run", "script", args.Name, "status", res.Status)
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ScriptsURI, "Available scripts",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.engine.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list scripts: %w", err)
		}
		data, _ := json.Marshal(names)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: ScriptsURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(ScriptsURI+"/{name}", "Script definition",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		name := strings.TrimPrefix(request.Params.URI, ScriptsURI+"/")
		script, err := s.engine.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(script)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: request.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
