package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/sflsweep"
	"github.com/aretw0/sflsweep/pkg/adapters/process"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/ports"
	"github.com/aretw0/sflsweep/pkg/schema"
	"github.com/aretw0/sflsweep/pkg/sweep"
	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	definitionURI     = "sflsweep://definition"
	progressURIPrefix = "sflsweep://progress/"
)

// Source is the sweep the server describes. *sflsweep.Sweep satisfies it.
type Source interface {
	Name() string
	Len() int
	Plan() sweep.Plan
	SelectorPolicy() sweep.SelectorPolicy
	Check(ctx context.Context) error
}

// ProgressLister is a progress store that can enumerate its sweeps.
type ProgressLister interface {
	ports.ProgressStore
	List(ctx context.Context) ([]string, error)
}

// CaseView is one planned configuration.
type CaseView struct {
	Index   int                  `json:"index" jsonschema_description:"Position in dispatch order"`
	Name    string               `json:"name" jsonschema_description:"Case name derived from the template"`
	Config  domain.Configuration `json:"config" jsonschema_description:"Parameters after conditional overrides"`
	Command []string             `json:"command,omitempty" jsonschema_description:"Argument vector of the run"`
	Skipped string               `json:"skipped,omitempty" jsonschema_description:"Why the case is kept out of dispatch"`
	Error   string               `json:"error,omitempty"`
}

// PlanResponse lists the configurations of the sweep without running them.
type PlanResponse struct {
	Sweep string     `json:"sweep"`
	Total int        `json:"total" jsonschema_description:"Number of configurations in the sweep"`
	Cases []CaseView `json:"cases"`
}

// ValidateResponse reports the configurations a run would abort on.
type ValidateResponse struct {
	Sweep  string   `json:"sweep"`
	Valid  bool     `json:"valid"`
	Total  int      `json:"total"`
	Errors []string `json:"errors,omitempty"`
}

// ProgressListResponse names the sweeps with saved progress.
type ProgressListResponse struct {
	Sweeps []string `json:"sweeps"`
}

type planArgs struct {
	From  int `json:"from"`
	Limit int `json:"limit"`
}

type statusArgs struct {
	Sweep string `json:"sweep"`
}

// Server exposes a sweep to MCP clients: its plan, its validation and the
// saved progress. Nothing it offers dispatches a run.
type Server struct {
	source    Source
	store     ProgressLister
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance for source.
// A nil store disables the progress tools and resources.
func NewServer(source Source, store ProgressLister) *Server {
	s := &Server{
		source:    source,
		store:     store,
		mcpServer: server.NewMCPServer("sflsweep", strings.TrimSpace(sflsweep.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve speaks MCP over line-delimited JSON-RPC on in and out until in is
// closed or ctx is done.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

// SSEHandler serves the SSE transport on /sse and /message. baseURL is the
// address clients reach the handler at.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Handle("/sse", sse.SSEHandler())
	r.Handle("/message", sse.MessageHandler())
	return r
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("plan",
		mcp.WithDescription("List the configurations of the sweep in dispatch order, with case names and commands, without running anything."),
		mcp.WithNumber("from", mcp.Description("First configuration index (default 0)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of cases to return (default all)")),
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handlePlan))

	s.mcpServer.AddTool(mcp.NewTool("validate",
		mcp.WithDescription("Check every configuration of the sweep: rule coverage, case names, declared types and flag encoding."),
		mcp.WithOutputSchema[ValidateResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	if s.store == nil {
		return
	}

	s.mcpServer.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Get the saved progress of a sweep."),
		mcp.WithString("sweep", mcp.Description("Sweep name (defaults to the loaded sweep)")),
		mcp.WithOutputSchema[domain.Progress](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("list_progress",
		mcp.WithDescription("List the sweeps with saved progress."),
		mcp.WithOutputSchema[ProgressListResponse](),
	), mcp.NewStructuredToolHandler(s.handleListProgress))
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args planArgs) (PlanResponse, error) {
	if args.From < 0 {
		return PlanResponse{}, fmt.Errorf("from must not be negative")
	}
	plan := s.source.Plan()
	resp := PlanResponse{Sweep: s.source.Name(), Total: s.source.Len(), Cases: []CaseView{}}

	for c, err := range plan.Cases(args.From, s.source.SelectorPolicy()) {
		if args.Limit > 0 && len(resp.Cases) >= args.Limit {
			break
		}
		if err != nil {
			var runErr *domain.RunError
			if !errors.As(err, &runErr) {
				return PlanResponse{}, err
			}
			resp.Cases = append(resp.Cases, CaseView{Index: runErr.Index, Name: runErr.Case, Config: runErr.Config, Error: runErr.Err.Error()})
			continue
		}

		view := CaseView{Index: c.Index, Name: c.Name, Config: c.Config}
		if c.Skipped != nil {
			view.Skipped = c.Skipped.Error()
		} else if argv, err := process.Command(plan.Program, c.Config); err != nil {
			view.Error = err.Error()
		} else {
			view.Command = argv
		}
		resp.Cases = append(resp.Cases, view)
	}
	return resp, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ValidateResponse, error) {
	resp := ValidateResponse{Sweep: s.source.Name(), Total: s.source.Len(), Valid: true}

	err := s.source.Check(ctx)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return ValidateResponse{}, err
	}

	resp.Valid = false
	errs := schema.ValidationErrors(err)
	if errs == nil {
		errs = []error{err}
	}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	return resp, nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args statusArgs) (domain.Progress, error) {
	name := args.Sweep
	if name == "" {
		name = s.source.Name()
	}
	p, err := s.store.Load(ctx, name)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to load progress of %q: %w", name, err)
	}
	return p, nil
}

func (s *Server) handleListProgress(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ProgressListResponse, error) {
	sweeps, err := s.store.List(ctx)
	if err != nil {
		return ProgressListResponse{}, err
	}
	if sweeps == nil {
		sweeps = []string{}
	}
	return ProgressListResponse{Sweeps: sweeps}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(definitionURI, "Sweep Plan",
		mcp.WithResourceDescription("Every configuration of the loaded sweep"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		resp, err := s.handlePlan(ctx, mcp.CallToolRequest{}, planArgs{})
		if err != nil {
			return nil, err
		}
		return jsonContents(definitionURI, resp)
	})

	if s.store == nil {
		return
	}

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(progressURIPrefix+"{sweep}", "Sweep Progress",
		mcp.WithTemplateDescription("Saved progress of a sweep"),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		name := strings.TrimPrefix(uri, progressURIPrefix)
		if name == "" || name == uri {
			return nil, fmt.Errorf("unknown resource %q", uri)
		}
		p, err := s.store.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load progress of %q: %w", name, err)
		}
		return jsonContents(uri, p)
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
