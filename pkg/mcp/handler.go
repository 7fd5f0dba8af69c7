package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericksa/reclaimdigest/internal/audit"
	"github.com/ericksa/reclaimdigest/internal/config"
	"github.com/ericksa/reclaimdigest/internal/digest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Digester produces the payloads served by the tools.
type Digester interface {
	Tasks(ctx context.Context) ([]digest.TaskView, error)
	AtRisk(ctx context.Context) (*digest.FilteredList, error)
	Overdue(ctx context.Context) (*digest.FilteredList, error)
	EmailSummary(ctx context.Context) (*digest.EmailSummary, error)
	Daily(ctx context.Context) (*digest.DailyDigest, error)
	Upcoming(ctx context.Context) (*digest.UpcomingDigest, error)
	Task(ctx context.Context, id string) (*digest.TaskView, error)
}

type Handler struct {
	config  *config.Config
	audit   *audit.Auditor
	digest  Digester
	server  *mcp.Server
	http    http.Handler
	logger  *slog.Logger
	version string
}

type noInput struct{}

type taskInput struct {
	ID string `json:"id" jsonschema:"the Reclaim task id"`
}

type tool struct {
	name        string
	description string
	run         func(ctx context.Context) (any, error)
}

func NewHandler(cfg *config.Config, d Digester, auditor *audit.Auditor, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		config:  cfg,
		audit:   auditor,
		digest:  d,
		logger:  logger,
		version: version,
	}
	h.initMCPServer()
	return h
}

func (h *Handler) tools() []tool {
	return []tool{
		{"tasks_list", "List all Reclaim tasks with formatted duration, progress, due date and next event.", func(ctx context.Context) (any, error) {
			views, err := h.digest.Tasks(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"count": len(views), "tasks": views}, nil
		}},
		{"tasks_at_risk", "List at-risk tasks, excluding archived and cancelled ones, ordered by priority.", func(ctx context.Context) (any, error) {
			return h.digest.AtRisk(ctx)
		}},
		{"tasks_overdue", "List overdue tasks, excluding archived and cancelled ones, ordered by priority.", func(ctx context.Context) (any, error) {
			return h.digest.Overdue(ctx)
		}},
		{"tasks_summary", "Compose the overdue and at-risk email summary as text and HTML.", func(ctx context.Context) (any, error) {
			return h.digest.EmailSummary(ctx)
		}},
		{"tasks_daily", "Compose the daily digest grouped into critical, high, medium and low urgency.", func(ctx context.Context) (any, error) {
			return h.digest.Daily(ctx)
		}},
		{"tasks_upcoming", "List the next due open tasks with today, tomorrow and this-week counts.", func(ctx context.Context) (any, error) {
			return h.digest.Upcoming(ctx)
		}},
	}
}

func (h *Handler) initMCPServer() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "Reclaim Digest",
		Version: h.version,
	}, nil)

	for _, t := range h.tools() {
		mcp.AddTool(server, &mcp.Tool{
			Name:        t.name,
			Description: t.description,
		}, wrapTool(h, t.name, func(ctx context.Context, _ noInput) (any, error) {
			return t.run(ctx)
		}))
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "tasks_get",
		Description: "Get one Reclaim task by id with formatted duration, progress, due date and next event.",
	}, wrapTool(h, "tasks_get", h.getTask))

	h.server = server
	h.http = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return h.server }, nil)
}

func (h *Handler) getTask(ctx context.Context, in taskInput) (any, error) {
	view, err := h.digest.Task(ctx, in.ID)
	if errors.Is(err, digest.ErrTaskNotFound) {
		return nil, fmt.Errorf("Task with ID %s not found", in.ID)
	}
	return view, err
}

func wrapTool[In any](h *Handler, name string, run func(context.Context, In) (any, error)) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		result, err := h.call(ctx, func(ctx context.Context) (any, error) { return run(ctx, in) })
		h.audit.LogTool(name, args, time.Since(start), err)
		if err != nil {
			h.logger.Warn("tool call failed", "tool", name, "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(result)},
			},
		}, nil, nil
	}
}

func (h *Handler) call(ctx context.Context, run func(context.Context) (any, error)) ([]byte, error) {
	if _, err := h.config.Credential(); err != nil {
		return nil, err
	}
	out, err := run(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// Server returns the underlying MCP server.
func (h *Handler) Server() *mcp.Server {
	return h.server
}

// ServeHTTP serves the streamable HTTP transport.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.http.ServeHTTP(w, r)
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
