package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/search"
)

const instructions = `Memoria keeps a project's discussion history: topics (nested), discussion
logs, decisions and tasks. Start a session with get_projects and
get_undecided_topics, record exchanges with add_log and settle them with
add_decision. search finds past topics, decisions and tasks by keyword
(3+ characters); get_by_id returns the full record behind a hit.`

// NewServer creates the MCP server exposing the memory and search tools.
func NewServer(mem *memory.Service, searchSvc *search.Service, version string) *mcp.Server {
	logger := slog.New(slog.NewJSONHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: slog.LevelInfo},
	))
	return newServer(mem, searchSvc, version, logger)
}

func newServer(mem *memory.Service, searchSvc *search.Service, version string, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "memoria", Version: version},
		&mcp.ServerOptions{Logger: logger, Instructions: instructions},
	)

	h := NewHandlers(mem, searchSvc)

	addTool(server, logger, "add_project",
		"Create a project: an independent concern or effort, not a repository. Ask the user which project to use when unsure.",
		h.AddProject)
	addTool(server, logger, "get_projects", "List projects, newest first.", h.GetProjects)
	addTool(server, logger, "add_topic", "Add a discussion topic, optionally under a parent topic.", h.AddTopic)
	addTool(server, logger, "get_topics", "List the direct children of a parent topic, or the project's root topics.", h.GetTopics)
	addTool(server, logger, "get_decided_topics", "List direct child topics that already have a decision.", h.GetDecidedTopics)
	addTool(server, logger, "get_undecided_topics", "List direct child topics that have no decision yet.", h.GetUndecidedTopics)
	addTool(server, logger, "get_topic_tree", "Fetch the whole subtree under a topic, depth first.", h.GetTopicTree)
	addTool(server, logger, "add_log", "Append a discussion log to a topic.", h.AddLog)
	addTool(server, logger, "get_logs", "Page through a topic's discussion logs.", h.GetLogs)
	addTool(server, logger, "add_decision", "Record a decision on a topic as soon as it is agreed.", h.AddDecision)
	addTool(server, logger, "get_decisions", "Page through a topic's decisions.", h.GetDecisions)
	addTool(server, logger, "add_task", "Create a pending task.", h.AddTask)
	addTool(server, logger, "get_tasks", "List a project's tasks, optionally by status.", h.GetTasks)
	addTool(server, logger, "update_task_status",
		"Move a task to pending, in_progress, completed or blocked. Blocking opens a topic for discussing the blocker and links it to the task.",
		h.UpdateTaskStatus)
	addTool(server, logger, "search",
		"Keyword search over a project's topics, decisions and tasks (trigram match, bm25 ranked, 3+ characters). Use get_by_id for details.",
		h.Search)
	addTool(server, logger, "semantic_search",
		"Search a project's topics, decisions and tasks by meaning. Returns no results when no embedding model is available.",
		h.SemanticSearch)
	addTool(server, logger, "get_by_id", "Fetch the full record behind a search hit.", h.GetByID)

	return server
}

func addTool[In any](server *mcp.Server, logger *slog.Logger, name, description string, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error)) {
	mcp.AddTool(server, newTool(name, description),
		func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			logger.Info("Tool call: "+name, "input", in)
			return handler(ctx, req, in)
		})
}

// RunStdio runs the server using the stdio transport.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP runs the server using the streamable HTTP transport.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	f := func(r *http.Request) *mcp.Server { return server }
	handler := mcp.NewStreamableHTTPHandler(f, nil)

	s := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()

	if err := s.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func newTool(n, d string) *mcp.Tool {
	return &mcp.Tool{Name: n, Description: d}
}
