package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/search"
	"github.com/stormlightlabs/memoria/internal/shared"
)

type Handlers struct {
	memory *memory.Service
	search *search.Service
}

func NewHandlers(mem *memory.Service, searchSvc *search.Service) *Handlers {
	return &Handlers{memory: mem, search: searchSvc}
}

// errorResult reports err to the client as {"error": {"code", "message"}}
// with the error flag set, so callers can branch on the code.
func errorResult(err error) (*mcp.CallToolResult, any, error) {
	e := shared.AsError(err)
	out := ErrorOutput{Error: ErrorBody{Code: string(e.Code), Message: e.Error()}}
	text, _ := json.Marshal(out)
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
		StructuredContent: out,
	}, nil, nil
}

// reply turns a service result into a tool result.
func reply[T any](out T, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return errorResult(err)
	}
	return nil, out, nil
}

func (h *Handlers) AddProject(ctx context.Context, req *mcp.CallToolRequest, in AddProjectInput) (*mcp.CallToolResult, any, error) {
	p, err := h.memory.AddProject(ctx, memory.NewProject{Name: in.Name, Description: in.Description, AsanaURL: in.AsanaURL})
	return reply(newProjectOutput(p), err)
}

func (h *Handlers) GetProjects(ctx context.Context, req *mcp.CallToolRequest, in GetProjectsInput) (*mcp.CallToolResult, any, error) {
	projects, err := h.memory.ListProjects(ctx, in.Limit)
	return reply(ProjectsOutput{Projects: projects}, err)
}

func (h *Handlers) AddTopic(ctx context.Context, req *mcp.CallToolRequest, in AddTopicInput) (*mcp.CallToolResult, any, error) {
	t, err := h.memory.AddTopic(ctx, memory.NewTopic{
		ProjectID:     in.ProjectID,
		Title:         in.Title,
		Description:   in.Description,
		ParentTopicID: in.ParentTopicID,
	})
	return reply(newTopicOutput(t), err)
}

func (h *Handlers) topics(ctx context.Context, in GetTopicsInput, filter memory.TopicFilter) (*mcp.CallToolResult, any, error) {
	topics, err := h.memory.ListTopics(ctx, memory.TopicQuery{
		ProjectID:     in.ProjectID,
		ParentTopicID: in.ParentTopicID,
		Filter:        filter,
		Limit:         in.Limit,
	})
	return reply(TopicsOutput{Topics: topics}, err)
}

func (h *Handlers) GetTopics(ctx context.Context, req *mcp.CallToolRequest, in GetTopicsInput) (*mcp.CallToolResult, any, error) {
	return h.topics(ctx, in, memory.FilterAll)
}

func (h *Handlers) GetDecidedTopics(ctx context.Context, req *mcp.CallToolRequest, in GetTopicsInput) (*mcp.CallToolResult, any, error) {
	return h.topics(ctx, in, memory.FilterDecided)
}

func (h *Handlers) GetUndecidedTopics(ctx context.Context, req *mcp.CallToolRequest, in GetTopicsInput) (*mcp.CallToolResult, any, error) {
	return h.topics(ctx, in, memory.FilterUndecided)
}

func (h *Handlers) GetTopicTree(ctx context.Context, req *mcp.CallToolRequest, in GetTopicTreeInput) (*mcp.CallToolResult, any, error) {
	tree, err := h.memory.TopicTree(ctx, in.ProjectID, in.TopicID, in.Limit)
	return reply(TreeOutput{Tree: tree}, err)
}

func (h *Handlers) AddLog(ctx context.Context, req *mcp.CallToolRequest, in AddLogInput) (*mcp.CallToolResult, any, error) {
	l, err := h.memory.AddLog(ctx, in.TopicID, in.Content)
	return reply(LogOutput{LogID: l.ID, TopicID: l.TopicID, Content: l.Content, CreatedAt: l.CreatedAt}, err)
}

func (h *Handlers) GetLogs(ctx context.Context, req *mcp.CallToolRequest, in PageInput) (*mcp.CallToolResult, any, error) {
	logs, err := h.memory.ListLogs(ctx, in.TopicID, in.StartID, in.Limit)
	return reply(LogsOutput{Logs: logs}, err)
}

func (h *Handlers) AddDecision(ctx context.Context, req *mcp.CallToolRequest, in AddDecisionInput) (*mcp.CallToolResult, any, error) {
	d, err := h.memory.AddDecision(ctx, memory.NewDecision{TopicID: in.TopicID, Decision: in.Decision, Reason: in.Reason})
	return reply(DecisionOutput{DecisionID: d.ID, TopicID: d.TopicID, Decision: d.Decision, Reason: d.Reason, CreatedAt: d.CreatedAt}, err)
}

func (h *Handlers) GetDecisions(ctx context.Context, req *mcp.CallToolRequest, in PageInput) (*mcp.CallToolResult, any, error) {
	decisions, err := h.memory.ListDecisions(ctx, in.TopicID, in.StartID, in.Limit)
	return reply(DecisionsOutput{Decisions: decisions}, err)
}

func (h *Handlers) AddTask(ctx context.Context, req *mcp.CallToolRequest, in AddTaskInput) (*mcp.CallToolResult, any, error) {
	t, err := h.memory.AddTask(ctx, memory.NewTask{ProjectID: in.ProjectID, Title: in.Title, Description: in.Description})
	return reply(newTaskOutput(t), err)
}

func (h *Handlers) GetTasks(ctx context.Context, req *mcp.CallToolRequest, in GetTasksInput) (*mcp.CallToolResult, any, error) {
	tasks, err := h.memory.ListTasks(ctx, in.ProjectID, in.Status)
	return reply(TasksOutput{Tasks: tasks}, err)
}

func (h *Handlers) UpdateTaskStatus(ctx context.Context, req *mcp.CallToolRequest, in UpdateTaskStatusInput) (*mcp.CallToolResult, any, error) {
	t, err := h.memory.UpdateTaskStatus(ctx, in.TaskID, in.NewStatus)
	return reply(newTaskOutput(t), err)
}

func searchQuery(in SearchInput) search.Query {
	return search.Query{ProjectID: in.ProjectID, Keyword: in.Keyword, Type: in.TypeFilter, Limit: in.Limit}
}

func (h *Handlers) Search(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	return reply(h.search.Search(ctx, searchQuery(in)))
}

func (h *Handlers) SemanticSearch(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	return reply(h.search.Semantic(ctx, searchQuery(in)))
}

func (h *Handlers) GetByID(ctx context.Context, req *mcp.CallToolRequest, in GetByIDInput) (*mcp.CallToolResult, any, error) {
	return reply(h.search.GetByID(ctx, in.Type, in.ID))
}
