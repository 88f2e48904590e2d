package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/index"
	"github.com/stormlightlabs/memoria/internal/memory"
	"github.com/stormlightlabs/memoria/internal/search"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	store, err := db.Open(filepath.Join(t.TempDir(), "memoria.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	mem := memory.New(store, index.NewSyncer(nil))
	searchSvc := search.New(store.DB(), mem, nil, search.Options{})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := newServer(mem, searchSvc, "test", logger)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server.Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client.Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// call invokes a tool and decodes its JSON text content into out.
func call(t *testing.T, s *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := s.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s) error = %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("CallTool(%s) returned no content", name)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s) content is %T, want *mcp.TextContent", name, res.Content[0])
	}
	if out != nil {
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			t.Fatalf("CallTool(%s) decode %q: %v", name, text.Text, err)
		}
	}
	return res
}

func TestListTools(t *testing.T) {
	s := connect(t)
	res, err := s.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	want := []string{
		"add_project", "get_projects", "add_topic", "get_topics", "get_decided_topics",
		"get_undecided_topics", "get_topic_tree", "add_log", "get_logs", "add_decision",
		"get_decisions", "add_task", "get_tasks", "update_task_status", "search",
		"semantic_search", "get_by_id",
	}
	for _, name := range want {
		if !slices.Contains(names, name) {
			t.Errorf("tool %q not registered", name)
		}
	}
	if len(names) != len(want) {
		t.Errorf("registered %d tools, want %d", len(names), len(want))
	}
}

func TestDiscussionFlow(t *testing.T) {
	s := connect(t)

	var project ProjectOutput
	call(t, s, "add_project", map[string]any{"name": "memoria", "description": "memory server"}, &project)
	if project.ProjectID == 0 || project.Name != "memoria" {
		t.Fatalf("add_project = %+v", project)
	}

	var decided, open TopicOutput
	call(t, s, "add_topic", map[string]any{"project_id": project.ProjectID, "title": "検索方式の選定", "description": "FTS5 か LIKE か"}, &decided)
	call(t, s, "add_topic", map[string]any{"project_id": project.ProjectID, "title": "通知の設計", "description": ""}, &open)

	var logOut LogOutput
	call(t, s, "add_log", map[string]any{"topic_id": decided.TopicID, "content": "trigram なら分かち書き不要"}, &logOut)
	if logOut.LogID == 0 || logOut.TopicID != decided.TopicID {
		t.Errorf("add_log = %+v", logOut)
	}

	var decision DecisionOutput
	call(t, s, "add_decision", map[string]any{"topic_id": decided.TopicID, "decision": "FTS5 trigram を採用", "reason": "日本語の部分一致"}, &decision)
	if decision.DecisionID == 0 {
		t.Fatalf("add_decision = %+v", decision)
	}

	tests := []struct {
		tool string
		want int64
	}{
		{"get_decided_topics", decided.TopicID},
		{"get_undecided_topics", open.TopicID},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			var out TopicsOutput
			call(t, s, tt.tool, map[string]any{"project_id": project.ProjectID}, &out)
			if len(out.Topics) != 1 || out.Topics[0].ID != tt.want {
				t.Errorf("%s = %+v, want only topic %d", tt.tool, out.Topics, tt.want)
			}
		})
	}

	var decisions DecisionsOutput
	call(t, s, "get_decisions", map[string]any{"topic_id": decided.TopicID}, &decisions)
	if len(decisions.Decisions) != 1 {
		t.Errorf("get_decisions = %+v", decisions)
	}

	var result search.Result
	call(t, s, "search", map[string]any{"project_id": project.ProjectID, "keyword": "trigram"}, &result)
	if result.TotalCount != 1 || result.Results[0].Type != db.Decision || result.Results[0].ID != decision.DecisionID {
		t.Errorf("search = %+v, want the decision", result)
	}

	var semantic search.Result
	call(t, s, "semantic_search", map[string]any{"project_id": project.ProjectID, "keyword": "trigram"}, &semantic)
	if semantic.TotalCount != 0 {
		t.Errorf("semantic_search without a model = %+v, want no results", semantic)
	}

	var rec struct {
		Type string          `json:"type"`
		Data memory.Decision `json:"data"`
	}
	call(t, s, "get_by_id", map[string]any{"type": "decision", "id": decision.DecisionID}, &rec)
	if rec.Type != "decision" || rec.Data.Decision != "FTS5 trigram を採用" {
		t.Errorf("get_by_id = %+v", rec)
	}
}

func TestTopicTree(t *testing.T) {
	s := connect(t)

	var project ProjectOutput
	call(t, s, "add_project", map[string]any{"name": "tree", "description": ""}, &project)
	var root, child TopicOutput
	call(t, s, "add_topic", map[string]any{"project_id": project.ProjectID, "title": "root", "description": ""}, &root)
	call(t, s, "add_topic", map[string]any{"project_id": project.ProjectID, "title": "child", "description": "", "parent_topic_id": root.TopicID}, &child)

	var topics TopicsOutput
	call(t, s, "get_topics", map[string]any{"project_id": project.ProjectID, "parent_topic_id": root.TopicID}, &topics)
	if len(topics.Topics) != 1 || topics.Topics[0].ID != child.TopicID {
		t.Errorf("get_topics(parent) = %+v", topics)
	}

	var tree struct {
		Tree struct {
			ID       int64 `json:"id"`
			Children []struct {
				ID int64 `json:"id"`
			} `json:"children"`
		} `json:"tree"`
	}
	call(t, s, "get_topic_tree", map[string]any{"project_id": project.ProjectID, "topic_id": root.TopicID}, &tree)
	if tree.Tree.ID != root.TopicID || len(tree.Tree.Children) != 1 || tree.Tree.Children[0].ID != child.TopicID {
		t.Errorf("get_topic_tree = %+v", tree)
	}
}

func TestBlockedTaskOpensTopic(t *testing.T) {
	s := connect(t)

	var project ProjectOutput
	call(t, s, "add_project", map[string]any{"name": "tasks", "description": ""}, &project)
	var task TaskOutput
	call(t, s, "add_task", map[string]any{"project_id": project.ProjectID, "title": "ベクトル検索を実装", "description": "ruri-v3"}, &task)
	if task.Status != memory.StatusPending {
		t.Fatalf("add_task status = %q, want pending", task.Status)
	}

	var blocked TaskOutput
	call(t, s, "update_task_status", map[string]any{"task_id": task.TaskID, "new_status": "blocked"}, &blocked)
	if blocked.Status != memory.StatusBlocked || blocked.TopicID == nil {
		t.Fatalf("update_task_status = %+v, want blocked with a topic", blocked)
	}

	var tasks TasksOutput
	call(t, s, "get_tasks", map[string]any{"project_id": project.ProjectID, "status": "blocked"}, &tasks)
	if len(tasks.Tasks) != 1 || tasks.Tasks[0].ID != task.TaskID {
		t.Errorf("get_tasks(blocked) = %+v", tasks)
	}

	var topics TopicsOutput
	call(t, s, "get_undecided_topics", map[string]any{"project_id": project.ProjectID}, &topics)
	if len(topics.Topics) != 1 || topics.Topics[0].Title != "[BLOCKED] ベクトル検索を実装" {
		t.Errorf("get_undecided_topics = %+v", topics)
	}
}

func TestToolErrors(t *testing.T) {
	s := connect(t)

	var project ProjectOutput
	call(t, s, "add_project", map[string]any{"name": "errors", "description": ""}, &project)

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		wantCode string
	}{
		{"short keyword", "search", map[string]any{"project_id": project.ProjectID, "keyword": "ab"}, "KEYWORD_TOO_SHORT"},
		{"bad type filter", "search", map[string]any{"project_id": project.ProjectID, "keyword": "abc", "type_filter": "note"}, "INVALID_TYPE_FILTER"},
		{"bad type", "get_by_id", map[string]any{"type": "note", "id": 1}, "INVALID_TYPE"},
		{"missing record", "get_by_id", map[string]any{"type": "topic", "id": 99999}, "NOT_FOUND"},
		{"bad status", "get_tasks", map[string]any{"project_id": project.ProjectID, "status": "done"}, "INVALID_STATUS"},
		{"duplicate project", "add_project", map[string]any{"name": "errors", "description": ""}, "CONSTRAINT_VIOLATION"},
		{"missing tree root", "get_topic_tree", map[string]any{"project_id": project.ProjectID, "topic_id": 404}, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out ErrorOutput
			res := call(t, s, tt.tool, tt.args, &out)
			if !res.IsError {
				t.Errorf("%s IsError = false", tt.tool)
			}
			if out.Error.Code != tt.wantCode {
				t.Errorf("%s code = %q, want %q (message %q)", tt.tool, out.Error.Code, tt.wantCode, out.Error.Message)
			}
		})
	}

	var out ErrorOutput
	call(t, s, "get_by_id", map[string]any{"type": "topic", "id": 99999}, &out)
	if out.Error.Message != "topic with id 99999 not found" {
		t.Errorf("NOT_FOUND message = %q", out.Error.Message)
	}
}
