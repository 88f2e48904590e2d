package mcp

import "github.com/stormlightlabs/memoria/internal/memory"

type AddProjectInput struct {
	Name        string `json:"name" jsonschema:"Project name, unique across the database"`
	Description string `json:"description" jsonschema:"What the project is about"`
	AsanaURL    string `json:"asana_url,omitempty" jsonschema:"Optional Asana project URL"`
}

type GetProjectsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of projects (default and maximum 30)"`
}

type AddTopicInput struct {
	ProjectID     int64  `json:"project_id" jsonschema:"Project ID"`
	Title         string `json:"title" jsonschema:"Topic title"`
	Description   string `json:"description" jsonschema:"Topic description"`
	ParentTopicID *int64 `json:"parent_topic_id,omitempty" jsonschema:"Parent topic ID; omit for a root topic"`
}

// GetTopicsInput is shared by get_topics, get_decided_topics and
// get_undecided_topics.
type GetTopicsInput struct {
	ProjectID     int64  `json:"project_id" jsonschema:"Project ID"`
	ParentTopicID *int64 `json:"parent_topic_id,omitempty" jsonschema:"List the children of this topic; omit for root topics"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of topics (default and maximum 10)"`
}

type GetTopicTreeInput struct {
	ProjectID int64 `json:"project_id" jsonschema:"Project ID"`
	TopicID   int64 `json:"topic_id" jsonschema:"Root topic of the tree"`
	Limit     int   `json:"limit,omitempty" jsonschema:"Maximum number of topics in the tree (default and maximum 100)"`
}

type AddLogInput struct {
	TopicID int64  `json:"topic_id" jsonschema:"Topic ID"`
	Content string `json:"content" jsonschema:"Log content"`
}

// PageInput pages through a topic's logs or decisions.
type PageInput struct {
	TopicID int64 `json:"topic_id" jsonschema:"Topic ID"`
	StartID int64 `json:"start_id,omitempty" jsonschema:"First ID to include, for paging"`
	Limit   int   `json:"limit,omitempty" jsonschema:"Maximum number of rows (default and maximum 30)"`
}

type AddDecisionInput struct {
	TopicID  int64  `json:"topic_id" jsonschema:"Topic the decision settles"`
	Decision string `json:"decision" jsonschema:"What was decided"`
	Reason   string `json:"reason" jsonschema:"Why it was decided"`
}

type AddTaskInput struct {
	ProjectID   int64  `json:"project_id" jsonschema:"Project ID"`
	Title       string `json:"title" jsonschema:"Task title"`
	Description string `json:"description" jsonschema:"Task details"`
}

type GetTasksInput struct {
	ProjectID int64  `json:"project_id" jsonschema:"Project ID"`
	Status    string `json:"status,omitempty" jsonschema:"Only tasks with this status: pending, in_progress, completed or blocked"`
}

type UpdateTaskStatusInput struct {
	TaskID    int64  `json:"task_id" jsonschema:"Task ID"`
	NewStatus string `json:"new_status" jsonschema:"pending, in_progress, completed or blocked; blocked opens a discussion topic"`
}

// SearchInput is shared by search and semantic_search.
type SearchInput struct {
	ProjectID  int64  `json:"project_id" jsonschema:"Project ID"`
	Keyword    string `json:"keyword" jsonschema:"Search keyword, at least 3 characters"`
	TypeFilter string `json:"type_filter,omitempty" jsonschema:"Only one record type: topic, decision or task"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10, maximum 50)"`
}

type GetByIDInput struct {
	Type string `json:"type" jsonschema:"Record type: topic, decision or task"`
	ID   int64  `json:"id" jsonschema:"Record ID"`
}

// ErrorOutput is returned, flagged as an error, when a tool call fails.
type ErrorOutput struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProjectOutput struct {
	ProjectID   int64   `json:"project_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	AsanaURL    *string `json:"asana_url"`
	CreatedAt   string  `json:"created_at"`
}

func newProjectOutput(p memory.Project) ProjectOutput {
	return ProjectOutput{ProjectID: p.ID, Name: p.Name, Description: p.Description, AsanaURL: p.AsanaURL, CreatedAt: p.CreatedAt}
}

type TopicOutput struct {
	TopicID       int64   `json:"topic_id"`
	ProjectID     int64   `json:"project_id"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	ParentTopicID *int64  `json:"parent_topic_id"`
	CreatedAt     string  `json:"created_at"`
}

func newTopicOutput(t memory.Topic) TopicOutput {
	return TopicOutput{
		TopicID:       t.ID,
		ProjectID:     t.ProjectID,
		Title:         t.Title,
		Description:   t.Description,
		ParentTopicID: t.ParentTopicID,
		CreatedAt:     t.CreatedAt,
	}
}

type LogOutput struct {
	LogID     int64  `json:"log_id"`
	TopicID   int64  `json:"topic_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type DecisionOutput struct {
	DecisionID int64   `json:"decision_id"`
	TopicID    int64   `json:"topic_id"`
	Decision   string  `json:"decision"`
	Reason     *string `json:"reason"`
	CreatedAt  string  `json:"created_at"`
}

type TaskOutput struct {
	TaskID      int64         `json:"task_id"`
	ProjectID   int64         `json:"project_id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      memory.Status `json:"status"`
	TopicID     *int64        `json:"topic_id"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

func newTaskOutput(t memory.Task) TaskOutput {
	return TaskOutput{
		TaskID:      t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		TopicID:     t.TopicID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type ProjectsOutput struct {
	Projects []memory.Project `json:"projects"`
}

type TopicsOutput struct {
	Topics []memory.Topic `json:"topics"`
}

type TreeOutput struct {
	Tree *memory.TopicNode `json:"tree"`
}

type LogsOutput struct {
	Logs []memory.Log `json:"logs"`
}

type DecisionsOutput struct {
	Decisions []memory.Decision `json:"decisions"`
}

type TasksOutput struct {
	Tasks []memory.Task `json:"tasks"`
}
