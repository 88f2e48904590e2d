package memory

import (
	"slices"

	"github.com/stormlightlabs/memoria/internal/shared"
)

type Project struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description *string `json:"description" yaml:"description,omitempty"`
	AsanaURL    *string `json:"asana_url" yaml:"asana_url,omitempty"`
	CreatedAt   string  `json:"created_at" yaml:"created_at"`
}

type Topic struct {
	ID            int64   `json:"id" yaml:"id"`
	ProjectID     int64   `json:"project_id" yaml:"project_id"`
	Title         string  `json:"title" yaml:"title"`
	Description   *string `json:"description" yaml:"description,omitempty"`
	ParentTopicID *int64  `json:"parent_topic_id" yaml:"parent_topic_id,omitempty"`
	CreatedAt     string  `json:"created_at" yaml:"created_at"`
}

// TopicNode is a topic with its subtree.
type TopicNode struct {
	Topic    `yaml:",inline"`
	Children []*TopicNode `json:"children" yaml:"children"`
}

type Log struct {
	ID        int64  `json:"id" yaml:"id"`
	TopicID   int64  `json:"topic_id" yaml:"topic_id"`
	Content   string `json:"content" yaml:"content"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

type Decision struct {
	ID        int64   `json:"id" yaml:"id"`
	TopicID   int64   `json:"topic_id" yaml:"topic_id"`
	Decision  string  `json:"decision" yaml:"decision"`
	Reason    *string `json:"reason" yaml:"reason,omitempty"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
}

type Task struct {
	ID          int64   `json:"id" yaml:"id"`
	ProjectID   int64   `json:"project_id" yaml:"project_id"`
	Title       string  `json:"title" yaml:"title"`
	Description *string `json:"description" yaml:"description,omitempty"`
	Status      Status  `json:"status" yaml:"status"`
	TopicID     *int64  `json:"topic_id" yaml:"topic_id,omitempty"`
	CreatedAt   string  `json:"created_at" yaml:"created_at"`
	UpdatedAt   string  `json:"updated_at" yaml:"updated_at"`
}

// Status is a task's workflow state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusBlocked}
}

func ParseStatus(s string) (Status, error) {
	if slices.Contains(Statuses(), Status(s)) {
		return Status(s), nil
	}
	return "", shared.Errorf(shared.CodeInvalidStatus, "Invalid status: %s. Must be one of %v", s, Statuses())
}

// TopicFilter narrows a topic listing by whether a decision exists.
type TopicFilter string

const (
	FilterAll       TopicFilter = "all"
	FilterDecided   TopicFilter = "decided"
	FilterUndecided TopicFilter = "undecided"
)

func ParseTopicFilter(s string) (TopicFilter, error) {
	switch TopicFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterDecided, FilterUndecided:
		return TopicFilter(s), nil
	}
	return "", shared.Errorf(shared.CodeInvalidArgument, "unknown topic filter %q", s)
}
