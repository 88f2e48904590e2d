package memory

import (
	"context"

	"github.com/stormlightlabs/memoria/internal/db"
	"github.com/stormlightlabs/memoria/internal/shared"
)

// Record loads the source row behind a search hit: a Topic, Decision or Task.
func (s *Service) Record(ctx context.Context, t db.SourceType, id int64) (any, error) {
	switch t {
	case db.Topic:
		return s.GetTopic(ctx, id)
	case db.Decision:
		return s.GetDecision(ctx, id)
	case db.Task:
		return s.GetTask(ctx, id)
	}
	return nil, shared.Errorf(shared.CodeInvalidType, "Invalid type: %s. Must be one of [decision task topic]", t)
}
