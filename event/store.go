package event

import (
	"context"

	"waypoint/policy"

	"github.com/fundwit/go-commons/types"
)

// Unfiltered reads every event. Only the execution service reads this way.
var Unfiltered = policy.Filter{Unrestricted: true}

// Store is the append only list of workflow events per entity.
type Store interface {
	Append(ctx context.Context, e *WorkflowEvent) error
	// CurrentStatus returns the destination of the latest event; found is
	// false when the entity has no events yet.
	CurrentStatus(ctx context.Context, workflow string, entityID types.ID) (status string, found bool, err error)
	// List returns the events of an entity accepted by filter, oldest first.
	List(ctx context.Context, workflow string, entityID types.ID, filter policy.Filter) ([]WorkflowEvent, error)
	ReadMany(ctx context.Context, ids []types.ID, filter policy.Filter) ([]WorkflowEvent, error)

	// ListUndispatched returns the oldest events of workflow whose handlers have
	// not all completed.
	ListUndispatched(ctx context.Context, workflow string, limit int) ([]WorkflowEvent, error)
	MarkDispatched(ctx context.Context, id types.ID) error
}
