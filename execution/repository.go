package execution

import (
	"context"

	"waypoint/entity"
	"waypoint/event"

	"github.com/fundwit/go-commons/types"
)

// Repository is the persistence behind a Service. Commit appends the event
// and moves the entity from expected to e.To as one atomic unit, failing
// with bizerror.ErrConflict when the entity has moved meanwhile.
type Repository interface {
	ReadCurrentState(ctx context.Context, entityID types.ID) (string, error)
	Commit(ctx context.Context, e *event.WorkflowEvent, expected string) error
}

// MemoryRepository commits under the status store lock.
type MemoryRepository struct {
	Events   *event.MemoryStore
	Statuses *entity.MemoryStatusStore
}

func NewMemoryRepository(events *event.MemoryStore, statuses *entity.MemoryStatusStore) *MemoryRepository {
	return &MemoryRepository{Events: events, Statuses: statuses}
}

func (r *MemoryRepository) ReadCurrentState(ctx context.Context, entityID types.ID) (string, error) {
	return r.Statuses.ReadCurrentState(ctx, entityID)
}

func (r *MemoryRepository) Commit(ctx context.Context, e *event.WorkflowEvent, expected string) error {
	return r.Statuses.Locked(func(write func(id types.ID, expected, next string) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := write(e.EntityID, expected, e.To); err != nil {
			return err
		}
		return r.Events.Append(context.WithoutCancel(ctx), e)
	})
}
