package execution

import (
	"context"

	"waypoint/entity"
	"waypoint/event"
	"waypoint/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// GormRepository commits in one database transaction: the conditional status
// update of the entity table and the insert into workflow_events.
type GormRepository struct {
	DS    *persistence.DataSourceManager
	Table *entity.GormStatusTable
}

func NewGormRepository(ds *persistence.DataSourceManager, table *entity.GormStatusTable) *GormRepository {
	if table.DS == nil {
		table.DS = ds
	}
	return &GormRepository{DS: ds, Table: table}
}

func (r *GormRepository) ReadCurrentState(ctx context.Context, entityID types.ID) (string, error) {
	return r.Table.Read(r.DS.GormDB(ctx), entityID)
}

func (r *GormRepository) Commit(ctx context.Context, e *event.WorkflowEvent, expected string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.DS.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.Table.Write(tx, e.EntityID, expected, e.To, e.At); err != nil {
			return err
		}
		return event.PersistEventFunc(e, tx)
	})
}
