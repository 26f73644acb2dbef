package event

import (
	"context"

	"waypoint/condition/gormsql"
	"waypoint/persistence"
	"waypoint/policy"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	PersistEventFunc = persistEvent
)

func persistEvent(record *WorkflowEvent, db *gorm.DB) error {
	return db.Create(record).Error
}

// GormStore keeps events in the workflow_events table.
type GormStore struct {
	DS *persistence.DataSourceManager
}

func NewGormStore(ds *persistence.DataSourceManager) *GormStore {
	return &GormStore{DS: ds}
}

func (s *GormStore) Migrate() error {
	return s.DS.GormDB(context.Background()).AutoMigrate(&WorkflowEvent{}).Error
}

func (s *GormStore) Append(ctx context.Context, e *WorkflowEvent) error {
	return PersistEventFunc(e, s.DS.GormDB(ctx))
}

func (s *GormStore) CurrentStatus(ctx context.Context, workflow string, entityID types.ID) (string, bool, error) {
	latest := WorkflowEvent{}
	err := s.DS.GormDB(ctx).Where("workflow = ? AND entity_id = ?", workflow, entityID).
		Order("at DESC, id DESC").First(&latest).Error
	if gorm.IsRecordNotFoundError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return latest.To, true, nil
}

func (s *GormStore) List(ctx context.Context, workflow string, entityID types.ID, filter policy.Filter) ([]WorkflowEvent, error) {
	events := []WorkflowEvent{}
	q := filtered(s.DS.GormDB(ctx), filter).Where("workflow = ? AND entity_id = ?", workflow, entityID)
	if err := q.Order("at ASC, id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) ReadMany(ctx context.Context, ids []types.ID, filter policy.Filter) ([]WorkflowEvent, error) {
	events := []WorkflowEvent{}
	if len(ids) == 0 {
		return events, nil
	}
	if err := filtered(s.DS.GormDB(ctx), filter).Where("id IN (?)", ids).Order("at ASC, id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) ListUndispatched(ctx context.Context, workflow string, limit int) ([]WorkflowEvent, error) {
	events := []WorkflowEvent{}
	if err := s.DS.GormDB(ctx).Where("workflow = ? AND dispatched = ?", workflow, false).Order("id ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) MarkDispatched(ctx context.Context, id types.ID) error {
	return s.DS.GormDB(ctx).Model(&WorkflowEvent{}).Where("id = ?", id).Update("dispatched", true).Error
}

func filtered(db *gorm.DB, filter policy.Filter) *gorm.DB {
	if predicate, restricted := policy.Compile[gormsql.Predicate](filter, gormsql.Default); restricted {
		return db.Scopes(predicate.Scope())
	}
	return db
}
