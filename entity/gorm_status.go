package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"waypoint/bizerror"
	"waypoint/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// GormStatusTable is the status column of an entity table keyed by `id`.
// ChangedAtColumn is optional.
type GormStatusTable struct {
	DS              *persistence.DataSourceManager
	Table           string
	Column          string
	ChangedAtColumn string
}

func (t *GormStatusTable) ReadCurrentState(ctx context.Context, id types.ID) (string, error) {
	return t.Read(t.DS.GormDB(ctx), id)
}

func (t *GormStatusTable) WriteState(ctx context.Context, id types.ID, expected, next string, at types.Timestamp) error {
	return t.Write(t.DS.GormDB(ctx), id, expected, next, at)
}

// Read loads the status through db, which may be a transaction.
func (t *GormStatusTable) Read(db *gorm.DB, id types.ID) (string, error) {
	var status sql.NullString
	err := db.Table(t.Table).Select(t.Column).Where("id = ?", id).Row().Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", bizerror.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return status.String, nil
}

// Write is the conditional update guarding concurrent executions.
func (t *GormStatusTable) Write(db *gorm.DB, id types.ID, expected, next string, at types.Timestamp) error {
	changes := map[string]interface{}{t.Column: next}
	if t.ChangedAtColumn != "" {
		changes[t.ChangedAtColumn] = at
	}

	q := db.Table(t.Table).Where("id = ?", id)
	if expected == "" {
		q = q.Where(fmt.Sprintf("(%s IS NULL OR %s = '')", t.Column, t.Column))
	} else {
		q = q.Where(t.Column+" = ?", expected)
	}
	result := q.Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		// mysql reports unchanged rows as unaffected
		if next == expected {
			if current, err := t.Read(db, id); err == nil && current == next {
				return nil
			}
		}
		return bizerror.ErrConflict
	}
	return nil
}
