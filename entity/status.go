// Package entity writes the status field of business records. The records
// themselves belong to the surrounding application.
package entity

import (
	"context"

	"github.com/fundwit/go-commons/types"
)

// StatusStore reads and writes the current status of an entity. An empty
// status means none was recorded yet.
type StatusStore interface {
	// ReadCurrentState fails with bizerror.ErrNotFound for unknown entities.
	ReadCurrentState(ctx context.Context, id types.ID) (string, error)
	// WriteState sets next only if the stored status is still expected,
	// otherwise it fails with bizerror.ErrConflict.
	WriteState(ctx context.Context, id types.ID, expected, next string, at types.Timestamp) error
}
