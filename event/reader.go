package event

import (
	"context"

	"waypoint/policy"
	"waypoint/session"

	"github.com/fundwit/go-commons/types"
)

// Reader serves events to callers: only events the caller may read are
// returned, and notes are blanked where a field policy hides them.
type Reader struct {
	Store      Store
	Authorizer *policy.Authorizer
}

func NewReader(store Store, authorizer *policy.Authorizer) *Reader {
	return &Reader{Store: store, Authorizer: authorizer}
}

func (r *Reader) List(ctx context.Context, entityID types.ID, sec *session.Context) ([]WorkflowEvent, error) {
	events, err := r.Store.List(ctx, r.Authorizer.Registry().Workflow, entityID, r.Authorizer.Filter(sec, policy.ActionRead))
	if err != nil {
		return nil, err
	}
	return r.Redact(events, sec), nil
}

func (r *Reader) ReadMany(ctx context.Context, ids []types.ID, sec *session.Context) ([]WorkflowEvent, error) {
	events, err := r.Store.ReadMany(ctx, ids, r.Authorizer.Filter(sec, policy.ActionRead))
	if err != nil {
		return nil, err
	}
	workflow := r.Authorizer.Registry().Workflow
	own := events[:0]
	for _, e := range events {
		if e.Workflow == workflow {
			own = append(own, e)
		}
	}
	return r.Redact(own, sec), nil
}

// Redact blanks the notes sec may not read.
func (r *Reader) Redact(events []WorkflowEvent, sec *session.Context) []WorkflowEvent {
	for i := range events {
		if !r.Authorizer.CanReadField(sec, FieldNotes, &events[i]) {
			events[i].Notes = ""
		}
	}
	return events
}
