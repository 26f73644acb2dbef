package indices

import (
	"context"
	"fmt"

	"waypoint/client/es"
	"waypoint/event"
	"waypoint/execution"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	EventIndexName = "workflow_events"

	IndexEventsFunc = IndexEvents
)

const handlerIdentifier = "event-indexer"

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

// IndexEvents stores every event as its own document; failures are collected
// per event instead of stopping the batch.
func IndexEvents(ctx context.Context, events []event.WorkflowEvent) error {
	errs := BatchActionError{}
	for _, e := range events {
		if err := es.IndexFunc(ctx, EventIndexName, e.ID.String(), e); err != nil {
			errs[e.ID] = err
			logrus.Warnf("index workflow event %d of %s %d: %v", e.ID, e.Workflow, e.EntityID, err)
		} else {
			logrus.Debugf("index workflow event %d of %s %d successfully", e.ID, e.Workflow, e.EntityID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// IndexEventHandler keeps the search index in step with committed changes.
func IndexEventHandler(c *execution.Changed) *execution.HandleResult {
	if err := IndexEventsFunc(context.Background(), []event.WorkflowEvent{c.Event}); err != nil {
		return &execution.HandleResult{Success: false, Message: err.Error(), HandlerIdentifier: handlerIdentifier}
	}
	return &execution.HandleResult{Success: true, HandlerIdentifier: handlerIdentifier}
}

// EventIndexMapping keeps identifiers and states as exact keywords so term
// filters match them verbatim.
var EventIndexMapping = es.H{
	"mappings": es.H{
		"properties": es.H{
			"id":         es.H{"type": "keyword"},
			"workflow":   es.H{"type": "keyword"},
			"entityId":   es.H{"type": "keyword"},
			"at":         es.H{"type": "date"},
			"whoId":      es.H{"type": "keyword"},
			"whoName":    es.H{"type": "keyword"},
			"transition": es.H{"type": "keyword"},
			"previous":   es.H{"type": "keyword"},
			"to":         es.H{"type": "keyword"},
			"notes":      es.H{"type": "text"},
		},
	},
}

func CreateEventIndex(ctx context.Context) error {
	return es.CreateIndexFunc(ctx, EventIndexName, EventIndexMapping)
}
