package indices

import (
	"context"
	"encoding/json"
	"fmt"

	"waypoint/client/es"
	"waypoint/event"
	"waypoint/execution"
	"waypoint/policy"
	"waypoint/session"

	"github.com/fundwit/go-commons/types"
)

var (
	SearchEventsFunc = SearchEvents

	SearchSizeLimit = 10000
)

type EventQuery struct {
	EntityID types.ID `form:"entityId"`
	To       string   `form:"to"`
}

// SearchEvents queries the index for events of the service's workflow. The
// caller's read permission is part of the query, so unreadable events are
// never returned by the index.
func SearchEvents(ctx context.Context, s *execution.Service, q EventQuery, sec *session.Context) ([]event.WorkflowEvent, error) {
	filter := s.Authorizer.Filter(sec, policy.ActionRead)
	if filter.Denies() {
		return []event.WorkflowEvent{}, nil
	}

	/*
		{
			"query": {"bool": {"filter": [
				{"term": {"workflow": "report"}},
				{"term": {"entityId": "100"}},
				{"terms": {"transition": ["a1b2c3d4e5"]}}
			]}},
			"size": 10000,
			"sort": [{"at": {"order": "asc"}}, {"id": {"order": "asc"}}]
		}
	*/
	filters := make([]es.H, 0, 4)
	filters = append(filters, es.H{"term": es.H{"workflow": s.Workflow()}})
	if q.EntityID != 0 {
		filters = append(filters, es.H{"term": es.H{"entityId": q.EntityID.String()}})
	}
	if q.To != "" {
		filters = append(filters, es.H{"term": es.H{"to": q.To}})
	}
	if clause, limited := policy.Compile[es.H](filter, DefaultBackend); limited {
		filters = append(filters, clause)
	}

	sorts := []es.H{{"at": es.H{"order": "asc"}}, {"id": es.H{"order": "asc"}}}
	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(ctx, EventIndexName, es.H{"size": SearchSizeLimit, "query": root, "sort": sorts})
	if err != nil {
		return nil, err
	}

	events := make([]event.WorkflowEvent, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		e := event.WorkflowEvent{}
		if err := json.Unmarshal(hit.Source, &e); err != nil {
			return nil, fmt.Errorf("decode event document %s: %w", hit.Id, err)
		}
		events = append(events, e)
	}
	return s.Reader().Redact(events, sec), nil
}
