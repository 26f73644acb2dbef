package execution

import (
	"context"

	"waypoint/event"

	"github.com/sirupsen/logrus"
)

// Redispatch hands events whose handlers did not all complete to the handlers
// again, oldest first. It returns how many events were dispatched.
func (s *Service) Redispatch(ctx context.Context, limit int) (int, error) {
	pending, err := s.Events.ListUndispatched(ctx, s.Workflow(), limit)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		changed, err := s.rebuild(ctx, &pending[i])
		if err != nil {
			return count, err
		}
		s.dispatch(ctx, changed)
		redispatchedTotal.WithLabelValues(s.Workflow()).Inc()
		count++
	}
	return count, nil
}

// rebuild derives the change of a stored event. Events recorded without a
// previous state take the destination of the event before them instead.
func (s *Service) rebuild(ctx context.Context, e *event.WorkflowEvent) (*Changed, error) {
	previous := e.Previous
	if previous == "" {
		history, err := s.Events.List(ctx, s.Workflow(), e.EntityID, event.Unfiltered)
		if err != nil {
			return nil, err
		}
		previous = s.Initial
		for _, h := range history {
			if h.ID == e.ID {
				break
			}
			previous = h.To
		}
	}

	changed := &Changed{Workflow: s.Workflow(), EntityID: e.EntityID, Previous: previous, To: e.To, Event: *e}
	changed.Actor.ID = e.WhoID
	changed.Actor.Name = e.WhoName
	if !e.IsBypass() {
		if t, found := s.Registry.ByID(e.TransitionID); found {
			changed.Transition = &t
		} else {
			logrus.WithFields(logrus.Fields{"workflow": s.Workflow(), "event": e.ID, "transition": e.TransitionID}).
				Warn("stored event refers to an unknown transition id")
		}
	}
	return changed, nil
}
