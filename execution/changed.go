package execution

import (
	"waypoint/event"
	"waypoint/session"
	"waypoint/transition"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

// Changed is published after a workflow event has been committed. Consumers
// may see it more than once and must be idempotent on Event.ID.
type Changed struct {
	Workflow string   `json:"workflow"`
	EntityID types.ID `json:"entityId"`
	Previous string   `json:"previous"`
	// Transition is nil for bypasses.
	Transition *transition.Transition `json:"transition,omitempty"`
	To         string                 `json:"to"`
	Event      event.WorkflowEvent    `json:"event"`
	Actor      session.Identity       `json:"actor"`
}

// Next is the resolved outcome that produced the change.
func (c *Changed) Next() transition.Next {
	if c.Transition == nil {
		return transition.Bypass{Status: c.To}
	}
	return transition.Step{Transition: *c.Transition}
}

// Handler consumes a change; it returns nil when the change does not concern it.
type Handler func(c *Changed) *HandleResult

type HandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var InvokeHandlersFunc = invokeHandlers

func invokeHandlers(handlers []Handler, c *Changed) []HandleResult {
	results := []HandleResult{}
	for _, handler := range handlers {
		logrus.Debug("pre handle workflow event ", c.Event.ID)
		r := handler(c)
		if r == nil {
			continue
		}
		results = append(results, *r)

		if r.Success {
			logrus.Info("post handle workflow event. ", *r)
		} else {
			logrus.WithFields(logrus.Fields{"workflow": c.Workflow, "entity": c.EntityID, "event": c.Event.ID}).
				Error("post handle workflow event failed. ", *r)
		}
	}
	return results
}

func allSucceeded(results []HandleResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
