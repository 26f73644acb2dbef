package execution

import (
	"context"
	"testing"

	"waypoint/event"
	"waypoint/testinfra"

	. "github.com/onsi/gomega"
)

func TestDispatch(t *testing.T) {
	RegisterTestingT(t)

	t.Run("handlers see committed changes and mark them dispatched", func(t *testing.T) {
		f := newFixture("report")
		var seen []*Changed
		f.service.Subscribe(func(c *Changed) *HandleResult {
			// the event is readable before any handler runs
			history := f.history()
			Expect(history).To(HaveLen(1))
			seen = append(seen, c)
			return &HandleResult{Success: true, HandlerIdentifier: "recorder"}
		}, func(c *Changed) *HandleResult {
			return nil
		})

		changed, err := f.service.ExecuteTransition(context.Background(), Input{EntityID: entity100, TransitionID: f.id("Start")},
			testinfra.BuildSecCtx(1, "writer"))
		Expect(err).To(BeNil())
		Expect(seen).To(Equal([]*Changed{changed}))

		pending, err := f.events.ListUndispatched(context.Background(), "report", 10)
		Expect(err).To(BeNil())
		Expect(pending).To(BeEmpty())
	})

	t.Run("failed handlers leave the event for redispatch", func(t *testing.T) {
		f := newFixture("report")
		fail := true
		calls := 0
		f.service.Subscribe(func(c *Changed) *HandleResult {
			calls++
			return &HandleResult{Success: !fail, Message: "mail server down", HandlerIdentifier: "mailer"}
		})

		sec := testinfra.BuildSecCtx(1, "manager")
		_, err := f.service.ExecuteTransition(context.Background(), Input{EntityID: entity100, TransitionID: f.id("Start")}, sec)
		Expect(err).To(BeNil())
		_, err = f.service.ExecuteTransition(context.Background(), Input{EntityID: entity100, Status: "Done"}, testinfra.BuildSecCtx(2, "admin"))
		Expect(err).To(BeNil())

		pending, _ := f.events.ListUndispatched(context.Background(), "report", 10)
		Expect(pending).To(HaveLen(2))

		var redelivered []*Changed
		fail = false
		f.service.Handlers = append(f.service.Handlers, func(c *Changed) *HandleResult {
			redelivered = append(redelivered, c)
			return nil
		})
		count, err := f.service.Redispatch(context.Background(), 10)
		Expect(err).To(BeNil())
		Expect(count).To(Equal(2))
		Expect(calls).To(Equal(4))

		Expect(redelivered).To(HaveLen(2))
		Expect(redelivered[0].Previous).To(Equal("NotStarted"))
		Expect(redelivered[0].Transition.Name).To(Equal("Start"))
		Expect(redelivered[0].Actor.ID).To(BeEquivalentTo(1))
		Expect(redelivered[1].Previous).To(Equal("InProgress"))
		Expect(redelivered[1].Transition).To(BeNil())
		Expect(redelivered[1].To).To(Equal("Done"))

		pending, _ = f.events.ListUndispatched(context.Background(), "report", 10)
		Expect(pending).To(BeEmpty())
		count, err = f.service.Redispatch(context.Background(), 10)
		Expect(err).To(BeNil())
		Expect(count).To(BeZero())
	})

	t.Run("redispatch keeps the status the entity had before its first event", func(t *testing.T) {
		f := newFixture("report")
		f.statuses.Put(entity100, "InReview")
		f.service.Subscribe(func(c *Changed) *HandleResult {
			return &HandleResult{Success: false, Message: "mail server down", HandlerIdentifier: "mailer"}
		})

		changed, err := f.service.ExecuteTransition(context.Background(), Input{EntityID: entity100, TransitionID: f.id("Approve")},
			testinfra.BuildSecCtx(1, "manager"))
		Expect(err).To(BeNil())
		Expect(changed.Previous).To(Equal("InReview"))
		Expect(f.history()[0].Previous).To(Equal("InReview"))

		var redelivered []*Changed
		f.service.Handlers = []Handler{func(c *Changed) *HandleResult {
			redelivered = append(redelivered, c)
			return nil
		}}
		count, err := f.service.Redispatch(context.Background(), 10)
		Expect(err).To(BeNil())
		Expect(count).To(Equal(1))
		Expect(redelivered[0].Previous).To(Equal("InReview"))
		Expect(redelivered[0].To).To(Equal("Approved"))
	})

	t.Run("events without a recorded previous status fall back to the history", func(t *testing.T) {
		f := newFixture("report")
		Expect(f.events.Append(context.Background(), &event.WorkflowEvent{ID: 1, Workflow: "report", EntityID: entity100,
			TransitionID: f.id("Start"), To: "InProgress"})).To(BeNil())
		Expect(f.events.Append(context.Background(), &event.WorkflowEvent{ID: 2, Workflow: "report", EntityID: entity100,
			TransitionID: f.id("Submit"), To: "InReview"})).To(BeNil())

		var redelivered []*Changed
		f.service.Subscribe(func(c *Changed) *HandleResult {
			redelivered = append(redelivered, c)
			return nil
		})
		count, err := f.service.Redispatch(context.Background(), 10)
		Expect(err).To(BeNil())
		Expect(count).To(Equal(2))
		Expect(redelivered[0].Previous).To(Equal("NotStarted"))
		Expect(redelivered[1].Previous).To(Equal("InProgress"))
	})

	t.Run("invoke handlers collects non nil results", func(t *testing.T) {
		results := InvokeHandlersFunc([]Handler{
			func(c *Changed) *HandleResult { return nil },
			func(c *Changed) *HandleResult {
				return &HandleResult{Success: true, Message: "success", HandlerIdentifier: "all-success-handler"}
			},
			func(c *Changed) *HandleResult {
				return &HandleResult{Success: false, Message: "failure", HandlerIdentifier: "all-failure-handler"}
			},
		}, &Changed{Workflow: "report"})
		Expect(results).To(Equal([]HandleResult{
			{Success: true, Message: "success", HandlerIdentifier: "all-success-handler"},
			{Success: false, Message: "failure", HandlerIdentifier: "all-failure-handler"},
		}))
		Expect(allSucceeded(results)).To(BeFalse())
		Expect(allSucceeded(nil)).To(BeTrue())
	})
}
