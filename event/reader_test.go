package event_test

import (
	"context"
	"testing"

	"waypoint/condition"
	"waypoint/event"
	"waypoint/policy"
	"waypoint/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestReader(t *testing.T) {
	RegisterTestingT(t)

	t.Run("reads are filtered by the read policy", func(t *testing.T) {
		r := reportRegistry()
		s := event.NewMemoryStore()
		seed(s, eventOf(r, 1, 100, "Start", 1), eventOf(r, 2, 100, "Submit", 2), bypassOf(r, 3, 100, "Approved", 3))

		reader := event.NewReader(s, policy.NewAuthorizer(r,
			policy.Grant("auditor").Read(),
			policy.Grant("writer").ReadWhen(condition.Named(r, "Start")),
		))

		events, err := reader.List(context.Background(), 100, testinfra.BuildSecCtx(1, "auditor"))
		Expect(err).To(BeNil())
		Expect(len(events)).To(Equal(3))

		events, err = reader.List(context.Background(), 100, testinfra.BuildSecCtx(2, "writer"))
		Expect(err).To(BeNil())
		Expect(len(events)).To(Equal(1))
		Expect(events[0].ID).To(Equal(types.ID(1)))

		events, err = reader.List(context.Background(), 100, testinfra.BuildSecCtx(3, "guest"))
		Expect(err).To(BeNil())
		Expect(events).To(BeEmpty())

		events, err = reader.List(context.Background(), 100, nil)
		Expect(err).To(BeNil())
		Expect(events).To(BeEmpty())
	})

	t.Run("notes are redacted by field policy without touching the store", func(t *testing.T) {
		r := reportRegistry()
		s := event.NewMemoryStore()
		seed(s, eventOf(r, 1, 100, "Start", 1), eventOf(r, 2, 100, "Submit", 2))

		reader := event.NewReader(s, policy.NewAuthorizer(r,
			policy.Grant("writer").Read().Specifically(event.FieldNotes, condition.Named(r, "Start")),
		))

		events, err := reader.List(context.Background(), 100, testinfra.BuildSecCtx(1, "writer"))
		Expect(err).To(BeNil())
		Expect(len(events)).To(Equal(2))
		Expect(events[0].Notes).To(Equal("Start notes"))
		Expect(events[1].Notes).To(BeEmpty())

		stored, _ := s.List(context.Background(), "report", 100, event.Unfiltered)
		Expect(stored[1].Notes).To(Equal("Submit notes"))
	})

	t.Run("read many only returns events of the reader's workflow", func(t *testing.T) {
		r := reportRegistry()
		s := event.NewMemoryStore()
		other := eventOf(r, 2, 100, "Start", 2)
		other.Workflow = "project"
		seed(s, eventOf(r, 1, 100, "Start", 1), other)

		reader := event.NewReader(s, policy.NewAuthorizer(r, policy.Grant().Read()))
		events, err := reader.ReadMany(context.Background(), []types.ID{1, 2}, testinfra.BuildSecCtx(1))
		Expect(err).To(BeNil())
		Expect(len(events)).To(Equal(1))
		Expect(events[0].ID).To(Equal(types.ID(1)))
	})
}
