package projectstep

import (
	"context"
	"testing"

	"waypoint/entity"
	"waypoint/event"
	"waypoint/execution"
	"waypoint/policy"
	"waypoint/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestDefinition(t *testing.T) {
	RegisterTestingT(t)

	d, err := Load()
	Expect(err).To(BeNil())

	t.Run("table", func(t *testing.T) {
		Expect(d.Workflow()).To(Equal(Workflow))
		Expect(d.Table.Initial).To(Equal("EarlyConversations"))
		Expect(d.Table.Notify).To(Equal([]string{RoleProjectManager}))
		Expect(d.StatusTable.Table).To(Equal("projects"))
		Expect(d.StatusTable.Column).To(Equal("step"))
		Expect(len(d.Registry.All())).To(Equal(26))
		Expect(d.Registry.States()).To(ContainElements("Active", "Suspended", "Terminated", "Completed", "DidNotDevelop"))

		terminate, _ := d.Registry.Get("Discuss Termination")
		Expect(terminate.From).To(Equal([]string{"Active", "Suspended"}))
		Expect(terminate.Pinned).To(BeFalse())
	})

	t.Run("every transition is executable by some role", func(t *testing.T) {
		roles := []string{RoleProjectManager, RoleRegionalDirector, RoleController}
		for _, tr := range d.Registry.All() {
			executable := false
			for _, role := range roles {
				if d.Authorizer.CanExecute(testinfra.BuildSecCtx(1, role), tr) {
					executable = true
				}
			}
			Expect(executable).To(BeTrue(), tr.Name)
			Expect(d.Authorizer.CanExecute(testinfra.BuildSecCtx(1, RoleConsultant), tr)).To(BeFalse())
		}
	})

	t.Run("consultants read running projects without notes", func(t *testing.T) {
		consultant := testinfra.BuildSecCtx(1, RoleConsultant)
		confirm, _ := d.Registry.Get("Confirm Project")
		endorse, _ := d.Registry.Get("Endorse Plan")

		confirmed := &event.WorkflowEvent{TransitionID: confirm.ID, To: confirm.To}
		Expect(d.Authorizer.Can(consultant, policy.ActionRead, confirmed)).To(BeTrue())
		Expect(d.Authorizer.CanReadField(consultant, event.FieldNotes, confirmed)).To(BeFalse())
		Expect(d.Authorizer.Can(consultant, policy.ActionRead, &event.WorkflowEvent{TransitionID: endorse.ID})).To(BeFalse())
		Expect(d.Authorizer.CanReadField(testinfra.BuildSecCtx(2, RoleController), event.FieldNotes, confirmed)).To(BeTrue())
	})

	t.Run("walks the approval pipeline", func(t *testing.T) {
		events := event.NewMemoryStore()
		statuses := entity.NewMemoryStatusStore()
		statuses.Put(1, "")
		s := d.NewService(execution.NewMemoryRepository(events, statuses), events)

		steps := []struct {
			role string
			name string
		}{
			{RoleProjectManager, "Submit For Concept Approval"},
			{RoleRegionalDirector, "Approve Concept"},
			{RoleProjectManager, "Submit For Financial Endorsement"},
			{RoleController, "Endorse Plan"},
			{RoleProjectManager, "Submit For Director Approval"},
			{RoleRegionalDirector, "Approve Proposal"},
			{RoleController, "Confirm Project"},
		}
		for _, step := range steps {
			tr, _ := d.Registry.Get(step.name)
			_, err := s.ExecuteTransition(context.Background(),
				execution.Input{EntityID: types.ID(1), TransitionID: tr.ID}, testinfra.BuildSecCtx(1, step.role))
			Expect(err).To(BeNil(), step.name)
		}
		status, err := statuses.ReadCurrentState(context.Background(), 1)
		Expect(err).To(BeNil())
		Expect(status).To(Equal("Active"))

		available, err := s.AvailableTransitions(context.Background(), 1, testinfra.BuildSecCtx(1, RoleProjectManager))
		Expect(err).To(BeNil())
		names := []string{}
		for _, tr := range available {
			names = append(names, tr.Name)
		}
		Expect(names).To(Equal([]string{"Discuss Suspension", "Discuss Termination", "Finalize Completion"}))
	})
}
