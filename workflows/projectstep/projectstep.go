// Package projectstep is the approval pipeline of a project, from early
// conversations through activation to suspension, termination or completion.
package projectstep

import (
	_ "embed"

	"waypoint/condition"
	"waypoint/entity"
	"waypoint/event"
	"waypoint/policy"
	"waypoint/transition"
	"waypoint/workflows"
)

const (
	Workflow = "projectstep"

	RoleAdministrator    = "administrator"
	RoleProjectManager   = "project-manager"
	RoleRegionalDirector = "regional-director"
	RoleController       = "controller"
	RoleConsultant       = "consultant"
)

//go:embed projectstep.yaml
var table []byte

func Load() (*workflows.Definition, error) {
	return workflows.Load(Workflow, table, Policies,
		&entity.GormStatusTable{Table: "projects", Column: "step", ChangedAtColumn: "step_changed_at"})
}

func Policies(r *transition.Registry) []policy.Policy {
	return []policy.Policy{
		policy.Grant(RoleAdministrator).Read().ExecuteAll().AllowBypass(),
		policy.Grant(RoleProjectManager).Read().Execute(condition.Named(r,
			"Submit For Concept Approval", "End Development", "Submit For Financial Endorsement",
			"Submit For Director Approval", "Resume Confirmation", "Discuss Suspension",
			"Submit For Suspension Approval", "Discuss Reactivation", "Discuss Termination", "Finalize Completion")),
		policy.Grant(RoleRegionalDirector).Read().Execute(condition.Named(r,
			"Approve Concept", "Request Concept Changes", "Reject Concept", "Approve Proposal",
			"Request Proposal Changes", "Approve Suspension", "Reject Suspension", "Approve Reactivation",
			"Approve Termination", "Abandon Termination", "Complete", "Back To Active")),
		policy.Grant(RoleController).Read().Execute(condition.Named(r,
			"Endorse Plan", "Request Financial Changes", "Confirm Project", "Hold Confirmation")),
		// Consultants follow the project once it is running, without the internal notes.
		policy.Grant(RoleConsultant).
			ReadWhen(condition.EndingIn(r, "Active", "Suspended", "Terminated", "Completed")).
			Specifically(event.FieldNotes, condition.None(r)),
	}
}
