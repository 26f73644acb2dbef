// Package progressreport is the status lifecycle of periodic progress
// reports. Every transition id is pinned, so labels may be renamed freely.
package progressreport

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
	Workflow = "progressreport"

	RoleAdministrator  = "administrator"
	RoleProjectManager = "project-manager"
	RoleTranslator     = "translator"
	RoleController     = "controller"
	RoleCommunications = "communications"
)

//go:embed progressreport.yaml
var table []byte

func Load() (*workflows.Definition, error) {
	return workflows.Load(Workflow, table, Policies,
		&entity.GormStatusTable{Table: "progress_reports", Column: "status", ChangedAtColumn: "status_changed_at"})
}

func Policies(r *transition.Registry) []policy.Policy {
	return []policy.Policy{
		policy.Grant(RoleAdministrator).Read().ExecuteAll().AllowBypass(),
		policy.Grant(RoleProjectManager).Read().
			Execute(condition.Named(r, "Start", "Submit For Translation", "Submit For Review", "Withdraw")),
		policy.Grant(RoleTranslator).
			ReadWhen(condition.EndingIn(r, "PendingTranslation", "InReview")).
			Execute(condition.Named(r, "Submit For Review")),
		policy.Grant(RoleController).Read().Execute(condition.Named(r, "Request Changes", "Approve")),
		policy.Grant(RoleCommunications).
			ReadWhen(condition.EndingIn(r, "Approved", "Published")).
			Execute(condition.Named(r, "Publish")).
			Specifically(event.FieldNotes, condition.None(r)),
	}
}
