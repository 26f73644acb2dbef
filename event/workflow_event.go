package event

import (
	"github.com/fundwit/go-commons/types"
)

// FieldNotes is the field name used by field level read policies.
const FieldNotes = "notes"

// WorkflowEvent is the audit record of one status change. Exactly one of a
// transition or a bypass produced it; TransitionID is empty for bypasses.
// Records are never updated except for the Dispatched flag.
type WorkflowEvent struct {
	ID       types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Workflow string   `json:"workflow" gorm:"index:idx_workflow_entity"`
	EntityID types.ID `json:"entityId" gorm:"index:idx_workflow_entity" sql:"type:BIGINT UNSIGNED NOT NULL"`

	At      types.Timestamp `json:"at" sql:"type:DATETIME(6)"`
	WhoID   types.ID        `json:"whoId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WhoName string          `json:"whoName"`

	TransitionID string `json:"transition,omitempty" gorm:"index:idx_transition"`
	Previous     string `json:"previous"`
	To           string `json:"to"`
	Notes        string `json:"notes" sql:"type:TEXT"`

	Dispatched bool `json:"-"`
}

func (e *WorkflowEvent) TableName() string {
	return "workflow_events"
}

func (e *WorkflowEvent) TransitionRef() string {
	if e == nil {
		return ""
	}
	return e.TransitionID
}

func (e *WorkflowEvent) IsBypass() bool {
	return e.TransitionID == ""
}
