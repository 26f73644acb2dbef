package execution

import (
	"errors"

	"waypoint/bizerror"

	"github.com/fundwit/go-commons/types"
)

// Input requests one status change. Exactly one of TransitionID and Status is
// set; Status asks for a bypass.
type Input struct {
	EntityID     types.ID `json:"-"`
	TransitionID string   `json:"transition"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes" binding:"lte=4000"`
}

func (in Input) Validate() error {
	if in.EntityID == 0 {
		return &bizerror.ErrBadParam{Cause: errors.New("entity id is required")}
	}
	if (in.TransitionID == "") == (in.Status == "") {
		return &bizerror.ErrBadParam{Cause: errors.New("exactly one of transition and status is required")}
	}
	return nil
}
