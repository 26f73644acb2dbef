package session

import (
	"time"

	"waypoint/authority"

	"github.com/fundwit/go-commons/types"
)

// Context is the acting user: recorded as `who` on workflow events and used as
// the subject of policy decisions.
type Context struct {
	Token    string                `json:"token"`
	Identity Identity              `json:"identity"`
	Perms    authority.Permissions `json:"perms"`

	SigningTime time.Time `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (c *Context) HasRole(role string) bool {
	if c == nil {
		return false
	}
	return c.Perms.HasRole(role)
}

func (c *Context) HasAnyRole(roles ...string) bool {
	if c == nil {
		return false
	}
	return c.Perms.HasAnyRole(roles...)
}
