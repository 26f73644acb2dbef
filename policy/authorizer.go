package policy

import (
	"waypoint/condition"
	"waypoint/session"
	"waypoint/transition"
)

// Partial stands for an event that does not exist yet. It carries only the
// transition reference, which is all conditions look at.
type Partial struct {
	Transition string
}

func (p Partial) TransitionRef() string {
	return p.Transition
}

// ForContext builds the partial event an execution of transitionID would
// record, so a decision taken before persisting equals the one taken after.
func ForContext(transitionID string) Partial {
	return Partial{Transition: transitionID}
}

// Authorizer decides for the policies of one workflow. A caller is granted
// the union of every policy that applies to it.
type Authorizer struct {
	registry *transition.Registry
	policies []Policy
}

func NewAuthorizer(r *transition.Registry, policies ...Policy) *Authorizer {
	return &Authorizer{registry: r, policies: append([]Policy(nil), policies...)}
}

func (a *Authorizer) Registry() *transition.Registry {
	return a.registry
}

func (a *Authorizer) Grants(sec *session.Context) Grants {
	g := noGrants(a.registry)
	for _, p := range a.policies {
		g = g.or(p.Resolve(a.registry, sec))
	}
	return g
}

func (a *Authorizer) Can(sec *session.Context, action Action, x condition.Subject) bool {
	return a.Filter(sec, action).Allows(x)
}

func (a *Authorizer) CanBypass(sec *session.Context) bool {
	return a.Grants(sec).Bypass
}

// CanExecute decides on the partial event of t, exactly as the stored event
// would be judged.
func (a *Authorizer) CanExecute(sec *session.Context, t transition.Transition) bool {
	return a.Can(sec, ActionCreate, ForContext(t.ID))
}

func (a *Authorizer) Filter(sec *session.Context, action Action) Filter {
	g := a.Grants(sec)
	if action == ActionCreate {
		return g.Create
	}
	return g.Read
}

// CanReadField applies a field override when one of the caller's policies
// declares it; otherwise the field is as visible as the event.
func (a *Authorizer) CanReadField(sec *session.Context, field string, x condition.Subject) bool {
	return a.Grants(sec).field(field).Allows(x)
}
