package policy

import (
	"waypoint/condition"
	"waypoint/session"
	"waypoint/transition"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
)

type grant struct {
	on            bool
	unconditional bool
	condition     condition.Condition
}

func (g grant) resolve(r *transition.Registry) Filter {
	switch {
	case !g.on:
		return limitedTo(condition.None(r))
	case g.unconditional:
		return unrestricted()
	}
	return limitedTo(g.condition)
}

// Policy is an immutable set of grants for callers holding one of its roles.
// Every builder method returns a new Policy.
type Policy struct {
	roles  []string
	read   grant
	create grant
	bypass bool
	fields map[string]condition.Condition
	when   []condition.Condition

	or  []Policy
	and []Policy
}

// Grant starts a policy for the given roles. Without roles it applies to every
// authenticated caller.
func Grant(roles ...string) Policy {
	return Policy{roles: append([]string(nil), roles...)}
}

func (p Policy) clone() Policy {
	c := p
	c.roles = append([]string(nil), p.roles...)
	c.when = append([]condition.Condition(nil), p.when...)
	c.or = append([]Policy(nil), p.or...)
	c.and = append([]Policy(nil), p.and...)
	c.fields = make(map[string]condition.Condition, len(p.fields))
	for k, v := range p.fields {
		c.fields[k] = v
	}
	return c
}

// Read allows reading every event, bypasses included.
func (p Policy) Read() Policy {
	c := p.clone()
	c.read = grant{on: true, unconditional: true}
	return c
}

// ReadWhen allows reading the events produced by transitions accepted by cond.
func (p Policy) ReadWhen(cond condition.Condition) Policy {
	c := p.clone()
	c.read = grant{on: true, condition: cond}
	return c
}

// Execute allows running the transitions accepted by cond.
func (p Policy) Execute(cond condition.Condition) Policy {
	c := p.clone()
	c.create = grant{on: true, condition: cond}
	return c
}

// ExecuteAll allows running every transition of the registry.
func (p Policy) ExecuteAll() Policy {
	c := p.clone()
	c.create = grant{on: true, unconditional: true}
	return c
}

// AllowBypass allows setting a status without a transition. It adds to the
// execute grants, it never replaces them.
func (p Policy) AllowBypass() Policy {
	c := p.clone()
	c.bypass = true
	return c
}

// Specifically restricts reading one field of an event to events accepted by
// cond, independent of the read grant.
func (p Policy) Specifically(field string, cond condition.Condition) Policy {
	c := p.clone()
	c.fields[field] = cond
	return c
}

// When narrows the read, execute and field grants of the policy to cond.
// Narrowing intersects check keys, not resolved transition ids: a grant on
// EndingIn(r, "InProgress") narrowed by Named(r, "Start") keeps nothing even
// when Start ends in InProgress. Only Any matches every other check.
func (p Policy) When(cond condition.Condition) Policy {
	c := p.clone()
	c.when = append(c.when, cond)
	return c
}

func (p Policy) Or(other Policy) Policy {
	c := p.clone()
	c.or = append(c.or, other)
	return c
}

// And requires both policies; conditions combine by check key like When.
func (p Policy) And(other Policy) Policy {
	c := p.clone()
	c.and = append(c.and, other)
	return c
}

// Grants are the permissions of one caller, resolved against a registry.
type Grants struct {
	Read   Filter
	Create Filter
	Bypass bool
	Fields map[string]Filter
}

func noGrants(r *transition.Registry) Grants {
	return Grants{Read: limitedTo(condition.None(r)), Create: limitedTo(condition.None(r)), Fields: map[string]Filter{}}
}

func (g Grants) field(name string) Filter {
	if f, found := g.Fields[name]; found {
		return f
	}
	return g.Read
}

func (g Grants) or(other Grants) Grants {
	merged := Grants{Read: g.Read.or(other.Read), Create: g.Create.or(other.Create),
		Bypass: g.Bypass || other.Bypass, Fields: map[string]Filter{}}
	for _, name := range fieldNames(g, other) {
		merged.Fields[name] = g.field(name).or(other.field(name))
	}
	return merged
}

func (g Grants) and(other Grants) Grants {
	merged := Grants{Read: g.Read.and(other.Read), Create: g.Create.and(other.Create),
		Bypass: g.Bypass && other.Bypass, Fields: map[string]Filter{}}
	for _, name := range fieldNames(g, other) {
		merged.Fields[name] = g.field(name).and(other.field(name))
	}
	return merged
}

func fieldNames(gs ...Grants) []string {
	seen := map[string]bool{}
	var names []string
	for _, g := range gs {
		for name := range g.Fields {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func (p Policy) applies(sec *session.Context) bool {
	if sec == nil {
		return false
	}
	if len(p.roles) == 0 {
		return true
	}
	return sec.HasAnyRole(p.roles...)
}

// Resolve computes what the policy grants to sec.
func (p Policy) Resolve(r *transition.Registry, sec *session.Context) Grants {
	g := noGrants(r)
	if p.applies(sec) {
		g = Grants{Read: p.read.resolve(r), Create: p.create.resolve(r), Bypass: p.bypass, Fields: map[string]Filter{}}
		for name, cond := range p.fields {
			g.Fields[name] = limitedTo(cond)
		}
		for _, cond := range p.when {
			narrow := limitedTo(cond)
			g.Read = g.Read.and(narrow)
			g.Create = g.Create.and(narrow)
			for name, f := range g.Fields {
				g.Fields[name] = f.and(narrow)
			}
		}
	}
	for _, other := range p.and {
		g = g.and(other.Resolve(r, sec))
	}
	for _, other := range p.or {
		g = g.or(other.Resolve(r, sec))
	}
	return g
}
