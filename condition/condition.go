package condition

import (
	"sort"
	"strings"

	"waypoint/transition"
)

// Subject is anything a condition can be evaluated against. TransitionRef
// returns the transition id that produced it, or "" for a bypass.
type Subject interface {
	TransitionRef() string
}

type CheckKind string

const (
	CheckName   CheckKind = "name"
	CheckStatus CheckKind = "to"
	CheckAll    CheckKind = "*"
)

// Check is one allowance of a condition. Two checks are the same logical
// check when their keys are equal.
type Check struct {
	Kind  CheckKind
	Value string
}

func (c Check) Key() string {
	if c.Kind == CheckAll {
		return string(CheckAll)
	}
	return string(c.Kind) + ":" + c.Value
}

// Condition is an immutable set of checks over one registry. The ids it
// allows are resolved against the registry on every call, so transitions
// added after the condition was built are taken into account.
type Condition struct {
	registry *transition.Registry
	checks   []Check
}

// Named allows the transitions with the given names.
func Named(r *transition.Registry, names ...string) Condition {
	checks := make([]Check, 0, len(names))
	for _, n := range names {
		checks = append(checks, Check{Kind: CheckName, Value: n})
	}
	return build(r, checks)
}

// EndingIn allows the transitions whose destination is one of statuses.
func EndingIn(r *transition.Registry, statuses ...string) Condition {
	checks := make([]Check, 0, len(statuses))
	for _, s := range statuses {
		checks = append(checks, Check{Kind: CheckStatus, Value: s})
	}
	return build(r, checks)
}

// Any allows every transition of the registry.
func Any(r *transition.Registry) Condition {
	return build(r, []Check{{Kind: CheckAll}})
}

// None allows nothing.
func None(r *transition.Registry) Condition {
	return Condition{registry: r}
}

func build(r *transition.Registry, checks []Check) Condition {
	byKey := map[string]Check{}
	for _, c := range checks {
		byKey[c.Key()] = c
	}
	if all, found := byKey[string(CheckAll)]; found {
		return Condition{registry: r, checks: []Check{all}}
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := Condition{registry: r, checks: make([]Check, 0, len(keys))}
	for _, k := range keys {
		result.checks = append(result.checks, byKey[k])
	}
	return result
}

func (c Condition) Registry() *transition.Registry {
	return c.registry
}

// Checks returns the checks ordered by key.
func (c Condition) Checks() []Check {
	return append([]Check(nil), c.checks...)
}

func (c Condition) Keys() []string {
	keys := make([]string, 0, len(c.checks))
	for _, check := range c.checks {
		keys = append(keys, check.Key())
	}
	return keys
}

func (c Condition) IsEmpty() bool {
	return len(c.checks) == 0
}

func (c Condition) has(key string) bool {
	for _, check := range c.checks {
		if check.Key() == key || check.Kind == CheckAll {
			return true
		}
	}
	return false
}

// Equal compares conditions by their checks.
func (c Condition) Equal(other Condition) bool {
	return strings.Join(c.Keys(), "\n") == strings.Join(other.Keys(), "\n")
}

// AllowedIDs resolves the checks to transition ids, sorted.
func (c Condition) AllowedIDs() []string {
	if c.registry == nil || len(c.checks) == 0 {
		return []string{}
	}
	var names, statuses []string
	for _, check := range c.checks {
		switch check.Kind {
		case CheckAll:
			return c.registry.IDs()
		case CheckName:
			names = append(names, check.Value)
		case CheckStatus:
			statuses = append(statuses, check.Value)
		}
	}

	set := map[string]bool{}
	for _, id := range c.registry.IDsNamed(names...) {
		set[id] = true
	}
	for _, id := range c.registry.IDsEndingIn(statuses...) {
		set[id] = true
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Evaluate reports whether the subject was produced by an allowed transition.
// Absent subjects and bypasses never match.
func (c Condition) Evaluate(x Subject) bool {
	if x == nil {
		return false
	}
	ref := x.TransitionRef()
	if ref == "" {
		return false
	}
	for _, id := range c.AllowedIDs() {
		if id == ref {
			return true
		}
	}
	return false
}

// Union merges the checks of c and others, each logical check once.
func (c Condition) Union(others ...Condition) Condition {
	return Union(append([]Condition{c}, others...)...)
}

// Intersect keeps the checks of c that every other condition also has.
func (c Condition) Intersect(others ...Condition) Condition {
	return Intersect(append([]Condition{c}, others...)...)
}

func Union(cs ...Condition) Condition {
	var checks []Check
	for _, c := range cs {
		checks = append(checks, c.checks...)
	}
	return build(registryOf(cs), checks)
}

// Intersect keeps the checks present in every operand. A check for every
// transition is present in any operand, so Any is neutral.
func Intersect(cs ...Condition) Condition {
	r := registryOf(cs)
	if len(cs) == 0 {
		return None(r)
	}
	var candidates []Check
	for _, c := range cs {
		candidates = append(candidates, c.checks...)
	}
	var kept []Check
	for _, candidate := range candidates {
		inAll := true
		for _, c := range cs {
			if !c.has(candidate.Key()) {
				inAll = false
				break
			}
		}
		if inAll {
			kept = append(kept, candidate)
		}
	}
	return build(r, kept)
}

func registryOf(cs []Condition) *transition.Registry {
	for _, c := range cs {
		if c.registry != nil {
			return c.registry
		}
	}
	return nil
}

func (c Condition) String() string {
	if len(c.checks) == 0 {
		return "none"
	}
	return strings.Join(c.Keys(), " | ")
}
