package policy

import (
	"waypoint/condition"
)

// Filter is the resolved permission of one action: either unrestricted or
// limited to the events a condition accepts.
type Filter struct {
	Unrestricted bool
	Condition    condition.Condition
}

func unrestricted() Filter {
	return Filter{Unrestricted: true}
}

func limitedTo(c condition.Condition) Filter {
	return Filter{Condition: c}
}

// Denies reports whether the filter accepts nothing at all.
func (f Filter) Denies() bool {
	return !f.Unrestricted && len(f.Condition.AllowedIDs()) == 0
}

func (f Filter) Allows(x condition.Subject) bool {
	if f.Unrestricted {
		return true
	}
	return f.Condition.Evaluate(x)
}

func (f Filter) or(other Filter) Filter {
	if f.Unrestricted || other.Unrestricted {
		return unrestricted()
	}
	return limitedTo(condition.Union(f.Condition, other.Condition))
}

func (f Filter) and(other Filter) Filter {
	switch {
	case f.Unrestricted && other.Unrestricted:
		return unrestricted()
	case f.Unrestricted:
		return other
	case other.Unrestricted:
		return f
	}
	return limitedTo(condition.Intersect(f.Condition, other.Condition))
}

// Compile renders a limited filter for a storage backend. The second result is
// false for unrestricted filters, which need no predicate.
func Compile[P any](f Filter, b condition.Backend[P]) (P, bool) {
	if f.Unrestricted {
		var none P
		return none, false
	}
	return condition.CompileTo(f.Condition, b), true
}
