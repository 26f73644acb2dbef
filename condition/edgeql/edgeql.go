// Package edgeql compiles transition conditions to EdgeQL filter expressions.
package edgeql

import (
	"fmt"

	"waypoint/condition"
)

const DefaultParam = "allowedTransitions"

type Predicate struct {
	Expr   string
	Params map[string]interface{}
}

// Backend renders a membership test on Path. A missing link yields the empty
// set in EdgeQL, so the test is coalesced to false.
type Backend struct {
	Path  string
	Param string
}

var Default = Backend{Path: ".transition", Param: DefaultParam}

func (b Backend) Membership(ids []string) Predicate {
	return Predicate{
		Expr:   fmt.Sprintf("((%s in array_unpack(<array<str>>$%s)) ?? false)", b.Path, b.Param),
		Params: map[string]interface{}{b.Param: ids},
	}
}

func (b Backend) Never() Predicate {
	return Predicate{Expr: "false", Params: map[string]interface{}{}}
}

func Compile(c condition.Condition) Predicate {
	return condition.CompileTo[Predicate](c, Default)
}
