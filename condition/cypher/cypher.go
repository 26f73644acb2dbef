// Package cypher compiles transition conditions to Cypher predicates for
// property graph traversals, e.g. MATCH (event:WorkflowEvent) WHERE <predicate>.
package cypher

import (
	"fmt"

	"waypoint/condition"
)

const DefaultParam = "allowedTransitions"

// Predicate is a WHERE fragment and the parameters it refers to.
type Predicate struct {
	Clause string
	Params map[string]interface{}
}

type Backend struct {
	Variable string
	Property string
	Param    string
}

// Default targets `event.transition`.
var Default = Backend{Variable: "event", Property: "transition", Param: DefaultParam}

func (b Backend) Membership(ids []string) Predicate {
	return Predicate{
		Clause: fmt.Sprintf("%s.%s IN $%s", b.Variable, b.Property, b.Param),
		Params: map[string]interface{}{b.Param: ids},
	}
}

func (b Backend) Never() Predicate {
	return Predicate{Clause: "false", Params: map[string]interface{}{}}
}

func Compile(c condition.Condition) Predicate {
	return condition.CompileTo[Predicate](c, Default)
}
