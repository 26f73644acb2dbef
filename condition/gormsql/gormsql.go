// Package gormsql compiles transition conditions to SQL where clauses for gorm.
package gormsql

import (
	"waypoint/condition"

	"github.com/jinzhu/gorm"
)

type Predicate struct {
	Query string
	Args  []interface{}
}

// Scope applies the predicate to a gorm query.
func (p Predicate) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(p.Query, p.Args...)
	}
}

type Backend struct {
	Column string
}

var Default = Backend{Column: "transition_id"}

// Membership relies on NULL and '' never being in the set, so bypass rows
// are excluded.
func (b Backend) Membership(ids []string) Predicate {
	return Predicate{Query: b.Column + " IN (?)", Args: []interface{}{ids}}
}

func (b Backend) Never() Predicate {
	return Predicate{Query: "1 = 0"}
}

func Compile(c condition.Condition) Predicate {
	return condition.CompileTo[Predicate](c, Default)
}
