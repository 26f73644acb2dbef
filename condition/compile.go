package condition

// Backend turns an allowed id set into a predicate of one query language.
// Membership is only called with a non-empty set; Never must be a predicate
// that is false for every row.
type Backend[P any] interface {
	Membership(ids []string) P
	Never() P
}

// CompileTo renders c for backend b. The ids are passed as a parameter by the
// backends, never inlined in the query text.
func CompileTo[P any](c Condition, b Backend[P]) P {
	ids := c.AllowedIDs()
	if len(ids) == 0 {
		return b.Never()
	}
	return b.Membership(ids)
}
