package indices

import (
	"waypoint/client/es"
)

// Backend renders conditions as Elasticsearch query clauses over the indexed
// transition field. Bypass documents carry no transition and never match.
type Backend struct {
	Field string
}

var DefaultBackend = Backend{Field: "transition"}

func (b Backend) Membership(ids []string) es.H {
	return es.H{"terms": es.H{b.Field: ids}}
}

func (b Backend) Never() es.H {
	return es.H{"bool": es.H{"must_not": es.H{"match_all": es.H{}}}}
}
