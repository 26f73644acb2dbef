package transition

import (
	"fmt"
	"sort"
	"sync"

	"waypoint/bizerror"
)

// Registry is the transition table of one workflow. Definitions are only ever
// added, so identifiers resolved earlier stay valid.
type Registry struct {
	Workflow string

	mu     sync.RWMutex
	byName map[string]Transition
	byID   map[string]string
}

// Define builds a registry from a transition table. Any configuration problem
// is reported as bizerror.ErrConfiguration.
func Define(workflow string, table map[string]Spec) (*Registry, error) {
	r := &Registry{Workflow: workflow, byName: map[string]Transition{}, byID: map[string]string{}}
	if err := r.Extend(table); err != nil {
		return nil, err
	}
	return r, nil
}

// MustDefine is Define for package level tables; it panics on configuration errors.
func MustDefine(workflow string, table map[string]Spec) *Registry {
	r, err := Define(workflow, table)
	if err != nil {
		panic(err)
	}
	return r
}

// Extend adds more transitions. The table is validated as a whole before any
// entry becomes visible.
func (r *Registry) Extend(table map[string]Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := make(map[string]Transition, len(table))
	addedIDs := make(map[string]string, len(table))
	for _, name := range sortedNames(table) {
		spec := table[name]
		if name == "" {
			return fmt.Errorf("%w: %s: transition without name", bizerror.ErrConfiguration, r.Workflow)
		}
		if _, found := r.byName[name]; found {
			return fmt.Errorf("%w: %s: duplicate transition %q", bizerror.ErrConfiguration, r.Workflow, name)
		}
		if spec.To == "" {
			return fmt.Errorf("%w: %s: transition %q has no destination", bizerror.ErrConfiguration, r.Workflow, name)
		}
		kind, err := ParseKind(string(spec.Kind))
		if err != nil {
			return fmt.Errorf("%w: %s: transition %q: %v", bizerror.ErrConfiguration, r.Workflow, name, err)
		}

		t := Transition{ID: spec.ID, Name: name, From: normalizeStates(spec.From), To: spec.To,
			Label: spec.Label, Kind: kind, Notify: spec.Notify, Pinned: spec.ID != ""}
		if t.ID == "" {
			t.ID = HashID(name)
		}
		if t.Label == "" {
			t.Label = name
		}
		if other, found := r.byID[t.ID]; found {
			return fmt.Errorf("%w: %s: transitions %q and %q share id %s", bizerror.ErrConfiguration, r.Workflow, other, name, t.ID)
		}
		if other, found := addedIDs[t.ID]; found {
			return fmt.Errorf("%w: %s: transitions %q and %q share id %s", bizerror.ErrConfiguration, r.Workflow, other, name, t.ID)
		}
		added[name] = t
		addedIDs[t.ID] = name
	}

	for name, t := range added {
		r.byName[name] = t
		r.byID[t.ID] = name
	}
	return nil
}

func (r *Registry) Get(name string) (Transition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, found := r.byName[name]
	return t, found
}

func (r *Registry) ByID(id string) (Transition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, found := r.byID[id]
	if !found {
		return Transition{}, false
	}
	return r.byName[name], true
}

// All returns every transition ordered by name.
func (r *Registry) All() []Transition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Transition, 0, len(r.byName))
	for _, t := range r.byName {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Available returns the transitions that can run from state, wildcards included.
func (r *Registry) Available(state string) []Transition {
	var available []Transition
	for _, t := range r.All() {
		if t.CanRunFrom(state) {
			available = append(available, t)
		}
	}
	return available
}

func (r *Registry) IDs() []string {
	return r.ids(func(Transition) bool { return true })
}

func (r *Registry) IDsNamed(names ...string) []string {
	wanted := toSet(names)
	return r.ids(func(t Transition) bool { return wanted[t.Name] })
}

func (r *Registry) IDsEndingIn(statuses ...string) []string {
	wanted := toSet(statuses)
	return r.ids(func(t Transition) bool { return wanted[t.To] })
}

// States lists every state mentioned by the table, sorted.
func (r *Registry) States() []string {
	seen := map[string]bool{}
	for _, t := range r.All() {
		seen[t.To] = true
		for _, from := range t.From {
			seen[from] = true
		}
	}
	states := make([]string, 0, len(seen))
	for s := range seen {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

func (r *Registry) ids(match func(Transition) bool) []string {
	ids := []string{}
	for _, t := range r.All() {
		if match(t) {
			ids = append(ids, t.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func normalizeStates(states []string) []string {
	if len(states) == 0 {
		return nil
	}
	seen := map[string]bool{}
	normalized := make([]string, 0, len(states))
	for _, s := range states {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		normalized = append(normalized, s)
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

func sortedNames(table map[string]Spec) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
