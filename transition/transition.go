package transition

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// IDLength is the number of hex characters kept from the name hash.
const IDLength = 10

type Kind string

const (
	KindApprove Kind = "Approve"
	KindReject  Kind = "Reject"
	KindNeutral Kind = "Neutral"
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "neutral":
		return KindNeutral, nil
	case "approve":
		return KindApprove, nil
	case "reject":
		return KindReject, nil
	}
	return "", fmt.Errorf("unknown transition kind %q", s)
}

// Spec is one entry of a transition table, keyed by transition name.
// ID pins the identifier; when empty it is derived from the name.
type Spec struct {
	ID     string   `json:"id,omitempty" mapstructure:"id"`
	From   []string `json:"from,omitempty" mapstructure:"from"`
	To     string   `json:"to" mapstructure:"to"`
	Label  string   `json:"label" mapstructure:"label"`
	Kind   Kind     `json:"kind" mapstructure:"kind"`
	Notify []string `json:"notify,omitempty" mapstructure:"notify"`
}

// Transition is a named edge of the workflow graph. A nil From means the
// transition can run from any state.
type Transition struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	From   []string `json:"from"`
	To     string   `json:"to"`
	Label  string   `json:"label"`
	Kind   Kind     `json:"kind"`
	Notify []string `json:"notify"`

	Pinned bool `json:"pinned"`
}

// HashID derives the stable identifier of a transition name.
func HashID(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])[:IDLength]
}

func (t Transition) FromAny() bool {
	return t.From == nil
}

// CanRunFrom reports whether the transition leaves the given state.
func (t Transition) CanRunFrom(state string) bool {
	if t.From == nil {
		return true
	}
	for _, from := range t.From {
		if from == state {
			return true
		}
	}
	return false
}

func (t Transition) MarshalJSON() ([]byte, error) {
	type alias Transition
	from := t.From
	if from == nil {
		from = []string{}
	}
	notify := t.Notify
	if notify == nil {
		notify = []string{}
	}
	return json.Marshal(struct {
		alias
		From    []string `json:"from"`
		Notify  []string `json:"notify"`
		AnyFrom bool     `json:"anyFrom"`
	}{alias: alias(t), From: from, Notify: notify, AnyFrom: t.From == nil})
}

func (t *Transition) UnmarshalJSON(data []byte) error {
	type alias Transition
	decoded := struct {
		*alias
		AnyFrom bool `json:"anyFrom"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.AnyFrom {
		t.From = nil
	}
	return nil
}
