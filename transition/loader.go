package transition

import (
	"fmt"
	"io"

	"waypoint/bizerror"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Table is the document form of a workflow definition, maintained by product
// owners outside the execution code.
type Table struct {
	Workflow    string          `mapstructure:"workflow"`
	Initial     string          `mapstructure:"initial"`
	Notify      []string        `mapstructure:"notify"`
	Transitions map[string]Spec `mapstructure:"transitions"`
}

// LoadYAML decodes a table document. `from` and `notify` accept a single
// value as well as a list.
func LoadYAML(r io.Reader) (*Table, error) {
	raw := map[string]interface{}{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", bizerror.ErrConfiguration, err)
	}

	table := &Table{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           table,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", bizerror.ErrConfiguration, err)
	}
	if table.Workflow == "" {
		return nil, fmt.Errorf("%w: workflow name is missing", bizerror.ErrConfiguration)
	}
	if table.Initial == "" {
		return nil, fmt.Errorf("%w: %s: initial state is missing", bizerror.ErrConfiguration, table.Workflow)
	}
	return table, nil
}

// Define builds the registry of the table.
func (t *Table) Define() (*Registry, error) {
	return Define(t.Workflow, t.Transitions)
}
