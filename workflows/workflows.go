// Package workflows loads the workflow definitions shipped with the service.
// A definition directory named by WAYPOINT_WORKFLOWS_DIR may replace the
// built-in table of a workflow with <workflow>.yaml.
package workflows

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"waypoint/bizerror"
	"waypoint/entity"
	"waypoint/event"
	"waypoint/execution"
	"waypoint/policy"
	"waypoint/transition"

	"github.com/sirupsen/logrus"
)

type Definition struct {
	Table      *transition.Table
	Registry   *transition.Registry
	Authorizer *policy.Authorizer

	// StatusTable is where SQL deployments keep the entity status.
	StatusTable *entity.GormStatusTable
}

// PoliciesFunc builds the policies of a workflow against its registry.
type PoliciesFunc func(r *transition.Registry) []policy.Policy

func Load(workflow string, builtin []byte, policies PoliciesFunc, statusTable *entity.GormStatusTable) (*Definition, error) {
	data, err := tableOf(workflow, builtin)
	if err != nil {
		return nil, err
	}
	table, err := transition.LoadYAML(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if table.Workflow != workflow {
		return nil, fmt.Errorf("%w: table of %s names workflow %s", bizerror.ErrConfiguration, workflow, table.Workflow)
	}
	registry, err := table.Define()
	if err != nil {
		return nil, err
	}
	return &Definition{Table: table, Registry: registry, Authorizer: policy.NewAuthorizer(registry, policies(registry)...),
		StatusTable: statusTable}, nil
}

func tableOf(workflow string, builtin []byte) ([]byte, error) {
	dir := os.Getenv("WAYPOINT_WORKFLOWS_DIR")
	if dir == "" {
		return builtin, nil
	}
	path := filepath.Join(dir, workflow+".yaml")
	data, err := ioutil.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return builtin, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bizerror.ErrConfiguration, err)
	}
	logrus.Infof("workflow %s loaded from %s", workflow, path)
	return data, nil
}

func (d *Definition) Workflow() string {
	return d.Registry.Workflow
}

func (d *Definition) NewService(repository execution.Repository, events event.Store) *execution.Service {
	return execution.NewService(d.Registry, d.Table.Initial, d.Authorizer, repository, events)
}
