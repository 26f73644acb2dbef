package main

import (
	"fmt"
	"os"

	"waypoint/bizerror"
	"waypoint/workflows"
	"waypoint/workflows/progressreport"
	"waypoint/workflows/projectstep"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "waypoint",
	Short:         "Waypoint runs policy gated workflow transitions",
	Long:          `Waypoint executes the status transitions of project steps and progress reports and keeps their audit history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var definitionLoaders = []func() (*workflows.Definition, error){
	projectstep.Load,
	progressreport.Load,
}

func loadDefinitions() ([]*workflows.Definition, error) {
	definitions := make([]*workflows.Definition, 0, len(definitionLoaders))
	for _, load := range definitionLoaders {
		d, err := load()
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, d)
	}
	return definitions, nil
}

func findDefinition(workflow string) (*workflows.Definition, error) {
	definitions, err := loadDefinitions()
	if err != nil {
		return nil, err
	}
	for _, d := range definitions {
		if d.Workflow() == workflow {
			return d, nil
		}
	}
	return nil, fmt.Errorf("workflow %s: %w", workflow, bizerror.ErrNotFound)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
