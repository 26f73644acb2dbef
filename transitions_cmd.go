package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var transitionsCmd = &cobra.Command{
	Use:   "transitions",
	Short: "Inspect the transition tables",
}

var transitionsListCmd = &cobra.Command{
	Use:   "list <workflow>",
	Short: "List the transitions of a workflow with their ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := findDefinition(args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tFROM\tTO\tKIND\tNOTIFY\tPINNED")
		for _, t := range d.Registry.All() {
			from := "*"
			if !t.FromAny() {
				from = strings.Join(t.From, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n", t.ID, t.Name, from, t.To, t.Kind, strings.Join(t.Notify, ","), t.Pinned)
		}
		return w.Flush()
	},
}

// Unpinned ids derive from names, so renaming such a transition orphans the
// events recorded under the old id.
var transitionsCheckCmd = &cobra.Command{
	Use:   "check <workflow>",
	Short: "Report transitions whose id is derived from their name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := findDefinition(args[0])
		if err != nil {
			return err
		}
		unpinned := 0
		for _, t := range d.Registry.All() {
			if !t.Pinned {
				unpinned++
				fmt.Fprintf(cmd.OutOrStdout(), "unpinned: %q has derived id %s, pin it with `id: %s`\n", t.Name, t.ID, t.ID)
			}
		}
		if unpinned == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: all %d transitions are pinned\n", d.Workflow(), len(d.Registry.All()))
			return nil
		}
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			return fmt.Errorf("%s: %d unpinned transitions", d.Workflow(), unpinned)
		}
		return nil
	},
}

func init() {
	transitionsCheckCmd.Flags().Bool("strict", false, "Fail when any transition is unpinned")
	transitionsCmd.AddCommand(transitionsListCmd, transitionsCheckCmd)
	rootCmd.AddCommand(transitionsCmd)
}
