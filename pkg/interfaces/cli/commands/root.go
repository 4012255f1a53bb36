// Package commands implements the recipeplan command line interface.
package commands

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the recipeplan command tree.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "recipeplan",
		Short: "Dependent-demand explosion and recipe scheduling",
		Long: `recipeplan explodes top-level demands into scheduled production steps,
nets them against on-hand inventory, and generates staged work orders.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(os.Stderr)
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newExplodeCommand())
	root.AddCommand(newWorkOrderCommand())
	return root
}
