package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "objnode",
		Short:         "objnode: object residency tracking and call routing for one node",
		Long:          "objnode runs a node that hosts persistent objects, tracks which client sessions still reference them, and routes calls to whichever node owns an object.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(app),
		newServeCmd(app),
		newCreateCmd(app),
		newCallCmd(app),
		newGCCmd(app),
		newStatsCmd(app),
		newSessionCmd(app),
	)

	return rootCmd
}
