package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "integration-core",
	Short:         "Integration Core hosts third-party integrations behind one runtime.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, integrationsCmd)
}
