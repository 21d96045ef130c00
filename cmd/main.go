package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tool",
	Short: "Build tools for the Banshee editor",
	Long: `This command bundles the tools used to build and package the editor.
This includes the MSBuild driver and cross-platform file helpers for build scripts.`,
	SilenceUsage: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
