package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/corebot"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of corebot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "corebot version %s\n", corebot.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
