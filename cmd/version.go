package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperion-go/hyperion"
)

var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hyperionctl %s (commit: %s, module: %s)\n", version, commit, hyperion.ModuleVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
