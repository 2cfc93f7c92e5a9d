package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagHost           string
	flagPort           int
	flagToken          string
	flagTargetInstance int
	flagTimeoutSecs    int
)

var rootCmd = &cobra.Command{
	Use:   "hyperionctl",
	Short: "Command-line client for a Hyperion ambient-lighting server",
	Long:  "hyperionctl connects to a Hyperion server's JSON-over-TCP API to inspect and drive it.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Hyperion server host (required)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 19444, "Hyperion server port")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Authentication token")
	rootCmd.PersistentFlags().IntVar(&flagTargetInstance, "instance", 0, "Target instance")
	rootCmd.PersistentFlags().IntVar(&flagTimeoutSecs, "timeout", 5, "Request timeout in seconds")
}
