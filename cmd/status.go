package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Connect once and print the server's current state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newClient(false)
		if err != nil {
			return err
		}
		defer cleanup()
		defer client.Disconnect()

		if !client.Connect() {
			fmt.Println("Status: not reachable")
			return fmt.Errorf("connect failed")
		}

		status := client.Status()
		fmt.Printf("Status:     connected\n")
		fmt.Printf("Logged in:  %v\n", status.LoggedIn)
		fmt.Printf("Instance:   %d\n", client.TargetInstance())
		fmt.Printf("Video mode: %s\n", client.VideoMode())
		fmt.Printf("LED map:    %s\n", client.ImageToLedMappingType())
		fmt.Printf("On (ALL):   %v\n", client.IsOn())

		if p, ok := client.VisiblePriority(); ok {
			fmt.Printf("Visible:    priority %d, origin %q\n", p.Priority, p.Origin)
		} else {
			fmt.Println("Visible:    none")
		}

		instances := client.Instances()
		fmt.Printf("Instances running: %d\n", len(instances))
		for _, inst := range instances {
			fmt.Printf("  [%d] %s\n", inst.Instance, inst.FriendlyName)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
