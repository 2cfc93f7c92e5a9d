package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperion-go/hyperion"
	"github.com/hyperion-go/hyperion/internal/wire"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay connected and print every push update and status change",
	Long:  "Runs in the foreground, logging to both stderr and the log file, until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cleanup, err := newClient(true)
		if err != nil {
			return err
		}
		defer cleanup()

		client.SetDefaultCallback(func(msg *wire.Message) {
			fmt.Printf("update: %s\n", msg.Command)
		})
		client.SetCallback(hyperion.ClientUpdateKey, func(msg *wire.Message) {
			fmt.Printf("client-update: %s\n", msg.Data)
		})

		if !client.Connect() {
			return fmt.Errorf("initial connect failed")
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		fmt.Println("watch: shutting down")
		client.Disconnect()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
