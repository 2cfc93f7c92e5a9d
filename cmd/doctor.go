package cmd

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperion-go/hyperion"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity and authentication against a Hyperion server",
	RunE: func(cmd *cobra.Command, args []string) error {
		allOK := true

		if flagHost == "" {
			fmt.Println("Flags:   FAIL (--host is required)")
			return fmt.Errorf("some checks failed")
		}
		fmt.Printf("Flags:   OK (%s:%d, instance %d)\n", flagHost, flagPort, flagTargetInstance)

		addr := net.JoinHostPort(flagHost, fmt.Sprint(flagPort))
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			fmt.Printf("TCP:     FAIL (cannot reach %s: %v)\n", addr, err)
			return fmt.Errorf("some checks failed")
		}
		conn.Close()
		fmt.Printf("TCP:     OK (%s)\n", addr)

		client, cleanup, err := newClient(false)
		if err != nil {
			fmt.Printf("Client:  FAIL (%v)\n", err)
			return fmt.Errorf("some checks failed")
		}
		defer cleanup()
		defer client.Disconnect()

		reply, err := client.IsAuthRequired()
		if err != nil || reply == nil {
			fmt.Println("Auth:    WARN (could not query authorize/tokenRequired before authenticating)")
		} else {
			fmt.Printf("Auth:    OK (tokenRequired reply received: %s)\n", reply.Info)
		}

		if !client.Connect() {
			fmt.Println("Connect: FAIL (full connect sequence did not reach steady state)")
			allOK = false
		} else {
			fmt.Println("Connect: OK")
			status := client.Status()
			if flagToken != "" && !status.LoggedIn {
				fmt.Println("Login:   FAIL (token supplied but session is not logged in)")
				allOK = false
			} else if flagToken != "" {
				fmt.Println("Login:   OK")
			}
			if !status.LoadedState {
				fmt.Println("State:   WARN (serverinfo snapshot was not loaded)")
			} else {
				fmt.Println("State:   OK")
			}
		}

		if !allOK {
			return fmt.Errorf("some checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
