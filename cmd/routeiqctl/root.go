package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "routeiqctl",
	Short: "A command-line client for the RouteIQ trip planner",
	Long: `routeiqctl talks to a running RouteIQ server to list stations,
plan a trip through a nearby bus station and pick a departure.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(cmd *cobra.Command) *apiClient {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return newAPIClient(server, timeout)
}

func init() {
	server := os.Getenv("ROUTEIQ_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().String("server", server, "RouteIQ server base URL (env ROUTEIQ_SERVER)")
	rootCmd.PersistentFlags().Duration("timeout", 45*time.Second, "Request timeout")
}
