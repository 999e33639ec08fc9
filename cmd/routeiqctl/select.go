package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"routeiq/internal/domain"
	"routeiq/internal/handler"
	"routeiq/internal/planner"
)

var selectCmd = &cobra.Command{
	Use:   "select SESSION INDEX",
	Short: "Select a candidate and show when to leave",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}
		departure, _ := cmd.Flags().GetString("departure")

		sel, err := newClient(cmd).Select(cmd.Context(), args[0], handler.SelectRequest{
			Index:     index,
			Departure: domain.Departure(departure),
		})
		if err != nil {
			return err
		}
		printSelection(cmd.OutOrStdout(), sel)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime trip statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newClient(cmd).Stats(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Trips:      %d\n", s.Trips)
		fmt.Fprintf(w, "Time saved: %d min\n", s.TimeSaved)
		fmt.Fprintf(w, "CO2 saved:  %.2f kg\n", s.CO2Saved)
		fmt.Fprintf(w, "Reroutes:   %d\n", s.Reroutes)
		return nil
	},
}

func printSelection(w io.Writer, sel *planner.Selection) {
	fmt.Fprintln(w, sel.Candidate.Summary)
	if sel.Plan != nil {
		fmt.Fprintln(w, sel.Plan.Message)
	}
	if len(sel.Board) == 0 {
		fmt.Fprintln(w, "No more departures today.")
		return
	}
	fmt.Fprintln(w, "Departures:")
	for _, e := range sel.Board {
		next := ""
		if e.Next {
			next = "  next"
		}
		fmt.Fprintf(w, "  %s  in %d min%s\n", e.Departure, e.MinutesUntil, next)
	}
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().StringP("departure", "d", "", "Bus departure to plan for (HH:MM)")

	rootCmd.AddCommand(statsCmd)
}
