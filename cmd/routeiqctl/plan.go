package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"routeiq/internal/domain"
	"routeiq/internal/handler"
	"routeiq/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a trip through a nearby bus station",
	Long: `Plan creates a session (or reuses --session) and searches for route
candidates. The origin is a station code, a lat,lng pair or an address; the
destination is a station code or an address.`,
	Example: `  routeiqctl plan --from-station UN --to "Yorkdale Shopping Centre"
  routeiqctl plan --from 43.65,-79.38 --to-station OS --mode driving`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := searchRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		client := newClient(cmd)
		session, _ := cmd.Flags().GetString("session")
		if session == "" {
			if session, err = client.CreateSession(cmd.Context()); err != nil {
				return err
			}
		}

		resp, err := client.Search(cmd.Context(), session, req)
		if err != nil {
			return err
		}
		printSearch(cmd.OutOrStdout(), session, resp)
		return nil
	},
}

func searchRequestFromFlags(cmd *cobra.Command) (planner.SearchRequest, error) {
	var req planner.SearchRequest

	from, _ := cmd.Flags().GetString("from")
	fromAddress, _ := cmd.Flags().GetString("from-address")
	req.OriginStation, _ = cmd.Flags().GetString("from-station")
	to, _ := cmd.Flags().GetString("to")
	req.DestinationStation, _ = cmd.Flags().GetString("to-station")
	mode, _ := cmd.Flags().GetString("mode")

	switch {
	case req.OriginStation != "":
	case from != "":
		at, err := parseLatLng(from)
		if err != nil {
			return req, err
		}
		req.Origin = domain.PlaceAt(at)
	case fromAddress != "":
		req.Origin = domain.Place{Address: fromAddress}
	default:
		return req, fmt.Errorf("an origin is required: use --from, --from-address or --from-station")
	}

	if req.DestinationStation == "" {
		if to == "" {
			return req, fmt.Errorf("a destination is required: use --to or --to-station")
		}
		req.Destination = domain.Place{Address: to}
	}

	m, ok := domain.ParseTravelMode(mode)
	if !ok {
		return req, fmt.Errorf("unknown mode %q (walking, bicycling, driving, transit)", mode)
	}
	req.Mode = m
	return req, nil
}

func printSearch(w io.Writer, session string, resp *handler.SearchResponse) {
	fmt.Fprintf(w, "Session %s\n", session)

	if resp.Outcome != planner.SearchOK {
		fmt.Fprintln(w, "No routes found. Try different options.")
		return
	}

	out := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(out, "#\tSTATION\tBUS\tTOTAL\tTRAFFIC\tCO2")
	for i, c := range resp.Candidates {
		marker := ""
		if i == resp.Active {
			marker = "*"
		}
		fmt.Fprintf(out, "%d%s\t%s\t%s\t%d min\t%s\t%.2f kg\n", i, marker, c.Station.Name, c.Departure, c.TotalDuration, c.Traffic, c.CO2Kg)
	}
	out.Flush()

	fmt.Fprintf(w, "Showing %d of %d candidates. Traffic: %d low, %d medium, %d heavy.\n",
		len(resp.Candidates), resp.Total, resp.Traffic.Low, resp.Traffic.Medium, resp.Traffic.Heavy)
	if resp.Plan != nil {
		fmt.Fprintln(w, resp.Plan.Message)
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().String("from", "", "Origin as lat,lng")
	planCmd.Flags().String("from-address", "", "Origin as a street address")
	planCmd.Flags().String("from-station", "", "Origin station code")
	planCmd.Flags().StringP("to", "t", "", "Destination address")
	planCmd.Flags().String("to-station", "", "Destination station code")
	planCmd.Flags().StringP("mode", "m", "walking", "Travel mode to the station")
	planCmd.Flags().StringP("session", "s", "", "Reuse an existing session")
	planCmd.MarkFlagsMutuallyExclusive("from", "from-address", "from-station")
	planCmd.MarkFlagsMutuallyExclusive("to", "to-station")
}
