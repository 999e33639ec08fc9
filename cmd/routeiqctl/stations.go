package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List bus stations, optionally the nearest to a point",
	RunE: func(cmd *cobra.Command, args []string) error {
		near, _ := cmd.Flags().GetString("near")
		limit, _ := cmd.Flags().GetInt("limit")
		client := newClient(cmd)
		out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer out.Flush()

		if near == "" {
			resp, err := client.Stations(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "CODE\tNAME\tTYPE\tLOCATION")
			for _, s := range resp.Stations {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", s.Code, s.Name, s.Type, s.Location())
			}
			return nil
		}

		at, err := parseLatLng(near)
		if err != nil {
			return err
		}
		resp, err := client.Nearby(cmd.Context(), at, limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "CODE\tNAME\tDISTANCE")
		for _, sd := range resp.Stations {
			fmt.Fprintf(out, "%s\t%s\t%.1f km\n", sd.Station.Code, sd.Station.Name, sd.DistanceKm)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.Flags().StringP("near", "n", "", "Only list stations nearest to lat,lng")
	stationsCmd.Flags().IntP("limit", "l", 0, "How many nearby stations to list")
}
