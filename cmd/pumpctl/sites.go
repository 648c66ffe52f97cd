package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List configured sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := pumps.Source.Sites()
		if err != nil {
			return err
		}

		type row struct {
			Site  string `json:"site"`
			Label string `json:"label"`
			Tank  bool   `json:"level_policy"`
		}
		rows := make([]row, 0, len(sites))
		for _, s := range sites {
			pol, err := pumps.Services.Fetch(cmd.Context(), s)
			if err != nil {
				return err
			}
			rows = append(rows, row{Site: s, Label: pol.ZoneLabel(), Tank: pol.HasLevelPolicy()})
		}
		if jsonOutput {
			return printJSON(rows)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SITE\tLABEL\tLEVEL POLICY")
		fmt.Fprintln(w, "----\t-----\t------------")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%t\n", r.Site, r.Label, r.Tank)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
