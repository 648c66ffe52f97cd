package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Show every device and zone on the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := pumps.Services.GetSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(snap)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "DEVICE\tPOWER\tZONE\tKIND\tVALUE")
		fmt.Fprintln(w, "------\t-----\t----\t----\t-----")
		for _, d := range snap.Devices {
			for _, z := range d.Zones {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.PowerState, z.Name, z.Kind, z.RawValue)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
