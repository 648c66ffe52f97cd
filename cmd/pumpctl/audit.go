package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pump_control/internal/models"
)

var (
	auditSite   string
	auditStatus string
	auditSince  time.Duration
	auditLimit  int
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	Short:   "List recorded cycles, newest first",
	Example: `  pumpctl audit --site 88k --since 24h --status power_out`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := models.AuditFilter{
			Site:   auditSite,
			Status: models.TerminalStatus(auditStatus),
			Limit:  auditLimit,
		}
		if auditSince > 0 {
			f.From = time.Now().Add(-auditSince)
		}
		records, err := pumps.Services.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(records)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TIME\tSITE\tCODE\tSTATUS\tNARRATIVE")
		fmt.Fprintln(w, "----\t----\t----\t------\t---------")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				r.OccurredAt.Local().Format(time.DateTime), r.Site, r.StatusCode, r.Status, r.Narrative)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditSite, "site", "", "Only cycles for this site")
	auditCmd.Flags().StringVar(&auditStatus, "status", "", "Only cycles with this terminal status")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "Only cycles newer than this (e.g. 24h)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum records to print")
}
