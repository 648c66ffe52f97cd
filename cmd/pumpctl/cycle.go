package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pump_control/internal/models"
)

var (
	cyclePump     string
	cycleSentinel string
	cycleActuator string
	cycleReason   string
)

var cycleCmd = &cobra.Command{
	Use:   "cycle <site>",
	Short: "Run one decision cycle for a site",
	Example: `  pumpctl cycle 88k
  pumpctl cycle well3 --pump off --reason manual`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev := models.Event{
			SentinelName:       cycleSentinel,
			ActuatorName:       cycleActuator,
			RequestedPumpState: models.PumpState(cyclePump),
		}
		if cycleReason != "" {
			ev.Reason = &models.Reason{Type: models.ReasonType(cycleReason)}
		}

		rep := pumps.Services.RunCycle(cmd.Context(), args[0], ev)
		if err := printReports(rep); err != nil {
			return err
		}
		if rep.StatusCode >= 400 {
			return fmt.Errorf("cycle for %s ended with %d", rep.Site, rep.StatusCode)
		}
		return nil
	},
}

func printReports(reports ...models.CycleReport) error {
	if jsonOutput {
		if len(reports) == 1 {
			return printJSON(reports[0])
		}
		return printJSON(reports)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SITE\tCODE\tSTATUS\tSUMMARY\tNARRATIVE")
	fmt.Fprintln(w, "----\t----\t------\t-------\t---------")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", r.Site, r.StatusCode, r.Status, r.Summary, r.Narrative)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(cycleCmd)

	cycleCmd.Flags().StringVar(&cyclePump, "pump", "", "Requested pump state: on, off or none (default: evaluate levels)")
	cycleCmd.Flags().StringVar(&cycleSentinel, "sentinel", "", "Override the controlled device name")
	cycleCmd.Flags().StringVar(&cycleActuator, "actuator", "", "Override the controlled output zone name")
	cycleCmd.Flags().StringVar(&cycleReason, "reason", "", "Reason type recorded with the request")
}
