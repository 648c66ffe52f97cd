package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pump_control/internal/models"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and override site calibration",
}

var policyGetCmd = &cobra.Command{
	Use:   "get <site>",
	Short: "Show the effective policy of a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pol, err := pumps.Services.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printPolicy(pol)
	},
}

var policySetCmd = &cobra.Command{
	Use:     "set <site> <key> <value>",
	Short:   "Store a policy override",
	Example: `  pumpctl policy set 88k high_level 23.5`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pol, err := pumps.Services.Override(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return printPolicy(pol)
	},
}

func printPolicy(p models.Policy) error {
	if jsonOutput {
		return printJSON(p)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	fmt.Fprintln(w, "---\t-----")
	rows := [][2]string{
		{"site", p.Site},
		{"label", p.ZoneLabel()},
		{"monitored_device", p.MonitoredDevice},
		{"output_zone", p.OutputZone},
		{"level", strings.TrimSpace(p.LevelDevice + " " + p.LevelZone)},
		{"dependent_devices", strings.Join(p.DependentDevices, ",")},
		{"high_level", ftoa(p.HighLevel)},
		{"noon_level", ftoa(p.NoonLevel)},
		{"low_level", ftoa(p.LowLevel)},
		{"mid_level", ftoa(p.MidLevel)},
		{"noon_window", window(p.NoonWindow)},
		{"fill_window", window(p.FillWindow)},
		{"on_hour", strconv.Itoa(p.OnHour)},
		{"on_window_minutes", strconv.Itoa(p.OnWindowMinutes)},
		{"timezone", p.Timezone},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
	}
	return w.Flush()
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func window(h models.HourWindow) string {
	if !h.Enabled {
		return "disabled"
	}
	end := "]"
	if h.EndExclusive {
		end = ")"
	}
	return fmt.Sprintf("[%d, %d%s", h.Start, h.End, end)
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyGetCmd, policySetCmd)
}
