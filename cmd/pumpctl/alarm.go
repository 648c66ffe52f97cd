package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pump_control/internal/models"
)

var (
	alarmKind    string
	alarmReading float64
)

var alarmCmd = &cobra.Command{
	Use:     "alarm <sentinel>",
	Short:   "Replay a Sentinel alarm through the routing table",
	Example: `  pumpctl alarm TreatmentPlant --reading 0.2`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := pumps.Services.Route(cmd.Context(), models.Alarm{
			Sentinel: args[0],
			Kind:     alarmKind,
			Reading:  alarmReading,
		})
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("Alarm ignored.")
			return nil
		}
		return printReports(reports...)
	},
}

func init() {
	rootCmd.AddCommand(alarmCmd)

	alarmCmd.Flags().StringVar(&alarmKind, "kind", models.AlarmChlorineLow, "Alarm kind")
	alarmCmd.Flags().Float64Var(&alarmReading, "reading", 0, "Reading that raised the alarm")
	_ = alarmCmd.MarkFlagRequired("reading")
}
