package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pump_control/internal/app"
	"pump_control/internal/config"
)

var (
	cfgFile    string
	jsonOutput bool

	// opened by the root pre-run hook, closed by Execute
	pumps *app.App
)

var rootCmd = &cobra.Command{
	Use:   "pumpctl",
	Short: "Operate the Sensaphone pump controller from a shell",
	Long: `Run decision cycles, replay alarms, inspect site policy and browse the
audit history using the same configuration as the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = os.Getenv("PUMP_CONFIG")
		}
		if path == "" {
			path = config.DefaultPath
		}
		a, err := app.New(cmd.Context(), path)
		if err != nil {
			return err
		}
		pumps = a
		return nil
	},
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if pumps != nil {
		pumps.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $PUMP_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
