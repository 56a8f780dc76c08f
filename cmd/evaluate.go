package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/peakguard/app"
	"github.com/kilianp07/peakguard/config"
	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/report"
)

var (
	evalLoadKW float64
	evalHour   int
	evalAuto   bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a one-shot evaluation against the configured limit",
	RunE:  evaluateOnce,
}

func init() {
	evaluateCmd.Flags().Float64Var(&evalLoadKW, "load", 0, "predicted load in kW (skips the forecast provider)")
	evaluateCmd.Flags().IntVar(&evalHour, "hour", time.Now().Hour(), "hour of day for tariff classification")
	evaluateCmd.Flags().BoolVar(&evalAuto, "autopilot", false, "evaluate in autopilot mode")
	rootCmd.AddCommand(evaluateCmd)
}

func evaluateOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// One-shot runs never need the broker.
	cfg.MQTT.Broker = ""
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if evalAuto {
		svc.Controller.SetMode(model.ModeAutopilot)
	}

	now := time.Now()
	ts := time.Date(now.Year(), now.Month(), now.Day(), evalHour, 0, 0, 0, now.Location())
	sample := model.ForecastSample{
		Timestamp:       ts,
		PredictedLoadKW: evalLoadKW,
		Tariff:          cfg.Tariff.PeriodAt(evalHour),
		ContractLimitKW: cfg.Building.ContractLimitKW,
	}
	ev, err := svc.Controller.Evaluate(sample)
	if err != nil {
		return err
	}
	if ev.Breach {
		fmt.Fprintf(os.Stderr, "breach: %.1f kW over limit\n", ev.ExcessKW)
	}
	fmt.Print(report.Render(report.Input{
		Site:       cfg.Building.Site,
		PrimaryUse: cfg.Building.PrimaryUse,
		State:      svc.Controller.State(),
		Evaluation: &ev,
	}))
	return nil
}
