// Package report renders operator-facing shift reports from a controller
// snapshot.
package report

import (
	"fmt"
	"strings"

	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/shaving"
)

// Input bundles everything a shift report needs.
type Input struct {
	Site       string
	PrimaryUse string
	State      model.MitigationState
	Evaluation *shaving.Evaluation
}

// Render produces the plain-text incident report for the current time block.
func Render(in Input) string {
	var b strings.Builder
	line := strings.Repeat("-", 34)

	fmt.Fprintf(&b, "PEAKGUARD - INCIDENT REPORT\n%s\n", line)
	if in.Evaluation != nil {
		ts := in.Evaluation.Sample.Timestamp
		fmt.Fprintf(&b, "Date: %s\n", ts.Format("2006-01-02"))
		fmt.Fprintf(&b, "Time Block: %02d:00 - %02d:00\n", ts.Hour(), (ts.Hour()+1)%24)
	}
	fmt.Fprintf(&b, "Site: %s\n", in.Site)
	if in.PrimaryUse != "" {
		fmt.Fprintf(&b, "Building Type: %s\n", in.PrimaryUse)
	}
	fmt.Fprintf(&b, "Auto-Pilot: %s\n", enabled(in.State.Mode == model.ModeAutopilot))

	status := "OPTIMIZED"
	if in.Evaluation != nil && in.Evaluation.Breach {
		status = "CRITICAL BREACH"
	}
	fmt.Fprintf(&b, "\nSTATUS: %s\n%s\n", status, line)

	if ev := in.Evaluation; ev != nil {
		fmt.Fprintf(&b, "Contract Limit: %.1f kW\n", ev.Sample.ContractLimitKW)
		fmt.Fprintf(&b, "Net Load: %.2f kW\n", ev.NetLoadKW)
		fmt.Fprintf(&b, "Solar Offset: %.1f kW\n", ev.SolarKW)
		fmt.Fprintf(&b, "\nFINANCIALS (Rate: Rs %.0f/kWh)\n%s\n", ev.RatePerKWh, line)
		fmt.Fprintf(&b, "Tick Savings:   Rs %.2f\n", ev.SavingsRupees)
		fmt.Fprintf(&b, "Tick Penalty:   Rs %.2f\n", ev.PenaltyRupees)
	}
	fmt.Fprintf(&b, "Session Savings: Rs %.2f\n", in.State.CumulativeSavingsRupees)
	fmt.Fprintf(&b, "Session Penalty: Rs %.2f\n", in.State.CumulativePenaltyRupees)
	fmt.Fprintf(&b, "CO2 Avoided:     %.1f kg\n", in.State.CumulativeCO2AvoidedKg)

	fmt.Fprintf(&b, "\nACTIONS:\n")
	fmt.Fprintf(&b, "[%s] Battery Dispatch\n", check(in.State.BatteryActive))
	fmt.Fprintf(&b, "[%s] HVAC Optimization\n", check(in.State.HVACReductionActive))
	return b.String()
}

func enabled(v bool) string {
	if v {
		return "ENABLED"
	}
	return "DISABLED"
}

func check(v bool) string {
	if v {
		return "x"
	}
	return " "
}
