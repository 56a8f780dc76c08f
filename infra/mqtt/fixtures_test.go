package mqtt

import (
	"time"

	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/telemetry"
)

func telemetryFixture() telemetry.Message {
	return telemetry.Message{
		Site: "hq",
		Features: model.Features{
			Timestamp:       time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC),
			PrimaryUse:      "Office",
			SquareFeet:      150000,
			AirTemperatureC: 28,
			DewTemperatureC: 23,
			CloudCoverage:   2,
			LoadLag1hKW:     300,
			LoadLag24hKW:    310,
		},
	}
}
