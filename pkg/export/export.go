package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/peakguard/core/shaving"
)

// WriteJSON writes the evaluation ledger to w in JSON format.
func WriteJSON(w io.Writer, evals []shaving.Evaluation) error {
	enc := json.NewEncoder(w)
	return enc.Encode(evals)
}

// WriteCSV writes the evaluation ledger to w in CSV format.
func WriteCSV(w io.Writer, evals []shaving.Evaluation) error {
	cw := csv.NewWriter(w)
	header := []string{"timestamp", "tariff", "raw_kw", "solar_kw", "net_kw", "limit_kw", "breach", "penalty_rupees", "savings_rupees"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range evals {
		rec := []string{
			e.Sample.Timestamp.Format(time.RFC3339),
			e.Sample.Tariff.String(),
			fmtFloat(e.Sample.PredictedLoadKW),
			fmtFloat(e.SolarKW),
			fmtFloat(e.NetLoadKW),
			fmtFloat(e.Sample.ContractLimitKW),
			strconv.FormatBool(e.Breach),
			fmtFloat(e.PenaltyRupees),
			fmtFloat(e.SavingsRupees),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
