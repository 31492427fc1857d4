package simulation

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// WriteLedgerCSV writes one line per ledger row. Flows and states are
// flattened into "name=value" lists.
func WriteLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"start",
		"end",
		"component",
		"flows",
		"states",
		"foreign_state",
		"variable_cost",
		"artificial_cost",
		"variable_emission",
		"cum_variable_cost",
		"cum_variable_emission",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		foreign := ""
		if r.Foreign != nil {
			foreign = fmtFloat(*r.Foreign)
		}
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Start),
			fmtTime(r.End),
			r.Component,
			fmtPairs(r.Flows),
			fmtPairs(r.States),
			foreign,
			fmtFloat(r.VariableCost),
			fmtFloat(r.ArtificialCost),
			fmtFloat(r.VariableEmission),
			fmtFloat(r.CumVariableCost),
			fmtFloat(r.CumVariableEmission),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtPairs(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + fmtFloat(m[k])
	}
	return strings.Join(parts, ";")
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
