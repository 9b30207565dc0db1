package exports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/JaimeStill/estimator/internal/workflow"
)

var contentTypes = map[string]string{
	workflow.ExportCSV:  "text/csv; charset=utf-8",
	workflow.ExportJSON: "application/json",
}

// Render encodes q in the given format.
func Render(q *workflow.Quotation, format string) ([]byte, error) {
	switch format {
	case workflow.ExportCSV:
		return renderCSV(q)
	case workflow.ExportJSON:
		return json.MarshalIndent(q, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func renderCSV(q *workflow.Quotation) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"category", "material", "quantity", "unit", "unit_price", "total"},
	}
	for _, it := range q.LineItems {
		rows = append(rows, []string{
			it.Category,
			it.Material,
			money(it.Quantity),
			it.Unit,
			money(it.UnitPrice),
			money(it.Total),
		})
	}

	rows = append(rows,
		[]string{},
		[]string{"subtotal", "", "", "", "", money(q.Subtotal)},
		[]string{"contingency", "", money(q.ContingencyRate * 100), "%", "", money(q.Contingency)},
	)
	if q.Markup > 0 {
		rows = append(rows, []string{"markup", "", money(q.MarkupRate * 100), "%", "", money(q.Markup)})
	}
	rows = append(rows,
		[]string{"grand_total", "", "", q.Currency, "", money(q.GrandTotal)},
		[]string{"cost_per_sqm", "", money(q.AreaSqm), "m2", "", money(q.CostPerSqm)},
	)
	for _, n := range q.Notes {
		rows = append(rows, []string{"note", n})
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
