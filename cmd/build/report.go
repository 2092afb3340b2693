package build

import (
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/operator-framework/npdb/pkg/npdb/heuristic"
	"github.com/operator-framework/npdb/pkg/npdb/task"
)

func formatCost(c float64) string {
	if math.IsInf(c, 1) {
		return "inf"
	}
	return strconv.FormatFloat(c, 'g', 6, 64)
}

// newReport lists one row per pattern database and the collection
// estimate for initial in the footer.
func newReport(fixture *Fixture, c *heuristic.Collection, initial task.State) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Pattern", "States", "Exhausted", "Min cost", "Mean distance", "Initial h"})
	for _, h := range c.Members() {
		db := h.PatternDatabase()
		w.AppendRow(table.Row{
			"[" + strings.Join(fixture.PatternNames(db.Pattern()), ", ") + "]",
			db.Size(),
			db.Exhausted(),
			formatCost(db.MinOperatorCost()),
			formatCost(db.MeanFiniteDistance()),
			formatCost(h.Evaluate(initial)),
		})
	}
	w.AppendFooter(table.Row{"max", "", "", "", "", formatCost(c.Evaluate(initial))})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return w
}
