package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
)

const noPriceHeading = "No price history"

// WriteChecklist writes plan as a plain-text checklist, one section per
// store in visiting order, unpriced items last.
func WriteChecklist(w io.Writer, plan *optimizer.ShoppingPlan) error {
	bw := bufio.NewWriter(w)

	if plan.SnapshotVersion > 0 {
		fmt.Fprintf(bw, "Shopping plan (prices as of snapshot %d)\n", plan.SnapshotVersion)
	} else {
		fmt.Fprintln(bw, "Shopping plan")
	}

	for _, group := range plan.ByLocation() {
		fmt.Fprintln(bw)
		if group.NoPriceHistory {
			fmt.Fprintln(bw, noPriceHeading)
		} else {
			fmt.Fprintf(bw, "%s  (%s)\n", group.Location, FormatMoney(group.Subtotal))
		}

		for _, line := range group.Lines {
			fmt.Fprintf(bw, "  [ ] %s  %s %s", line.Name, FormatQuantity(line.Quantity), line.Unit)
			if line.HasPrice() {
				fmt.Fprintf(bw, " @ %s = %s", FormatMoney(*line.UnitPrice), FormatMoney(*line.LineTotal))
				if line.SavingsValue != nil && *line.SavingsValue > 0 {
					fmt.Fprintf(bw, "  (save %s)", FormatMoney(*line.SavingsValue))
				}
			}
			fmt.Fprintln(bw)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Total: %s", FormatMoney(plan.TotalCost))
	if plan.TotalSavings > 0 {
		fmt.Fprintf(bw, "  Savings: %s", FormatMoney(plan.TotalSavings))
		if plan.SavingsPct != nil {
			fmt.Fprintf(bw, " (%s)", FormatPct(*plan.SavingsPct))
		}
	}
	fmt.Fprintln(bw)

	return bw.Flush()
}
