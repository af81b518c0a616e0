package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/contatogonetwork/urban-space-broccoli/internal/report"
	"github.com/contatogonetwork/urban-space-broccoli/internal/trends"
)

// trendsCmd represents the trends command
var trendsCmd = &cobra.Command{
	Use:   "trends [itemId...]",
	Short: "Show price trends per item",
	Long: `Summarize the price history of the given items, or of every item when
none are given: mean, median, range, volatility and whether the latest price
is above, near or below the historical mean.`,
	Example: `  fridge-prices trends
  fridge-prices trends rice beans --json`,
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	ids := args
	if len(ids) == 0 {
		for _, it := range snap.Items() {
			ids = append(ids, it.ID)
		}
	}

	calc := trends.NewCalculator(cfg.Analytics.TrendThresholdPct)
	summaries := make([]trends.TrendSummary, 0, len(ids))
	for _, id := range ids {
		if _, _, ok := snap.ItemMeta(id); !ok {
			return fmt.Errorf("unknown item: %s", id)
		}
		summary, err := calc.SummarizeContext(ctx, snap.Observations(id))
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	if jsonOutput {
		return writeJSON(os.Stdout, summaries)
	}
	displayTrends(os.Stdout, summaries)
	return nil
}

func displayTrends(out io.Writer, summaries []trends.TrendSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ITEM\tSAMPLES\tMEAN\tMEDIAN\tMIN\tMAX\tLAST\tVS MEAN\tTREND\tVOLATILITY")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ItemID, s.SampleCount,
			money(s.Mean), money(s.Median), money(s.Min), money(s.Max), money(s.LastPrice),
			pct(s.PositionVsMeanPct), s.TrendClass, pct(s.VolatilityPct))
	}
	w.Flush()
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return report.FormatMoney(*v)
}

func pct(v *float64) string {
	if v == nil {
		return "-"
	}
	return report.FormatPct(*v)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
