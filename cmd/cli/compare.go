package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/contatogonetwork/urban-space-broccoli/internal/report"
	"github.com/contatogonetwork/urban-space-broccoli/internal/trends"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare average prices across stores",
	Long: `Print the item x store matrix of average unit prices, with the cheapest
store per item and how much it saves against the most expensive one.`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

// locationsCmd represents the locations command
var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List the stores seen in the price history",
	Args:  cobra.NoArgs,
	RunE:  runLocations,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(locationsCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	comparison, err := trends.Compare(ctx, snap)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(os.Stdout, comparison)
	}
	displayComparison(os.Stdout, comparison)
	return nil
}

func displayComparison(out io.Writer, mc *trends.MarketComparison) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	header := append([]string{"ITEM"}, mc.Locations...)
	header = append(header, "BEST", "SAVES")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, item := range mc.Items {
		byLocation := make(map[string]float64, len(item.Prices))
		for _, p := range item.Prices {
			byLocation[p.Location] = p.AvgUnitPrice
		}

		row := []string{item.Name}
		for _, loc := range mc.Locations {
			if v, ok := byLocation[loc]; ok {
				row = append(row, report.FormatMoney(v))
			} else {
				row = append(row, "-")
			}
		}

		best := "-"
		if item.BestLocation != nil {
			best = *item.BestLocation
		}
		row = append(row, best, pct(item.SavingsPct))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func runLocations(cmd *cobra.Command, args []string) error {
	snap, err := loadSnapshot(context.Background())
	if err != nil {
		return err
	}

	locations := snap.Locations()
	if jsonOutput {
		return writeJSON(os.Stdout, locations)
	}
	for _, loc := range locations {
		fmt.Println(loc)
	}
	return nil
}
