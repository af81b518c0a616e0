package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
	"github.com/contatogonetwork/urban-space-broccoli/internal/report"
)

var (
	planPrefer []string
	planXLSX   string
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan <itemId=quantity>...",
	Short: "Plan a shopping trip for a list of items",
	Long: `Recommend where to buy every item on the list. Each item goes to the
cheapest store by average price, or to the cheapest of the preferred stores
when any of them carries it. Prints a checklist grouped by store.`,
	Example: `  fridge-prices plan rice=2 milk=1
  fridge-prices plan rice=2 beans=0.5 --prefer "Market A" --xlsx plan.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringSliceVar(&planPrefer, "prefer", nil, "preferred stores, in priority order")
	planCmd.Flags().StringVar(&planXLSX, "xlsx", "", "also write the plan to this XLSX file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	lines, err := parsePlanArgs(args)
	if err != nil {
		return err
	}

	req := optimizer.NewShoppingRequest(lines, planPrefer)
	if err := req.Validate(cfg.Analytics.MaxRequestItems); err != nil {
		return err
	}

	ctx := context.Background()
	snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}

	plan, err := optimizer.NewPlanner().Plan(ctx, req, snap)
	if err != nil {
		return err
	}

	if planXLSX != "" {
		if err := writePlanFile(planXLSX, plan); err != nil {
			return err
		}
		logger.Info().Str("path", planXLSX).Msg("Wrote plan workbook")
	}

	if jsonOutput {
		return writeJSON(os.Stdout, plan)
	}
	return report.WriteChecklist(os.Stdout, plan)
}

// parsePlanArgs turns "itemId=quantity" arguments into request lines.
func parsePlanArgs(args []string) ([]optimizer.RequestLine, error) {
	lines := make([]optimizer.RequestLine, 0, len(args))
	for _, arg := range args {
		id, qty, ok := strings.Cut(arg, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid item %q: want itemId=quantity", arg)
		}
		quantity, err := strconv.ParseFloat(strings.TrimSpace(qty), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q: %w", arg, err)
		}
		if !optimizer.ValidQuantity(quantity) {
			return nil, fmt.Errorf("invalid quantity in %q: %w", arg, optimizer.ErrInvalidQuantity)
		}
		lines = append(lines, optimizer.RequestLine{ItemID: id, Quantity: quantity})
	}
	return lines, nil
}

func writePlanFile(path string, plan *optimizer.ShoppingPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WritePlanXLSX(f, plan); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
