package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
)

// Sheet names of the plan workbook.
const (
	PlanSheet     = "Plan"
	LocationSheet = "By location"
)

var planHeader = []any{
	"Item", "Quantity", "Unit", "Location", "Unit price", "Line total",
	"Max unit price", "Savings", "Savings %", "Vs mean %", "Locations compared",
}

// WritePlanXLSX writes plan as a workbook with one row per line on the Plan
// sheet and per-store subtotals on the By location sheet.
func WritePlanXLSX(w io.Writer, plan *optimizer.ShoppingPlan) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PlanSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LocationSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writePlanSheet(f, plan, bold); err != nil {
		return err
	}
	if err := writeLocationSheet(f, plan, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writePlanSheet(f *excelize.File, plan *optimizer.ShoppingPlan, headerStyle int) error {
	if err := setRow(f, PlanSheet, 1, planHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(PlanSheet, "A1", "K1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	row := 2
	for _, line := range plan.Lines {
		values := []any{
			line.Name,
			line.Quantity,
			line.Unit,
			line.RecommendedLocation,
			moneyCell(line.UnitPrice),
			moneyCell(line.LineTotal),
			moneyCell(line.MaxUnitPrice),
			moneyCell(line.SavingsValue),
			pctCell(line.SavingsPct),
			pctCell(line.VsGlobalMeanPct),
			line.LocationsCompared,
		}
		if err := setRow(f, PlanSheet, row, values); err != nil {
			return err
		}
		row++
	}

	// Totals
	row++
	totals := []any{"Total", nil, nil, nil, nil, Money(plan.TotalCost).InexactFloat64(),
		nil, Money(plan.TotalSavings).InexactFloat64(), pctCell(plan.SavingsPct)}
	if err := setRow(f, PlanSheet, row, totals); err != nil {
		return err
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellStyle(PlanSheet, cell, cell, headerStyle); err != nil {
		return fmt.Errorf("failed to style totals: %w", err)
	}

	return f.SetColWidth(PlanSheet, "A", "A", 28)
}

func writeLocationSheet(f *excelize.File, plan *optimizer.ShoppingPlan, headerStyle int) error {
	if err := setRow(f, LocationSheet, 1, []any{"Location", "Items", "Subtotal"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(LocationSheet, "A1", "C1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	row := 2
	for _, group := range plan.ByLocation() {
		location := group.Location
		var subtotal any = Money(group.Subtotal).InexactFloat64()
		if group.NoPriceHistory {
			location = noPriceHeading
			subtotal = nil
		}
		if err := setRow(f, LocationSheet, row, []any{location, len(group.Lines), subtotal}); err != nil {
			return err
		}
		row++
	}

	return f.SetColWidth(LocationSheet, "A", "A", 28)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// moneyCell leaves the cell blank for missing values.
func moneyCell(v *float64) any {
	if v == nil {
		return nil
	}
	return Money(*v).InexactFloat64()
}

func pctCell(v *float64) any {
	if v == nil {
		return nil
	}
	return decimal.NewFromFloat(*v).Round(2).InexactFloat64()
}
