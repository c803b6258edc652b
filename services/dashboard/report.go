package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pavitra93/go-rental-management/shared/dashboard"
	"github.com/pavitra93/go-rental-management/shared/enrich"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ledgerSheet     = "Payments"
	summarySheet    = "Summary"
	dateLayout      = "2006-01-02"
)

var ledgerHeader = []string{
	"Due Date",
	"Property",
	"Unit",
	"Tenant",
	"Status",
	"Amount",
	"Late Fee",
	"Total",
	"Paid Date",
	"Method",
	"Reference",
}

var ledgerWidths = []float64{12, 24, 10, 24, 10, 12, 10, 12, 12, 12, 18}

// buildPaymentReport writes the ledger sheet and a summary sheet of the
// actor's counters.
func buildPaymentReport(rows []enrich.PaymentRow, stats dashboard.Stats, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ledgerSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(ledgerSheet, "A1", &ledgerHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ledgerHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(ledgerSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, w := range ledgerWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(ledgerSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.DueDate.Format(dateLayout),
			r.Property.Name,
			r.Unit.UnitNumber,
			r.Tenant.Name(),
			string(r.Status),
			r.Amount,
			lateFee(r),
			r.Total,
			paidDate(r),
			r.Method,
			r.Reference,
		}
		if err := f.SetSheetRow(ledgerSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(ledgerSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := writeSummary(f, stats, generated); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func lateFee(r enrich.PaymentRow) float64 {
	if r.LateFee == nil {
		return 0
	}
	return *r.LateFee
}

func paidDate(r enrich.PaymentRow) string {
	if r.PaidDate == nil {
		return ""
	}
	return r.PaidDate.Format(dateLayout)
}

func writeSummary(f *excelize.File, stats dashboard.Stats, generated time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	lines := [][]any{
		{"Generated", generated.Format(time.RFC3339)},
		{"Role", string(stats.Role)},
	}
	switch {
	case stats.Admin != nil:
		s := stats.Admin
		lines = append(lines,
			[]any{"Properties", s.TotalProperties},
			[]any{"Units", s.TotalUnits},
			[]any{"Occupancy Rate (%)", s.OccupancyRate},
			[]any{"Active Leases", s.ActiveLeases},
			[]any{"Revenue", s.TotalRevenue},
			[]any{"Overdue Payments", s.OverduePayments},
		)
	case stats.Landlord != nil:
		s := stats.Landlord
		lines = append(lines,
			[]any{"Properties", s.TotalProperties},
			[]any{"Units", s.TotalUnits},
			[]any{"Occupancy Rate (%)", s.OccupancyRate},
			[]any{"Active Leases", s.ActiveLeases},
			[]any{"Revenue", s.CollectedRevenue},
			[]any{"Overdue Payments", s.OverduePayments},
		)
	}

	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &line); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 22)
}
