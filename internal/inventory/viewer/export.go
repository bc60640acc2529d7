package viewer

import (
	"bytes"
	"fmt"

	"imsystem/internal/inventory/grid"
	"imsystem/pkg/models"

	"github.com/xuri/excelize/v2"
)

const (
	reportSheet       = "Inventory"
	XLSXContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheetName  = "Sheet1"
	quantityNumFormat = 4 // #,##0.00
)

var reportColumnWidths = map[string]float64{
	"container":   14,
	"rack":        10,
	"level":       10,
	"item_code":   18,
	"description": 48,
	"uom":         8,
	"quantity":    12,
}

// generateReport writes rows as an XLSX workbook with one sheet holding the
// grid columns in display order.
func generateReport(rows []models.Record) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet(defaultSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	quantityStyle, err := f.NewStyle(&excelize.Style{
		NumFmt:    quantityNumFormat,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create quantity style: %w", err)
	}

	header := make([]interface{}, len(grid.Columns))
	for i, c := range grid.Columns {
		header[i] = c.Label

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(reportSheet, col, col, reportColumnWidths[c.Key]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
		if c.Align == grid.AlignRight {
			if err := f.SetColStyle(reportSheet, col, quantityStyle); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column style: %w", err)
			}
		}
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(grid.Columns), 1)
	if err := f.SetCellStyle(reportSheet, "A1", lastHeader, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		values := []interface{}{
			r.Container,
			r.Rack,
			r.Level,
			r.ItemCodeValue(),
			r.DescriptionValue(),
			r.UOM,
			nil,
		}
		if q, ok := r.QuantityValue(); ok {
			values[6] = q
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}
