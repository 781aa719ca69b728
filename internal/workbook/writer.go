package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"NPIReportSvc/internal/reconcile"
)

// MimeXLSX is the content type of the generated workbook.
const MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const outputSheet = "Sheet1"

// WriteReport renders the enriched report as a single-sheet workbook: the
// summary block first without a header row, then the details header and the
// enriched rows. The grand total and the per-row enrichment cells are written
// as numbers so the figures stay usable in Excel.
func WriteReport(rep *reconcile.EnrichedReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for rowIdx, row := range rep.Summary {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			cellName, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if rowIdx == rep.TotalRow && colIdx == reconcile.TotalValueCol {
				f.SetCellValue(outputSheet, cellName, rep.Total.InexactFloat64())
				continue
			}
			f.SetCellValue(outputSheet, cellName, cell)
		}
	}

	headerRow := len(rep.Summary)
	for colIdx, name := range rep.Header {
		cellName, _ := excelize.CoordinatesToCellName(colIdx+1, headerRow+1)
		f.SetCellValue(outputSheet, cellName, name)
	}

	ratioCol := len(rep.Header) - 2
	npiCol := len(rep.Header) - 1
	for i, row := range rep.Rows {
		excelRow := headerRow + 2 + i
		for colIdx := range rep.Header {
			cellName, _ := excelize.CoordinatesToCellName(colIdx+1, excelRow)
			switch colIdx {
			case rep.AccruedCol:
				f.SetCellValue(outputSheet, cellName, row.Accrued.InexactFloat64())
			case ratioCol:
				f.SetCellValue(outputSheet, cellName, row.Ratio.InexactFloat64())
			case npiCol:
				f.SetCellValue(outputSheet, cellName, row.NPI.InexactFloat64())
			default:
				if colIdx < len(row.Cells) && row.Cells[colIdx] != "" {
					f.SetCellValue(outputSheet, cellName, row.Cells[colIdx])
				}
			}
		}
	}

	for i := range rep.Header {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(outputSheet, colName, colName, 15)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
