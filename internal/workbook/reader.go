package workbook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"NPIReportSvc/internal/reconcile"
)

// Format identifies the container of an uploaded report payload.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04} // xlsx zip container
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0} // legacy BIFF compound file
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// Detect classifies a payload by its leading bytes. Anything that is neither
// a zip container nor an OLE compound file is treated as CSV.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	default:
		return FormatCSV
	}
}

// ReadGrid decodes the first worksheet of an xlsx or xls payload, or a CSV
// payload, into a row-major grid of formatted cell values.
func ReadGrid(data []byte) (reconcile.Grid, Format, error) {
	if len(data) == 0 {
		return nil, "", errors.New("empty report payload")
	}
	format := Detect(data)
	var (
		grid reconcile.Grid
		err  error
	)
	switch format {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	default:
		grid, err = readCSV(data)
	}
	if err != nil {
		return nil, format, err
	}
	return grid, format, nil
}

func readXLSX(data []byte) (reconcile.Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	return reconcile.Grid(rows), nil
}

func readXLS(data []byte) (reconcile.Grid, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("xls has no sheets")
	}
	grid := make(reconcile.Grid, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func readCSV(data []byte) (reconcile.Grid, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return reconcile.Grid(records), nil
}
