package workbook

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NPIReportSvc/internal/reconcile"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"xlsx zip container", []byte("PK\x03\x04rest"), FormatXLSX},
		{"legacy ole container", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1}, FormatXLS},
		{"plain text", []byte("a,b,c\n"), FormatCSV},
		{"empty", nil, FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.data))
		})
	}
}

func TestReadGrid_CSV(t *testing.T) {
	data := []byte("\xEF\xBB\xBFa,b\n\"x,y\",2,3\n")
	grid, format, err := ReadGrid(data)
	require.NoError(t, err)

	assert.Equal(t, FormatCSV, format)
	require.Len(t, grid, 2)
	assert.Equal(t, []string{"a", "b"}, grid[0])
	assert.Equal(t, []string{"x,y", "2", "3"}, grid[1])
}

func TestReadGrid_EmptyPayload(t *testing.T) {
	_, _, err := ReadGrid(nil)
	assert.EqualError(t, err, "empty report payload")
}

func TestReadGrid_CorruptXLSX(t *testing.T) {
	_, format, err := ReadGrid([]byte("PK\x03\x04 not really a workbook"))
	assert.Equal(t, FormatXLSX, format)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open xlsx")
}

func TestWriteReport_RoundTrip(t *testing.T) {
	rep := &reconcile.EnrichedReport{
		Summary: reconcile.Grid{
			{"Dividends Receivable Report"},
			{"Total", "", "", "125000"},
			{"Total NPI", "", "", "50"},
			{reconcile.DetailsMarker},
			{},
		},
		TotalRow: 2,
		Header: []string{
			"Security Name", reconcile.ColSecuritySedol, reconcile.ColAccruedIncome,
			reconcile.ColPurifyRatio, reconcile.ColNPIBase,
		},
		Rows: []reconcile.EnrichedRow{
			{
				Cells:   []string{"Acme", "ISIN1", "1000"},
				Ratio:   decimal.RequireFromString("0.05"),
				Accrued: decimal.NewFromInt(1000),
				NPI:     decimal.NewFromInt(50),
				Matched: true,
			},
			{
				Cells:   []string{"Beta", "ZZZ", "200"},
				Ratio:   decimal.Zero,
				Accrued: decimal.NewFromInt(200),
				NPI:     decimal.Zero,
				Matched: false,
			},
		},
		SedolCol:   1,
		AccruedCol: 2,
		Total:      decimal.NewFromInt(50),
		Matched:    1,
		Unmatched:  1,
	}

	out, err := WriteReport(rep)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, zipMagic))

	grid, format, err := ReadGrid(out)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)
	require.Len(t, grid, 8)

	// Summary block with the numeric grand total.
	assert.Equal(t, "Dividends Receivable Report", grid[0][0])
	assert.Equal(t, "Total NPI", grid[2][0])
	assert.Equal(t, "50", grid[2][reconcile.TotalValueCol])
	assert.Equal(t, reconcile.DetailsMarker, grid[3][0])
	assert.Empty(t, grid[4])

	// Details header then the enriched rows, numerics formatted back.
	assert.Equal(t, "Security Name", grid[5][0])
	assert.Equal(t, reconcile.ColNPIBase, grid[5][4])
	assert.Equal(t, []string{"Acme", "ISIN1", "1000", "0.05", "50"}, grid[6])
	assert.Equal(t, []string{"Beta", "ZZZ", "200", "0", "0"}, grid[7])

	// A generated workbook splits cleanly for a re-run.
	table, err := reconcile.SplitReport(grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"Security Name", reconcile.ColSecuritySedol, reconcile.ColAccruedIncome}, table.Header)
	require.Len(t, table.Details, 2)
	assert.Equal(t, []string{"Acme", "ISIN1", "1000"}, table.Details[0])
}
