package dealfile

import "sort"

// Canonical programmatic field names of the deal export. Downstream consumers
// address columns by these names regardless of which schema convention the
// file used.
const (
	FieldCalcDate    = "calc_date"
	FieldXDDate      = "xd_date"
	FieldISIN        = "isin"
	FieldPurifyRatio = "net_domestic_amount_to_purify"
)

// Record is one data row of a deal export, aligned to DealFile.Columns.
// Records are immutable after parse.
type Record []string

// DealFile is the parsed deal export: the reconciled column layout, every data
// row in file order, and the per-identifier multiplicity index.
type DealFile struct {
	Columns    []string
	Records    []Record
	ISINCounts map[string]int

	index map[string]int // column name -> first position
}

func newDealFile(columns []string, records []Record) *DealFile {
	df := &DealFile{
		Columns:    columns,
		Records:    records,
		ISINCounts: make(map[string]int),
		index:      make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		if _, ok := df.index[name]; !ok {
			df.index[name] = i
		}
	}
	if _, ok := df.index[FieldISIN]; ok {
		for _, rec := range records {
			if id := df.ISIN(rec); id != "" {
				df.ISINCounts[id]++
			}
		}
	}
	return df
}

// Column returns the position of a named column.
func (df *DealFile) Column(name string) (int, bool) {
	i, ok := df.index[name]
	return i, ok
}

// Field returns the value of a named column in rec, or "" when the column is
// not part of the layout.
func (df *DealFile) Field(rec Record, name string) string {
	i, ok := df.index[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// ISIN returns the join identifier of rec.
func (df *DealFile) ISIN(rec Record) string {
	return df.Field(rec, FieldISIN)
}

// PurifyRatio returns the raw purification ratio field of rec.
func (df *DealFile) PurifyRatio(rec Record) string {
	return df.Field(rec, FieldPurifyRatio)
}

// XDDate returns the raw ex-dividend date field of rec (YYYYMMDD).
func (df *DealFile) XDDate(rec Record) string {
	return df.Field(rec, FieldXDDate)
}

// UniqueISINs returns the distinct identifiers in the file, sorted.
func (df *DealFile) UniqueISINs() []string {
	out := make([]string, 0, len(df.ISINCounts))
	for id := range df.ISINCounts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DuplicateISINs returns the identifiers appearing more than once, sorted.
func (df *DealFile) DuplicateISINs() []string {
	var out []string
	for id, n := range df.ISINCounts {
		if n > 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
