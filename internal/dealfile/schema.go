package dealfile

import (
	"regexp"
	"strings"
)

// Convention selects how the schema section of a deal export is read.
type Convention int

const (
	// ConventionAuto detects the convention from the file itself; when no
	// schema section exists at all but the data section does, the canonical
	// deal layout is assumed.
	ConventionAuto Convention = iota
	// ConventionNumberedHeader: a "# <int> <int> <int>..." line opens the
	// header table and subsequent "#" lines carry one field name each.
	ConventionNumberedHeader
	// ConventionBracketed: a standalone "*" line opens the column-definition
	// block and a second standalone "*" closes it.
	ConventionBracketed
)

var (
	// numbered-header open line: "#" followed by three or more integers
	numberedHeaderRe = regexp.MustCompile(`^#\s+\d+(?:\s+\d+){2,}\s*$`)
	// bracketed field line: "# <ordinal> <descriptive name...> <prog_name> <D|N|S|T> <width> <precision>"
	bracketFieldRe = regexp.MustCompile(`^#\s+(\d+)\s+(.+?)\s+(\S+)\s+([DNST])\s+(\d+)\s+(\d+)$`)
)

// isFillerName reports whether a schema line declares a reserved/filler slot
// rather than a real column. Filler slots contribute no name; the arity
// reconciliation step backfills them as reserved_<k>.
func isFillerName(name string) bool {
	switch strings.ToLower(name) {
	case "", "-", "reserved", "filler":
		return true
	}
	return false
}

// extractSchema pulls the declared field names out of the schema section.
// The boolean reports whether a schema section was found at all.
func extractSchema(lines []string, conv Convention) ([]string, bool) {
	switch conv {
	case ConventionNumberedHeader:
		return numberedHeaderNames(lines)
	case ConventionBracketed:
		return bracketedNames(lines)
	}
	// Auto: whichever section opener appears first wins.
	for _, ln := range lines {
		t := strings.TrimSpace(ln)
		if dataStartRe.MatchString(t) {
			break
		}
		if t == "*" {
			return bracketedNames(lines)
		}
		if numberedHeaderRe.MatchString(t) {
			return numberedHeaderNames(lines)
		}
	}
	return nil, false
}

// numberedHeaderNames reads field names in the numbered-header convention:
// every "#"-prefixed line after the header line contributes its 3rd
// whitespace-delimited token, excluding repeated header lines, filler slots
// and the end-of-data sentinel.
func numberedHeaderNames(lines []string) ([]string, bool) {
	var names []string
	headerSeen := false
	for _, ln := range lines {
		t := strings.TrimSpace(ln)
		if dataStartRe.MatchString(t) || t == endOfData {
			break
		}
		if !headerSeen {
			if numberedHeaderRe.MatchString(t) {
				headerSeen = true
			}
			continue
		}
		if !strings.HasPrefix(t, "#") || numberedHeaderRe.MatchString(t) {
			continue
		}
		fields := strings.Fields(t)
		if len(fields) < 3 {
			continue
		}
		if name := fields[2]; !isFillerName(name) {
			names = append(names, name)
		}
	}
	return names, headerSeen
}

// bracketedNames reads field names in the delimiter-bracketed convention. An
// unclosed block does not count as a schema section.
func bracketedNames(lines []string) ([]string, bool) {
	open := -1
	for i, ln := range lines {
		t := strings.TrimSpace(ln)
		if dataStartRe.MatchString(t) {
			return nil, false
		}
		if t == "*" {
			open = i
			break
		}
	}
	if open < 0 {
		return nil, false
	}
	var names []string
	closed := false
	for _, ln := range lines[open+1:] {
		t := strings.TrimSpace(ln)
		if t == "*" {
			closed = true
			break
		}
		m := bracketFieldRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if name := m[3]; !isFillerName(name) {
			names = append(names, name)
		}
	}
	return names, closed
}

// canonicalColumns is the full 46-column layout of the deal export, used when
// a file carries a data section but no schema section. The reserved_* run at
// the tail mirrors what arity reconciliation would produce for the same file.
func canonicalColumns() []string {
	cols := []string{
		"calc_date", "msci_index_code", "msci_dividend_code", "xd_date", "reinvestment_in_index_date",
		"dividend_description", "msci_security_code", "msci_timeseries_code", "msci_issuer_code",
		"security_name", "bb_ticker", "dividend_ISO_currency_symbol", "unadjusted_dividend_amount",
		"dividend_sub_unit", "dividend_adjustment_factor", "adjusted_grs_dividend_amount",
		"withholding_tax_rate", "adj_net_dividend_amount_int", "adj_net_dividend_amount_dom",
		"purified_dividend_adjust_fact", "purified_adj_grs_div_amount", "purified_adj_net_div_amnt_int",
		"purified_adj_net_div_amnt_dom", "gross_amount_to_purify", "net_intl_amount_to_purify",
		"net_domestic_amount_to_purify", "isin", "reserved_1", "reserved_2", "reserved_3", "reserved_4",
		"reserved_5", "reserved_6", "reserved_7", "reserved_8", "reserved_9", "reserved_10",
		"reserved_11", "reserved_12", "reserved_13", "reserved_14", "reserved_15", "reserved_16",
		"reserved_17", "reserved_18", "reserved_19",
	}
	return cols
}
