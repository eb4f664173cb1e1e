package entity

// TradingRecord is the logical shape of one row of a trading (pregão)
// source. Numeric fields are pointers: nil means the cell was absent or
// unparseable, which is a distinct state from zero.
type TradingRecord struct {
	Line       int // 1-based row number in the source, for diagnostics
	Ticker     string
	Date       string
	Open       *float64
	High       *float64
	Low        *float64
	Average    *float64
	Close      *float64
	Trades     *int64
	Volume     *float64
	ShareClass string // raw marker, e.g. "ON", "PN", "PNB"
}

// HasNumericData reports whether at least one numeric field is present.
// A row with no numeric data at all is rejected by the ingestor.
func (r *TradingRecord) HasNumericData() bool {
	return r.Open != nil || r.High != nil || r.Low != nil ||
		r.Average != nil || r.Close != nil || r.Trades != nil || r.Volume != nil
}

// CompanyRecord is the logical shape of one row of the company-info source.
type CompanyRecord struct {
	Line   int
	Name   string
	Ticker string
	Sector string
}
