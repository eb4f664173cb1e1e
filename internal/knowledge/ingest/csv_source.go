package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"b3-stock-qa/internal/entity"
)

// TradingColumns maps logical trading fields to physical column indices.
// The exact indices are a configuration detail of each export format.
type TradingColumns struct {
	Ticker     int `mapstructure:"ticker"`
	Date       int `mapstructure:"date"`
	Open       int `mapstructure:"open"`
	High       int `mapstructure:"high"`
	Low        int `mapstructure:"low"`
	Average    int `mapstructure:"avg"`
	Close      int `mapstructure:"close"`
	Trades     int `mapstructure:"trades"`
	Volume     int `mapstructure:"volume"`
	ShareClass int `mapstructure:"share_class"`
}

// TradingSource yields the logical trading rows of one tabular source.
type TradingSource interface {
	Name() string
	Records() ([]entity.TradingRecord, error)
}

// CompanySource yields the logical company rows of one tabular source.
type CompanySource interface {
	Name() string
	Companies() ([]entity.CompanyRecord, error)
}

// CSVTradingSource reads trading rows from a CSV export. The first row is a
// header and is skipped.
type CSVTradingSource struct {
	Path    string
	Columns TradingColumns
}

func (s *CSVTradingSource) Name() string { return filepath.Base(s.Path) }

func (s *CSVTradingSource) Records() ([]entity.TradingRecord, error) {
	rows, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}

	records := make([]entity.TradingRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		records = append(records, entity.TradingRecord{
			Line:       i + 1,
			Ticker:     cell(row, s.Columns.Ticker),
			Date:       cell(row, s.Columns.Date),
			Open:       ParseDecimal(cell(row, s.Columns.Open)),
			High:       ParseDecimal(cell(row, s.Columns.High)),
			Low:        ParseDecimal(cell(row, s.Columns.Low)),
			Average:    ParseDecimal(cell(row, s.Columns.Average)),
			Close:      ParseDecimal(cell(row, s.Columns.Close)),
			Trades:     ParseCount(cell(row, s.Columns.Trades)),
			Volume:     ParseDecimal(cell(row, s.Columns.Volume)),
			ShareClass: cell(row, s.Columns.ShareClass),
		})
	}
	return records, nil
}

// CSVCompanySource reads company rows (name, ticker, sector) from a CSV
// export. The first row is a header and is skipped.
type CSVCompanySource struct {
	Path string
}

func (s *CSVCompanySource) Name() string { return filepath.Base(s.Path) }

func (s *CSVCompanySource) Companies() ([]entity.CompanyRecord, error) {
	rows, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}

	companies := make([]entity.CompanyRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		companies = append(companies, entity.CompanyRecord{
			Line:   i + 1,
			Name:   cell(row, 0),
			Ticker: cell(row, 1),
			Sector: cell(row, 2),
		})
	}
	return companies, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // exports have ragged rows; read defensively
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// cell reads a column defensively: out-of-range indices yield an empty
// string, never a panic.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
