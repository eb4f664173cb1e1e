package ingest

import (
	"strconv"
	"strings"
)

var currencyMarkers = strings.NewReplacer("R$", "", "$", "", "%", "", "\u00a0", " ")

// ParseDecimal reads a numeric cell defensively. It accepts both the
// decimal-comma and decimal-point conventions and strips currency/percent
// symbols first. Unparseable or blank input yields nil — absent, not zero.
func ParseDecimal(cell string) *float64 {
	s := strings.TrimSpace(currencyMarkers.Replace(cell))
	if s == "" {
		return nil
	}

	// "1.234,56" -> thousands dots, decimal comma
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	s = strings.ReplaceAll(s, " ", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseCount reads an integer cell with the same conventions as
// ParseDecimal, truncating any fractional part.
func ParseCount(cell string) *int64 {
	f := ParseDecimal(cell)
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}
