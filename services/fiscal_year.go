package services

import (
	"fmt"
	"time"
)

// FiscalYear returns the accounting-year label for a point in time.
// Indian fiscal years run April 1 to March 31: March 2025 falls in FY24-25,
// April 2025 opens FY25-26.
func FiscalYear(t time.Time) string {
	year := t.Year()
	if t.Month() >= time.April {
		return fmt.Sprintf("FY%02d-%02d", year%100, (year+1)%100)
	}
	return fmt.Sprintf("FY%02d-%02d", (year-1)%100, year%100)
}

// FiscalYearStart parses a label produced by FiscalYear back into the
// April 1 that opens it. Used as the counter-row key.
func FiscalYearStart(fy string) (time.Time, error) {
	var startYY, endYY int
	if _, err := fmt.Sscanf(fy, "FY%02d-%02d", &startYY, &endYY); err != nil {
		return time.Time{}, fmt.Errorf("invalid fiscal year %q: %w", fy, err)
	}
	return time.Date(2000+startYY, time.April, 1, 0, 0, 0, 0, time.UTC), nil
}

// FormatInvoiceNo renders the legally-issued number: the fiscal year label,
// a slash, and the six-digit zero-padded sequence.
// Example: FormatInvoiceNo("FY24-25", 1) == "FY24-25/000001".
func FormatInvoiceNo(fy string, seq int64) string {
	return fmt.Sprintf("%s/%06d", fy, seq)
}
