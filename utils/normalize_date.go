package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of the 1900 date system. Serial 1 is 1900-01-01;
// the offset also absorbs the historical leap-year bug for serials > 59.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	time.RFC3339,
}

// NormalizeTrainingDate turns a spreadsheet cell value into a calendar date.
// Numeric values are treated as Excel date serials, anything else is tried
// against the common date layouts. An empty or unparseable value is an error;
// in bulk mode that fails the row, never the job.
func NormalizeTrainingDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("training date is required")
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("invalid date serial %q", value)
		}
		days := int(serial)
		return excelEpoch.AddDate(0, 0, days), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// FormatDate renders a date the way it appears on certificates and exports.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
