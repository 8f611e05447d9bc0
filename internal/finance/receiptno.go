package finance

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DayKeyLayout is the per-day counter key and the date part of receipt numbers
const DayKeyLayout = "20060102"

var receiptNumberPattern = regexp.MustCompile(`^R(\d{8})-(\d{4,})$`)

// DayKey returns the YYYYMMDD key of t's calendar day in loc
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayKeyLayout)
}

// FormatReceiptNumber builds R<YYYYMMDD>-<seq>, seq zero-padded to four digits
func FormatReceiptNumber(dayKey string, seq int64) string {
	return fmt.Sprintf("R%s-%04d", dayKey, seq)
}

// ParseReceiptNumber splits a receipt number into its day key and sequence
func ParseReceiptNumber(s string) (string, int64, error) {
	m := receiptNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return "", 0, fmt.Errorf("malformed receipt number %q", s)
	}
	if _, err := time.Parse(DayKeyLayout, m[1]); err != nil {
		return "", 0, fmt.Errorf("malformed receipt number %q: %w", s, err)
	}
	seq, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || seq < 1 {
		return "", 0, fmt.Errorf("malformed receipt number %q", s)
	}
	return m[1], seq, nil
}
