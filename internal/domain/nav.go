package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date layout used on the wire and in the store
const DateLayout = "2006-01-02"

// DailyChangeScale is the number of decimal places kept for derived daily change percentages
const DailyChangeScale = 4

// NavPoint is one day of a fund's price history
// NavDate is a calendar date normalized to UTC midnight
type NavPoint struct {
	NavDate        time.Time
	NAV            decimal.Decimal     // Unit price
	AccumulatedNAV decimal.NullDecimal // Includes reinvested distributions, optional
	DailyChangePct decimal.NullDecimal // As reported by the source, never recomputed at fetch time
}

// StoredNavRecord is a persisted NavPoint
// Records are append-only: once inserted for (FundID, NavDate) they are never updated or deleted
type StoredNavRecord struct {
	ID     int64
	FundID int64
	NavPoint
	CreatedAt time.Time
}

// NewDate returns the calendar date y-m-d at UTC midnight
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD)
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// TruncateDate drops the time-of-day of t, keeping the calendar date as seen in t's location
func TruncateDate(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DateKey returns the canonical key for a calendar date
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DailyChangePct computes (latest - previous) / previous * 100, rounded to DailyChangeScale places
// The result is absent when previous is absent or zero
func DailyChangePct(latest decimal.Decimal, previous decimal.NullDecimal) decimal.NullDecimal {
	if !previous.Valid || previous.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	pct := latest.Sub(previous.Decimal).
		Div(previous.Decimal).
		Mul(decimal.NewFromInt(100)).
		Round(DailyChangeScale)
	return decimal.NewNullDecimal(pct)
}
