package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FundListItem is a fund with metrics derived from its two most recent stored NAVs
// It is computed fresh for every listing request and never persisted
type FundListItem struct {
	Fund
	NAV            decimal.NullDecimal // Latest known NAV
	NavDate        *time.Time          // Date of NAV, nil when the fund has no history
	DailyChangePct decimal.NullDecimal // Derived, independent of the source's own JZZZL field
}

// SortField is the closed set of fields a fund listing can be sorted by
type SortField string

const (
	SortNone          SortField = ""
	SortByNAV         SortField = "nav"
	SortByDailyChange SortField = "daily_change_pct"
	SortByCode        SortField = "code"
	SortByName        SortField = "name"
)

// ParseSortField converts a user-supplied field name into a SortField
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.TrimSpace(s)); f {
	case SortNone, SortByNAV, SortByDailyChange, SortByCode, SortByName:
		return f, nil
	default:
		return SortNone, fmt.Errorf("%w: unsupported sort field %q (allowed: nav, daily_change_pct, code, name)", ErrInvalidArgument, s)
	}
}

// SortOrder is the listing sort direction
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// ParseSortOrder converts a user-supplied direction, defaulting to descending
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return SortDesc, nil
	case "asc":
		return SortAsc, nil
	default:
		return SortDesc, fmt.Errorf("%w: unsupported sort order %q (allowed: asc, desc)", ErrInvalidArgument, s)
	}
}
