package domain

import (
	"errors"
	"strings"
	"time"
)

// Fund represents a tracked mutual fund in the domain layer
// Code is the stable external symbol used by the NAV source and is unique
type Fund struct {
	ID        int64
	Code      string
	Name      string
	FundType  string // Free-text category, e.g. "混合型" or "Bond"
	CreatedAt time.Time
}

// Validate ensures the fund adheres to domain rules
// Returns an error if validation fails
func (f *Fund) Validate() error {
	if strings.TrimSpace(f.Code) == "" {
		return errors.New("invalid fund: code cannot be empty")
	}
	if strings.ContainsAny(f.Code, " \t\r\n") {
		return errors.New("invalid fund: code must not contain whitespace")
	}
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("invalid fund: name cannot be empty")
	}
	return nil
}

// FundFilter narrows a fund listing
// An empty FundType matches every type, an empty Search matches every fund
type FundFilter struct {
	FundType string // Exact match
	Search   string // Case-sensitive substring over code OR name
}

// Matches reports whether the fund passes the filter
// Repositories push the filter into SQL; this is used by in-memory callers and tests
func (f FundFilter) Matches(fund *Fund) bool {
	if f.FundType != "" && fund.FundType != f.FundType {
		return false
	}
	if f.Search != "" && !strings.Contains(fund.Code, f.Search) && !strings.Contains(fund.Name, f.Search) {
		return false
	}
	return true
}
