package domain

import (
	"context"
	"time"
)

// FundRepository defines the interface for fund persistence operations
type FundRepository interface {
	// GetByCode retrieves a fund by its external code
	// Returns ErrNotFound when no fund has that code
	GetByCode(ctx context.Context, code string) (*Fund, error)

	// Create inserts a new fund and fills in its ID and CreatedAt
	// Returns ErrDuplicate when the code is already taken
	Create(ctx context.Context, fund *Fund) error

	// Update changes the mutable fields (name, fund type) of the fund with fund.Code
	Update(ctx context.Context, fund *Fund) error

	// List retrieves a page of funds matching the filter, ordered by ID
	List(ctx context.Context, filter FundFilter, limit, offset int) ([]*Fund, error)

	// Count returns the number of funds matching the filter
	Count(ctx context.Context, filter FundFilter) (int, error)

	// ListAll retrieves every fund, ordered by ID
	ListAll(ctx context.Context) ([]*Fund, error)
}

// NavRepository defines the interface for NAV history persistence operations
type NavRepository interface {
	// ExistingNavDates returns the subset of dates already stored for the fund
	// Only the requested dates are read, never the fund's whole history
	ExistingNavDates(ctx context.Context, fundID int64, dates []time.Time) ([]time.Time, error)

	// InsertNavs stores the points atomically and returns how many rows were actually inserted
	// Points colliding with an existing (fund, date) row are ignored, never overwritten
	InsertNavs(ctx context.Context, fundID int64, points []NavPoint) (int, error)

	// RecentNavs returns up to limit most recent records of the fund, newest first
	RecentNavs(ctx context.Context, fundID int64, limit int) ([]*StoredNavRecord, error)
}
