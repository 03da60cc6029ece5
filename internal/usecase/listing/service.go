// Package listing serves fund listings enriched with their latest NAV metrics
package listing

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

const (
	DefaultLimit       = 100
	MaxLimit           = 1000
	DefaultDetailLimit = 180
)

// ListQuery selects and orders a page of funds
type ListQuery struct {
	Skip      int
	Limit     int // <= 0 means DefaultLimit
	FundType  string
	Search    string
	SortBy    domain.SortField
	SortOrder domain.SortOrder
}

// ListResult is one page of a fund listing
type ListResult struct {
	Total int // Funds matching the filter, before pagination
	Items []*domain.FundListItem
}

// FundDetail is a fund with its most recent NAV history
type FundDetail struct {
	Fund *domain.Fund
	Navs []*domain.StoredNavRecord // Ascending by date
}

// ListingService reads funds and their NAV metrics from the store
type ListingService struct {
	FundRepo domain.FundRepository
	NavRepo  domain.NavRepository
}

// NewListingService creates a new ListingService instance
func NewListingService(fundRepo domain.FundRepository, navRepo domain.NavRepository) *ListingService {
	return &ListingService{
		FundRepo: fundRepo,
		NavRepo:  navRepo,
	}
}

// ListFunds returns a filtered page of funds with their latest NAV and daily change
// Logic:
//  1. Count the filtered set, then fetch the page in store order
//  2. Derive NAV, NavDate and DailyChangePct from each fund's two most recent records
//  3. Sort the page (sorting never reaches across pages)
func (s *ListingService) ListFunds(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", domain.ErrInvalidArgument)
	}
	if _, err := domain.ParseSortField(string(q.SortBy)); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	filter := domain.FundFilter{FundType: q.FundType, Search: q.Search}

	total, err := s.FundRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count funds: %w", err)
	}

	funds, err := s.FundRepo.List(ctx, filter, limit, q.Skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	items := make([]*domain.FundListItem, 0, len(funds))
	for _, fund := range funds {
		item, err := s.enrich(ctx, fund)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	sortItems(items, q.SortBy, q.SortOrder)

	return &ListResult{Total: total, Items: items}, nil
}

// enrich derives the list metrics of one fund
func (s *ListingService) enrich(ctx context.Context, fund *domain.Fund) (*domain.FundListItem, error) {
	item := &domain.FundListItem{Fund: *fund}

	recent, err := s.NavRepo.RecentNavs(ctx, fund.ID, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent navs for %s: %w", fund.Code, err)
	}
	if len(recent) == 0 {
		return item, nil
	}

	latest := recent[0]
	navDate := latest.NavDate
	item.NAV = decimal.NewNullDecimal(latest.NAV)
	item.NavDate = &navDate

	if len(recent) > 1 {
		item.DailyChangePct = domain.DailyChangePct(latest.NAV, decimal.NewNullDecimal(recent[1].NAV))
	}

	return item, nil
}

// GetFundDetail returns a fund and up to limit of its most recent NAV records, oldest first
// Returns domain.ErrNotFound when the code is unknown
func (s *ListingService) GetFundDetail(ctx context.Context, code string, limit int) (*FundDetail, error) {
	if limit <= 0 {
		limit = DefaultDetailLimit
	}

	fund, err := s.FundRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	navs, err := s.NavRepo.RecentNavs(ctx, fund.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load navs for %s: %w", code, err)
	}

	sort.SliceStable(navs, func(i, j int) bool {
		return navs[i].NavDate.Before(navs[j].NavDate)
	})

	return &FundDetail{Fund: fund, Navs: navs}, nil
}
