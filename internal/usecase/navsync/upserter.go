package navsync

import (
	"context"
	"fmt"
	"time"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// Upserter stores the NAV points a fund does not have yet
type Upserter struct {
	NavRepo domain.NavRepository
}

// NewUpserter creates a new Upserter instance
func NewUpserter(navRepo domain.NavRepository) *Upserter {
	return &Upserter{NavRepo: navRepo}
}

// Upsert inserts the points whose date is not already stored for the fund and
// returns how many rows were inserted
// Logic:
//  1. Drop repeated dates within the batch (first occurrence wins)
//  2. Ask the store which of the remaining dates it already holds
//  3. Skip the store entirely when nothing is new
//  4. Insert the delta atomically; rows lost to a concurrent writer are not counted
//
// Existing rows are never modified, so calling Upsert twice with the same points inserts nothing the second time
func (u *Upserter) Upsert(ctx context.Context, fundID int64, points []domain.NavPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	candidates := make([]domain.NavPoint, 0, len(points))
	dates := make([]time.Time, 0, len(points))
	batch := make(map[string]struct{}, len(points))
	for _, p := range points {
		key := domain.DateKey(p.NavDate)
		if _, ok := batch[key]; ok {
			continue
		}
		batch[key] = struct{}{}
		candidates = append(candidates, p)
		dates = append(dates, p.NavDate)
	}

	existing, err := u.NavRepo.ExistingNavDates(ctx, fundID, dates)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing nav dates: %w", err)
	}

	stored := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		stored[domain.DateKey(d)] = struct{}{}
	}

	var delta []domain.NavPoint
	for _, p := range candidates {
		if _, ok := stored[domain.DateKey(p.NavDate)]; ok {
			continue
		}
		delta = append(delta, p)
	}

	if len(delta) == 0 {
		return 0, nil
	}

	inserted, err := u.NavRepo.InsertNavs(ctx, fundID, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to insert navs: %w", err)
	}

	return inserted, nil
}
