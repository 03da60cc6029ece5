package navsync

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// MockFundRepository is a mock implementation of FundRepository for testing
type MockFundRepository struct {
	mock.Mock
}

func (m *MockFundRepository) GetByCode(ctx context.Context, code string) (*domain.Fund, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fund), args.Error(1)
}

func (m *MockFundRepository) Create(ctx context.Context, fund *domain.Fund) error {
	args := m.Called(ctx, fund)
	return args.Error(0)
}

func (m *MockFundRepository) Update(ctx context.Context, fund *domain.Fund) error {
	args := m.Called(ctx, fund)
	return args.Error(0)
}

func (m *MockFundRepository) List(ctx context.Context, filter domain.FundFilter, limit, offset int) ([]*domain.Fund, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Fund), args.Error(1)
}

func (m *MockFundRepository) Count(ctx context.Context, filter domain.FundFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockFundRepository) ListAll(ctx context.Context) ([]*domain.Fund, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Fund), args.Error(1)
}

// MockNavRepository is a mock implementation of NavRepository for testing
type MockNavRepository struct {
	mock.Mock
}

func (m *MockNavRepository) ExistingNavDates(ctx context.Context, fundID int64, dates []time.Time) ([]time.Time, error) {
	args := m.Called(ctx, fundID, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockNavRepository) InsertNavs(ctx context.Context, fundID int64, points []domain.NavPoint) (int, error) {
	args := m.Called(ctx, fundID, points)
	return args.Int(0), args.Error(1)
}

func (m *MockNavRepository) RecentNavs(ctx context.Context, fundID int64, limit int) ([]*domain.StoredNavRecord, error) {
	args := m.Called(ctx, fundID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StoredNavRecord), args.Error(1)
}

// MockHistoryFetcher is a mock implementation of HistoryFetcher for testing
type MockHistoryFetcher struct {
	mock.Mock
}

func (m *MockHistoryFetcher) FetchHistory(ctx context.Context, code string, start, end time.Time) ([]domain.NavPoint, error) {
	args := m.Called(ctx, code, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NavPoint), args.Error(1)
}

// memoryNavRepository keeps NAV rows in memory with the same first-write-wins rule as the SQL store
type memoryNavRepository struct {
	mu        sync.Mutex
	rows      map[int64]map[string]domain.NavPoint
	inserts   int // Number of InsertNavs calls
	datesRead int // Rows returned by ExistingNavDates
}

func newMemoryNavRepository() *memoryNavRepository {
	return &memoryNavRepository{rows: make(map[int64]map[string]domain.NavPoint)}
}

func (r *memoryNavRepository) ExistingNavDates(_ context.Context, fundID int64, dates []time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found []time.Time
	for _, d := range dates {
		if p, ok := r.rows[fundID][domain.DateKey(d)]; ok {
			found = append(found, p.NavDate)
		}
	}
	r.datesRead += len(found)
	return found, nil
}

func (r *memoryNavRepository) InsertNavs(_ context.Context, fundID int64, points []domain.NavPoint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inserts++
	if r.rows[fundID] == nil {
		r.rows[fundID] = make(map[string]domain.NavPoint)
	}
	inserted := 0
	for _, p := range points {
		key := domain.DateKey(p.NavDate)
		if _, ok := r.rows[fundID][key]; ok {
			continue
		}
		r.rows[fundID][key] = p
		inserted++
	}
	return inserted, nil
}

func (r *memoryNavRepository) RecentNavs(context.Context, int64, int) ([]*domain.StoredNavRecord, error) {
	return nil, nil
}
