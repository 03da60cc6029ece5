package listing

import (
	"context"
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
