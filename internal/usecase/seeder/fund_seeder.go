package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caiyueliang/fundnav-backend/internal/common"
	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// FundSeeder registers the funds whose history gets synchronized
type FundSeeder struct {
	repo   domain.FundRepository
	logger *common.Logger
}

// NewFundSeeder creates a new FundSeeder instance
func NewFundSeeder(repo domain.FundRepository, logger *common.Logger) *FundSeeder {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &FundSeeder{
		repo:   repo,
		logger: logger,
	}
}

// FundsFromConfig converts the [[funds]] config entries into domain funds
func FundsFromConfig(seeds []common.FundSeed) []domain.Fund {
	funds := make([]domain.Fund, 0, len(seeds))
	for _, s := range seeds {
		funds = append(funds, domain.Fund{
			Code:     strings.TrimSpace(s.Code),
			Name:     strings.TrimSpace(s.Name),
			FundType: strings.TrimSpace(s.FundType),
		})
	}
	return funds
}

// Seed ensures every fund exists in the database
// Existing funds keep their identity; a changed name or type is updated in place
func (s *FundSeeder) Seed(ctx context.Context, funds []domain.Fund) error {
	for i := range funds {
		if _, _, err := s.EnsureFund(ctx, &funds[i]); err != nil {
			return fmt.Errorf("failed to seed fund %s: %w", funds[i].Code, err)
		}
	}
	return nil
}

// EnsureFund creates the fund if its code is unknown, otherwise brings name and type up to date
// The returned bool reports whether a new fund was created
func (s *FundSeeder) EnsureFund(ctx context.Context, fund *domain.Fund) (*domain.Fund, bool, error) {
	if err := fund.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	existing, err := s.repo.GetByCode(ctx, fund.Code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		created, err := s.CreateFund(ctx, fund)
		if errors.Is(err, domain.ErrDuplicate) {
			// Lost a race with another writer; the fund exists now
			existing, err := s.repo.GetByCode(ctx, fund.Code)
			return existing, false, err
		}
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	case err != nil:
		return nil, false, err
	}

	if existing.Name == fund.Name && existing.FundType == fund.FundType {
		return existing, false, nil
	}

	existing.Name = fund.Name
	existing.FundType = fund.FundType
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, false, err
	}

	s.logger.Info().
		Str("code", existing.Code).
		Str("name", existing.Name).
		Str("fund_type", existing.FundType).
		Msg("Updated fund")

	return existing, false, nil
}

// CreateFund inserts a new fund
// Returns domain.ErrDuplicate when the code is already registered
func (s *FundSeeder) CreateFund(ctx context.Context, fund *domain.Fund) (*domain.Fund, error) {
	if err := fund.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	created := &domain.Fund{
		Code:     fund.Code,
		Name:     fund.Name,
		FundType: fund.FundType,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("code", created.Code).
		Int64("id", created.ID).
		Msg("Created fund")

	return created, nil
}
