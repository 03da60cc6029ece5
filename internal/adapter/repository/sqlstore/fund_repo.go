package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// fundRepository implements domain.FundRepository
type fundRepository struct {
	db *DB
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *DB) domain.FundRepository {
	return &fundRepository{db: db}
}

const fundColumns = `id, code, name, fund_type, created_at`

// GetByCode retrieves a fund by its external code
func (r *fundRepository) GetByCode(ctx context.Context, code string) (*domain.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE code = $1`

	fund, err := scanFund(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fund %s: %w", code, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fund by code: %w", err)
	}

	return fund, nil
}

// Create inserts a new fund and fills in its ID and CreatedAt
func (r *fundRepository) Create(ctx context.Context, fund *domain.Fund) error {
	query := `
		INSERT INTO funds (code, name, fund_type, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		fund.Code,
		fund.Name,
		fund.FundType,
		createdAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("fund %s: %w", fund.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("failed to create fund: %w", err)
	}

	fund.ID = id
	fund.CreatedAt = createdAt
	return nil
}

// Update changes the name and fund type of the fund identified by its code
func (r *fundRepository) Update(ctx context.Context, fund *domain.Fund) error {
	query := `UPDATE funds SET name = $1, fund_type = $2 WHERE code = $3`

	result, err := r.db.ExecContext(ctx, query, fund.Name, fund.FundType, fund.Code)
	if err != nil {
		return fmt.Errorf("failed to update fund: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("fund %s: %w", fund.Code, domain.ErrNotFound)
	}

	return nil
}

// List retrieves a page of funds matching the filter, ordered by ID
// A non-positive limit returns everything from offset on
func (r *fundRepository) List(ctx context.Context, filter domain.FundFilter, limit, offset int) ([]*domain.Fund, error) {
	where, args := r.filterClause(filter)

	if limit <= 0 {
		limit = math.MaxInt32
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM funds%s ORDER BY id LIMIT $%d OFFSET $%d`,
		fundColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer rows.Close()

	var funds []*domain.Fund
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		funds = append(funds, fund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funds: %w", err)
	}

	return funds, nil
}

// Count returns the number of funds matching the filter
func (r *fundRepository) Count(ctx context.Context, filter domain.FundFilter) (int, error) {
	where, args := r.filterClause(filter)
	query := `SELECT COUNT(*) FROM funds` + where

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count funds: %w", err)
	}

	return count, nil
}

// ListAll retrieves every fund, ordered by ID
func (r *fundRepository) ListAll(ctx context.Context) ([]*domain.Fund, error) {
	return r.List(ctx, domain.FundFilter{}, 0, 0)
}

// filterClause builds the WHERE clause for a filter, numbering placeholders from $1
func (r *fundRepository) filterClause(filter domain.FundFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.FundType != "" {
		args = append(args, filter.FundType)
		conditions = append(conditions, fmt.Sprintf("fund_type = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		fn := r.db.dialect.containsFn
		conditions = append(conditions, fmt.Sprintf("(%s(code, $%d) > 0 OR %s(name, $%d) > 0)", fn, len(args), fn, len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFund(row rowScanner) (*domain.Fund, error) {
	var fund domain.Fund
	if err := row.Scan(
		&fund.ID,
		&fund.Code,
		&fund.Name,
		&fund.FundType,
		&fund.CreatedAt,
	); err != nil {
		return nil, err
	}
	fund.CreatedAt = fund.CreatedAt.UTC()
	return &fund, nil
}
