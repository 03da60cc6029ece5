package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// navRepository implements domain.NavRepository
type navRepository struct {
	db *DB
}

// NewNavRepository creates a new NAV history repository
func NewNavRepository(db *DB) domain.NavRepository {
	return &navRepository{db: db}
}

// existingDatesChunk bounds the IN list of one lookup, well under SQLite's variable limit
const existingDatesChunk = 500

// ExistingNavDates returns the requested dates that are already stored for the fund
func (r *navRepository) ExistingNavDates(ctx context.Context, fundID int64, dates []time.Time) ([]time.Time, error) {
	var existing []time.Time
	for start := 0; start < len(dates); start += existingDatesChunk {
		end := min(start+existingDatesChunk, len(dates))
		found, err := r.existingNavDates(ctx, fundID, dates[start:end])
		if err != nil {
			return nil, err
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

func (r *navRepository) existingNavDates(ctx context.Context, fundID int64, dates []time.Time) ([]time.Time, error) {
	placeholders := make([]string, len(dates))
	args := make([]any, 0, len(dates)+1)
	args = append(args, fundID)
	for i, d := range dates {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, domain.DateKey(d))
	}

	query := `SELECT nav_date FROM fund_navs WHERE fund_id = $1 AND nav_date IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nav dates: %w", err)
	}
	defer rows.Close()

	var found []time.Time
	for rows.Next() {
		var navDate time.Time
		if err := rows.Scan(&navDate); err != nil {
			return nil, fmt.Errorf("failed to scan nav date: %w", err)
		}
		found = append(found, domain.TruncateDate(navDate))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav dates: %w", err)
	}

	return found, nil
}

// InsertNavs stores the points in one database transaction and returns the number of rows inserted
// Rows colliding with an existing (fund_id, nav_date) are skipped by the engine and not counted
func (r *navRepository) InsertNavs(ctx context.Context, fundID int64, points []domain.NavPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO fund_navs (fund_id, nav_date, nav, accumulated_nav, daily_change_pct)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fund_id, nav_date) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare nav insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, point := range points {
		result, err := stmt.ExecContext(ctx,
			fundID,
			domain.DateKey(point.NavDate),
			point.NAV.String(),
			nullDecimalArg(point.AccumulatedNAV),
			nullDecimalArg(point.DailyChangePct),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert nav for %s: %w", domain.DateKey(point.NavDate), err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rows)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// RecentNavs returns up to limit most recent records of the fund, newest first
func (r *navRepository) RecentNavs(ctx context.Context, fundID int64, limit int) ([]*domain.StoredNavRecord, error) {
	query := `
		SELECT id, fund_id, nav_date, nav, accumulated_nav, daily_change_pct, created_at
		FROM fund_navs
		WHERE fund_id = $1
		ORDER BY nav_date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, fundID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent navs: %w", err)
	}
	defer rows.Close()

	var records []*domain.StoredNavRecord
	for rows.Next() {
		var (
			record         domain.StoredNavRecord
			navStr         string
			accumulatedStr sql.NullString
			changeStr      sql.NullString
		)

		if err := rows.Scan(
			&record.ID,
			&record.FundID,
			&record.NavDate,
			&navStr,
			&accumulatedStr,
			&changeStr,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan nav record: %w", err)
		}

		record.NavDate = domain.TruncateDate(record.NavDate)
		record.CreatedAt = record.CreatedAt.UTC()

		// Parse nav (NUMERIC / TEXT)
		nav, err := decimal.NewFromString(navStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse nav: %w", err)
		}
		record.NAV = nav

		if record.AccumulatedNAV, err = parseNullDecimal(accumulatedStr); err != nil {
			return nil, fmt.Errorf("failed to parse accumulated_nav: %w", err)
		}
		if record.DailyChangePct, err = parseNullDecimal(changeStr); err != nil {
			return nil, fmt.Errorf("failed to parse daily_change_pct: %w", err)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav records: %w", err)
	}

	return records, nil
}

func nullDecimalArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
