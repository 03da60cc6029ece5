package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiyueliang/fundnav-backend/internal/adapter/repository/sqlstore"
	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// newDB returns a fresh schema on the given store, or skips the test
type newDB func(t *testing.T) *sqlstore.DB

// runRepositorySuite exercises both repositories against a real engine
func runRepositorySuite(t *testing.T, open newDB) {
	t.Run("FundCreateAndGet", func(t *testing.T) { testFundCreateAndGet(t, open(t)) })
	t.Run("FundDuplicate", func(t *testing.T) { testFundDuplicate(t, open(t)) })
	t.Run("FundUpdate", func(t *testing.T) { testFundUpdate(t, open(t)) })
	t.Run("FundListFilterAndCount", func(t *testing.T) { testFundListFilterAndCount(t, open(t)) })
	t.Run("NavInsertIsIdempotent", func(t *testing.T) { testNavInsertIsIdempotent(t, open(t)) })
	t.Run("NavRecentOrderAndPrecision", func(t *testing.T) { testNavRecentOrderAndPrecision(t, open(t)) })
	t.Run("NavExistingDatesAreScoped", func(t *testing.T) { testNavExistingDatesAreScoped(t, open(t)) })
	t.Run("NavInsertIsAtomic", func(t *testing.T) { testNavInsertIsAtomic(t, open(t)) })
}

func createFund(t *testing.T, repo domain.FundRepository, code, name, fundType string) *domain.Fund {
	t.Helper()
	fund := &domain.Fund{Code: code, Name: name, FundType: fundType}
	require.NoError(t, repo.Create(context.Background(), fund))
	return fund
}

func testFundCreateAndGet(t *testing.T, db *sqlstore.DB) {
	ctx := context.Background()
	repo := sqlstore.NewFundRepository(db)

	fund := createFund(t, repo, "000001", "华夏成长混合", "混合型")
	assert.NotZero(t, fund.ID)
	assert.False(t, fund.CreatedAt.IsZero())

	got, err := repo.GetByCode(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, fund.ID, got.ID)
	assert.Equal(t, "华夏成长混合", got.Name)
	assert.Equal(t, "混合型", got.FundType)
	assert.WithinDuration(t, fund.CreatedAt, got.CreatedAt, 0)

	_, err = repo.GetByCode(ctx, "999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testFundDuplicate(t *testing.T, db *sqlstore.DB) {
	repo := sqlstore.NewFundRepository(db)
	createFund(t, repo, "000001", "A", "")

	err := repo.Create(context.Background(), &domain.Fund{Code: "000001", Name: "B"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func testFundUpdate(t *testing.T, db *sqlstore.DB) {
	ctx := context.Background()
	repo := sqlstore.NewFundRepository(db)
	createFund(t, repo, "000001", "Old", "")

	require.NoError(t, repo.Update(ctx, &domain.Fund{Code: "000001", Name: "New", FundType: "Bond"}))

	got, err := repo.GetByCode(ctx, "000001")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "Bond", got.FundType)

	err = repo.Update(ctx, &domain.Fund{Code: "missing", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testFundListFilterAndCount(t *testing.T, db *sqlstore.DB) {
	ctx := context.Background()
	repo := sqlstore.NewFundRepository(db)

	createFund(t, repo, "000001", "Alpha Growth", "Equity")
	createFund(t, repo, "000002", "Beta Bond", "Bond")
	createFund(t, repo, "000003", "alpha income", "Bond")
	createFund(t, repo, "110011", "Gamma Growth", "Equity")

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "000001", all[0].Code, "store order is by id")

	bonds, err := repo.List(ctx, domain.FundFilter{FundType: "Bond"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, bonds, 2)

	// Search is case-sensitive
	alpha, err := repo.List(ctx, domain.FundFilter{Search: "Alpha"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, alpha, 1)
	assert.Equal(t, "000001", alpha[0].Code)

	// Search matches code OR name
	byCode, err := repo.List(ctx, domain.FundFilter{Search: "1100"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "Gamma Growth", byCode[0].Name)

	combined, err := repo.List(ctx, domain.FundFilter{FundType: "Equity", Search: "Growth"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, combined, 2)

	page, err := repo.List(ctx, domain.FundFilter{}, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "000002", page[0].Code)
	assert.Equal(t, "000003", page[1].Code)

	count, err := repo.Count(ctx, domain.FundFilter{Search: "Growth"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.Count(ctx, domain.FundFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func point(y int, m time.Month, d int, nav string) domain.NavPoint {
	return domain.NavPoint{
		NavDate: domain.NewDate(y, m, d),
		NAV:     decimal.RequireFromString(nav),
	}
}

func testNavInsertIsIdempotent(t *testing.T, db *sqlstore.DB) {
	ctx := context.Background()
	fund := createFund(t, sqlstore.NewFundRepository(db), "000001", "A", "")
	repo := sqlstore.NewNavRepository(db)

	points := []domain.NavPoint{point(2025, 1, 2, "1.0"), point(2025, 1, 3, "1.1")}

	inserted, err := repo.InsertNavs(ctx, fund.ID, points)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = repo.InsertNavs(ctx, fund.ID, points)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted, "conflicting rows are skipped, not counted")

	// Overlap counts only the new date, and never overwrites
	overlap := []domain.NavPoint{point(2025, 1, 3, "9.9"), point(2025, 1, 6, "1.2")}
	inserted, err = repo.InsertNavs(ctx, fund.ID, overlap)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	dates, err := repo.ExistingNavDates(ctx, fund.ID, []time.Time{
		domain.NewDate(2025, 1, 2), domain.NewDate(2025, 1, 3), domain.NewDate(2025, 1, 6),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2025-01-02", "2025-01-03", "2025-01-06"}, dateKeys(dates))

	recent, err := repo.RecentNavs(ctx, fund.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, decimal.RequireFromString("1.1").Equal(recent[1].NAV), "first write wins")

	inserted, err = repo.InsertNavs(ctx, fund.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func testNavRecentOrderAndPrecision(t *testing.T, db *sqlstore.DB) {
	ctx := context.Background()
	fund := createFund(t, sqlstore.NewFundRepository(db), "000001", "A", "")
	other := createFund(t, sqlstore.NewFundRepository(db), "000002", "B", "")
	repo := sqlstore.NewNavRepository(db)

	withExtras := point(2025, 1, 3, "1.2345")
	withExtras.AccumulatedNAV = decimal.NewNullDecimal(decimal.RequireFromString("2.3456"))
	withExtras.DailyChangePct = decimal.NewNullDecimal(decimal.RequireFromString("-0.08"))

	_, err := repo.InsertNavs(ctx, fund.ID, []domain.NavPoint{
		point(2025, 1, 1, "1.1000"),
		withExtras,
		point(2025, 1, 2, "1.2000"),
	})
	require.NoError(t, err)
	_, err = repo.InsertNavs(ctx, other.ID, []domain.NavPoint{point(2025, 1, 9, "5")})
	require.NoError(t, err)

	recent, err := repo.RecentNavs(ctx, fund.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	latest := recent[0]
	assert.Equal(t, domain.NewDate(2025, 1, 3), latest.NavDate)
	assert.Equal(t, fund.ID, latest.FundID)
	assert.True(t, decimal.RequireFromString("1.2345").Equal(latest.NAV))
	require.True(t, latest.AccumulatedNAV.Valid)
	assert.True(t, decimal.RequireFromString("2.3456").Equal(latest.AccumulatedNAV.Decimal))
	require.True(t, latest.DailyChangePct.Valid)
	assert.True(t, decimal.RequireFromString("-0.08").Equal(latest.DailyChangePct.Decimal))

	assert.Equal(t, domain.NewDate(2025, 1, 2), recent[1].NavDate)
	assert.False(t, recent[1].AccumulatedNAV.Valid)
	assert.False(t, recent[1].DailyChangePct.Valid)

	none, err := repo.RecentNavs(ctx, 12345, 2)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testNavExistingDatesAreScoped(t *testing.T, db *sqlstore.DB) {
	ctx := context.Background()
	fund := createFund(t, sqlstore.NewFundRepository(db), "000001", "A", "")
	other := createFund(t, sqlstore.NewFundRepository(db), "000002", "B", "")
	repo := sqlstore.NewNavRepository(db)

	// Two years of daily history
	var history []domain.NavPoint
	for i := range 730 {
		history = append(history, domain.NavPoint{
			NavDate: domain.NewDate(2023, 1, 1).AddDate(0, 0, i),
			NAV:     decimal.RequireFromString("1.0"),
		})
	}
	_, err := repo.InsertNavs(ctx, fund.ID, history)
	require.NoError(t, err)
	_, err = repo.InsertNavs(ctx, other.ID, []domain.NavPoint{point(2025, 1, 9, "5")})
	require.NoError(t, err)

	// Only requested dates of this fund come back
	dates, err := repo.ExistingNavDates(ctx, fund.ID, []time.Time{
		domain.NewDate(2023, 1, 1),
		domain.NewDate(2024, 12, 31),
		domain.NewDate(2025, 1, 9),
		domain.NewDate(2030, 1, 1),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2023-01-01", "2024-12-31"}, dateKeys(dates))

	// Requests larger than one lookup are split
	requested := make([]time.Time, 0, len(history)+10)
	for _, p := range history {
		requested = append(requested, p.NavDate)
	}
	for i := range 10 {
		requested = append(requested, domain.NewDate(2026, 1, 1).AddDate(0, 0, i))
	}
	dates, err = repo.ExistingNavDates(ctx, fund.ID, requested)
	require.NoError(t, err)
	assert.Len(t, dates, len(history))

	none, err := repo.ExistingNavDates(ctx, fund.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// rejectNavDateTrigger makes the engine fail any insert of the given date
var rejectNavDateTrigger = map[string][]string{
	sqlstore.DriverSQLite: {
		`CREATE TRIGGER reject_nav BEFORE INSERT ON fund_navs
		WHEN NEW.nav_date = '2025-01-03'
		BEGIN SELECT RAISE(ABORT, 'boom'); END`,
	},
	sqlstore.DriverPostgres: {
		`CREATE OR REPLACE FUNCTION reject_nav() RETURNS trigger AS $$
		BEGIN
			IF NEW.nav_date = DATE '2025-01-03' THEN
				RAISE EXCEPTION 'boom';
			END IF;
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`CREATE TRIGGER reject_nav BEFORE INSERT ON fund_navs
		FOR EACH ROW EXECUTE FUNCTION reject_nav()`,
	},
}

func testNavInsertIsAtomic(t *testing.T, db *sqlstore.DB) {
	ctx := context.Background()
	fund := createFund(t, sqlstore.NewFundRepository(db), "000001", "A", "")
	repo := sqlstore.NewNavRepository(db)

	stmts, ok := rejectNavDateTrigger[db.Driver()]
	require.True(t, ok, "no trigger for driver %s", db.Driver())
	for _, stmt := range stmts {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	// The middle row fails after the first one was written inside the transaction
	inserted, err := repo.InsertNavs(ctx, fund.ID, []domain.NavPoint{
		point(2025, 1, 2, "1.0"),
		point(2025, 1, 3, "1.1"),
		point(2025, 1, 6, "1.2"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-01-03")
	assert.Zero(t, inserted)

	recent, err := repo.RecentNavs(ctx, fund.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, recent, "a failed batch leaves no rows behind")
}

func dateKeys(dates []time.Time) []string {
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, domain.DateKey(d))
	}
	return keys
}
