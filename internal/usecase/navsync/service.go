// Package navsync pulls NAV history from the source and stores what is new
package navsync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/caiyueliang/fundnav-backend/internal/common"
	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// MaxDays bounds the look-back window of a single sync
const MaxDays = 3650

// NoFundsMessage is reported when a sync finds nothing to do
const NoFundsMessage = "No funds in database. Please add funds first."

// ErrSyncInProgress is returned when SyncAll is called while another run is active
var ErrSyncInProgress = errors.New("sync already in progress")

// HistoryFetcher returns the nav points of a fund between start and end inclusive,
// ascending by date with at most one point per date
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, code string, start, end time.Time) ([]domain.NavPoint, error)
}

// SyncStatus summarizes the outcome of a sync run
type SyncStatus string

const (
	StatusNoop    SyncStatus = "noop"
	StatusSuccess SyncStatus = "success"
	StatusPartial SyncStatus = "partial" // at least one fund failed, at least one succeeded
	StatusFailed  SyncStatus = "failed"  // every fund failed
)

// FundSyncResult is the outcome for one fund
type FundSyncResult struct {
	Code     string
	Inserted int
	Fetched  int
	Error    string // Empty on success
}

// SyncReport is the outcome of a sync run
type SyncReport struct {
	RunID         uuid.UUID
	Status        SyncStatus
	Message       string
	Start         time.Time
	End           time.Time
	Funds         []FundSyncResult // In fund ID order
	TotalInserted int
	TotalFetched  int
	Failed        int
}

// SyncService synchronizes stored NAV history with the source
type SyncService struct {
	FundRepo domain.FundRepository
	Fetcher  HistoryFetcher
	Upserter *Upserter

	logger      *common.Logger
	concurrency int
	fundTimeout time.Duration
	location    *time.Location
	now         func() time.Time
	running     atomic.Bool
}

// Option configures a SyncService
type Option func(*SyncService)

// WithConcurrency bounds how many funds are synced at once
func WithConcurrency(n int) Option {
	return func(s *SyncService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithFundTimeout bounds the fetch and upsert of a single fund; zero disables the bound
func WithFundTimeout(d time.Duration) Option {
	return func(s *SyncService) {
		s.fundTimeout = d
	}
}

// WithLocation sets the time zone that decides which calendar day is "today"
func WithLocation(loc *time.Location) Option {
	return func(s *SyncService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *SyncService) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(s *SyncService) {
		s.logger = logger
	}
}

// NewSyncService creates a new SyncService instance
func NewSyncService(fundRepo domain.FundRepository, navRepo domain.NavRepository, fetcher HistoryFetcher, opts ...Option) *SyncService {
	s := &SyncService{
		FundRepo:    fundRepo,
		Fetcher:     fetcher,
		Upserter:    NewUpserter(navRepo),
		logger:      common.NewSilentLogger(),
		concurrency: 4,
		fundTimeout: 2 * time.Minute,
		location:    time.UTC,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the inclusive date range covered by a sync of the last days days
func (s *SyncService) Window(days int) (start, end time.Time) {
	today := s.now().In(s.location)
	end = domain.NewDate(today.Year(), today.Month(), today.Day())
	return end.AddDate(0, 0, -days), end
}

// SyncAll fetches the last days calendar days for every fund and stores what is new
// A failing fund is recorded in the report and never stops the others
// The returned error is reserved for problems that prevent the run itself,
// including ErrSyncInProgress when runs overlap
func (s *SyncService) SyncAll(ctx context.Context, days int) (*SyncReport, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	funds, err := s.FundRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	start, end := s.Window(days)
	report := &SyncReport{
		RunID: uuid.New(),
		Start: start,
		End:   end,
	}

	if len(funds) == 0 {
		report.Status = StatusNoop
		report.Message = NoFundsMessage
		return report, nil
	}

	logger := s.runLogger(report.RunID)
	logger.Info().
		Int("funds", len(funds)).
		Str("start", domain.DateKey(start)).
		Str("end", domain.DateKey(end)).
		Msg("Starting NAV sync")

	// Each worker owns its slot, so no locking is needed
	report.Funds = make([]FundSyncResult, len(funds))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, fund := range funds {
		g.Go(func() error {
			report.Funds[i] = s.syncFund(ctx, &logger, fund, start, end)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range report.Funds {
		report.TotalInserted += r.Inserted
		report.TotalFetched += r.Fetched
		if r.Error != "" {
			report.Failed++
			logger.Warn().Str("code", r.Code).Str("error", r.Error).Msg("Fund sync failed")
		}
	}
	report.Status = statusOf(report.Failed, len(funds))

	logger.Info().
		Str("status", string(report.Status)).
		Int("inserted", report.TotalInserted).
		Int("fetched", report.TotalFetched).
		Int("failed", report.Failed).
		Msg("NAV sync finished")

	return report, nil
}

// SyncFund syncs a single fund by code
// Returns domain.ErrNotFound when the code is unknown
func (s *SyncService) SyncFund(ctx context.Context, code string, days int) (*SyncReport, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	fund, err := s.FundRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	start, end := s.Window(days)
	runID := uuid.New()
	logger := s.runLogger(runID)
	result := s.syncFund(ctx, &logger, fund, start, end)

	report := &SyncReport{
		RunID:         runID,
		Start:         start,
		End:           end,
		Funds:         []FundSyncResult{result},
		TotalInserted: result.Inserted,
		TotalFetched:  result.Fetched,
	}
	if result.Error != "" {
		report.Failed = 1
	}
	report.Status = statusOf(report.Failed, 1)

	return report, nil
}

// runLogger tags every line of one run with its id
func (s *SyncService) runLogger(runID uuid.UUID) zerolog.Logger {
	return s.logger.With().Str("run_id", runID.String()).Logger()
}

// syncFund runs fetch then upsert for one fund under its own deadline
func (s *SyncService) syncFund(ctx context.Context, logger *zerolog.Logger, fund *domain.Fund, start, end time.Time) FundSyncResult {
	result := FundSyncResult{Code: fund.Code}

	if s.fundTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fundTimeout)
		defer cancel()
	}

	points, err := s.Fetcher.FetchHistory(ctx, fund.Code, start, end)
	if err != nil {
		result.Error = fmt.Sprintf("fetch failed: %v", err)
		return result
	}
	result.Fetched = len(points)

	inserted, err := s.Upserter.Upsert(ctx, fund.ID, points)
	if err != nil {
		result.Error = fmt.Sprintf("upsert failed: %v", err)
		return result
	}
	result.Inserted = inserted

	logger.Debug().
		Str("code", fund.Code).
		Int("fetched", result.Fetched).
		Int("inserted", result.Inserted).
		Msg("Fund synced")

	return result
}

func validateDays(days int) error {
	if days < 1 || days > MaxDays {
		return fmt.Errorf("%w: days must be within 1..%d, got %d", domain.ErrInvalidArgument, MaxDays, days)
	}
	return nil
}

func statusOf(failed, total int) SyncStatus {
	switch {
	case failed == 0:
		return StatusSuccess
	case failed == total:
		return StatusFailed
	default:
		return StatusPartial
	}
}
