package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"

	navsyncv1 "github.com/caiyueliang/fundnav-backend/internal/adapter/grpc/navsync/v1"
	"github.com/caiyueliang/fundnav-backend/internal/domain"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/listing"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/navsync"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/seeder"
)

const (
	// DefaultSyncDays is used when a sync request leaves days unset
	DefaultSyncDays = 30

	errorDomain = "fundnav"

	// syncRetryDelay is suggested to callers rejected while a sync is running
	syncRetryDelay = 30 * time.Second
)

// Server implements the FundService gRPC server
type Server struct {
	navsyncv1.UnimplementedFundServiceServer

	SyncService    *navsync.SyncService
	ListingService *listing.ListingService
	FundSeeder     *seeder.FundSeeder

	defaultDays int
}

// NewServer creates a new gRPC server instance
// defaultDays <= 0 falls back to DefaultSyncDays
func NewServer(
	syncService *navsync.SyncService,
	listingService *listing.ListingService,
	fundSeeder *seeder.FundSeeder,
	defaultDays int,
) *Server {
	if defaultDays <= 0 {
		defaultDays = DefaultSyncDays
	}
	return &Server{
		SyncService:    syncService,
		ListingService: listingService,
		FundSeeder:     fundSeeder,
		defaultDays:    defaultDays,
	}
}

// SyncFunds handles the SyncFunds RPC
func (s *Server) SyncFunds(ctx context.Context, req *navsyncv1.SyncFundsRequest) (*navsyncv1.SyncResponse, error) {
	report, err := s.SyncService.SyncAll(ctx, s.days(req.Days))
	if err != nil {
		return nil, mapError(err, "")
	}
	return syncReportToProto(report), nil
}

// SyncFund handles the SyncFund RPC
func (s *Server) SyncFund(ctx context.Context, req *navsyncv1.SyncFundRequest) (*navsyncv1.SyncResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}

	report, err := s.SyncService.SyncFund(ctx, code, s.days(req.Days))
	if err != nil {
		return nil, mapError(err, code)
	}
	return syncReportToProto(report), nil
}

// ListFunds handles the ListFunds RPC
func (s *Server) ListFunds(ctx context.Context, req *navsyncv1.ListFundsRequest) (*navsyncv1.ListFundsResponse, error) {
	if req.Limit < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "limit must not be negative")
	}

	sortBy, err := domain.ParseSortField(req.SortBy)
	if err != nil {
		return nil, mapError(err, "")
	}
	sortOrder, err := domain.ParseSortOrder(req.SortOrder)
	if err != nil {
		return nil, mapError(err, "")
	}

	result, err := s.ListingService.ListFunds(ctx, listing.ListQuery{
		Skip:      int(req.Skip),
		Limit:     int(req.Limit),
		FundType:  req.FundType,
		Search:    req.Search,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	})
	if err != nil {
		return nil, mapError(err, "")
	}

	items := make([]*navsyncv1.FundItem, 0, len(result.Items))
	for _, item := range result.Items {
		protoItem := &navsyncv1.FundItem{
			Code:           item.Code,
			Name:           item.Name,
			FundType:       item.FundType,
			Nav:            decimalToProto(item.NAV),
			DailyChangePct: decimalToProto(item.DailyChangePct),
		}
		if item.NavDate != nil {
			navDate := domain.DateKey(*item.NavDate)
			protoItem.NavDate = &navDate
		}
		items = append(items, protoItem)
	}

	return &navsyncv1.ListFundsResponse{
		Total: int32(result.Total),
		Items: items,
	}, nil
}

// GetFund handles the GetFund RPC
func (s *Server) GetFund(ctx context.Context, req *navsyncv1.GetFundRequest) (*navsyncv1.GetFundResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}
	if req.Limit < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "limit must not be negative")
	}

	detail, err := s.ListingService.GetFundDetail(ctx, code, int(req.Limit))
	if err != nil {
		return nil, mapError(err, code)
	}

	navs := make([]*navsyncv1.NavRecord, 0, len(detail.Navs))
	for _, rec := range detail.Navs {
		navs = append(navs, &navsyncv1.NavRecord{
			NavDate:        domain.DateKey(rec.NavDate),
			Nav:            rec.NAV.String(),
			AccumulatedNav: decimalToProto(rec.AccumulatedNAV),
			DailyChangePct: decimalToProto(rec.DailyChangePct),
		})
	}

	return &navsyncv1.GetFundResponse{
		Fund: fundToProto(detail.Fund),
		Navs: navs,
	}, nil
}

// CreateFund handles the CreateFund RPC
func (s *Server) CreateFund(ctx context.Context, req *navsyncv1.CreateFundRequest) (*navsyncv1.CreateFundResponse, error) {
	code := strings.TrimSpace(req.Code)

	fund, err := s.FundSeeder.CreateFund(ctx, &domain.Fund{
		Code:     code,
		Name:     strings.TrimSpace(req.Name),
		FundType: strings.TrimSpace(req.FundType),
	})
	if err != nil {
		return nil, mapError(err, code)
	}

	return &navsyncv1.CreateFundResponse{
		Fund: fundToProto(fund),
	}, nil
}

func (s *Server) days(requested int32) int {
	if requested == 0 {
		return s.defaultDays
	}
	return int(requested)
}

// syncReportToProto converts a sync report to its wire form
func syncReportToProto(report *navsync.SyncReport) *navsyncv1.SyncResponse {
	funds := make([]*navsyncv1.FundSyncResult, 0, len(report.Funds))
	for _, r := range report.Funds {
		funds = append(funds, &navsyncv1.FundSyncResult{
			Code:     r.Code,
			Inserted: int32(r.Inserted),
			Fetched:  int32(r.Fetched),
			Error:    r.Error,
		})
	}

	return &navsyncv1.SyncResponse{
		RunId:         report.RunID.String(),
		Status:        string(report.Status),
		Message:       report.Message,
		StartDate:     domain.DateKey(report.Start),
		EndDate:       domain.DateKey(report.End),
		Funds:         funds,
		TotalInserted: int32(report.TotalInserted),
		TotalFetched:  int32(report.TotalFetched),
		Failed:        int32(report.Failed),
	}
}

// fundToProto converts a domain Fund to its wire form
func fundToProto(fund *domain.Fund) *navsyncv1.Fund {
	return &navsyncv1.Fund{
		Id:        fund.ID,
		Code:      fund.Code,
		Name:      fund.Name,
		FundType:  fund.FundType,
		CreatedAt: fund.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// decimalToProto returns nil for absent values so they are omitted on the wire
func decimalToProto(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

// mapError converts domain errors to gRPC status errors with error details attached
// code names the fund the request was about, if any
func mapError(err error, code string) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	errorMsg := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return withDetails(codes.InvalidArgument, errorMsg, &errdetails.ErrorInfo{
			Reason: "INVALID_ARGUMENT",
			Domain: errorDomain,
		})
	case errors.Is(err, domain.ErrNotFound):
		return withDetails(codes.NotFound, errorMsg, &errdetails.ResourceInfo{
			ResourceType: "fund",
			ResourceName: code,
			Description:  "no fund with this code is registered",
		})
	case errors.Is(err, domain.ErrDuplicate):
		return withDetails(codes.AlreadyExists, errorMsg, &errdetails.ResourceInfo{
			ResourceType: "fund",
			ResourceName: code,
			Description:  "a fund with this code is already registered",
		})
	case errors.Is(err, navsync.ErrSyncInProgress):
		return withDetails(codes.Unavailable, errorMsg, &errdetails.RetryInfo{
			RetryDelay: durationpb.New(syncRetryDelay),
		})
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, errorMsg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}

func withDetails(c codes.Code, msg string, details ...protoadapt.MessageV1) error {
	st := status.New(c, msg)
	if detailed, err := st.WithDetails(details...); err == nil {
		return detailed.Err()
	}
	return st.Err()
}
