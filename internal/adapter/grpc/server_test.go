package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	navsyncv1 "github.com/caiyueliang/fundnav-backend/internal/adapter/grpc/navsync/v1"
	"github.com/caiyueliang/fundnav-backend/internal/adapter/repository/sqlstore"
	"github.com/caiyueliang/fundnav-backend/internal/domain"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/listing"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/navsync"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/seeder"
)

const testToken = "test-token"

// stubFetcher serves canned history per fund code
type stubFetcher struct {
	mu     sync.Mutex
	points map[string][]domain.NavPoint
	errs   map[string]error
}

func (f *stubFetcher) FetchHistory(_ context.Context, code string, _, _ time.Time) ([]domain.NavPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[code]; err != nil {
		return nil, err
	}
	return f.points[code], nil
}

func nav(day int, value string) domain.NavPoint {
	return domain.NavPoint{
		NavDate: domain.NewDate(2025, 1, day),
		NAV:     decimal.RequireFromString(value),
	}
}

func setupServer(t *testing.T, fetcher navsync.HistoryFetcher) navsyncv1.FundServiceClient {
	t.Helper()

	db, err := sqlstore.NewDB(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.EnsureSchema(context.Background()))

	fundRepo := sqlstore.NewFundRepository(db)
	navRepo := sqlstore.NewNavRepository(db)

	syncService := navsync.NewSyncService(fundRepo, navRepo, fetcher,
		navsync.WithClock(func() time.Time { return time.Date(2025, 1, 30, 12, 0, 0, 0, time.UTC) }),
	)
	listingService := listing.NewListingService(fundRepo, navRepo)
	fundSeeder := seeder.NewFundSeeder(fundRepo, nil)

	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(AuthInterceptor(testToken)))
	navsyncv1.RegisterFundServiceServer(grpcServer, NewServer(syncService, listingService, fundSeeder, 0))
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return navsyncv1.NewFundServiceClient(conn)
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+testToken)
}

func TestServer_RequiresToken(t *testing.T) {
	client := setupServer(t, &stubFetcher{})

	_, err := client.ListFunds(context.Background(), &navsyncv1.ListFundsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_SyncAndList(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.NavPoint{
		"A": {nav(2, "1.2330"), nav(3, "1.2345")},
		"C": {nav(3, "2.0")},
	}}
	client := setupServer(t, fetcher)
	ctx := authed()

	// Nothing registered yet
	resp, err := client.SyncFunds(ctx, &navsyncv1.SyncFundsRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(navsync.StatusNoop), resp.Status)
	assert.Equal(t, navsync.NoFundsMessage, resp.Message)

	for _, code := range []string{"A", "B", "C"} {
		_, err := client.CreateFund(ctx, &navsyncv1.CreateFundRequest{Code: code, Name: "Fund " + code})
		require.NoError(t, err)
	}

	resp, err = client.SyncFunds(ctx, &navsyncv1.SyncFundsRequest{Days: 30})
	require.NoError(t, err)
	assert.Equal(t, string(navsync.StatusSuccess), resp.Status)
	assert.Equal(t, int32(3), resp.TotalInserted)
	assert.Equal(t, "2024-12-31", resp.StartDate)
	assert.Equal(t, "2025-01-30", resp.EndDate)
	require.Len(t, resp.Funds, 3)
	assert.NotEmpty(t, resp.RunId)

	// A second run finds nothing new
	resp, err = client.SyncFunds(ctx, &navsyncv1.SyncFundsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int32(0), resp.TotalInserted)
	assert.Equal(t, int32(3), resp.TotalFetched)

	list, err := client.ListFunds(ctx, &navsyncv1.ListFundsRequest{SortBy: "nav"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), list.Total)
	require.Len(t, list.Items, 3)

	assert.Equal(t, "C", list.Items[0].Code)
	assert.Equal(t, "A", list.Items[1].Code)
	assert.Equal(t, "B", list.Items[2].Code)

	a := list.Items[1]
	require.NotNil(t, a.Nav)
	assert.Equal(t, "1.2345", *a.Nav)
	require.NotNil(t, a.NavDate)
	assert.Equal(t, "2025-01-03", *a.NavDate)
	require.NotNil(t, a.DailyChangePct)
	assert.Equal(t, "0.1217", *a.DailyChangePct)

	b := list.Items[2]
	assert.Nil(t, b.Nav)
	assert.Nil(t, b.NavDate)
	assert.Nil(t, b.DailyChangePct)
}

func TestServer_SyncFund_PartialFailure(t *testing.T) {
	fetcher := &stubFetcher{
		points: map[string][]domain.NavPoint{"A": {nav(2, "1.0")}},
		errs:   map[string]error{"B": errors.New("unexpected status code: 502")},
	}
	client := setupServer(t, fetcher)
	ctx := authed()

	for _, code := range []string{"A", "B"} {
		_, err := client.CreateFund(ctx, &navsyncv1.CreateFundRequest{Code: code, Name: code})
		require.NoError(t, err)
	}

	resp, err := client.SyncFunds(ctx, &navsyncv1.SyncFundsRequest{Days: 7})
	require.NoError(t, err)
	assert.Equal(t, string(navsync.StatusPartial), resp.Status)
	assert.Equal(t, int32(1), resp.Failed)
	assert.Contains(t, resp.Funds[1].Error, "502")

	one, err := client.SyncFund(ctx, &navsyncv1.SyncFundRequest{Code: "A", Days: 7})
	require.NoError(t, err)
	assert.Equal(t, string(navsync.StatusSuccess), one.Status)
	assert.Equal(t, int32(0), one.TotalInserted)

	_, err = client.SyncFund(ctx, &navsyncv1.SyncFundRequest{Code: "Z"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.SyncFund(ctx, &navsyncv1.SyncFundRequest{Code: "A", Days: navsync.MaxDays + 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_GetFund(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.NavPoint{
		"000001": {nav(6, "1.2"), nav(2, "1.0"), nav(3, "1.1")},
	}}
	client := setupServer(t, fetcher)
	ctx := authed()

	_, err := client.CreateFund(ctx, &navsyncv1.CreateFundRequest{Code: "000001", Name: "Alpha", FundType: "Bond"})
	require.NoError(t, err)
	_, err = client.SyncFund(ctx, &navsyncv1.SyncFundRequest{Code: "000001"})
	require.NoError(t, err)

	resp, err := client.GetFund(ctx, &navsyncv1.GetFundRequest{Code: "000001", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", resp.Fund.Name)
	assert.Equal(t, "Bond", resp.Fund.FundType)
	require.Len(t, resp.Navs, 2)
	assert.Equal(t, "2025-01-03", resp.Navs[0].NavDate)
	assert.Equal(t, "2025-01-06", resp.Navs[1].NavDate)
	assert.Equal(t, "1.2", resp.Navs[1].Nav)

	_, err = client.GetFund(ctx, &navsyncv1.GetFundRequest{Code: "missing"})
	st := status.Convert(err)
	assert.Equal(t, codes.NotFound, st.Code())
	require.Len(t, st.Details(), 1)
	info, ok := st.Details()[0].(*errdetails.ResourceInfo)
	require.True(t, ok)
	assert.Equal(t, "missing", info.ResourceName)

	_, err = client.GetFund(ctx, &navsyncv1.GetFundRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_CreateFund_Errors(t *testing.T) {
	client := setupServer(t, &stubFetcher{})
	ctx := authed()

	created, err := client.CreateFund(ctx, &navsyncv1.CreateFundRequest{Code: " 000001 ", Name: "Alpha"})
	require.NoError(t, err)
	assert.Equal(t, "000001", created.Fund.Code)
	assert.NotZero(t, created.Fund.Id)
	_, err = time.Parse(time.RFC3339Nano, created.Fund.CreatedAt)
	assert.NoError(t, err)

	_, err = client.CreateFund(ctx, &navsyncv1.CreateFundRequest{Code: "000001", Name: "Again"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.CreateFund(ctx, &navsyncv1.CreateFundRequest{Code: "000002"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_ListFunds_InvalidQuery(t *testing.T) {
	client := setupServer(t, &stubFetcher{})
	ctx := authed()

	tests := []struct {
		name string
		req  *navsyncv1.ListFundsRequest
	}{
		{name: "Unknown sort field", req: &navsyncv1.ListFundsRequest{SortBy: "volume"}},
		{name: "Unknown sort order", req: &navsyncv1.ListFundsRequest{SortOrder: "sideways"}},
		{name: "Negative skip", req: &navsyncv1.ListFundsRequest{Skip: -1}},
		{name: "Negative limit", req: &navsyncv1.ListFundsRequest{Limit: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ListFunds(ctx, tt.req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestMapError(t *testing.T) {
	st := status.Convert(mapError(navsync.ErrSyncInProgress, ""))
	assert.Equal(t, codes.Unavailable, st.Code())
	require.Len(t, st.Details(), 1)
	retry, ok := st.Details()[0].(*errdetails.RetryInfo)
	require.True(t, ok)
	assert.Equal(t, syncRetryDelay, retry.RetryDelay.AsDuration())

	st = status.Convert(mapError(fmt.Errorf("bad: %w", domain.ErrInvalidArgument), ""))
	assert.Equal(t, codes.InvalidArgument, st.Code())
	errInfo, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGUMENT", errInfo.Reason)

	assert.Equal(t, codes.DeadlineExceeded, status.Code(mapError(fmt.Errorf("failed to list funds: %w", context.DeadlineExceeded), "")))
	assert.Equal(t, codes.Canceled, status.Code(mapError(context.Canceled, "")))
	assert.Equal(t, codes.Internal, status.Code(mapError(errors.New("boom"), "")))
	assert.Equal(t, codes.PermissionDenied, status.Code(mapError(status.Error(codes.PermissionDenied, "no"), "")))
	assert.NoError(t, mapError(nil, ""))
}
