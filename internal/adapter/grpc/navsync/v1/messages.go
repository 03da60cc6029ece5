// Package navsyncv1 defines the navsync.v1.FundService wire contract
//
// Messages are plain Go structs carried by the "json" codec registered in this package.
// Decimals travel as strings, dates as YYYY-MM-DD and absent values are omitted.
package navsyncv1

// SyncFundsRequest asks for a sync of every registered fund
type SyncFundsRequest struct {
	Days int32 `json:"days,omitempty"` // 0 means the server default
}

// SyncFundRequest asks for a sync of one fund
type SyncFundRequest struct {
	Code string `json:"code"`
	Days int32  `json:"days,omitempty"`
}

// FundSyncResult is the outcome for one fund
type FundSyncResult struct {
	Code     string `json:"code"`
	Inserted int32  `json:"inserted"`
	Fetched  int32  `json:"fetched"`
	Error    string `json:"error,omitempty"`
}

// SyncResponse reports a sync run
type SyncResponse struct {
	RunId         string            `json:"run_id"`
	Status        string            `json:"status"`
	Message       string            `json:"message,omitempty"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
	Funds         []*FundSyncResult `json:"funds,omitempty"`
	TotalInserted int32             `json:"total_inserted"`
	TotalFetched  int32             `json:"total_fetched"`
	Failed        int32             `json:"failed"`
}

// ListFundsRequest selects and orders a page of funds
type ListFundsRequest struct {
	Skip      int32  `json:"skip,omitempty"`
	Limit     int32  `json:"limit,omitempty"`
	FundType  string `json:"fund_type,omitempty"`
	Search    string `json:"search,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// FundItem is a fund with its latest NAV metrics
type FundItem struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	FundType       string  `json:"fund_type,omitempty"`
	Nav            *string `json:"nav,omitempty"`
	NavDate        *string `json:"nav_date,omitempty"`
	DailyChangePct *string `json:"daily_change_pct,omitempty"`
}

// ListFundsResponse is one page of funds
type ListFundsResponse struct {
	Total int32       `json:"total"`
	Items []*FundItem `json:"items"`
}

// Fund is a registered fund
type Fund struct {
	Id        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	FundType  string `json:"fund_type,omitempty"`
	CreatedAt string `json:"created_at"` // RFC 3339
}

// NavRecord is one stored day of NAV history
type NavRecord struct {
	NavDate        string  `json:"nav_date"`
	Nav            string  `json:"nav"`
	AccumulatedNav *string `json:"accumulated_nav,omitempty"`
	DailyChangePct *string `json:"daily_change_pct,omitempty"`
}

// GetFundRequest asks for a fund and its recent history
type GetFundRequest struct {
	Code  string `json:"code"`
	Limit int32  `json:"limit,omitempty"`
}

// GetFundResponse is a fund with its history, oldest first
type GetFundResponse struct {
	Fund *Fund        `json:"fund"`
	Navs []*NavRecord `json:"navs"`
}

// CreateFundRequest registers a new fund
type CreateFundRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	FundType string `json:"fund_type,omitempty"`
}

// CreateFundResponse returns the stored fund
type CreateFundResponse struct {
	Fund *Fund `json:"fund"`
}
