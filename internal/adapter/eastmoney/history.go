package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/caiyueliang/fundnav-backend/internal/domain"
)

// FetchHistory returns every nav point for code between start and end inclusive,
// ascending by date with one point per date.
func (c *Client) FetchHistory(ctx context.Context, code string, start, end time.Time) ([]domain.NavPoint, error) {
	byDate := make(map[string]domain.NavPoint)

	for pageIndex := 1; ; pageIndex++ {
		page, err := c.fetchPageWithRetry(ctx, code, pageIndex, start, end)
		if err != nil {
			return nil, err
		}

		c.logger.Debug().
			Str("code", code).
			Int("page", pageIndex).
			Int("points", len(page.Points)).
			Int("total_count", page.TotalCount).
			Msg("Fetched history page")

		if page.Entries == 0 {
			break
		}
		// Later pages overwrite earlier ones for the same date
		for _, point := range page.Points {
			byDate[domain.DateKey(point.NavDate)] = point
		}
		if pageIndex*c.pageSize >= page.TotalCount {
			break
		}
	}

	points := make([]domain.NavPoint, 0, len(byDate))
	for _, point := range byDate {
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].NavDate.Before(points[j].NavDate)
	})

	return points, nil
}

func (c *Client) fetchPageWithRetry(ctx context.Context, code string, pageIndex int, start, end time.Time) (*HistoryPage, error) {
	if c.retry.maxAttempts <= 1 {
		return c.fetchPage(ctx, code, pageIndex, start, end)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.initialInterval
	b.MaxInterval = c.retry.maxInterval
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retry.maxAttempts-1)), ctx)

	operation := func() (*HistoryPage, error) {
		page, err := c.fetchPage(ctx, code, pageIndex, start, end)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return page, err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn().
			Err(err).
			Str("code", code).
			Int("page", pageIndex).
			Dur("retry_in", wait).
			Msg("History page request failed, retrying")
	}

	return backoff.RetryNotifyWithData(operation, policy, notify)
}

func (c *Client) fetchPage(ctx context.Context, code string, pageIndex int, start, end time.Time) (*HistoryPage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// The limiter refuses up front when the wait would outlive the deadline
			if _, ok := ctx.Deadline(); ok && !errors.Is(err, context.Canceled) {
				return nil, &FetchTimeoutError{Code: code, Page: pageIndex, Err: err}
			}
			return nil, c.classify(ctx, code, pageIndex, err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newHistoryRequest(ctx, code, pageIndex, start, end)
	if err != nil {
		return nil, &TransportError{Code: code, Page: pageIndex, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, code, pageIndex, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Code: code, Page: pageIndex, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.classify(ctx, code, pageIndex, err)
	}

	return c.parser.Parse(body)
}

func (c *Client) newHistoryRequest(ctx context.Context, code string, pageIndex int, start, end time.Time) (*http.Request, error) {
	query := url.Values{}
	query.Set("fundCode", code)
	query.Set("pageIndex", strconv.Itoa(pageIndex))
	query.Set("pageSize", strconv.Itoa(c.pageSize))
	query.Set("startDate", domain.DateKey(start))
	query.Set("endDate", domain.DateKey(end))

	endpoint := c.baseURL + historyPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", fmt.Sprintf("https://fundf10.eastmoney.com/jjjz_%s.html", code))
	req.Header.Set("Accept", "application/json, text/javascript, */*")
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return req, nil
}

// classify maps a request failure onto the fetch error taxonomy
func (c *Client) classify(ctx context.Context, code string, pageIndex int, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchTimeoutError{Code: code, Page: pageIndex, Err: err}
	}
	return &TransportError{Code: code, Page: pageIndex, Err: err}
}
