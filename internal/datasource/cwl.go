package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/lotto-backtest/internal/metrics"
	"github.com/yourusername/lotto-backtest/internal/models"
)

const (
	cwlSourceName     = "cwl"
	cwlNoticePath     = "/cwl_admin/front/cwlkj/search/kjxx/findDrawNotice"
	cwlDefaultBaseURL = "https://www.cwl.gov.cn"
)

var cwlDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// CWLClient implements DataSource for the China Welfare Lottery draw notice API
type CWLClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	pageSize   int
	enabled    bool
	logger     *logrus.Entry
}

// cwlResponse is the findDrawNotice envelope
type cwlResponse struct {
	State   int         `json:"state"`
	Message string      `json:"message"`
	Result  []cwlNotice `json:"result"`
}

type cwlNotice struct {
	Code      string `json:"code"`
	Date      string `json:"date"`
	Week      string `json:"week"`
	Red       string `json:"red"`
	Blue      string `json:"blue"`
	Sales     string `json:"sales"`
	PoolMoney string `json:"poolmoney"`
}

// NewCWLClient creates a CWL client. An empty baseURL uses the public site.
func NewCWLClient(httpClient *RateLimitedHTTPClient, baseURL string, pageSize int, enabled bool, logger *logrus.Logger) *CWLClient {
	if baseURL == "" {
		baseURL = cwlDefaultBaseURL
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 30
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CWLClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   pageSize,
		enabled:    enabled,
		logger:     logger.WithField("source", cwlSourceName),
	}
}

// Name returns the data source name
func (c *CWLClient) Name() string {
	return cwlSourceName
}

// IsEnabled returns whether the client is enabled
func (c *CWLClient) IsEnabled() bool {
	return c.enabled
}

// FetchNotices pages through findDrawNotice newest first
func (c *CWLClient) FetchNotices(ctx context.Context, game models.Game, limit, maxPages int) ([]DrawNotice, error) {
	if !c.enabled {
		return nil, NewDataSourceError(cwlSourceName, ErrCodeDisabled, "data source is disabled", ErrDisabled)
	}

	pageSize := c.pageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	var notices []DrawNotice
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, game, page, pageSize, limit)
		if err != nil {
			return nil, err
		}
		for _, raw := range batch {
			n, err := parseNotice(game, raw)
			if err != nil {
				c.logger.WithError(err).WithField("period", raw.Code).Warn("Skipping unparseable draw notice")
				continue
			}
			notices = append(notices, n)
		}

		if limit > 0 && len(notices) >= limit {
			notices = notices[:limit]
			break
		}
		if len(batch) < pageSize {
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"game":    game.Code,
		"notices": len(notices),
	}).Debug("Fetched draw notices")
	return notices, nil
}

func (c *CWLClient) fetchPage(ctx context.Context, game models.Game, page, pageSize, limit int) ([]cwlNotice, error) {
	params := url.Values{}
	params.Set("name", game.Code)
	params.Set("pageNo", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("systemType", "PC")
	if limit > 0 {
		params.Set("issueCount", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+cwlNoticePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, NewDataSourceError(cwlSourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		metrics.RecordDataSourceRequest(cwlSourceName, "error")
		return nil, NewDataSourceError(cwlSourceName, ErrCodeNetworkError, "failed to fetch draw notices", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordDataSourceRequest(cwlSourceName, "rate_limited")
		return nil, NewDataSourceError(cwlSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordDataSourceRequest(cwlSourceName, "not_found")
		return nil, NewDataSourceError(cwlSourceName, ErrCodeNotFound, "endpoint not found", models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		metrics.RecordDataSourceRequest(cwlSourceName, "error")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(cwlSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), ErrServerError)
	}

	var payload cwlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordDataSourceRequest(cwlSourceName, "invalid")
		return nil, NewDataSourceError(cwlSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}
	if payload.State != 0 {
		metrics.RecordDataSourceRequest(cwlSourceName, "api_error")
		return nil, NewDataSourceError(cwlSourceName, ErrCodeAPIError,
			fmt.Sprintf("state %d: %s", payload.State, payload.Message), nil)
	}

	metrics.RecordDataSourceRequest(cwlSourceName, "success")
	return payload.Result, nil
}

// parseNotice converts one provider record, validating it against the game
func parseNotice(game models.Game, raw cwlNotice) (DrawNotice, error) {
	dateStr := cwlDatePattern.FindString(raw.Date)
	if dateStr == "" {
		return DrawNotice{}, fmt.Errorf("%w: date %q", ErrInvalidData, raw.Date)
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return DrawNotice{}, fmt.Errorf("%w: date %q: %v", ErrInvalidData, raw.Date, err)
	}

	primary, err := parseNumbers(raw.Red)
	if err != nil {
		return DrawNotice{}, err
	}
	var secondary []int
	if game.HasSecondary() {
		if secondary, err = parseNumbers(raw.Blue); err != nil {
			return DrawNotice{}, err
		}
	}
	sort.Ints(primary)

	n := DrawNotice{
		Period:    strings.TrimSpace(raw.Code),
		Date:      date,
		Week:      raw.Week,
		Primary:   primary,
		Secondary: secondary,
		Sales:     parseAmount(raw.Sales),
		PoolMoney: parseAmount(raw.PoolMoney),
	}
	if n.Period == "" {
		return DrawNotice{}, fmt.Errorf("%w: missing period code", ErrInvalidData)
	}
	if err := models.NewDraw(0, n.Period, n.Date, n.Primary, n.Secondary).Validate(game); err != nil {
		return DrawNotice{}, err
	}
	return n, nil
}

func parseNumbers(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no numbers in %q", ErrInvalidData, s)
	}
	nums := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrInvalidData, f)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// parseAmount reads a yuan amount; missing or malformed values are zero
func parseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// sortNotices orders by draw date then period, oldest first
func sortNotices(notices []DrawNotice) {
	sort.SliceStable(notices, func(i, j int) bool {
		if !notices[i].Date.Equal(notices[j].Date) {
			return notices[i].Date.Before(notices[j].Date)
		}
		return notices[i].Period < notices[j].Period
	})
}
