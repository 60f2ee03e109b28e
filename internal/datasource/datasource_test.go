package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/config"
	"github.com/yourusername/lotto-backtest/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.Burst = 10
	cfg.CircuitBreakerMax = 2
	cfg.UserAgent = "lotto-test"
	return NewRateLimitedHTTPClient(cfg, quietLogger())
}

var ssqPages = [][]cwlNotice{
	{
		{Code: "2024003", Date: "2024-01-07(日)", Week: "日", Red: "03,07,12,19,25,31", Blue: "09", Sales: "380000000", PoolMoney: "1,234,567.50"},
		{Code: "2024002", Date: "2024-01-04(四)", Week: "四", Red: "01,02,14,18,22,33", Blue: "16"},
	},
	{
		{Code: "2024001", Date: "2024-01-02(二)", Week: "二", Red: "05,11,13,20,28,30", Blue: "01"},
	},
}

// noticeServer serves pages of notices and records the last query
func noticeServer(t *testing.T, pages [][]cwlNotice, last *atomic.Value) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, cwlNoticePath, r.URL.Path)
		if last != nil {
			last.Store(r.URL.Query())
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("pageNo"))
		var result []cwlNotice
		if page >= 1 && page <= len(pages) {
			result = pages[page-1]
		}
		_ = json.NewEncoder(w).Encode(cwlResponse{State: 0, Message: "ok", Result: result})
	}))
}

func TestCWLFetchNoticesPages(t *testing.T) {
	var last atomic.Value
	srv := noticeServer(t, ssqPages, &last)
	defer srv.Close()

	client := NewCWLClient(testHTTPClient(), srv.URL, 2, true, quietLogger())
	notices, err := client.FetchNotices(context.Background(), models.SSQ, 0, 0)
	require.NoError(t, err)
	require.Len(t, notices, 3)

	assert.Equal(t, "2024003", notices[0].Period)
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), notices[0].Date)
	assert.Equal(t, []int{3, 7, 12, 19, 25, 31}, notices[0].Primary)
	assert.Equal(t, []int{9}, notices[0].Secondary)
	assert.Equal(t, "1234567.5", notices[0].PoolMoney.String())
	assert.True(t, notices[1].Sales.IsZero())

	q := last.Load().(url.Values)
	assert.Equal(t, []string{"ssq"}, q["name"])
	assert.Equal(t, []string{"PC"}, q["systemType"])
	assert.Equal(t, []string{"2"}, q["pageNo"])

	draws, err := ToDraws(models.SSQ, notices)
	require.NoError(t, err)
	require.Len(t, draws, 3)
	assert.Equal(t, "2024001", draws[0].Period)
	assert.Equal(t, 0, draws[0].Index)
	assert.Equal(t, "2024003", draws[2].Period)
	assert.Equal(t, 2, draws[2].Index)
}

func TestCWLFetchNoticesLimitAndMaxPages(t *testing.T) {
	var last atomic.Value
	srv := noticeServer(t, ssqPages, &last)
	defer srv.Close()
	client := NewCWLClient(testHTTPClient(), srv.URL, 30, true, quietLogger())

	one, err := client.FetchNotices(context.Background(), models.SSQ, 1, 0)
	require.NoError(t, err)
	require.Len(t, one, 1)
	q := last.Load().(url.Values)
	assert.Equal(t, []string{"1"}, q["issueCount"])
	assert.Equal(t, []string{"1"}, q["pageSize"])

	paged := NewCWLClient(testHTTPClient(), srv.URL, 2, true, quietLogger())
	firstPage, err := paged.FetchNotices(context.Background(), models.SSQ, 0, 1)
	require.NoError(t, err)
	assert.Len(t, firstPage, 2)
}

func TestCWLFetchKeno(t *testing.T) {
	pages := [][]cwlNotice{{{
		Code: "2024010",
		Date: "2024-01-10(三)",
		Red:  "80,02,03,04,05,06,07,08,09,10,11,12,13,14,15,16,17,18,19,01",
	}}}
	srv := noticeServer(t, pages, nil)
	defer srv.Close()

	client := NewCWLClient(testHTTPClient(), srv.URL, 30, true, quietLogger())
	notices, err := client.FetchNotices(context.Background(), models.KL8, 0, 0)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Len(t, notices[0].Primary, 20)
	assert.Equal(t, 1, notices[0].Primary[0])
	assert.Equal(t, 80, notices[0].Primary[19])
	assert.Nil(t, notices[0].Secondary)
}

func TestCWLSkipsInvalidRecords(t *testing.T) {
	pages := [][]cwlNotice{{
		{Code: "1", Date: "no date", Red: "01,02,03,04,05,06", Blue: "01"},
		{Code: "2", Date: "2024-01-02", Red: "01,02,03", Blue: "01"},
		{Code: "3", Date: "2024-01-04", Red: "01,02,03,04,05,40", Blue: "01"},
		{Code: "4", Date: "2024-01-07", Red: "01,02,03,04,05,xx", Blue: "01"},
		{Code: "5", Date: "2024-01-09(二)", Red: "01,02,03,04,05,06", Blue: "02"},
	}}
	srv := noticeServer(t, pages, nil)
	defer srv.Close()

	client := NewCWLClient(testHTTPClient(), srv.URL, 30, true, quietLogger())
	notices, err := client.FetchNotices(context.Background(), models.SSQ, 0, 0)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "5", notices[0].Period)
}

func TestCWLErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    string
		target  error
	}{
		{
			name: "api state",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"state":1,"message":"busy","result":[]}`))
			},
			code: ErrCodeAPIError,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			code:   ErrCodeServerError,
			target: ErrServerError,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			code:   ErrCodeRateLimitExceeded,
			target: ErrRateLimitExceeded,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			code:   ErrCodeNotFound,
			target: models.ErrNotFound,
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
			code: ErrCodeInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewCWLClient(testHTTPClient(), srv.URL, 30, true, quietLogger())
			_, err := client.FetchNotices(context.Background(), models.SSQ, 0, 0)
			require.Error(t, err)

			var dsErr DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, tt.code, dsErr.Code)
			assert.Equal(t, "cwl", dsErr.Source)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
		})
	}
}

func TestCWLDisabled(t *testing.T) {
	client := NewCWLClient(testHTTPClient(), "http://unused", 30, false, quietLogger())
	assert.False(t, client.IsEnabled())
	_, err := client.FetchNotices(context.Background(), models.SSQ, 0, 0)
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestCircuitBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	httpClient := testHTTPClient()
	client := NewCWLClient(httpClient, addr, 30, true, quietLogger())
	for i := 0; i < 2; i++ {
		_, err := client.FetchNotices(context.Background(), models.SSQ, 0, 0)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}

	_, err := client.FetchNotices(context.Background(), models.SSQ, 0, 0)
	assert.True(t, errors.Is(err, ErrCircuitOpen))

	httpClient.Reset()
	_, err = client.FetchNotices(context.Background(), models.SSQ, 0, 0)
	assert.False(t, errors.Is(err, ErrCircuitOpen))
}

func TestHTTPClientSetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lotto-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "https://www.cwl.gov.cn/", r.Header.Get("Referer"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := HTTPClientConfigFrom(config.DataSourceConfig{
		TimeoutSeconds:    5,
		RequestsPerSecond: 100,
		Burst:             5,
		UserAgent:         "lotto-test",
		Referer:           "https://www.cwl.gov.cn/",
	})
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Burst)

	resp, err := NewRateLimitedHTTPClient(cfg, quietLogger()).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestToDraws(t *testing.T) {
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 2)
	notices := []DrawNotice{
		{Period: "b", Date: d2, Primary: []int{1, 2, 3, 4, 5, 6}, Secondary: []int{2}},
		{Period: "a", Date: d1, Primary: []int{7, 8, 9, 10, 11, 12}, Secondary: []int{1}},
		{Period: "b", Date: d2, Primary: []int{1, 2, 3, 4, 5, 6}, Secondary: []int{2}},
	}

	draws, err := ToDraws(models.SSQ, notices)
	require.NoError(t, err)
	require.Len(t, draws, 2)
	assert.Equal(t, "a", draws[0].Period)
	assert.Equal(t, 1, draws[1].Index)

	notices[1].Secondary = nil
	_, err = ToDraws(models.SSQ, notices)
	assert.True(t, errors.Is(err, models.ErrInvalidDraw))
}

type countingSource struct {
	calls   int
	notices []DrawNotice
	err     error
}

func (s *countingSource) Name() string    { return "counting" }
func (s *countingSource) IsEnabled() bool { return true }

func (s *countingSource) FetchNotices(context.Context, models.Game, int, int) ([]DrawNotice, error) {
	s.calls++
	return s.notices, s.err
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{notices: []DrawNotice{{Period: "1"}}}
	cached := NewCachedSource(inner, time.Minute)

	for i := 0; i < 3; i++ {
		notices, err := cached.FetchNotices(context.Background(), models.SSQ, 10, 0)
		require.NoError(t, err)
		assert.Len(t, notices, 1)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := cached.FetchNotices(context.Background(), models.KL8, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	cached.Invalidate()
	_, _ = cached.FetchNotices(context.Background(), models.SSQ, 10, 0)
	assert.Equal(t, 3, inner.calls)

	failing := NewCachedSource(&countingSource{err: errors.New("down")}, time.Minute)
	_, err = failing.FetchNotices(context.Background(), models.SSQ, 0, 0)
	assert.Error(t, err)
	assert.Equal(t, "counting", failing.Name())
}

func TestFactory(t *testing.T) {
	cfg := &config.Config{
		DataSource: config.DataSourceConfig{Name: "cwl", BaseURL: "http://example.invalid", PageSize: 30, TimeoutSeconds: 5, RequestsPerSecond: 1, Burst: 1},
		Cache:      config.CacheConfig{HistoryTTLSeconds: 60},
	}
	f := NewFactory(cfg, quietLogger())

	source, err := f.Create()
	require.NoError(t, err)
	assert.Equal(t, "cwl", source.Name())
	_, isCached := source.(*CachedSource)
	assert.True(t, isCached)

	cfg.Cache.HistoryTTLSeconds = 0
	source, err = f.Create()
	require.NoError(t, err)
	_, isClient := source.(*CWLClient)
	assert.True(t, isClient)

	_, err = f.NewDataSource(config.DataSourceConfig{Name: "other"}, nil)
	assert.Error(t, err)
	assert.Equal(t, []SourceType{CWLSourceType}, f.ListAvailableSources())
}
