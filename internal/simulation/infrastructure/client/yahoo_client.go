// Package client 提供行情数据获取的基础设施实现
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
	"github.com/wyfcoding/portfoliorisk/pkg/logger"
	"github.com/wyfcoding/portfoliorisk/pkg/metrics"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// YahooClient 基于 Yahoo Finance v8 chart API 的行情客户端，
// 按 (代码, 区间) 缓存响应，避免同一批模拟反复拉取相同历史。
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *bigcache.BigCache
	metrics    *metrics.Metrics
}

// NewYahooClient 创建行情客户端。cacheTTL 为响应缓存有效期，
// m 允许为 nil 表示不采集指标。
func NewYahooClient(baseURL string, timeout, cacheTTL time.Duration, m *metrics.Metrics) (*YahooClient, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(cacheTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to init market data cache: %w", err)
	}
	return &YahooClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		metrics:    m,
	}, nil
}

// chartResponse Yahoo v8 chart API 响应结构（只解析用到的字段）
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// series 单资产的日期到收盘价映射，日期按 UTC 零点归一
type series map[int64]float64

// FetchDailyCloses 拉取各资产的日收盘价并对齐成价格矩阵。
// 只保留全部资产都有报价的交易日，等价于按行丢弃缺失值。
func (c *YahooClient) FetchDailyCloses(ctx context.Context, tickers []string, start, end time.Time) (*domain.PriceMatrix, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: empty ticker list", domain.ErrDataUnavailable)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", domain.ErrInvalidDateRange,
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	all := make([]series, len(tickers))
	for i, ticker := range tickers {
		s, err := c.fetchSeries(ctx, ticker, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", ticker, err)
		}
		if len(s) == 0 {
			return nil, fmt.Errorf("%w: no quotes for %s in [%s, %s]", domain.ErrDataUnavailable,
				ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		all[i] = s
	}

	// 取全部资产共有的交易日
	common := make([]int64, 0, len(all[0]))
	for day := range all[0] {
		present := true
		for _, s := range all[1:] {
			if _, ok := s[day]; !ok {
				present = false
				break
			}
		}
		if present {
			common = append(common, day)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	dates := make([]time.Time, len(common))
	prices := make([][]float64, len(common))
	for r, day := range common {
		dates[r] = time.Unix(day, 0).UTC()
		row := make([]float64, len(tickers))
		for col, s := range all {
			row[col] = s[day]
		}
		prices[r] = row
	}

	matrix, err := domain.NewPriceMatrix(dates, tickers, prices)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "fetched price matrix",
		"tickers", len(tickers), "rows", matrix.NumRows(),
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))
	return matrix, nil
}

// fetchSeries 拉取单资产的日收盘价，命中缓存时不发请求
func (c *YahooClient) fetchSeries(ctx context.Context, ticker string, start, end time.Time) (series, error) {
	key := fmt.Sprintf("%s:%d:%d", ticker, start.Unix(), end.Unix())
	if cached, err := c.cache.Get(key); err == nil {
		var s series
		if err := json.Unmarshal(cached, &s); err == nil {
			return s, nil
		}
	}

	body, err := c.doRequest(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrDataUnavailable,
			parsed.Chart.Error.Description, parsed.Chart.Error.Code)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: empty chart result for %s", domain.ErrDataUnavailable, ticker)
	}

	result := parsed.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	s := make(series, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		s[day.Unix()] = *closes[i]
	}

	if encoded, err := json.Marshal(s); err == nil {
		_ = c.cache.Set(key, encoded)
	}
	return s, nil
}

func (c *YahooClient) doRequest(ctx context.Context, ticker string, start, end time.Time) ([]byte, error) {
	// period2 额外加一天，保证 end 当日收盘价包含在内
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Add(24*time.Hour).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; portfoliorisk/1.0)")

	fetchStart := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.FetchRequestsTotal.Inc()
		c.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d for %s", domain.ErrDataUnavailable, resp.StatusCode, ticker)
	}
	return io.ReadAll(resp.Body)
}

// Close 释放缓存资源
func (c *YahooClient) Close() error {
	return c.cache.Close()
}
