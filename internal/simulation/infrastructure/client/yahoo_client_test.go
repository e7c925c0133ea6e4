package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
)

func day(offset int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// chartJSON 构造 v8 chart API 响应，close 为 null 的点用 "null" 表示
func chartJSON(timestamps []int64, closes []string) string {
	ts := ""
	cl := ""
	for i := range timestamps {
		if i > 0 {
			ts += ","
			cl += ","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		cl += closes[i]
	}
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`, ts, cl)
}

func TestFetchDailyCloses(t *testing.T) {
	var requests atomic.Int64

	// 收盘时间戳带盘中偏移，客户端应归一到 UTC 零点
	ts := []int64{
		day(0).Unix() + 13*3600,
		day(1).Unix() + 13*3600,
		day(2).Unix() + 13*3600,
	}
	responses := map[string]string{
		"AAA": chartJSON(ts, []string{"100.0", "101.0", "102.0"}),
		// 第二天缺收盘价，该行应被整体丢弃
		"BBB": chartJSON(ts, []string{"200.0", "null", "204.0"}),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		for ticker, body := range responses {
			if r.URL.Path == "/v8/finance/chart/"+ticker {
				fmt.Fprint(w, body)
				return
			}
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	c, err := NewYahooClient(server.URL, 5*time.Second, time.Minute, nil)
	require.NoError(t, err)
	defer c.Close()

	matrix, err := c.FetchDailyCloses(context.Background(), []string{"AAA", "BBB"}, day(0), day(2))
	require.NoError(t, err)

	require.Equal(t, 2, matrix.NumRows())
	require.Equal(t, []string{"AAA", "BBB"}, matrix.Tickers)
	require.Equal(t, day(0), matrix.Dates[0])
	require.Equal(t, day(2), matrix.Dates[1])
	require.Equal(t, 100.0, matrix.Prices[0][0])
	require.Equal(t, 204.0, matrix.Prices[1][1])
	require.EqualValues(t, 2, requests.Load())

	// 第二次请求命中缓存，不再访问上游
	_, err = c.FetchDailyCloses(context.Background(), []string{"AAA", "BBB"}, day(0), day(2))
	require.NoError(t, err)
	require.EqualValues(t, 2, requests.Load())
}

func TestFetchDailyClosesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/EMPTY":
			fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
		case "/v8/finance/chart/DELISTED":
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c, err := NewYahooClient(server.URL, 5*time.Second, time.Minute, nil)
	require.NoError(t, err)
	defer c.Close()

	tests := []struct {
		name   string
		ticker string
	}{
		{"empty result", "EMPTY"},
		{"api error", "DELISTED"},
		{"server error", "BROKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.FetchDailyCloses(context.Background(), []string{tt.ticker}, day(0), day(2))
			require.ErrorIs(t, err, domain.ErrDataUnavailable)
		})
	}

	_, err = c.FetchDailyCloses(context.Background(), nil, day(0), day(2))
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = c.FetchDailyCloses(context.Background(), []string{"AAA"}, day(2), day(0))
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)
}
