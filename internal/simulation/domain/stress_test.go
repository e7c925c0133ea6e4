package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeProvider 按 availableFrom 控制资产可用性的内存行情源
type fakeProvider struct {
	series        map[string][]float64
	availableFrom map[string]time.Time
}

func (p *fakeProvider) FetchDailyCloses(_ context.Context, tickers []string, start, end time.Time) (*PriceMatrix, error) {
	rows := 0
	for _, ticker := range tickers {
		s, ok := p.series[ticker]
		if !ok {
			return nil, ErrDataUnavailable
		}
		if from, ok := p.availableFrom[ticker]; ok && start.Before(from) {
			return nil, ErrDataUnavailable
		}
		if rows == 0 || len(s) < rows {
			rows = len(s)
		}
	}

	dates := make([]time.Time, rows)
	prices := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		dates[r] = start.AddDate(0, 0, r)
		row := make([]float64, len(tickers))
		for c, ticker := range tickers {
			row[c] = p.series[ticker][r]
		}
		prices[r] = row
	}
	return NewPriceMatrix(dates, tickers, prices)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStressTesterDynamicReweighting(t *testing.T) {
	provider := &fakeProvider{
		series: map[string][]float64{
			"NEW": {50, 55, 60},
			"OLD": {100, 110, 121},
		},
		// NEW 在 2015 年才上市
		availableFrom: map[string]time.Time{"NEW": date(2015, 1, 1)},
	}

	tester, err := NewStressTester(provider, []string{"NEW", "OLD"}, []float64{0.6, 0.4}, nil)
	require.NoError(t, err)

	res, err := tester.RunScenario(context.Background(), StressScenario{
		Name:  "GFC",
		Start: date(2008, 9, 1),
		End:   date(2009, 3, 31),
	})
	require.NoError(t, err)

	// 只剩 OLD，权重归一化为 1.0
	require.Equal(t, []string{"OLD"}, res.UsedTickers)
	require.InDelta(t, 1.0, res.UsedWeights[0], 1e-12)
	require.InDelta(t, 0.21, res.TotalReturn.InexactFloat64(), 1e-9)
	require.InDelta(t, 0.0, res.MaxDrawdown.InexactFloat64(), 1e-12)
	require.Equal(t, 3, res.TradingDays)
}

func TestStressTesterBothAssets(t *testing.T) {
	provider := &fakeProvider{
		series: map[string][]float64{
			"A":   {100, 110}, // +10%
			"B":   {200, 180}, // -10%
			"SPY": {400, 380}, // -5%
		},
	}

	tester, err := NewStressTester(provider, []string{"A", "B"}, []float64{0.5, 0.5}, []string{"SPY", "MISSING"})
	require.NoError(t, err)

	res, err := tester.RunScenario(context.Background(), StressScenario{
		Name:  "flat",
		Start: date(2020, 2, 14),
		End:   date(2020, 4, 15),
	})
	require.NoError(t, err)
	require.InDelta(t, 0.0, res.TotalReturn.InexactFloat64(), 1e-12)

	// 有数据的基准给出同期收益，无数据的基准被跳过
	require.Len(t, res.BenchmarkReturns, 1)
	require.InDelta(t, -0.05, res.BenchmarkReturns["SPY"].InexactFloat64(), 1e-12)
}

func TestStressTesterFutureEndRejected(t *testing.T) {
	provider := &fakeProvider{
		series: map[string][]float64{"A": {100, 90, 80}},
	}
	tester, err := NewStressTester(provider, []string{"A"}, []float64{1.0}, nil)
	require.NoError(t, err)

	// 截止日在未来：拒绝整个情景，而不是在截断的窗口上计算
	_, err = tester.RunScenario(context.Background(), StressScenario{
		Name:  "ongoing",
		Start: date(2024, 1, 1),
		End:   time.Now().AddDate(1, 0, 0),
	})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestStressTesterScenarioIsolation(t *testing.T) {
	provider := &fakeProvider{
		series: map[string][]float64{"A": {100, 110, 121}},
	}
	tester, err := NewStressTester(provider, []string{"A"}, []float64{1.0}, nil)
	require.NoError(t, err)

	scenarios := []StressScenario{
		{Name: "inverted range", Start: date(2020, 4, 1), End: date(2020, 3, 1)},
		{Name: "valid", Start: date(2020, 2, 14), End: date(2020, 4, 15)},
	}
	results, skipped := tester.RunAll(context.Background(), scenarios)

	require.Len(t, results, 1)
	require.Equal(t, 1, skipped)
	require.Equal(t, "valid", results[0].Scenario)
}

func TestStressTesterNoAssetsAvailable(t *testing.T) {
	provider := &fakeProvider{series: map[string][]float64{}}
	tester, err := NewStressTester(provider, []string{"GHOST"}, []float64{1.0}, nil)
	require.NoError(t, err)

	_, err = tester.RunScenario(context.Background(), StressScenario{
		Name:  "empty",
		Start: date(2020, 1, 1),
		End:   date(2020, 2, 1),
	})
	require.ErrorIs(t, err, ErrDataUnavailable)
}

func TestNewStressTesterWeightMismatch(t *testing.T) {
	provider := &fakeProvider{series: map[string][]float64{"A": {1, 2}}}
	_, err := NewStressTester(provider, []string{"A", "B"}, []float64{1.0}, nil)
	require.ErrorIs(t, err, ErrWeightMismatch)
}
