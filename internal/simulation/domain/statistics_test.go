package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testDates(n int) []time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = base.AddDate(0, 0, i)
	}
	return dates
}

func mustPrices(t *testing.T, tickers []string, rows [][]float64) *PriceMatrix {
	t.Helper()
	m, err := NewPriceMatrix(testDates(len(rows)), tickers, rows)
	require.NoError(t, err)
	return m
}

func TestComputeReturnStatistics(t *testing.T) {
	returns := [][]float64{
		{0.01, 0.02},
		{0.03, 0.04},
		{0.05, 0.06},
	}

	stats, err := ComputeReturnStatistics(returns)
	require.NoError(t, err)

	require.InDelta(t, 0.03, stats.Mean[0], 1e-12)
	require.InDelta(t, 0.04, stats.Mean[1], 1e-12)

	// 样本方差：((-0.02)^2 + 0 + 0.02^2) / 2 = 0.0004
	require.InDelta(t, 0.0004, stats.Cov[0][0], 1e-12)
	require.InDelta(t, 0.0004, stats.Cov[1][1], 1e-12)
	require.InDelta(t, 0.0004, stats.Cov[0][1], 1e-12)
	require.Equal(t, stats.Cov[0][1], stats.Cov[1][0])

	require.InDelta(t, 0.02, stats.StdDev[0], 1e-12)
}

func TestComputeReturnStatisticsErrors(t *testing.T) {
	tests := []struct {
		name    string
		returns [][]float64
	}{
		{"empty", nil},
		{"single row", [][]float64{{0.01}}},
		{"no assets", [][]float64{{}, {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeReturnStatistics(tt.returns)
			require.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestCheckNonDegenerate(t *testing.T) {
	// 第二列恒定收益，方差为零
	returns := [][]float64{
		{0.01, 0.002},
		{-0.02, 0.002},
		{0.03, 0.002},
	}
	stats, err := ComputeReturnStatistics(returns)
	require.NoError(t, err)
	require.ErrorIs(t, stats.CheckNonDegenerate(), ErrDegenerateData)
}

func TestPriceMatrixValidation(t *testing.T) {
	dates := testDates(3)

	tests := []struct {
		name    string
		dates   []time.Time
		tickers []string
		rows    [][]float64
	}{
		{"too few rows", dates[:1], []string{"A"}, [][]float64{{100}}},
		{"negative price", dates, []string{"A"}, [][]float64{{100}, {-1}, {102}}},
		{"ragged row", dates, []string{"A", "B"}, [][]float64{{100, 200}, {101}, {102, 202}}},
		{"duplicate ticker", dates, []string{"A", "A"}, [][]float64{{100, 200}, {101, 201}, {102, 202}}},
		{"descending dates", []time.Time{dates[2], dates[1], dates[0]}, []string{"A"}, [][]float64{{100}, {101}, {102}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPriceMatrix(tt.dates, tt.tickers, tt.rows)
			require.Error(t, err)
		})
	}
}

func TestPriceMatrixReturns(t *testing.T) {
	m := mustPrices(t, []string{"A"}, [][]float64{{100}, {110}, {99}})

	pct := m.PctReturns()
	require.Len(t, pct, 2)
	require.InDelta(t, 0.10, pct[0][0], 1e-12)
	require.InDelta(t, -0.10, pct[1][0], 1e-12)

	logs := m.LogReturns()
	require.Len(t, logs, 2)
	require.InDelta(t, 0.0953101798, logs[0][0], 1e-9)
}

func TestPriceMatrixWindowAndSelect(t *testing.T) {
	m := mustPrices(t, []string{"A", "B"}, [][]float64{
		{100, 200}, {101, 201}, {102, 202}, {103, 203},
	})

	w := m.Window(testDates(4)[1], testDates(4)[2])
	require.Equal(t, 2, w.NumRows())
	require.Equal(t, 101.0, w.Prices[0][0])

	sub, err := m.Select([]string{"B"})
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, sub.Tickers)
	require.Equal(t, 200.0, sub.Prices[0][0])

	_, err = m.Select([]string{"C"})
	require.ErrorIs(t, err, ErrDataUnavailable)
}
