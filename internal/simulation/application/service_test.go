package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/application"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/infrastructure/publisher"
)

// fakeProvider 返回合成的两资产价格历史，忽略请求区间
type fakeProvider struct{}

func (fakeProvider) FetchDailyCloses(_ context.Context, tickers []string, start, _ time.Time) (*domain.PriceMatrix, error) {
	const rows = 30
	dates := make([]time.Time, rows)
	prices := make([][]float64, rows)
	levels := map[string]float64{}
	for _, ticker := range tickers {
		levels[ticker] = 100
	}

	for r := 0; r < rows; r++ {
		dates[r] = start.AddDate(0, 0, r)
		row := make([]float64, len(tickers))
		for c, ticker := range tickers {
			if r > 0 {
				// 两套错开的收益节奏，保证协方差正定
				ret := -0.008
				switch {
				case ticker == "AAA" && r%2 == 0:
					ret = 0.01
				case ticker != "AAA" && r%3 == 0:
					ret = 0.012
				}
				levels[ticker] *= 1 + ret
			}
			row[c] = levels[ticker]
		}
		prices[r] = row
	}
	return domain.NewPriceMatrix(dates, tickers, prices)
}

func newTestService(pub domain.EventPublisher) *application.SimulationService {
	return application.NewSimulationService(fakeProvider{}, pub, nil, application.Defaults{
		Strategy:    domain.StrategyBootstrap,
		Simulations: 100,
		Days:        10,
		Confidence:  0.95,
		Seed:        7,
		JumpLambda:  0.1,
		JumpMu:      -0.05,
		JumpSigma:   0.1,
		DateFormat:  "2006-01-02",
	})
}

func TestRunSimulation(t *testing.T) {
	pub := publisher.NewMockEventPublisher()
	svc := newTestService(pub)

	resp, err := svc.RunSimulation(context.Background(), &application.SimulationRequest{
		Tickers:   []string{"AAA", "BBB"},
		Weights:   []float64{2, 2},
		Start:     "2024-01-01",
		End:       "2024-03-01",
		WithPaths: true,
	})
	require.NoError(t, err)

	require.Equal(t, domain.StrategyBootstrap, resp.Strategy)
	require.InDelta(t, 0.5, resp.Weights[0], 1e-12)
	require.InDelta(t, 0.5, resp.Weights[1], 1e-12)
	require.Equal(t, 100, resp.Simulations)
	require.Equal(t, 10, resp.Days)

	require.NotNil(t, resp.Metrics)
	require.LessOrEqual(t, resp.Metrics.CVaR95, resp.Metrics.VaR95)
	require.LessOrEqual(t, resp.Metrics.MaxDrawdown, 0.0)
	require.Greater(t, resp.Metrics.Volatility, 0.0)

	require.Len(t, resp.Paths, 50)
	require.Len(t, resp.FinalReturns, 100)

	events := pub.Events()
	require.Len(t, events, 1)
	require.Equal(t, domain.StrategyBootstrap, events[0].Strategy)
	require.Equal(t, resp.Metrics, events[0].Metrics)
}

func TestRunSimulationReproducible(t *testing.T) {
	svc := newTestService(nil)
	req := func() *application.SimulationRequest {
		return &application.SimulationRequest{
			Tickers: []string{"AAA", "BBB"},
			Weights: []float64{0.5, 0.5},
			Start:   "2024-01-01",
			End:     "2024-03-01",
			Seed:    42,
		}
	}

	a, err := svc.RunSimulation(context.Background(), req())
	require.NoError(t, err)
	b, err := svc.RunSimulation(context.Background(), req())
	require.NoError(t, err)
	require.Equal(t, a.Metrics, b.Metrics)
}

func TestRunSimulationErrors(t *testing.T) {
	svc := newTestService(nil)

	tests := []struct {
		name string
		req  *application.SimulationRequest
		err  error
	}{
		{
			"unknown strategy",
			&application.SimulationRequest{
				Tickers: []string{"AAA"}, Weights: []float64{1},
				Strategy: "quantum", Start: "2024-01-01", End: "2024-03-01",
			},
			domain.ErrUnknownStrategy,
		},
		{
			"invalid start date",
			&application.SimulationRequest{
				Tickers: []string{"AAA"}, Weights: []float64{1},
				Start: "01/01/2024", End: "2024-03-01",
			},
			domain.ErrInvalidDateRange,
		},
		{
			"end before start",
			&application.SimulationRequest{
				Tickers: []string{"AAA"}, Weights: []float64{1},
				Start: "2024-03-01", End: "2024-01-01",
			},
			domain.ErrInvalidDateRange,
		},
		{
			"end in the future",
			&application.SimulationRequest{
				Tickers: []string{"AAA"}, Weights: []float64{1},
				Start: "2024-01-01", End: "2100-01-01",
			},
			domain.ErrInvalidDateRange,
		},
		{
			"weight mismatch",
			&application.SimulationRequest{
				Tickers: []string{"AAA", "BBB"}, Weights: []float64{1},
				Start: "2024-01-01", End: "2024-03-01",
			},
			domain.ErrWeightMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RunSimulation(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRunStressTest(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.RunStressTest(context.Background(), &application.StressRequest{
		Tickers: []string{"AAA", "BBB"},
		Weights: []float64{0.5, 0.5},
		Scenarios: []application.ScenarioRequest{
			{Name: "COVID-19 Crash", Start: "2020-02-14", End: "2020-04-15"},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, 0, resp.Skipped)
	require.Equal(t, "COVID-19 Crash", resp.Results[0].Scenario)
	require.Equal(t, []string{"AAA", "BBB"}, resp.Results[0].UsedTickers)
}

func TestRunStressTestNoScenarios(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.RunStressTest(context.Background(), &application.StressRequest{
		Tickers: []string{"AAA"},
		Weights: []float64{1},
	})
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestCompareStrategies(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.CompareStrategies(context.Background(), &application.SimulationRequest{
		Tickers: []string{"AAA", "BBB"},
		Weights: []float64{0.5, 0.5},
		Start:   "2024-01-01",
		End:     "2024-03-01",
	})
	require.NoError(t, err)

	for _, strategy := range domain.Strategies() {
		m, ok := resp.Metrics[strategy]
		require.True(t, ok, "missing metrics for %s", strategy)
		require.LessOrEqual(t, m.CVaR95, m.VaR95)
	}
}
