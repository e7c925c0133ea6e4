package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/portfoliorisk/pkg/logger"
)

// StressScenario 历史压力情景：对指定日期区间重放真实行情
type StressScenario struct {
	Name  string
	Start time.Time
	End   time.Time
}

// StressResult 单个情景的回测结果。收益与回撤以 decimal 表示，
// 避免对外报告时的浮点尾数噪声。
type StressResult struct {
	Scenario    string          `json:"scenario"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	TotalReturn decimal.Decimal `json:"total_return"`
	MaxDrawdown decimal.Decimal `json:"max_drawdown"`
	TradingDays int             `json:"trading_days"`
	UsedTickers []string        `json:"used_tickers"`
	UsedWeights []float64       `json:"used_weights"`
	// 各基准指数同期收益，区间内无数据的基准不出现
	BenchmarkReturns map[string]decimal.Decimal `json:"benchmark_returns,omitempty"`
}

// StressTester 逐情景回放组合的历史表现。情景早于组合中部分资产
// 上市时，剔除无行情的资产并对剩余权重重新归一化。
type StressTester struct {
	provider   MarketDataProvider
	tickers    []string
	weights    []float64
	benchmarks []string
}

// NewStressTester 创建压力测试器。weights 应与 tickers 对齐且已归一化，
// benchmarks 为可选的对照基准指数。
func NewStressTester(provider MarketDataProvider, tickers []string, weights []float64, benchmarks []string) (*StressTester, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: no market data provider for stress testing", ErrDataUnavailable)
	}
	if len(weights) != len(tickers) {
		return nil, fmt.Errorf("%w: %d weights for %d tickers", ErrWeightMismatch, len(weights), len(tickers))
	}
	return &StressTester{provider: provider, tickers: tickers, weights: weights, benchmarks: benchmarks}, nil
}

// RunScenario 回放单个情景，区间内无任何可用资产时返回 ErrDataUnavailable
func (t *StressTester) RunScenario(ctx context.Context, scenario StressScenario) (*StressResult, error) {
	if !scenario.End.After(scenario.Start) {
		return nil, fmt.Errorf("%w: scenario %q has end %s before start %s", ErrInvalidDateRange,
			scenario.Name, scenario.End.Format("2006-01-02"), scenario.Start.Format("2006-01-02"))
	}
	if scenario.End.After(time.Now()) {
		return nil, fmt.Errorf("%w: scenario %q has end %s in the future", ErrInvalidDateRange,
			scenario.Name, scenario.End.Format("2006-01-02"))
	}

	// 逐资产探测该情景期间是否有行情，无行情的资产剔除
	present := make([]string, 0, len(t.tickers))
	subWeights := make([]float64, 0, len(t.tickers))
	for i, ticker := range t.tickers {
		if _, err := t.provider.FetchDailyCloses(ctx, []string{ticker}, scenario.Start, scenario.End); err != nil {
			logger.Debug(ctx, "ticker unavailable for scenario",
				"scenario", scenario.Name, "ticker", ticker, "error", err)
			continue
		}
		present = append(present, ticker)
		subWeights = append(subWeights, t.weights[i])
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%w: no portfolio assets traded during scenario %q", ErrDataUnavailable, scenario.Name)
	}
	if len(present) < len(t.tickers) {
		logger.Warn(ctx, "reweighting portfolio for stress scenario",
			"scenario", scenario.Name, "available", len(present), "total", len(t.tickers))
	}
	subWeights, err := NormalizeWeights(present, subWeights)
	if err != nil {
		return nil, err
	}

	prices, err := t.provider.FetchDailyCloses(ctx, present, scenario.Start, scenario.End)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	curve, err := PortfolioValueCurve(prices, subWeights)
	if err != nil {
		return nil, err
	}

	return &StressResult{
		Scenario:         scenario.Name,
		Start:            scenario.Start,
		End:              scenario.End,
		TotalReturn:      decimal.NewFromFloat(curve[len(curve)-1] - 1),
		MaxDrawdown:      decimal.NewFromFloat(MaxDrawdown([][]float64{curve})),
		TradingDays:      prices.NumRows(),
		UsedTickers:      present,
		UsedWeights:      subWeights,
		BenchmarkReturns: t.benchmarkReturns(ctx, scenario),
	}, nil
}

// benchmarkReturns 计算各基准指数在情景区间的总收益，无数据的基准跳过
func (t *StressTester) benchmarkReturns(ctx context.Context, scenario StressScenario) map[string]decimal.Decimal {
	if len(t.benchmarks) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(t.benchmarks))
	for _, bench := range t.benchmarks {
		prices, err := t.provider.FetchDailyCloses(ctx, []string{bench}, scenario.Start, scenario.End)
		if err != nil {
			logger.Debug(ctx, "benchmark unavailable for scenario",
				"scenario", scenario.Name, "benchmark", bench, "error", err)
			continue
		}
		first, last := prices.Prices[0][0], prices.Prices[prices.NumRows()-1][0]
		out[bench] = decimal.NewFromFloat(last/first - 1)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// RunAll 依次回放全部情景。单个情景失败只记录告警并跳过，
// 不影响其余情景；返回成功的结果与跳过数量。
func (t *StressTester) RunAll(ctx context.Context, scenarios []StressScenario) ([]StressResult, int) {
	results := make([]StressResult, 0, len(scenarios))
	skipped := 0
	for _, s := range scenarios {
		res, err := t.RunScenario(ctx, s)
		if err != nil {
			skipped++
			logger.Warn(ctx, "stress scenario skipped", "scenario", s.Name, "error", err)
			continue
		}
		results = append(results, *res)
	}
	return results, skipped
}
