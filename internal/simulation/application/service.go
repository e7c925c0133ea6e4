// Package application 编排模拟流程：行情获取、引擎运行、指标计算、事件发布
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
	"github.com/wyfcoding/portfoliorisk/pkg/logger"
	"github.com/wyfcoding/portfoliorisk/pkg/metrics"
)

// 路径抽样默认条数，避免响应体膨胀
const defaultSamplePaths = 50

// Defaults 请求未显式给出时采用的引擎参数，来自服务配置
type Defaults struct {
	Strategy    string
	Simulations int
	Days        int
	Confidence  float64
	Seed        uint64
	JumpLambda  float64
	JumpMu      float64
	JumpSigma   float64
	Workers     int
	DateFormat  string
	Scenarios   []domain.StressScenario
	Benchmarks  []string
}

// SimulationService 模拟应用服务
type SimulationService struct {
	provider  domain.MarketDataProvider
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	defaults  Defaults
}

// NewSimulationService 创建模拟应用服务。publisher 与 m 允许为 nil，
// 分别表示关闭事件发布与指标采集。
func NewSimulationService(provider domain.MarketDataProvider, publisher domain.EventPublisher, m *metrics.Metrics, defaults Defaults) *SimulationService {
	return &SimulationService{
		provider:  provider,
		publisher: publisher,
		metrics:   m,
		defaults:  defaults,
	}
}

// Strategies 返回可用的模拟引擎名称
func (s *SimulationService) Strategies() []string {
	return domain.Strategies()
}

// RunSimulation 执行一次完整的模拟：获取历史行情、校准引擎、生成路径、
// 聚合组合并计算风险指标，完成后发布领域事件。
func (s *SimulationService) RunSimulation(ctx context.Context, req *SimulationRequest) (*SimulationResponse, error) {
	s.applyDefaults(req)

	start, end, err := s.parseRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	prices, err := s.provider.FetchDailyCloses(ctx, req.Tickers, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}

	weights, err := domain.NormalizeWeights(req.Tickers, req.Weights)
	if err != nil {
		return nil, err
	}

	gen, err := domain.NewGenerator(req.Strategy, prices, domain.Params{
		Seed:       req.Seed,
		JumpLambda: req.JumpLambda,
		JumpMu:     req.JumpMu,
		JumpSigma:  req.JumpSigma,
		Workers:    s.defaults.Workers,
	})
	if err != nil {
		return nil, err
	}

	runStart := time.Now()
	tensor, err := gen.Run(req.Simulations, req.Days)
	if err != nil {
		return nil, fmt.Errorf("simulation run failed: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SimulationsTotal.WithLabelValues(req.Strategy).Inc()
		s.metrics.SimulationDuration.Observe(time.Since(runStart).Seconds())
		s.metrics.PathsGenerated.Add(float64(req.Simulations))
	}

	values, err := domain.AggregatePortfolio(tensor, weights)
	if err != nil {
		return nil, err
	}
	riskMetrics, err := domain.ComputeRiskMetrics(values, req.Confidence)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "simulation completed",
		"strategy", req.Strategy,
		"simulations", req.Simulations,
		"days", req.Days,
		"var_95", riskMetrics.VaR95,
		"cvar_95", riskMetrics.CVaR95,
		"duration", time.Since(runStart))

	s.publishCompleted(ctx, req, weights, riskMetrics, nil)

	resp := &SimulationResponse{
		Strategy:    req.Strategy,
		Tickers:     req.Tickers,
		Weights:     weights,
		Simulations: req.Simulations,
		Days:        req.Days,
		Seed:        req.Seed,
		Metrics:     riskMetrics,
	}
	if req.WithPaths {
		resp.Paths = samplePaths(values, req.SamplePaths)
		resp.FinalReturns = finalReturns(values)
	}
	return resp, nil
}

// RunStressTest 对历史压力情景回放组合表现。请求未携带场景时
// 使用服务端配置的场景列表。
func (s *SimulationService) RunStressTest(ctx context.Context, req *StressRequest) (*StressResponse, error) {
	scenarios, err := s.resolveScenarios(req.Scenarios)
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: no stress scenarios configured", domain.ErrInvalidDateRange)
	}

	weights, err := domain.NormalizeWeights(req.Tickers, req.Weights)
	if err != nil {
		return nil, err
	}

	benchmarks := req.Benchmarks
	if len(benchmarks) == 0 {
		benchmarks = s.defaults.Benchmarks
	}
	tester, err := domain.NewStressTester(s.provider, req.Tickers, weights, benchmarks)
	if err != nil {
		return nil, err
	}
	results, skipped := tester.RunAll(ctx, scenarios)
	if s.metrics != nil && skipped > 0 {
		s.metrics.ScenariosSkipped.Add(float64(skipped))
	}

	return &StressResponse{Results: results, Skipped: skipped}, nil
}

// CompareStrategies 用同一份历史行情运行全部引擎并汇总指标，
// 单个引擎失败（如退化数据无法做 Cholesky）不影响其余引擎。
func (s *SimulationService) CompareStrategies(ctx context.Context, req *SimulationRequest) (*ComparisonResponse, error) {
	s.applyDefaults(req)

	start, end, err := s.parseRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	prices, err := s.provider.FetchDailyCloses(ctx, req.Tickers, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	weights, err := domain.NormalizeWeights(req.Tickers, req.Weights)
	if err != nil {
		return nil, err
	}

	out := &ComparisonResponse{
		Tickers: req.Tickers,
		Metrics: make(map[string]*domain.RiskMetrics, len(domain.Strategies())),
	}
	for _, strategy := range domain.Strategies() {
		gen, err := domain.NewGenerator(strategy, prices, domain.Params{
			Seed:       req.Seed,
			JumpLambda: req.JumpLambda,
			JumpMu:     req.JumpMu,
			JumpSigma:  req.JumpSigma,
			Workers:    s.defaults.Workers,
		})
		if err != nil {
			logger.Warn(ctx, "strategy excluded from comparison", "strategy", strategy, "error", err)
			continue
		}
		tensor, err := gen.Run(req.Simulations, req.Days)
		if err != nil {
			logger.Warn(ctx, "strategy excluded from comparison", "strategy", strategy, "error", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.SimulationsTotal.WithLabelValues(strategy).Inc()
			s.metrics.PathsGenerated.Add(float64(req.Simulations))
		}
		values, err := domain.AggregatePortfolio(tensor, weights)
		if err != nil {
			return nil, err
		}
		m, err := domain.ComputeRiskMetrics(values, req.Confidence)
		if err != nil {
			logger.Warn(ctx, "strategy excluded from comparison", "strategy", strategy, "error", err)
			continue
		}
		out.Metrics[strategy] = m
	}
	return out, nil
}

// publishCompleted 发布模拟完成事件。发布失败只告警，不影响主流程。
func (s *SimulationService) publishCompleted(ctx context.Context, req *SimulationRequest, weights []float64, m *domain.RiskMetrics, stress []domain.StressResult) {
	if s.publisher == nil {
		return
	}
	event := &domain.SimulationCompletedEvent{
		Strategy:    req.Strategy,
		Tickers:     req.Tickers,
		Weights:     weights,
		Simulations: req.Simulations,
		HorizonDays: req.Days,
		Seed:        req.Seed,
		Metrics:     m,
		StressRuns:  stress,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishSimulationCompleted(ctx, event); err != nil {
		logger.Warn(ctx, "failed to publish simulation event", "error", err)
	}
}

func (s *SimulationService) applyDefaults(req *SimulationRequest) {
	if req.Strategy == "" {
		req.Strategy = s.defaults.Strategy
	}
	if req.Simulations <= 0 {
		req.Simulations = s.defaults.Simulations
	}
	if req.Days <= 0 {
		req.Days = s.defaults.Days
	}
	if req.Confidence <= 0 {
		req.Confidence = s.defaults.Confidence
	}
	if req.Seed == 0 {
		req.Seed = s.defaults.Seed
	}
	if req.JumpLambda == 0 {
		req.JumpLambda = s.defaults.JumpLambda
	}
	if req.JumpMu == 0 {
		req.JumpMu = s.defaults.JumpMu
	}
	if req.JumpSigma == 0 {
		req.JumpSigma = s.defaults.JumpSigma
	}
	if req.SamplePaths <= 0 {
		req.SamplePaths = defaultSamplePaths
	}
}

func (s *SimulationService) parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	format := s.defaults.DateFormat
	if format == "" {
		format = "2006-01-02"
	}
	start, err := time.Parse(format, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start date %q", domain.ErrInvalidDateRange, startStr)
	}
	end, err := time.Parse(format, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end date %q", domain.ErrInvalidDateRange, endStr)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s is not after start %s", domain.ErrInvalidDateRange, endStr, startStr)
	}
	if end.After(time.Now()) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s is in the future", domain.ErrInvalidDateRange, endStr)
	}
	return start, end, nil
}

func (s *SimulationService) resolveScenarios(reqs []ScenarioRequest) ([]domain.StressScenario, error) {
	if len(reqs) == 0 {
		return s.defaults.Scenarios, nil
	}
	format := s.defaults.DateFormat
	if format == "" {
		format = "2006-01-02"
	}
	scenarios := make([]domain.StressScenario, 0, len(reqs))
	for _, r := range reqs {
		start, err := time.Parse(format, r.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: scenario %q start %q", domain.ErrInvalidDateRange, r.Name, r.Start)
		}
		end, err := time.Parse(format, r.End)
		if err != nil {
			return nil, fmt.Errorf("%w: scenario %q end %q", domain.ErrInvalidDateRange, r.Name, r.End)
		}
		scenarios = append(scenarios, domain.StressScenario{Name: r.Name, Start: start, End: end})
	}
	return scenarios, nil
}

// samplePaths 抽取前 n 条组合价值路径用于展示
func samplePaths(values [][]float64, n int) [][]float64 {
	if n > len(values) {
		n = len(values)
	}
	return values[:n]
}

// finalReturns 提取每条路径的期末收益
func finalReturns(values [][]float64) []float64 {
	out := make([]float64, len(values))
	for i, path := range values {
		out[i] = path[len(path)-1] - 1
	}
	return out
}
