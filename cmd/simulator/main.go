// 批处理入口：按配置运行一次完整的模拟、压力测试与报告生成
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wyfcoding/portfoliorisk/internal/report"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/application"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/infrastructure/client"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/infrastructure/publisher"
	"github.com/wyfcoding/portfoliorisk/pkg/config"
	"github.com/wyfcoding/portfoliorisk/pkg/logger"
	"github.com/wyfcoding/portfoliorisk/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	yahoo, err := client.NewYahooClient(cfg.MarketData.BaseURL,
		time.Duration(cfg.MarketData.Timeout)*time.Second,
		time.Duration(cfg.MarketData.CacheTTL)*time.Second, nil)
	if err != nil {
		logger.Fatal(ctx, "failed to init market data client", "error", err)
	}
	defer yahoo.Close()

	var pub domain.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPub, err := publisher.NewKafkaEventPublisher(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		}, cfg.Kafka.Topic)
		if err != nil {
			logger.Fatal(ctx, "failed to init kafka publisher", "error", err)
		}
		pub = kafkaPub
	} else {
		pub = publisher.NewMockEventPublisher()
	}
	defer pub.Close()

	defaults, err := buildDefaults(cfg)
	if err != nil {
		logger.Fatal(ctx, "invalid configuration", "error", err)
	}
	svc := application.NewSimulationService(yahoo, pub, nil, defaults)

	if err := run(ctx, cfg, svc, yahoo, pub); err != nil {
		logger.Fatal(ctx, "simulation pipeline failed", "error", err)
	}
}

// run 执行完整流水线：模拟、压力测试、图表与 PDF 报告
func run(ctx context.Context, cfg *config.Config, svc *application.SimulationService, provider domain.MarketDataProvider, pub domain.EventPublisher) error {
	simResp, err := svc.RunSimulation(ctx, &application.SimulationRequest{
		Tickers:   cfg.Portfolio.Stocks,
		Weights:   cfg.Portfolio.Weights,
		Start:     cfg.Dates.Start,
		End:       cfg.Dates.End,
		WithPaths: true,
	})
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	stressResp, err := svc.RunStressTest(ctx, &application.StressRequest{
		Tickers: cfg.Portfolio.Stocks,
		Weights: cfg.Portfolio.Weights,
	})
	if err != nil {
		logger.Warn(ctx, "stress testing skipped", "error", err)
		stressResp = &application.StressResponse{}
	}

	comparison, err := svc.CompareStrategies(ctx, &application.SimulationRequest{
		Tickers: cfg.Portfolio.Stocks,
		Weights: cfg.Portfolio.Weights,
		Start:   cfg.Dates.Start,
		End:     cfg.Dates.End,
	})
	if err != nil {
		logger.Warn(ctx, "engine comparison skipped", "error", err)
		comparison = &application.ComparisonResponse{}
	}

	if err := os.MkdirAll(cfg.Output.ExportDir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	pathsChart := renderChart(ctx, cfg.Output.ExportDir, cfg.Output.SimulationPathsChart, func() ([]byte, error) {
		return report.SimulationPathsChart("Simulated Portfolio Paths", simResp.Paths, len(simResp.Paths))
	})
	distChart := renderChart(ctx, cfg.Output.ExportDir, cfg.Output.ReturnDistributionChart, func() ([]byte, error) {
		return report.ReturnDistributionChart("Final Return Distribution", simResp.FinalReturns, simResp.Metrics.VaR95)
	})

	var stressChart []byte
	if len(stressResp.Results) > 0 {
		stressChart = renderChart(ctx, cfg.Output.ExportDir, cfg.Output.StressTestChart, func() ([]byte, error) {
			return report.StressTestChart("Stress Scenarios", stressResp.Results)
		})
	}

	benchChart := renderBenchmarkChart(ctx, cfg, provider, simResp.Weights)
	if benchChart != nil {
		writeFile(ctx, filepath.Join(cfg.Output.ExportDir, cfg.Output.BenchmarkChart), benchChart)
	}

	reportPath := filepath.Join(cfg.Output.ExportDir, cfg.Output.ReportFile)
	if err := report.WritePDF(&report.ReportData{
		Title:             "Portfolio Risk Report",
		Strategy:          simResp.Strategy,
		Tickers:           simResp.Tickers,
		Weights:           simResp.Weights,
		Simulations:       simResp.Simulations,
		HorizonDays:       simResp.Days,
		Metrics:           simResp.Metrics,
		Stress:            stressResp.Results,
		Comparison:        comparison.Metrics,
		PathsChart:        pathsChart,
		DistributionChart: distChart,
		StressChart:       stressChart,
		BenchmarkChart:    benchChart,
		GeneratedAt:       time.Now().UTC(),
	}, reportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	charts := make([]string, 0, 4)
	for _, c := range []struct {
		name string
		png  []byte
	}{
		{cfg.Output.SimulationPathsChart, pathsChart},
		{cfg.Output.ReturnDistributionChart, distChart},
		{cfg.Output.StressTestChart, stressChart},
		{cfg.Output.BenchmarkChart, benchChart},
	} {
		if len(c.png) > 0 {
			charts = append(charts, c.name)
		}
	}
	if err := pub.PublishReportGenerated(ctx, &domain.ReportGeneratedEvent{
		ReportPath:  reportPath,
		Strategy:    simResp.Strategy,
		Tickers:     simResp.Tickers,
		Charts:      charts,
		GeneratedAt: time.Now().UTC(),
	}); err != nil {
		logger.Warn(ctx, "failed to publish report event", "error", err)
	}

	logger.Info(ctx, "pipeline completed",
		"report", reportPath,
		"var_95", simResp.Metrics.VaR95,
		"cvar_95", simResp.Metrics.CVaR95,
		"scenarios", len(stressResp.Results),
		"skipped", stressResp.Skipped)
	return nil
}

// renderBenchmarkChart 渲染组合与基准指数的历史表现对比，
// 失败时仅告警，报告中省略该章节。
func renderBenchmarkChart(ctx context.Context, cfg *config.Config, provider domain.MarketDataProvider, weights []float64) []byte {
	if len(cfg.Portfolio.Benchmarks) == 0 {
		return nil
	}

	start, _ := time.Parse(cfg.Dates.Format, cfg.Dates.Start)
	end, _ := time.Parse(cfg.Dates.Format, cfg.Dates.End)

	all := append(append([]string{}, cfg.Portfolio.Stocks...), cfg.Portfolio.Benchmarks...)
	prices, err := provider.FetchDailyCloses(ctx, all, start, end)
	if err != nil {
		logger.Warn(ctx, "benchmark chart skipped", "error", err)
		return nil
	}

	stocks, err := prices.Select(cfg.Portfolio.Stocks)
	if err != nil {
		logger.Warn(ctx, "benchmark chart skipped", "error", err)
		return nil
	}
	curve, err := domain.PortfolioValueCurve(stocks, weights)
	if err != nil {
		logger.Warn(ctx, "benchmark chart skipped", "error", err)
		return nil
	}

	names := []string{"Portfolio"}
	series := [][]float64{curve}
	for _, bench := range cfg.Portfolio.Benchmarks {
		sub, err := prices.Select([]string{bench})
		if err != nil {
			continue
		}
		col := make([]float64, sub.NumRows())
		for r := range col {
			col[r] = sub.Prices[r][0]
		}
		names = append(names, bench)
		series = append(series, col)
	}

	labels := make([]string, len(prices.Dates))
	for i, d := range prices.Dates {
		labels[i] = d.Format("2006-01-02")
	}
	png, err := report.BenchmarkChart("Portfolio vs Benchmarks", labels, names, series)
	if err != nil {
		logger.Warn(ctx, "benchmark chart skipped", "error", err)
		return nil
	}
	return png
}

func renderChart(ctx context.Context, dir, filename string, render func() ([]byte, error)) []byte {
	png, err := render()
	if err != nil {
		logger.Warn(ctx, "chart rendering failed", "chart", filename, "error", err)
		return nil
	}
	writeFile(ctx, filepath.Join(dir, filename), png)
	return png
}

func writeFile(ctx context.Context, path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn(ctx, "failed to write file", "path", path, "error", err)
	}
}

// buildDefaults 将配置转换为应用层默认参数
func buildDefaults(cfg *config.Config) (application.Defaults, error) {
	scenarios := make([]domain.StressScenario, 0, len(cfg.Stress))
	for _, s := range cfg.Stress {
		start, err := time.Parse(cfg.Dates.Format, s.Start)
		if err != nil {
			return application.Defaults{}, fmt.Errorf("scenario %q start %q: %w", s.Name, s.Start, err)
		}
		end, err := time.Parse(cfg.Dates.Format, s.End)
		if err != nil {
			return application.Defaults{}, fmt.Errorf("scenario %q end %q: %w", s.Name, s.End, err)
		}
		scenarios = append(scenarios, domain.StressScenario{Name: s.Name, Start: start, End: end})
	}

	return application.Defaults{
		Strategy:    cfg.Simulation.Type,
		Simulations: cfg.Simulation.NSimulations,
		Days:        cfg.Simulation.DaysAhead,
		Confidence:  cfg.Simulation.ConfidenceLevel,
		Seed:        cfg.Simulation.Seed,
		JumpLambda:  cfg.Simulation.JumpLambda,
		JumpMu:      cfg.Simulation.JumpMu,
		JumpSigma:   cfg.Simulation.JumpSigma,
		Workers:     cfg.Simulation.Workers,
		DateFormat:  cfg.Dates.Format,
		Scenarios:   scenarios,
		Benchmarks:  cfg.Portfolio.Benchmarks,
	}, nil
}
