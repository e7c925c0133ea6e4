// HTTP 服务入口：暴露模拟与压力测试 REST 接口
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/application"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/infrastructure/client"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/infrastructure/publisher"
	simhttp "github.com/wyfcoding/portfoliorisk/internal/simulation/interfaces/http"
	"github.com/wyfcoding/portfoliorisk/pkg/config"
	"github.com/wyfcoding/portfoliorisk/pkg/logger"
	"github.com/wyfcoding/portfoliorisk/pkg/metrics"
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

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "failed to register metrics", "error", err)
		}
		metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	yahoo, err := client.NewYahooClient(cfg.MarketData.BaseURL,
		time.Duration(cfg.MarketData.Timeout)*time.Second,
		time.Duration(cfg.MarketData.CacheTTL)*time.Second, m)
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
	svc := application.NewSimulationService(yahoo, pub, m, defaults)
	handler := simhttp.NewSimulationHandler(svc)

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if m != nil {
		r.Use(func(c *gin.Context) {
			start := time.Now()
			c.Next()
			m.HTTPRequestsTotal.Inc()
			m.HTTPRequestDuration.Observe(time.Since(start).Seconds())
		})
	}

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "READY"}) })
	}
	pp := r.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}
	handler.RegisterRoutes(&r.RouterGroup)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(gctx, "shutting down server...")
		case <-gctx.Done():
			logger.Info(gctx, "context cancelled, shutting down...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
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
