// Package metrics 提供 Prometheus helper，包含模拟引擎的 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/portfoliorisk/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// 模拟运行计数
	SimulationsTotal *prometheus.CounterVec
	// 单次模拟耗时
	SimulationDuration prometheus.Histogram
	// 已生成路径总数
	PathsGenerated prometheus.Counter
	// 行情请求计数
	FetchRequestsTotal prometheus.Counter
	// 行情请求耗时
	FetchDuration prometheus.Histogram
	// 被跳过的压力测试场景数
	ScenariosSkipped prometheus.Counter
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "simulations_total",
			Help:      "Total simulations run, by strategy",
		}, []string{"strategy"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "simulation_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PathsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "paths_generated_total",
			Help:      "Total simulated paths generated",
		}),
		FetchRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "fetch_requests_total",
			Help:      "Total market data fetch requests",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "fetch_duration_seconds",
			Help:      "Market data fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ScenariosSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "stress_scenarios_skipped_total",
			Help:      "Stress scenarios skipped due to missing data",
		}),
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.SimulationsTotal,
		m.SimulationDuration,
		m.PathsGenerated,
		m.FetchRequestsTotal,
		m.FetchDuration,
		m.ScenariosSkipped,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()
}
