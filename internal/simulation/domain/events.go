package domain

import (
	"context"
	"time"
)

// SimulationCompletedEvent 模拟完成领域事件，发布到消息队列供下游消费
type SimulationCompletedEvent struct {
	Strategy    string         `json:"strategy"`
	Tickers     []string       `json:"tickers"`
	Weights     []float64      `json:"weights"`
	Simulations int            `json:"simulations"`
	HorizonDays int            `json:"horizon_days"`
	Seed        uint64         `json:"seed"`
	Metrics     *RiskMetrics   `json:"metrics"`
	StressRuns  []StressResult `json:"stress_runs,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// ReportGeneratedEvent 报告生成领域事件
type ReportGeneratedEvent struct {
	ReportPath  string    `json:"report_path"`
	Strategy    string    `json:"strategy"`
	Tickers     []string  `json:"tickers"`
	Charts      []string  `json:"charts,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// EventPublisher 领域事件发布端口，由基础设施层实现
type EventPublisher interface {
	PublishSimulationCompleted(ctx context.Context, event *SimulationCompletedEvent) error
	PublishReportGenerated(ctx context.Context, event *ReportGeneratedEvent) error
	Close() error
}
