package publisher

import (
	"context"
	"sync"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
)

// MockEventPublisher 内存事件发布器，用于本地运行与测试，
// 记录全部发布的事件供断言。
type MockEventPublisher struct {
	mu      sync.Mutex
	events  []*domain.SimulationCompletedEvent
	reports []*domain.ReportGeneratedEvent
}

// NewMockEventPublisher 创建内存事件发布器
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// PublishSimulationCompleted 记录事件
func (p *MockEventPublisher) PublishSimulationCompleted(_ context.Context, event *domain.SimulationCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// PublishReportGenerated 记录事件
func (p *MockEventPublisher) PublishReportGenerated(_ context.Context, event *domain.ReportGeneratedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, event)
	return nil
}

// Events 返回已记录事件的副本
func (p *MockEventPublisher) Events() []*domain.SimulationCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.SimulationCompletedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Reports 返回已记录的报告事件副本
func (p *MockEventPublisher) Reports() []*domain.ReportGeneratedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.ReportGeneratedEvent, len(p.reports))
	copy(out, p.reports)
	return out
}

// Close 实现 EventPublisher 接口
func (p *MockEventPublisher) Close() error { return nil }
