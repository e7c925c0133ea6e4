package application

import (
	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
)

// SimulationRequest 运行一次模拟的请求参数。日期为 "2006-01-02" 格式。
type SimulationRequest struct {
	Tickers     []string  `json:"tickers" binding:"required,min=1"`
	Weights     []float64 `json:"weights" binding:"required,min=1"`
	Strategy    string    `json:"strategy"`
	Simulations int       `json:"simulations"`
	Days        int       `json:"days"`
	Confidence  float64   `json:"confidence"`
	Seed        uint64    `json:"seed"`
	Start       string    `json:"start" binding:"required"`
	End         string    `json:"end" binding:"required"`
	JumpLambda  float64   `json:"jump_lambda"`
	JumpMu      float64   `json:"jump_mu"`
	JumpSigma   float64   `json:"jump_sigma"`
	WithPaths   bool      `json:"with_paths"`
	SamplePaths int       `json:"sample_paths"`
}

// SimulationResponse 模拟结果
type SimulationResponse struct {
	Strategy    string              `json:"strategy"`
	Tickers     []string            `json:"tickers"`
	Weights     []float64           `json:"weights"`
	Simulations int                 `json:"simulations"`
	Days        int                 `json:"days"`
	Seed        uint64              `json:"seed"`
	Metrics     *domain.RiskMetrics `json:"metrics"`
	// 组合价值路径抽样（仅 WithPaths 为 true 时返回）
	Paths [][]float64 `json:"paths,omitempty"`
	// 期末收益分布（每条路径一个值）
	FinalReturns []float64 `json:"final_returns,omitempty"`
}

// StressRequest 压力测试请求。Scenarios 与 Benchmarks 为空时
// 使用服务端配置的值。
type StressRequest struct {
	Tickers    []string          `json:"tickers" binding:"required,min=1"`
	Weights    []float64         `json:"weights" binding:"required,min=1"`
	Benchmarks []string          `json:"benchmarks"`
	Scenarios  []ScenarioRequest `json:"scenarios"`
}

// ScenarioRequest 单个压力场景
type ScenarioRequest struct {
	Name  string `json:"name" binding:"required"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// StressResponse 压力测试结果
type StressResponse struct {
	Results []domain.StressResult `json:"results"`
	Skipped int                   `json:"skipped"`
}

// ComparisonResponse 多引擎对比结果，键为引擎名称
type ComparisonResponse struct {
	Tickers []string                       `json:"tickers"`
	Metrics map[string]*domain.RiskMetrics `json:"metrics"`
}
