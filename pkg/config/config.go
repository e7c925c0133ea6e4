// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 模拟器配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// 投资组合配置
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	// 日期区间配置
	Dates DatesConfig `mapstructure:"dates"`
	// 模拟引擎配置
	Simulation SimulationConfig `mapstructure:"simulation"`
	// 压力测试场景配置
	Stress []StressScenarioConfig `mapstructure:"stress"`
	// 行情数据源配置
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 报告输出配置
	Output OutputConfig `mapstructure:"output"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// PortfolioConfig 投资组合配置
type PortfolioConfig struct {
	// 组合成分股代码
	Stocks []string `mapstructure:"stocks"`
	// 基准指数代码
	Benchmarks []string `mapstructure:"benchmarks"`
	// 成分股权重，与 stocks 一一对应
	Weights []float64 `mapstructure:"weights"`
}

// DatesConfig 日期区间配置
type DatesConfig struct {
	// 模拟校准窗口起始日期
	Start string `mapstructure:"start"`
	// 模拟校准窗口结束日期
	End string `mapstructure:"end"`
	// 日期格式
	Format string `mapstructure:"format"`
}

// SimulationConfig 模拟引擎配置
type SimulationConfig struct {
	// 引擎类型：monte_carlo, bootstrap, jump_diffusion
	Type string `mapstructure:"type"`
	// 模拟路径数
	NSimulations int `mapstructure:"n_simulations"`
	// 向前模拟天数
	DaysAhead int `mapstructure:"days_ahead"`
	// 随机数种子，相同种子产生相同路径
	Seed uint64 `mapstructure:"seed"`
	// VaR/CVaR 置信度
	ConfidenceLevel float64 `mapstructure:"confidence_level"`
	// 年化跳跃强度 (lambda)
	JumpLambda float64 `mapstructure:"jump_lambda"`
	// 跳跃幅度均值
	JumpMu float64 `mapstructure:"jump_mu"`
	// 跳跃幅度波动率
	JumpSigma float64 `mapstructure:"jump_sigma"`
	// 并行生成路径的 worker 数，0 表示 GOMAXPROCS
	Workers int `mapstructure:"workers"`
}

// StressScenarioConfig 压力测试场景配置
type StressScenarioConfig struct {
	// 场景名称
	Name string `mapstructure:"name"`
	// 场景起始日期
	Start string `mapstructure:"start"`
	// 场景结束日期
	End string `mapstructure:"end"`
}

// MarketDataConfig 行情数据源配置
type MarketDataConfig struct {
	// 行情 API 基础 URL
	BaseURL string `mapstructure:"base_url"`
	// 请求超时（秒）
	Timeout int `mapstructure:"timeout"`
	// 响应缓存有效期（秒）
	CacheTTL int `mapstructure:"cache_ttl"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 是否启用事件发布
	Enabled bool `mapstructure:"enabled"`
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// 报告事件主题
	Topic string `mapstructure:"topic"`
	// 最大重试次数
	MaxRetries int `mapstructure:"max_retries"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff"`
}

// OutputConfig 报告输出配置
type OutputConfig struct {
	// 导出目录
	ExportDir string `mapstructure:"export_dir"`
	// 模拟路径图文件名
	SimulationPathsChart string `mapstructure:"simulation_paths_chart"`
	// 收益分布图文件名
	ReturnDistributionChart string `mapstructure:"return_distribution_chart"`
	// 压力测试图文件名
	StressTestChart string `mapstructure:"stress_test_chart"`
	// 基准对比图文件名
	BenchmarkChart string `mapstructure:"benchmark_chart"`
	// PDF 报告文件名
	ReportFile string `mapstructure:"report_file"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host"`
	// 监听端口
	Port int `mapstructure:"port"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// Prometheus 监听端口
	Port int `mapstructure:"port"`
	// 指标路径
	Path string `mapstructure:"path"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if len(c.Portfolio.Stocks) == 0 {
		return fmt.Errorf("portfolio.stocks must not be empty")
	}
	if len(c.Portfolio.Weights) != len(c.Portfolio.Stocks) {
		return fmt.Errorf("portfolio.weights length %d does not match stocks length %d",
			len(c.Portfolio.Weights), len(c.Portfolio.Stocks))
	}
	if c.Simulation.NSimulations <= 0 {
		return fmt.Errorf("simulation.n_simulations must be positive")
	}
	if c.Simulation.DaysAhead <= 0 {
		return fmt.Errorf("simulation.days_ahead must be positive")
	}
	if c.Simulation.ConfidenceLevel <= 0 || c.Simulation.ConfidenceLevel >= 1 {
		return fmt.Errorf("simulation.confidence_level must be in (0, 1)")
	}
	if _, err := time.Parse(c.Dates.Format, c.Dates.Start); err != nil {
		return fmt.Errorf("invalid dates.start %q: %w", c.Dates.Start, err)
	}
	if _, err := time.Parse(c.Dates.Format, c.Dates.End); err != nil {
		return fmt.Errorf("invalid dates.end %q: %w", c.Dates.End, err)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("dates.format", "2006-01-02")

	v.SetDefault("simulation.type", "monte_carlo")
	v.SetDefault("simulation.n_simulations", 1000)
	v.SetDefault("simulation.days_ahead", 252)
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.confidence_level", 0.95)
	// 跳跃扩散默认参数：年均 0.1 次、均值 -5%、波动 10% 的负向尾部跳跃
	v.SetDefault("simulation.jump_lambda", 0.1)
	v.SetDefault("simulation.jump_mu", -0.05)
	v.SetDefault("simulation.jump_sigma", 0.1)
	v.SetDefault("simulation.workers", 0)

	v.SetDefault("marketdata.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("marketdata.timeout", 30)
	v.SetDefault("marketdata.cache_ttl", 300)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "risk.report.generated")
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("output.export_dir", "exports")
	v.SetDefault("output.simulation_paths_chart", "simulation_paths.png")
	v.SetDefault("output.return_distribution_chart", "return_distribution.png")
	v.SetDefault("output.stress_test_chart", "stress_test.png")
	v.SetDefault("output.benchmark_chart", "benchmark_comparison.png")
	v.SetDefault("output.report_file", "risk_report.pdf")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8087)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
