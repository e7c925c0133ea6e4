package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// 风险指标的绝对值上限，超出视为计算错误而非极端行情
const metricBound = 100.0

// RiskMetrics 经过校验的风险指标值对象。所有字段为小数收益率
// （-0.05 即 -5%）。只能通过 NewRiskMetrics 构造，保证不变量成立。
type RiskMetrics struct {
	VaR95        float64 `json:"var_95"`
	CVaR95       float64 `json:"cvar_95"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Volatility   float64 `json:"volatility"`
	MeanReturn   float64 `json:"mean_return"`
	MedianReturn float64 `json:"median_return"`
	Confidence   float64 `json:"confidence"`
	Simulations  int     `json:"simulations"`
	HorizonDays  int     `json:"horizon_days"`
}

// NewRiskMetrics 构造并校验风险指标：
//   - CVaR 不得优于 VaR（尾部均值不可能高于分位点）
//   - 最大回撤非正
//   - 波动率为正
//   - 全部取值有限且绝对值不超过上限
func NewRiskMetrics(m RiskMetrics) (*RiskMetrics, error) {
	for name, v := range map[string]float64{
		"var_95":        m.VaR95,
		"cvar_95":       m.CVaR95,
		"max_drawdown":  m.MaxDrawdown,
		"volatility":    m.Volatility,
		"mean_return":   m.MeanReturn,
		"median_return": m.MedianReturn,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > metricBound {
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidMetrics, name, v)
		}
	}
	if m.CVaR95 > m.VaR95 {
		return nil, fmt.Errorf("%w: cvar_95 (%v) exceeds var_95 (%v)", ErrInvalidMetrics, m.CVaR95, m.VaR95)
	}
	if m.MaxDrawdown > 0 {
		return nil, fmt.Errorf("%w: max_drawdown must be <= 0, got %v", ErrInvalidMetrics, m.MaxDrawdown)
	}
	if m.Volatility <= 0 {
		return nil, fmt.Errorf("%w: volatility must be positive, got %v", ErrInvalidMetrics, m.Volatility)
	}
	return &m, nil
}

// ComputeRiskMetrics 从组合价值矩阵 [路径][天] 计算风险指标。
// confidence 为置信水平（如 0.95），VaR 取期末收益分布的 (1-confidence) 分位点。
func ComputeRiskMetrics(values [][]float64, confidence float64) (*RiskMetrics, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, fmt.Errorf("%w: empty portfolio value matrix", ErrInsufficientData)
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence must be in (0, 1), got %v", confidence)
	}

	days := len(values[0])
	finals := make([]float64, len(values))
	for s, path := range values {
		if len(path) != days {
			return nil, fmt.Errorf("%w: ragged value matrix at path %d", ErrInsufficientData, s)
		}
		finals[s] = path[days-1] - 1
	}

	varLevel := Percentile(finals, (1-confidence)*100)
	cvar := tailMean(finals, varLevel)

	mean, err := stats.Mean(stats.Float64Data(finals))
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean return: %w", err)
	}
	median, err := stats.Median(stats.Float64Data(finals))
	if err != nil {
		return nil, fmt.Errorf("failed to compute median return: %w", err)
	}
	// 总体标准差，分母 n
	vol, err := stats.StdDevP(stats.Float64Data(finals))
	if err != nil {
		return nil, fmt.Errorf("failed to compute volatility: %w", err)
	}

	return NewRiskMetrics(RiskMetrics{
		VaR95:        varLevel,
		CVaR95:       cvar,
		MaxDrawdown:  MaxDrawdown(values),
		Volatility:   vol,
		MeanReturn:   mean,
		MedianReturn: median,
		Confidence:   confidence,
		Simulations:  len(values),
		HorizonDays:  days,
	})
}

// MaxDrawdown 返回全部路径上最深的峰值回撤（非正数）。
// 逐路径跟踪运行峰值，对 (路径, 天) 全局取最小。
func MaxDrawdown(values [][]float64) float64 {
	worst := 0.0
	for _, path := range values {
		peak := math.Inf(-1)
		for _, v := range path {
			if v > peak {
				peak = v
			}
			dd := v/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// Percentile 线性插值分位数：排序后取秩 q/100·(n-1)，
// 在相邻样本间插值。单样本直接返回该样本，空输入返回 NaN。
func Percentile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// tailMean 返回不超过阈值的样本均值；尾部为空时退化为阈值本身，
// 保持 CVaR <= VaR 恒成立。
func tailMean(data []float64, threshold float64) float64 {
	sum, n := 0.0, 0
	for _, v := range data {
		if v <= threshold {
			sum += v
			n++
		}
	}
	if n == 0 {
		return threshold
	}
	return sum / float64(n)
}
