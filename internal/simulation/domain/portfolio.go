package domain

import (
	"fmt"
	"math"

	"github.com/wyfcoding/portfoliorisk/pkg/logger"
)

// 权重和允许的偏差，超出则重新归一化
const weightSumTolerance = 1e-6

// NormalizeWeights 校验并归一化组合权重。权重数量必须与资产数量一致，
// 且每个权重非负、总和为正；总和偏离 1 时告警并按比例缩放，不视为错误。
func NormalizeWeights(tickers []string, weights []float64) ([]float64, error) {
	if len(weights) != len(tickers) {
		return nil, fmt.Errorf("%w: %d weights for %d assets", ErrWeightMismatch, len(weights), len(tickers))
	}

	sum := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %v for %s", ErrWeightMismatch, w, tickers[i])
		}
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrWeightMismatch, sum)
	}

	normalized := make([]float64, len(weights))
	if math.Abs(sum-1) > weightSumTolerance {
		logger.Get().Warn("portfolio weights do not sum to 1, renormalizing",
			"sum", sum, "assets", len(tickers))
	}
	for i, w := range weights {
		normalized[i] = w / sum
	}
	return normalized, nil
}

// PortfolioValueCurve 按历史行情计算组合价值曲线：逐日加权简单收益累乘，
// 首日价值为 1.0。权重应与矩阵资产对齐且已归一化。
func PortfolioValueCurve(prices *PriceMatrix, weights []float64) ([]float64, error) {
	if len(weights) != prices.NumAssets() {
		return nil, fmt.Errorf("%w: %d weights for %d assets", ErrWeightMismatch, len(weights), prices.NumAssets())
	}

	returns := prices.PctReturns()
	curve := make([]float64, 0, len(returns)+1)
	curve = append(curve, 1.0)
	value := 1.0
	for _, row := range returns {
		r := 0.0
		for a, w := range weights {
			r += w * row[a]
		}
		value *= 1 + r
		curve = append(curve, value)
	}
	return curve, nil
}

// AggregatePortfolio 将资产增长因子张量按权重聚合为组合价值矩阵
// [路径][天]，起始价值为 1.0。权重应已归一化。
func AggregatePortfolio(tensor *SimulationTensor, weights []float64) ([][]float64, error) {
	if len(weights) != tensor.Assets {
		return nil, fmt.Errorf("%w: %d weights for %d assets in tensor", ErrWeightMismatch, len(weights), tensor.Assets)
	}

	values := make([][]float64, tensor.Simulations)
	for s := range tensor.Data {
		row := make([]float64, tensor.Days)
		for d := range tensor.Data[s] {
			v := 0.0
			for a, w := range weights {
				v += w * tensor.Data[s][d][a]
			}
			row[d] = v
		}
		values[s] = row
	}
	return values, nil
}
