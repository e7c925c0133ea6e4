package domain

import (
	"fmt"
	"math"

	algorithm "github.com/wyfcoding/pkg/algorithm"
)

// MonteCarloGenerator 相关几何布朗运动引擎。
// 对数收益率校准出 μ 与 Σ，Σ = L·Lᵗ (Cholesky)，
// 逐日用 L·z 生成相关冲击后累乘 exp(μ + 冲击)。
type MonteCarloGenerator struct {
	prices *PriceMatrix
	params Params
}

// NewMonteCarloGenerator 创建蒙特卡洛引擎
func NewMonteCarloGenerator(prices *PriceMatrix, params Params) (PathGenerator, error) {
	if prices == nil || prices.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: monte carlo requires a non-empty price window", ErrInsufficientData)
	}
	return &MonteCarloGenerator{prices: prices, params: params}, nil
}

// Run 生成 (nSimulations, days, nAssets) 的增长因子张量
func (g *MonteCarloGenerator) Run(nSimulations, days int) (*SimulationTensor, error) {
	if err := validateRun(g.prices, nSimulations, days); err != nil {
		return nil, err
	}

	stats, err := ComputeReturnStatistics(g.prices.LogReturns())
	if err != nil {
		return nil, err
	}
	// 零方差资产不允许静默降级为单位协方差，直接拒绝
	if err := stats.CheckNonDegenerate(); err != nil {
		return nil, err
	}

	covMatrix, err := algorithm.NewMatrixFromData(stats.Cov)
	if err != nil {
		return nil, fmt.Errorf("failed to build covariance matrix: %w", err)
	}
	chol, err := covMatrix.Cholesky()
	if err != nil {
		// 历史不足或重复资产会导致非正定，属于配置/数据错误
		return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
	}

	assets := g.prices.NumAssets()
	tensor := NewSimulationTensor(nSimulations, days, assets)

	runPaths(nSimulations, g.params.Workers, func(pathIdx int) {
		rng := pathRNG(g.params.Seed, pathIdx)
		cum := make([]float64, assets)
		for a := range cum {
			cum[a] = 1.0
		}
		z := make([]float64, assets)

		for d := 0; d < days; d++ {
			for a := range z {
				z[a] = rng.NormFloat64()
			}
			// 相关冲击 x = L·z，已经携带了 σ 的尺度
			correlated, _ := chol.MultiplyVector(z)
			for a := 0; a < assets; a++ {
				cum[a] *= math.Exp(stats.Mean[a] + correlated[a])
				tensor.Data[pathIdx][d][a] = cum[a]
			}
		}
	})

	return tensor, nil
}
