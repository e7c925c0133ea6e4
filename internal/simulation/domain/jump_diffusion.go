package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// 年化跳跃强度按交易日折算
const tradingDaysPerYear = 252

// JumpDiffusionGenerator 默顿跳跃扩散引擎。漂移与波动率估计同蒙特卡洛，
// 但各资产冲击相互独立（无 Cholesky），叠加复合泊松跳跃捕捉尾部风险。
type JumpDiffusionGenerator struct {
	prices *PriceMatrix
	params Params
}

// NewJumpDiffusionGenerator 创建跳跃扩散引擎
func NewJumpDiffusionGenerator(prices *PriceMatrix, params Params) (PathGenerator, error) {
	if prices == nil || prices.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: jump diffusion requires a non-empty price window", ErrInsufficientData)
	}
	if params.JumpLambda < 0 {
		return nil, fmt.Errorf("jump lambda must be non-negative, got %v", params.JumpLambda)
	}
	return &JumpDiffusionGenerator{prices: prices, params: params}, nil
}

// Run 生成 (nSimulations, days, nAssets) 的增长因子张量
func (g *JumpDiffusionGenerator) Run(nSimulations, days int) (*SimulationTensor, error) {
	if err := validateRun(g.prices, nSimulations, days); err != nil {
		return nil, err
	}

	stats, err := ComputeReturnStatistics(g.prices.LogReturns())
	if err != nil {
		return nil, err
	}

	assets := g.prices.NumAssets()
	dailyLambda := g.params.JumpLambda / tradingDaysPerYear
	tensor := NewSimulationTensor(nSimulations, days, assets)

	runPaths(nSimulations, g.params.Workers, func(pathIdx int) {
		rng := pathRNG(g.params.Seed, pathIdx)
		cum := make([]float64, assets)
		for a := range cum {
			cum[a] = 1.0
		}

		for d := 0; d < days; d++ {
			for a := 0; a < assets; a++ {
				sigma := stats.StdDev[a]
				// GBM 部分: (μ - σ²/2) + σ·z
				base := (stats.Mean[a] - 0.5*sigma*sigma) + sigma*rng.NormFloat64()

				// 泊松跳跃部分: 次数 × N(jumpMu, jumpSigma)
				jumps := poisson(rng, dailyLambda)
				jumpShock := g.params.JumpMu + g.params.JumpSigma*rng.NormFloat64()

				cum[a] *= math.Exp(base + float64(jumps)*jumpShock)
				tensor.Data[pathIdx][d][a] = cum[a]
			}
		}
	})

	return tensor, nil
}

// poisson 按 Knuth 逆变换抽样泊松计数。日强度 λ/252 极小，
// 期望迭代次数接近 1，无需更复杂的抽样器。
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
