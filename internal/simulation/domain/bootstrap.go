package domain

import "fmt"

// BootstrapGenerator 历史重抽样引擎。对已实现的单日收益率行
// 做有放回均匀抽样，不附加任何分布假设，保留经验分布的厚尾与偏度。
type BootstrapGenerator struct {
	prices *PriceMatrix
	params Params
}

// NewBootstrapGenerator 创建历史重抽样引擎
func NewBootstrapGenerator(prices *PriceMatrix, params Params) (PathGenerator, error) {
	if prices == nil || prices.NumAssets() == 0 {
		return nil, fmt.Errorf("%w: bootstrap requires a non-empty price window", ErrInsufficientData)
	}
	return &BootstrapGenerator{prices: prices, params: params}, nil
}

// Run 生成 (nSimulations, days, nAssets) 的增长因子张量
func (g *BootstrapGenerator) Run(nSimulations, days int) (*SimulationTensor, error) {
	if err := validateRun(g.prices, nSimulations, days); err != nil {
		return nil, err
	}

	returns := g.prices.PctReturns()
	assets := g.prices.NumAssets()
	tensor := NewSimulationTensor(nSimulations, days, assets)

	runPaths(nSimulations, g.params.Workers, func(pathIdx int) {
		rng := pathRNG(g.params.Seed, pathIdx)
		cum := make([]float64, assets)
		for a := range cum {
			cum[a] = 1.0
		}

		for d := 0; d < days; d++ {
			// 整行抽样，保留当日的跨资产相关结构
			row := returns[rng.IntN(len(returns))]
			for a := 0; a < assets; a++ {
				cum[a] *= 1 + row[a]
				tensor.Data[pathIdx][d][a] = cum[a]
			}
		}
	})

	return tensor, nil
}
