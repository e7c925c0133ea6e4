package domain

import (
	"fmt"
	"math"
)

// SimulationTensor 模拟结果张量：[路径][天][资产] 的累计增长因子，
// 第 0 天的前一日取 1.0。由生成它的引擎独占写入，聚合器只读消费。
type SimulationTensor struct {
	Simulations int
	Days        int
	Assets      int
	Data        [][][]float64
}

// NewSimulationTensor 预分配指定形状的张量
func NewSimulationTensor(simulations, days, assets int) *SimulationTensor {
	data := make([][][]float64, simulations)
	for s := range data {
		data[s] = make([][]float64, days)
		for d := range data[s] {
			data[s][d] = make([]float64, assets)
		}
	}
	return &SimulationTensor{
		Simulations: simulations,
		Days:        days,
		Assets:      assets,
		Data:        data,
	}
}

// Validate 检查张量中每个增长因子均为正的有限数
func (t *SimulationTensor) Validate() error {
	for s := range t.Data {
		for d := range t.Data[s] {
			for a, v := range t.Data[s][d] {
				if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("invalid growth factor %v at (sim=%d, day=%d, asset=%d)", v, s, d, a)
				}
			}
		}
	}
	return nil
}
