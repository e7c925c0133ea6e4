package domain

import (
	"fmt"
	"math"
)

// ReturnStatistics 由历史收益率矩阵推导出的单资产统计量与协方差矩阵。
// 协方差使用样本协方差（n-1 分母）。
type ReturnStatistics struct {
	Mean   []float64
	StdDev []float64
	Cov    [][]float64
}

// ComputeReturnStatistics 从收益率矩阵（行=天，列=资产）计算均值向量、
// 波动率向量与协方差矩阵。至少需要两行，否则样本协方差无定义。
func ComputeReturnStatistics(returns [][]float64) (*ReturnStatistics, error) {
	n := len(returns)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return observations, got %d", ErrInsufficientData, n)
	}
	assets := len(returns[0])
	if assets == 0 {
		return nil, fmt.Errorf("%w: no assets in return matrix", ErrInsufficientData)
	}

	mean := make([]float64, assets)
	for _, row := range returns {
		for a, r := range row {
			mean[a] += r
		}
	}
	for a := range mean {
		mean[a] /= float64(n)
	}

	cov := make([][]float64, assets)
	for i := range cov {
		cov[i] = make([]float64, assets)
	}
	for _, row := range returns {
		for i := 0; i < assets; i++ {
			di := row[i] - mean[i]
			for j := i; j < assets; j++ {
				cov[i][j] += di * (row[j] - mean[j])
			}
		}
	}
	for i := 0; i < assets; i++ {
		for j := i; j < assets; j++ {
			cov[i][j] /= float64(n - 1)
			cov[j][i] = cov[i][j]
		}
	}

	std := make([]float64, assets)
	for a := range std {
		std[a] = math.Sqrt(cov[a][a])
	}

	return &ReturnStatistics{Mean: mean, StdDev: std, Cov: cov}, nil
}

// CheckNonDegenerate 拒绝零方差资产。协方差矩阵含零对角元时无法进行
// Cholesky 分解，需要相关冲击的引擎必须先调用本方法。
func (s *ReturnStatistics) CheckNonDegenerate() error {
	for a, v := range s.Cov {
		if v[a] <= 0 || math.IsNaN(v[a]) {
			return fmt.Errorf("%w (asset index %d)", ErrDegenerateData, a)
		}
	}
	return nil
}
