package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentileLinearInterpolation(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		q    float64
		want float64
	}{
		{"median of four", []float64{1, 2, 3, 4}, 50, 2.5},
		{"lower quartile", []float64{1, 2, 3, 4}, 25, 1.75},
		{"fifth percentile", []float64{-0.10, -0.05, 0, 0.05, 0.10}, 5, -0.09},
		{"exact rank", []float64{10, 20, 30}, 50, 20},
		{"single sample", []float64{7}, 5, 7},
		{"unsorted input", []float64{4, 1, 3, 2}, 25, 1.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, Percentile(tt.data, tt.q), 1e-12)
		})
	}

	require.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestTailMean(t *testing.T) {
	data := []float64{-0.10, -0.05, 0, 0.05}
	require.InDelta(t, -0.075, tailMean(data, -0.05), 1e-12)
	// 尾部为空时退化为阈值
	require.InDelta(t, -0.5, tailMean(data, -0.5), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values [][]float64
		want   float64
	}{
		{"single path", [][]float64{{1.0, 1.2, 0.9, 1.1}}, -0.25},
		{"monotonic up", [][]float64{{1.0, 1.1, 1.2}}, 0},
		{"worst across paths", [][]float64{
			{1.0, 0.95},
			{1.0, 1.5, 0.75},
		}, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, MaxDrawdown(tt.values), 1e-12)
		})
	}
}

func TestComputeRiskMetrics(t *testing.T) {
	// 五条单日路径，期末收益 {-10%, -5%, 0%, +5%, +10%}
	values := [][]float64{
		{0.90}, {0.95}, {1.00}, {1.05}, {1.10},
	}

	m, err := ComputeRiskMetrics(values, 0.95)
	require.NoError(t, err)

	require.InDelta(t, -0.09, m.VaR95, 1e-12)
	require.InDelta(t, -0.10, m.CVaR95, 1e-12)
	require.InDelta(t, 0.0, m.MeanReturn, 1e-12)
	require.InDelta(t, 0.0, m.MedianReturn, 1e-12)
	require.InDelta(t, math.Sqrt(0.005), m.Volatility, 1e-12)
	require.Equal(t, 5, m.Simulations)
	require.Equal(t, 1, m.HorizonDays)
	require.LessOrEqual(t, m.CVaR95, m.VaR95)
}

func TestComputeRiskMetricsErrors(t *testing.T) {
	_, err := ComputeRiskMetrics(nil, 0.95)
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = ComputeRiskMetrics([][]float64{{1.0}}, 1.5)
	require.Error(t, err)
}

func TestNewRiskMetricsInvariants(t *testing.T) {
	valid := RiskMetrics{
		VaR95:       -0.05,
		CVaR95:      -0.08,
		MaxDrawdown: -0.12,
		Volatility:  0.02,
		MeanReturn:  0.01,
		Confidence:  0.95,
	}
	_, err := NewRiskMetrics(valid)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(m *RiskMetrics)
	}{
		{"cvar better than var", func(m *RiskMetrics) { m.VaR95 = 0.05; m.CVaR95 = 0.1 }},
		{"positive drawdown", func(m *RiskMetrics) { m.MaxDrawdown = 0.01 }},
		{"zero volatility", func(m *RiskMetrics) { m.Volatility = 0 }},
		{"nan var", func(m *RiskMetrics) { m.VaR95 = math.NaN() }},
		{"out of bounds", func(m *RiskMetrics) { m.MeanReturn = 250 }},
		{"median out of bounds", func(m *RiskMetrics) { m.MedianReturn = 250; m.MeanReturn = 74.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			_, err := NewRiskMetrics(m)
			require.ErrorIs(t, err, ErrInvalidMetrics)
		})
	}
}
