// Package domain 包含投资组合风险模拟引擎的领域模型
package domain

import (
	"fmt"
	"math"
	"time"
)

// PriceMatrix 历史收盘价矩阵：行按日期升序排列，列与 Tickers 一一对应。
// 构造后不再修改；清洗（去除缺失行）由数据获取方完成。
type PriceMatrix struct {
	Dates   []time.Time
	Tickers []string
	Prices  [][]float64
}

// NewPriceMatrix 创建并校验价格矩阵
func NewPriceMatrix(dates []time.Time, tickers []string, prices [][]float64) (*PriceMatrix, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: empty ticker list", ErrDataUnavailable)
	}
	if len(dates) < 2 || len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows, got %d", ErrInsufficientData, len(dates))
	}
	if len(dates) != len(prices) {
		return nil, fmt.Errorf("%w: %d dates but %d price rows", ErrInsufficientData, len(dates), len(prices))
	}

	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			return nil, fmt.Errorf("duplicate ticker %q in price matrix", t)
		}
		seen[t] = struct{}{}
	}

	for i, row := range prices {
		if len(row) != len(tickers) {
			return nil, fmt.Errorf("price row %d has %d columns, want %d", i, len(row), len(tickers))
		}
		for j, p := range row {
			if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return nil, fmt.Errorf("invalid price %v for %s on %s", p, tickers[j], dates[i].Format("2006-01-02"))
			}
		}
		if i > 0 && !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates must be strictly ascending: %s >= %s",
				dates[i-1].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
	}

	return &PriceMatrix{Dates: dates, Tickers: tickers, Prices: prices}, nil
}

// NumRows 返回观测天数
func (m *PriceMatrix) NumRows() int { return len(m.Prices) }

// NumAssets 返回资产数量
func (m *PriceMatrix) NumAssets() int { return len(m.Tickers) }

// HasTicker 判断矩阵是否包含指定资产
func (m *PriceMatrix) HasTicker(ticker string) bool {
	for _, t := range m.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Window 截取闭区间 [start, end] 内的行，返回视图。
// 结果可能为空或少于 2 行，由调用方决定如何处理。
func (m *PriceMatrix) Window(start, end time.Time) *PriceMatrix {
	lo, hi := 0, len(m.Dates)
	for lo < hi && m.Dates[lo].Before(start) {
		lo++
	}
	for hi > lo && m.Dates[hi-1].After(end) {
		hi--
	}
	return &PriceMatrix{
		Dates:   m.Dates[lo:hi],
		Tickers: m.Tickers,
		Prices:  m.Prices[lo:hi],
	}
}

// Select 按给定顺序抽取资产子集
func (m *PriceMatrix) Select(tickers []string) (*PriceMatrix, error) {
	cols := make([]int, len(tickers))
	for i, want := range tickers {
		found := -1
		for j, t := range m.Tickers {
			if t == want {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: ticker %q not in price matrix", ErrDataUnavailable, want)
		}
		cols[i] = found
	}

	prices := make([][]float64, len(m.Prices))
	for r, row := range m.Prices {
		sub := make([]float64, len(cols))
		for i, c := range cols {
			sub[i] = row[c]
		}
		prices[r] = sub
	}

	return &PriceMatrix{Dates: m.Dates, Tickers: tickers, Prices: prices}, nil
}

// LogReturns 计算逐日对数收益率，结果比价格矩阵少一行
func (m *PriceMatrix) LogReturns() [][]float64 {
	out := make([][]float64, 0, len(m.Prices)-1)
	for r := 1; r < len(m.Prices); r++ {
		row := make([]float64, len(m.Tickers))
		for c := range m.Tickers {
			row[c] = math.Log(m.Prices[r][c] / m.Prices[r-1][c])
		}
		out = append(out, row)
	}
	return out
}

// PctReturns 计算逐日简单收益率，结果比价格矩阵少一行
func (m *PriceMatrix) PctReturns() [][]float64 {
	out := make([][]float64, 0, len(m.Prices)-1)
	for r := 1; r < len(m.Prices); r++ {
		row := make([]float64, len(m.Tickers))
		for c := range m.Tickers {
			row[c] = m.Prices[r][c]/m.Prices[r-1][c] - 1
		}
		out = append(out, row)
	}
	return out
}
