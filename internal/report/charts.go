// Package report 生成模拟结果的图表与 PDF 报告
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/vicanso/go-charts/v2"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
)

// 收益分布直方图的默认分箱数
const defaultHistogramBins = 40

// SimulationPathsChart 渲染组合价值扇形图：全体路径的 5%/50%/95% 分位曲线，
// 叠加抽样的若干条原始路径，返回 PNG 字节
func SimulationPathsChart(title string, values [][]float64, maxPaths int) ([]byte, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, fmt.Errorf("no simulation paths to render")
	}
	if maxPaths <= 0 || maxPaths > len(values) {
		maxPaths = len(values)
	}

	days := len(values[0])
	xLabels := make([]string, days)
	for d := range xLabels {
		xLabels[d] = fmt.Sprintf("%d", d+1)
	}

	p5 := make([]float64, days)
	p50 := make([]float64, days)
	p95 := make([]float64, days)
	column := make([]float64, len(values))
	for d := 0; d < days; d++ {
		for s, path := range values {
			column[s] = path[d]
		}
		p5[d] = domain.Percentile(column, 5)
		p50[d] = domain.Percentile(column, 50)
		p95[d] = domain.Percentile(column, 95)
	}

	series := [][]float64{p5, p50, p95}
	yMin, yMax := values[0][0], values[0][0]
	for i := 0; i < maxPaths; i++ {
		series = append(series, values[i])
		for _, v := range values[i] {
			if v < yMin {
				yMin = v
			}
			if v > yMax {
				yMax = v
			}
		}
	}
	pad := (yMax - yMin) * 0.05
	yMin -= pad
	yMax += pad

	painter, err := charts.LineRender(series,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"p5", "median", "p95"}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// ReturnDistributionChart 渲染期末收益分布直方图，副标题标注 VaR 水平
func ReturnDistributionChart(title string, finalReturns []float64, var95 float64) ([]byte, error) {
	if len(finalReturns) == 0 {
		return nil, fmt.Errorf("no returns to render")
	}

	lo, hi := finalReturns[0], finalReturns[0]
	for _, r := range finalReturns {
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	if hi == lo {
		hi = lo + 1e-9
	}

	bins := defaultHistogramBins
	if len(finalReturns) < bins {
		bins = len(finalReturns)
	}
	width := (hi - lo) / float64(bins)
	counts := make([]float64, bins)
	labels := make([]string, bins)
	for _, r := range finalReturns {
		idx := int((r - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	for i := range labels {
		labels[i] = fmt.Sprintf("%.1f%%", (lo+width*(float64(i)+0.5))*100)
	}

	painter, err := charts.BarRender([][]float64{counts},
		charts.TitleTextOptionFunc(title, fmt.Sprintf("VaR %.2f%%", var95*100)),
		charts.XAxisDataOptionFunc(labels),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// StressTestChart 渲染各压力情景的组合总收益、最大回撤与基准同期收益对比柱状图
func StressTestChart(title string, results []domain.StressResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no stress results to render")
	}

	benchmarks := make([]string, 0)
	seen := make(map[string]bool)
	for _, r := range results {
		for name := range r.BenchmarkReturns {
			if !seen[name] {
				seen[name] = true
				benchmarks = append(benchmarks, name)
			}
		}
	}
	sort.Strings(benchmarks)

	names := make([]string, len(results))
	totals := make([]float64, len(results))
	drawdowns := make([]float64, len(results))
	benchSeries := make([][]float64, len(benchmarks))
	for i := range benchSeries {
		benchSeries[i] = make([]float64, len(results))
	}
	for i, r := range results {
		names[i] = r.Scenario
		totals[i] = toPct(r.TotalReturn.InexactFloat64())
		drawdowns[i] = toPct(r.MaxDrawdown.InexactFloat64())
		for b, bench := range benchmarks {
			if v, ok := r.BenchmarkReturns[bench]; ok {
				benchSeries[b][i] = toPct(v.InexactFloat64())
			}
		}
	}

	series := append([][]float64{totals, drawdowns}, benchSeries...)
	legend := []string{"total return %", "max drawdown %"}
	for _, bench := range benchmarks {
		legend = append(legend, bench+" %")
	}

	painter, err := charts.BarRender(series,
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(names),
		charts.LegendOptionFunc(charts.LegendOption{Data: legend}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// BenchmarkChart 渲染组合与基准的归一化价值曲线对比。
// 所有曲线以各自首日价值为 1 归一。
func BenchmarkChart(title string, labels []string, names []string, series [][]float64) ([]byte, error) {
	if len(series) == 0 || len(names) != len(series) {
		return nil, fmt.Errorf("benchmark series/names mismatch: %d vs %d", len(series), len(names))
	}

	normalized := make([][]float64, len(series))
	for i, s := range series {
		if len(s) == 0 || s[0] == 0 {
			return nil, fmt.Errorf("empty or zero-based series %q", names[i])
		}
		row := make([]float64, len(s))
		for j, v := range s {
			row[j] = v / s[0]
		}
		normalized[i] = row
	}

	seriesList := charts.NewSeriesListDataFromValues(normalized, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

func toPct(v float64) float64 {
	return math.Round(v*10000) / 100
}
