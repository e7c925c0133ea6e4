package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
)

// ReportData PDF 报告所需的全部内容
type ReportData struct {
	Title       string
	Strategy    string
	Tickers     []string
	Weights     []float64
	Simulations int
	HorizonDays int
	Metrics     *domain.RiskMetrics
	Stress      []domain.StressResult
	// 各引擎指标对比，键为引擎名称；为空跳过对比章节
	Comparison map[string]*domain.RiskMetrics
	// PNG 图表，空切片跳过对应章节
	PathsChart        []byte
	DistributionChart []byte
	StressChart       []byte
	BenchmarkChart    []byte
	GeneratedAt       time.Time
}

// WritePDF 生成风险报告并写入 path
func WritePDF(data *ReportData, path string) error {
	if data.Metrics == nil {
		return fmt.Errorf("report requires risk metrics")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, data.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated "+data.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writePortfolioSection(pdf, data)
	writeMethodologySection(pdf, data)
	writeMetricsSection(pdf, data.Metrics)
	if len(data.Comparison) > 0 {
		writeComparisonSection(pdf, data.Comparison)
	}

	if len(data.PathsChart) > 0 {
		writeChart(pdf, "Simulated Portfolio Paths", "paths", data.PathsChart)
	}
	if len(data.DistributionChart) > 0 {
		writeChart(pdf, "Final Return Distribution", "distribution", data.DistributionChart)
	}

	if len(data.Stress) > 0 {
		writeStressSection(pdf, data.Stress)
		if len(data.StressChart) > 0 {
			writeChart(pdf, "Stress Scenarios", "stress", data.StressChart)
		}
	}
	if len(data.BenchmarkChart) > 0 {
		writeChart(pdf, "Benchmark Comparison", "benchmark", data.BenchmarkChart)
	}

	return pdf.OutputFileAndClose(path)
}

func writePortfolioSection(pdf *fpdf.Fpdf, data *ReportData) {
	sectionTitle(pdf, "Portfolio")
	pdf.SetFont("Helvetica", "", 10)
	for i, ticker := range data.Tickers {
		w := 0.0
		if i < len(data.Weights) {
			w = data.Weights[i]
		}
		pdf.CellFormat(40, 6, ticker, "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f%%", w*100), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.CellFormat(0, 6, fmt.Sprintf("Engine: %s, %d paths, %d-day horizon",
		data.Strategy, data.Simulations, data.HorizonDays), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

// 各引擎的方法学说明，按引擎名称索引
var methodologies = map[string]string{
	domain.StrategyMonteCarlo: "Monte Carlo simulation calibrated on historical daily log returns. " +
		"Cross-asset correlation is preserved by applying the Cholesky factor of the sample " +
		"covariance matrix to independent standard normal shocks; each path compounds the " +
		"mean log return plus its correlated shock over the horizon.",
	domain.StrategyBootstrap: "Historical bootstrap resampling. Each simulated day draws a full " +
		"cross-sectional row of historical percentage returns with replacement, so the joint " +
		"behaviour of the assets on any given day is replayed exactly as observed.",
	domain.StrategyJumpDiffusion: "Merton jump-diffusion. Daily returns combine a Gaussian " +
		"diffusion term with Poisson-arriving jumps whose sizes are normally distributed, " +
		"capturing fat tails and sudden market dislocations beyond a pure diffusion model.",
}

func writeMethodologySection(pdf *fpdf.Fpdf, data *ReportData) {
	text, ok := methodologies[data.Strategy]
	if !ok {
		return
	}
	sectionTitle(pdf, "Methodology")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, text, "", "L", false)
	pdf.Ln(4)
}

func writeMetricsSection(pdf *fpdf.Fpdf, m *domain.RiskMetrics) {
	sectionTitle(pdf, "Risk Metrics")
	rows := []struct {
		label string
		value string
	}{
		{fmt.Sprintf("VaR (%.0f%%)", m.Confidence*100), fmt.Sprintf("%.2f%%", m.VaR95*100)},
		{fmt.Sprintf("CVaR (%.0f%%)", m.Confidence*100), fmt.Sprintf("%.2f%%", m.CVaR95*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100)},
		{"Volatility", fmt.Sprintf("%.2f%%", m.Volatility*100)},
		{"Mean Return", fmt.Sprintf("%.2f%%", m.MeanReturn*100)},
		{"Median Return", fmt.Sprintf("%.2f%%", m.MedianReturn*100)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(60, 6, row.label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, row.value, "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func writeComparisonSection(pdf *fpdf.Fpdf, comparison map[string]*domain.RiskMetrics) {
	engines := make([]string, 0, len(comparison))
	for name := range comparison {
		engines = append(engines, name)
	}
	sort.Strings(engines)

	sectionTitle(pdf, "Engine Comparison")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(45, 6, "Engine", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Mean", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, "VaR", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, "CVaR", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, "Max DD", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, engine := range engines {
		m := comparison[engine]
		pdf.CellFormat(45, 6, engine, "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f%%", m.MeanReturn*100), "B", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f%%", m.VaR95*100), "B", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f%%", m.CVaR95*100), "B", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f%%", m.MaxDrawdown*100), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func writeStressSection(pdf *fpdf.Fpdf, results []domain.StressResult) {
	sectionTitle(pdf, "Historical Stress Scenarios")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(55, 6, "Scenario", "B", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, "Period", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Return", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, "Drawdown", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range results {
		totalReturn, _ := r.TotalReturn.Float64()
		drawdown, _ := r.MaxDrawdown.Float64()
		pdf.CellFormat(55, 6, r.Scenario, "B", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, r.Start.Format("2006-01")+" - "+r.End.Format("2006-01"), "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f%%", totalReturn*100), "B", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f%%", drawdown*100), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func writeChart(pdf *fpdf.Fpdf, title, name string, png []byte) {
	pdf.AddPage()
	sectionTitle(pdf, title)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, 15, pdf.GetY(), 180, 0, false, opts, 0, "")
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}
