package domain

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
)

// 已注册的模拟引擎名称
const (
	StrategyMonteCarlo    = "monte_carlo"
	StrategyBootstrap     = "bootstrap"
	StrategyJumpDiffusion = "jump_diffusion"
)

// PathGenerator 路径生成器契约。实现必须返回形状恰好为
// (nSimulations, days, nAssets) 的张量，且每个元素都是正的有限增长因子。
// 除注入的历史数据与参数外不依赖任何外部状态。
type PathGenerator interface {
	Run(nSimulations, days int) (*SimulationTensor, error)
}

// Params 引擎参数。Seed 决定全部随机流：相同 Seed 与输入产生相同张量。
type Params struct {
	// 随机数种子
	Seed uint64
	// 年化跳跃强度（仅跳跃扩散引擎）
	JumpLambda float64
	// 跳跃幅度均值（仅跳跃扩散引擎）
	JumpMu float64
	// 跳跃幅度波动率（仅跳跃扩散引擎）
	JumpSigma float64
	// 并行 worker 数，<=0 表示 GOMAXPROCS
	Workers int
}

// GeneratorFactory 引擎构造函数
type GeneratorFactory func(prices *PriceMatrix, params Params) (PathGenerator, error)

// registry 名称到构造函数的封闭映射，不使用反射
var registry = map[string]GeneratorFactory{
	StrategyMonteCarlo:    NewMonteCarloGenerator,
	StrategyBootstrap:     NewBootstrapGenerator,
	StrategyJumpDiffusion: NewJumpDiffusionGenerator,
}

// NewGenerator 按名称创建引擎，未知名称直接失败，不做静默回退
func NewGenerator(name string, prices *PriceMatrix, params Params) (PathGenerator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return factory(prices, params)
}

// Strategies 返回全部已注册引擎名称（字典序）
func Strategies() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validateRun 校验路径生成公共前置条件：模拟数与天数为正，
// 且价格窗口至少有 days+1 个观测
func validateRun(prices *PriceMatrix, nSimulations, days int) error {
	if nSimulations <= 0 {
		return fmt.Errorf("n_simulations must be positive, got %d", nSimulations)
	}
	if days <= 0 {
		return fmt.Errorf("days must be positive, got %d", days)
	}
	if prices.NumRows() < days+1 {
		return fmt.Errorf("%w: window has %d rows, need at least %d for a %d-day horizon",
			ErrInsufficientData, prices.NumRows(), days+1, days)
	}
	return nil
}

// pathRNG 返回第 pathIdx 条路径的独立随机流。每条路径使用
// (seed, pathIdx) 初始化的 PCG，并行调度不影响可复现性。
func pathRNG(seed uint64, pathIdx int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(pathIdx)))
}

// runPaths 用固定规模的 worker 池执行 n 条路径的生成函数。
// 每条路径只写入张量中属于自己的切片，无共享可变状态。
func runPaths(n, workers int, fn func(pathIdx int)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if n < workers {
		workers = n
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for pathIdx := range indexes {
				fn(pathIdx)
			}
		}()
	}
	for i := range n {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}
