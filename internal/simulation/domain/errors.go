package domain

import "errors"

// 领域错误哨兵。输入校验与数据不足错误快速失败并向上传播，
// 只有压力测试的单场景错误在 Run 内部被隔离。
var (
	// ErrUnknownStrategy 请求了未注册的模拟引擎
	ErrUnknownStrategy = errors.New("unknown simulation strategy")
	// ErrInsufficientData 历史数据行数不足以支撑请求的模拟区间
	ErrInsufficientData = errors.New("insufficient historical data")
	// ErrDegenerateData 退化数据（零方差资产），协方差矩阵不可分解
	ErrDegenerateData = errors.New("degenerate return data: zero variance asset")
	// ErrNotPositiveDefinite 协方差矩阵非正定
	ErrNotPositiveDefinite = errors.New("covariance matrix is not positive definite")
	// ErrWeightMismatch 权重数量与资产数量不匹配
	ErrWeightMismatch = errors.New("weight count does not match asset count")
	// ErrInvalidMetrics 风险指标违反数学一致性约束
	ErrInvalidMetrics = errors.New("risk metrics violate consistency invariants")
	// ErrDataUnavailable 请求区间内没有可用的行情数据
	ErrDataUnavailable = errors.New("no market data available for requested range")
	// ErrInvalidDateRange 日期区间不合法
	ErrInvalidDateRange = errors.New("invalid date range")
)
