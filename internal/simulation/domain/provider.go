package domain

import (
	"context"
	"time"
)

// MarketDataProvider 历史行情获取端口。实现负责清洗：丢弃含缺失值的行，
// 返回的矩阵满足 NewPriceMatrix 的全部约束。区间内无可用数据时
// 返回 ErrDataUnavailable。
type MarketDataProvider interface {
	FetchDailyCloses(ctx context.Context, tickers []string, start, end time.Time) (*PriceMatrix, error)
}
