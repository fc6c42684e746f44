package feed

import "time"

// PriceSample 是一笔成交价格观测。
type PriceSample struct {
	Price     float64
	Timestamp time.Time
}

// BookLevel 是盘口单档报价。
type BookLevel struct {
	Price    float64
	Quantity float64
}

// Book 是一次盘口快照,买卖盘均按价格优先排序。
type Book struct {
	Bids      []BookLevel
	Asks      []BookLevel
	UpdatedAt time.Time
}

// Empty 报告快照是否缺少任一侧深度。
func (b Book) Empty() bool {
	return len(b.Bids) == 0 || len(b.Asks) == 0
}
