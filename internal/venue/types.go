package venue

// 订单方向与结果代币。
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OutcomeYes = "YES"
	OutcomeNo  = "NO"

	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// OrderRequest 是下单请求体。Price 仅限价单携带,
// 结果代币价格必须落在 (0,1] 区间。
type OrderRequest struct {
	MarketID string  `json:"market_id"`
	Side     string  `json:"side"`
	Outcome  string  `json:"outcome"`
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"`
	Price    float64 `json:"price,omitempty"`
}

// OrderResponse 是下单与查询接口共用的响应体。
type OrderResponse struct {
	OrderID      string  `json:"order_id"`
	Status       string  `json:"status"`
	FilledAmount float64 `json:"filled_amount"`
	Fee          float64 `json:"fee"`
}
