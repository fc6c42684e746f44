package monitor

import "time"

// EventType 表示监控事件类型。
type EventType string

const (
	EventSignal         EventType = "signal"
	EventRiskEvaluation EventType = "risk_evaluation"
	EventExecution      EventType = "execution"
	EventSettlement     EventType = "settlement"
	EventError          EventType = "error"
	EventHalt           EventType = "halt"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SignalPayload 记录一次信号评估及其指标读数。
type SignalPayload struct {
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	RSI        float64 `json:"rsi"`
	MACDLine   float64 `json:"macd_line"`
	MACDSignal float64 `json:"macd_signal"`
	Imbalance  float64 `json:"imbalance"`
	LastPrice  float64 `json:"last_price"`
	Rationale  string  `json:"rationale"`
}

// RiskPayload 记录风控评估结论与当时的风险读数。
type RiskPayload struct {
	Approved          bool     `json:"approved"`
	Reasons           []string `json:"reasons,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	Capital           float64  `json:"capital"`
	PeakCapital       float64  `json:"peak_capital"`
	Exposure          float64  `json:"exposure"`
	DrawdownPercent   float64  `json:"drawdown_percent"`
	VolatilityPercent float64  `json:"volatility_percent"`
}

// ExecutionPayload 记录订单执行结果。
type ExecutionPayload struct {
	OrderID   string  `json:"order_id"`
	MarketID  string  `json:"market_id"`
	Outcome   string  `json:"outcome"`
	Stake     float64 `json:"stake"`
	Price     float64 `json:"price"`
	Status    string  `json:"status"`
	Attempts  int     `json:"attempts"`
	Simulated bool    `json:"simulated"`
}

// SettlementPayload 记录结算落账后的账户变化。
type SettlementPayload struct {
	OrderID    string  `json:"order_id"`
	Settlement string  `json:"settlement"`
	PnL        float64 `json:"pnl"`
	Fee        float64 `json:"fee"`
	Capital    float64 `json:"capital"`
	WinStreak  int     `json:"win_streak"`
}

// ErrorPayload 记录异常及其故障类别。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Kind    string                 `json:"kind"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// HaltPayload 记录停机原因与触发时刻的精确数值。
type HaltPayload struct {
	Reason          string  `json:"reason"`
	Cycle           int     `json:"cycle"`
	Capital         float64 `json:"capital"`
	PeakCapital     float64 `json:"peak_capital"`
	DrawdownPercent float64 `json:"drawdown_percent"`
}
