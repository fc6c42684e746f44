package risk

// ReasonCode 标识一次拦截的具体原因,调度器据此区分熔断与普通跳过。
type ReasonCode string

const (
	ReasonDrawdownBreaker   ReasonCode = "drawdown_breaker"
	ReasonVolatilityBreaker ReasonCode = "volatility_breaker"
	ReasonCapitalFloor      ReasonCode = "capital_floor"
	ReasonExposureLimit     ReasonCode = "exposure_limit"
	ReasonBotHalted         ReasonCode = "bot_halted"
)

// Reason 是一条拦截原因。
type Reason struct {
	Code    ReasonCode
	Message string
}

// Metrics 记录评估时刻的风险读数。
type Metrics struct {
	Capital           float64
	PeakCapital       float64
	Exposure          float64
	DrawdownPercent   float64
	VolatilityPercent float64
}

// Approval 为一次交易前风控评估的输出。Reasons 非空即为拦截。
type Approval struct {
	Approved bool
	Reasons  []Reason
	Warnings []string
	Metrics  Metrics
}

// Blocked 报告结果中是否包含指定原因。
func (a Approval) Blocked(code ReasonCode) bool {
	for _, reason := range a.Reasons {
		if reason.Code == code {
			return true
		}
	}
	return false
}
