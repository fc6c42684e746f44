package risk

import (
	"fmt"

	"go.uber.org/zap"

	"predict-bot/internal/account"
	"predict-bot/internal/config"
)

// Manager 在每次下单前执行风控闸门:两道熔断加结构性检查。
type Manager struct {
	cfg    config.RiskConfig
	logger *zap.Logger
}

// NewManager 创建风险管理器。
func NewManager(cfg config.RiskConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// ApproveTrade 评估当前账户与近期价格,决定本周期能否下单。
// 评估开始时会先把账户峰值抬升到当前资金,这是有意保留的副作用:
// 回撤永远相对最新峰值计算。除峰值抬升外,相同输入的重复评估结果一致。
func (m *Manager) ApproveTrade(acct *account.State, recentPrices []float64) Approval {
	peak := acct.RaisePeak()

	window := recentPrices
	if len(window) > m.cfg.VolatilityWindow {
		window = window[len(window)-m.cfg.VolatilityWindow:]
	}

	metrics := Metrics{
		Capital:           acct.CurrentCapital(),
		PeakCapital:       peak,
		Exposure:          acct.Exposure(),
		DrawdownPercent:   DrawdownPercent(peak, acct.CurrentCapital()),
		VolatilityPercent: VolatilityPercent(window),
	}

	result := Approval{Metrics: metrics}

	if acct.Halted() {
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonBotHalted,
			Message: "账户已停机,禁止继续交易",
		})
	}

	if metrics.DrawdownPercent >= m.cfg.MaxDrawdownPercent {
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonDrawdownBreaker,
			Message: fmt.Sprintf("回撤 %.2f%% 已触发熔断线 %.2f%%", metrics.DrawdownPercent, m.cfg.MaxDrawdownPercent),
		})
	} else if metrics.DrawdownPercent >= m.cfg.MaxDrawdownPercent*m.cfg.WarningRatio {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("回撤 %.2f%% 接近熔断线 %.2f%%", metrics.DrawdownPercent, m.cfg.MaxDrawdownPercent))
	}

	if metrics.VolatilityPercent >= m.cfg.VolatilityThreshold {
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonVolatilityBreaker,
			Message: fmt.Sprintf("波动率 %.2f%% 已触发熔断线 %.2f%%", metrics.VolatilityPercent, m.cfg.VolatilityThreshold),
		})
	} else if metrics.VolatilityPercent >= m.cfg.VolatilityThreshold*m.cfg.WarningRatio {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("波动率 %.2f%% 接近熔断线 %.2f%%", metrics.VolatilityPercent, m.cfg.VolatilityThreshold))
	}

	if metrics.Capital < m.cfg.MinCapital {
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonCapitalFloor,
			Message: fmt.Sprintf("资金 %.2f 低于最低门槛 %.2f", metrics.Capital, m.cfg.MinCapital),
		})
	}

	if metrics.Exposure >= m.cfg.MaxExposure {
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonExposureLimit,
			Message: fmt.Sprintf("在途资金 %.2f 已达上限 %.2f", metrics.Exposure, m.cfg.MaxExposure),
		})
	} else if metrics.Exposure >= m.cfg.MaxExposure*m.cfg.WarningRatio {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("在途资金 %.2f 接近上限 %.2f", metrics.Exposure, m.cfg.MaxExposure))
	}

	result.Approved = len(result.Reasons) == 0

	if !result.Approved {
		m.logger.Warn("风控拦截本周期交易",
			zap.Float64("drawdown_percent", metrics.DrawdownPercent),
			zap.Float64("volatility_percent", metrics.VolatilityPercent),
			zap.Float64("capital", metrics.Capital),
			zap.Any("reasons", result.Reasons),
		)
	} else if len(result.Warnings) > 0 {
		m.logger.Warn("风控预警", zap.Strings("warnings", result.Warnings))
	}

	return result
}
