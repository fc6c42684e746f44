package state

import (
	"errors"
	"time"
)

// Metrics 聚合整个运行期的统计,每个完成的周期更新一次。
type Metrics struct {
	CyclesCompleted    int       `json:"cycles_completed"`
	TradesSubmitted    int       `json:"trades_submitted"`
	Wins               int       `json:"wins"`
	Losses             int       `json:"losses"`
	Cancellations      int       `json:"cancellations"`
	SignalSkips        int       `json:"signal_skips"`
	RiskSkips          int       `json:"risk_skips"`
	SettlementTimeouts int       `json:"settlement_timeouts"`
	WinStreak          int       `json:"win_streak"`
	LossStreak         int       `json:"loss_streak"`
	MaxDrawdownPercent float64   `json:"max_drawdown_percent"`
	PeakEquity         float64   `json:"peak_equity"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RecordWin 记录一笔胜利并延续连胜。
func (m *Metrics) RecordWin() {
	m.Wins++
	m.WinStreak++
	m.LossStreak = 0
}

// RecordLoss 记录一笔亏损并延续连败。
func (m *Metrics) RecordLoss() {
	m.Losses++
	m.LossStreak++
	m.WinStreak = 0
}

// RecordCancelled 记录一笔取消,打断双向连胜连败。
func (m *Metrics) RecordCancelled() {
	m.Cancellations++
	m.WinStreak = 0
	m.LossStreak = 0
}

// ObserveDrawdown 保留观测到的最大回撤。
func (m *Metrics) ObserveDrawdown(pct float64) {
	if pct > m.MaxDrawdownPercent {
		m.MaxDrawdownPercent = pct
	}
}

// ObservePeak 保留观测到的最高净值。
func (m *Metrics) ObservePeak(equity float64) {
	if equity > m.PeakEquity {
		m.PeakEquity = equity
	}
}

// Validate 检查指标内部一致性,用于决定加载还是重新统计。
func (m Metrics) Validate() error {
	counters := []int{
		m.CyclesCompleted, m.TradesSubmitted, m.Wins, m.Losses,
		m.Cancellations, m.SignalSkips, m.RiskSkips,
		m.SettlementTimeouts, m.WinStreak, m.LossStreak,
	}
	for _, c := range counters {
		if c < 0 {
			return errors.New("计数字段不能为负")
		}
	}
	if m.Wins+m.Losses+m.Cancellations > m.TradesSubmitted {
		return errors.New("结算笔数不能超过提交笔数")
	}
	if m.MaxDrawdownPercent < 0 {
		return errors.New("max_drawdown_percent 不能为负")
	}
	if m.PeakEquity < 0 {
		return errors.New("peak_equity 不能为负")
	}
	return nil
}
