package account

import (
	"errors"
	"fmt"
	"time"
)

// Status 表示账户运行状态。
type Status string

const (
	StatusActive Status = "active"
	StatusHalted Status = "halted"
)

// State 持有资金、峰值与连胜计数。字段不可直接修改,
// 每个完成的交易周期只允许通过一个 Record 方法落账一次。
// 仅由调度循环单协程访问。
type State struct {
	capital         float64
	peakCapital     float64
	winStreak       int
	totalTrades     int
	winningTrades   int
	currentExposure float64
	status          Status
}

// New 以初始资金创建活跃账户,峰值等于初始资金。
func New(initialCapital float64) *State {
	return &State{
		capital:     initialCapital,
		peakCapital: initialCapital,
		status:      StatusActive,
	}
}

// CurrentCapital 返回当前资金。
func (s *State) CurrentCapital() float64 { return s.capital }

// PeakCapital 返回历史资金峰值。
func (s *State) PeakCapital() float64 { return s.peakCapital }

// WinStreak 返回当前连胜次数。
func (s *State) WinStreak() int { return s.winStreak }

// TotalTrades 返回已落账的交易总数。
func (s *State) TotalTrades() int { return s.totalTrades }

// WinningTrades 返回胜利交易数。
func (s *State) WinningTrades() int { return s.winningTrades }

// Exposure 返回当前已占用的在途资金。
func (s *State) Exposure() float64 { return s.currentExposure }

// Status 返回账户状态。
func (s *State) Status() Status { return s.status }

// Halted 报告账户是否已停机。
func (s *State) Halted() bool { return s.status == StatusHalted }

// RecordWin 落账一笔胜利:资金增加 pnl,连胜加一。
func (s *State) RecordWin(pnl float64) {
	s.capital += pnl
	s.winStreak++
	s.totalTrades++
	s.winningTrades++
}

// RecordLoss 落账一笔亏损:资金增加 pnl(负值),连胜清零。
func (s *State) RecordLoss(pnl float64) {
	s.capital += pnl
	s.winStreak = 0
	s.totalTrades++
}

// RecordCancelled 落账一笔被取消的订单:资金不变,连胜清零。
// 取消打断了已验证的连胜,按与亏损相同的方式重置,避免陈旧连胜放大仓位。
func (s *State) RecordCancelled() {
	s.winStreak = 0
	s.totalTrades++
}

// RaisePeak 将峰值抬升至当前资金(只升不降),返回最新峰值。
// 由风控在每次评估前调用。
func (s *State) RaisePeak() float64 {
	if s.capital > s.peakCapital {
		s.peakCapital = s.capital
	}
	return s.peakCapital
}

// Reserve 占用一笔在途资金。
func (s *State) Reserve(amount float64) {
	s.currentExposure += amount
}

// Release 释放一笔在途资金,不会降到零以下。
func (s *State) Release(amount float64) {
	s.currentExposure -= amount
	if s.currentExposure < 0 {
		s.currentExposure = 0
	}
}

// Halt 将账户标记为停机。
func (s *State) Halt() {
	s.status = StatusHalted
}

// Snapshot 是账户的可序列化镜像。
type Snapshot struct {
	Version         int       `json:"version"`
	MarketID        string    `json:"market_id"`
	Capital         float64   `json:"capital"`
	PeakCapital     float64   `json:"peak_capital"`
	WinStreak       int       `json:"win_streak"`
	TotalTrades     int       `json:"total_trades"`
	WinningTrades   int       `json:"winning_trades"`
	CurrentExposure float64   `json:"current_exposure"`
	Status          Status    `json:"status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SnapshotVersion 是当前状态文件的版本号。
const SnapshotVersion = 1

// Snapshot 导出当前状态。
func (s *State) Snapshot(marketID string) Snapshot {
	return Snapshot{
		Version:         SnapshotVersion,
		MarketID:        marketID,
		Capital:         s.capital,
		PeakCapital:     s.peakCapital,
		WinStreak:       s.winStreak,
		TotalTrades:     s.totalTrades,
		WinningTrades:   s.winningTrades,
		CurrentExposure: s.currentExposure,
		Status:          s.status,
		UpdatedAt:       time.Now().UTC(),
	}
}

// Validate 检查快照内部一致性,用于决定加载还是重新开始。
func (sn Snapshot) Validate() error {
	if sn.Capital <= 0 {
		return errors.New("capital 必须大于0")
	}
	if sn.PeakCapital <= 0 {
		return errors.New("peak_capital 必须大于0")
	}
	if sn.WinStreak < 0 || sn.TotalTrades < 0 || sn.WinningTrades < 0 {
		return errors.New("计数字段不能为负")
	}
	if sn.WinningTrades > sn.TotalTrades {
		return errors.New("winning_trades 不能大于 total_trades")
	}
	if sn.CurrentExposure < 0 {
		return errors.New("current_exposure 不能为负")
	}
	if sn.Status != StatusActive && sn.Status != StatusHalted {
		return fmt.Errorf("未知的账户状态 %q", sn.Status)
	}
	return nil
}

// FromSnapshot 由已校验的快照恢复账户。
func FromSnapshot(sn Snapshot) (*State, error) {
	if err := sn.Validate(); err != nil {
		return nil, fmt.Errorf("账户快照无效: %w", err)
	}
	return &State{
		capital:         sn.Capital,
		peakCapital:     sn.PeakCapital,
		winStreak:       sn.WinStreak,
		totalTrades:     sn.TotalTrades,
		winningTrades:   sn.WinningTrades,
		currentExposure: sn.CurrentExposure,
		status:          sn.Status,
	}, nil
}
