package predict

import (
	"fmt"
	"strings"
	"time"

	"predict-bot/internal/config"
	"predict-bot/internal/indicator"
)

// Direction 是信号方向。
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionSkip Direction = "skip"
)

// Signal 是一次评估的产出,生成后不再修改。
type Signal struct {
	Direction   Direction
	Confidence  float64
	Snapshot    indicator.Snapshot
	Rationale   string
	GeneratedAt time.Time
}

// Actionable 报告信号是否要求下单。
func (s Signal) Actionable() bool {
	return s.Direction == DirectionUp || s.Direction == DirectionDown
}

// Engine 将指标快照映射为确定性的交易信号。
// 相同快照永远得到相同方向,不依赖随机数或外部状态。
type Engine struct {
	cfg config.SignalConfig
}

// NewEngine 创建规则引擎。
func NewEngine(cfg config.SignalConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate 依据三条规则判定方向。三个条件必须同时成立:
// 超卖、MACD 线在信号线上方、买盘占优 => up;三者全部镜像 => down;
// 其余情况一律 skip。up/down 的置信度取配置常量,skip 恒为0。
func (e *Engine) Evaluate(snap indicator.Snapshot) Signal {
	signal := Signal{
		Direction:   DirectionSkip,
		Snapshot:    snap,
		GeneratedAt: time.Now().UTC(),
	}

	oversold := snap.RSI < e.cfg.RSIOversold
	overbought := snap.RSI > e.cfg.RSIOverbought
	macdAbove := snap.MACDLine > snap.MACDSignal
	macdBelow := snap.MACDLine < snap.MACDSignal
	bidHeavy := snap.Imbalance > e.cfg.BullishImbalance
	askHeavy := snap.Imbalance < e.cfg.BearishImbalance

	switch {
	case oversold && macdAbove && bidHeavy:
		signal.Direction = DirectionUp
		signal.Confidence = e.cfg.Confidence
		signal.Rationale = fmt.Sprintf(
			"RSI %.2f 低于超卖线 %.2f;MACD %.4f 高于信号线 %.4f;盘口失衡 %.3f 高于 %.3f",
			snap.RSI, e.cfg.RSIOversold, snap.MACDLine, snap.MACDSignal, snap.Imbalance, e.cfg.BullishImbalance,
		)
	case overbought && macdBelow && askHeavy:
		signal.Direction = DirectionDown
		signal.Confidence = e.cfg.Confidence
		signal.Rationale = fmt.Sprintf(
			"RSI %.2f 高于超买线 %.2f;MACD %.4f 低于信号线 %.4f;盘口失衡 %.3f 低于 %.3f",
			snap.RSI, e.cfg.RSIOverbought, snap.MACDLine, snap.MACDSignal, snap.Imbalance, e.cfg.BearishImbalance,
		)
	default:
		signal.Rationale = e.skipRationale(snap)
	}

	return signal
}

func (e *Engine) skipRationale(snap indicator.Snapshot) string {
	var parts []string
	if snap.RSI >= e.cfg.RSIOversold && snap.RSI <= e.cfg.RSIOverbought {
		parts = append(parts, fmt.Sprintf("RSI %.2f 处于中性区间", snap.RSI))
	}
	if snap.MACDLine == snap.MACDSignal {
		parts = append(parts, "MACD 与信号线持平")
	}
	if snap.Imbalance >= e.cfg.BearishImbalance && snap.Imbalance <= e.cfg.BullishImbalance {
		parts = append(parts, fmt.Sprintf("盘口失衡 %.3f 接近中性", snap.Imbalance))
	}
	if len(parts) == 0 {
		parts = append(parts, "各指标方向不一致")
	}
	return "条件未齐备: " + strings.Join(parts, ";")
}
