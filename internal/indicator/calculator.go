package indicator

import (
	"errors"
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"predict-bot/internal/config"
	"predict-bot/internal/feed"
)

// ErrInsufficientData 在样本数不足以计算指标时返回。
var ErrInsufficientData = errors.New("指标样本数量不足")

// NeutralImbalance 是盘口深度缺失时的中性失衡值。
const NeutralImbalance = 1.0

// Snapshot 为一次指标计算的汇总,随周期产生随周期丢弃。
type Snapshot struct {
	RSI        float64
	MACDLine   float64
	MACDSignal float64
	Imbalance  float64
}

// Calculator 基于价格序列与盘口快照计算技术指标。
type Calculator struct {
	cfg config.IndicatorConfig
}

// NewCalculator 创建 Calculator。
func NewCalculator(cfg config.IndicatorConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute 计算完整指标快照,样本不足时返回 ErrInsufficientData。
func (c *Calculator) Compute(prices []float64, book feed.Book) (Snapshot, error) {
	rsi, err := c.RSI(prices)
	if err != nil {
		return Snapshot{}, err
	}

	line, signal, err := c.MACD(prices)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		RSI:        rsi,
		MACDLine:   line,
		MACDSignal: signal,
		Imbalance:  c.Imbalance(book),
	}, nil
}

// RSI 计算 Wilder 平滑的相对强弱指数,需要至少 period+1 个样本。
func (c *Calculator) RSI(prices []float64) (float64, error) {
	need := c.cfg.RSIPeriod + 1
	if len(prices) < need {
		return 0, fmt.Errorf("RSI 需要至少%d个样本,当前%d个: %w", need, len(prices), ErrInsufficientData)
	}

	values := talib.Rsi(prices, c.cfg.RSIPeriod)
	return last(values), nil
}

// MACD 返回 MACD 线与信号线,需要至少 slow+signal 个样本。
func (c *Calculator) MACD(prices []float64) (float64, float64, error) {
	need := c.cfg.MACDSlow + c.cfg.MACDSignal
	if len(prices) < need {
		return 0, 0, fmt.Errorf("MACD 需要至少%d个样本,当前%d个: %w", need, len(prices), ErrInsufficientData)
	}

	line, signal, _ := talib.Macd(prices, c.cfg.MACDFast, c.cfg.MACDSlow, c.cfg.MACDSignal)
	return last(line), last(signal), nil
}

// Imbalance 计算盘口失衡比:买盘前N档量之和除以卖盘前N档量之和。
// 任一侧深度缺失时返回中性值1,缺失的盘口不得制造方向信号。
func (c *Calculator) Imbalance(book feed.Book) float64 {
	bidVolume := depthVolume(book.Bids, c.cfg.BookDepth)
	askVolume := depthVolume(book.Asks, c.cfg.BookDepth)
	if bidVolume == 0 || askVolume == 0 {
		return NeutralImbalance
	}
	return bidVolume / askVolume
}

func depthVolume(levels []feed.BookLevel, depth int) float64 {
	if depth > len(levels) {
		depth = len(levels)
	}
	sum := 0.0
	for _, level := range levels[:depth] {
		sum += level.Quantity
	}
	return sum
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
