package execution

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"predict-bot/internal/config"
	"predict-bot/internal/fault"
)

// DryRunTrader 在不触达任何外部接口的情况下模拟成交与结算。
type DryRunTrader struct {
	cfg    config.DryRunConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	seq int
}

// NewDryRunTrader 创建模拟执行器,seed 为 0 时使用时间种子。
func NewDryRunTrader(cfg config.DryRunConfig, logger *zap.Logger) *DryRunTrader {
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DryRunTrader{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Execute 校验交易意图后立即给出模拟结算结果。
func (t *DryRunTrader) Execute(ctx context.Context, ticket Ticket) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fault.Wrap(fault.KindExecution, "dry_run", err)
	}
	req, err := buildOrderRequest(ticket)
	if err != nil {
		return Result{}, fault.Wrap(fault.KindExecution, "build_order", err)
	}

	// 每笔固定消耗两个随机数,保证同一种子下序列可复现。
	t.mu.Lock()
	t.seq++
	id := fmt.Sprintf("dry-%06d", t.seq)
	win := t.rng.Float64() < t.cfg.WinProbability
	payout := t.cfg.PayoutMin + t.rng.Float64()*(t.cfg.PayoutMax-t.cfg.PayoutMin)
	t.mu.Unlock()

	now := time.Now().UTC()
	order := Order{
		ID:             id,
		MarketID:       ticket.MarketID,
		Side:           req.Side,
		Outcome:        ticket.Outcome,
		Price:          ticket.Price,
		Quantity:       ticket.Stake,
		FilledQuantity: ticket.Stake,
		Status:         StatusSettled,
		CreatedAt:      now,
	}

	settlement := SettlementLoss
	pnl := -ticket.Stake
	if win {
		settlement = SettlementWin
		pnl = ticket.Stake * (payout - 1)
	}

	t.logger.Info("模拟成交",
		zap.String("order_id", id),
		zap.String("outcome", ticket.Outcome),
		zap.Float64("stake", ticket.Stake),
		zap.String("settlement", string(settlement)),
		zap.Float64("pnl", pnl),
	)

	return Result{
		Order:       order,
		Settlement:  settlement,
		PnL:         pnl,
		Attempts:    1,
		Simulated:   true,
		SubmittedAt: now,
		SettledAt:   now,
	}, nil
}
