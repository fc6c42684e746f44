package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"predict-bot/internal/config"
	"predict-bot/internal/fault"
	"predict-bot/internal/venue"
)

// ErrSettlementTimeout 表示订单在限定时间内未到达终态。
var ErrSettlementTimeout = errors.New("execution: 结算等待超时")

// orderAPI 是执行器依赖的最小下单接口。
type orderAPI interface {
	PlaceOrder(ctx context.Context, req venue.OrderRequest) (venue.OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (venue.OrderResponse, error)
}

// Executor 负责真实下单并跟踪订单直至结算。
type Executor struct {
	client orderAPI
	cfg    config.ExecutionConfig
	logger *zap.Logger
}

// NewExecutor 创建执行器。
func NewExecutor(client orderAPI, cfg config.ExecutionConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Execute 提交订单并阻塞等待结算,返回终局结果。
func (e *Executor) Execute(ctx context.Context, ticket Ticket) (Result, error) {
	req, err := buildOrderRequest(ticket)
	if err != nil {
		return Result{}, fault.Wrap(fault.KindExecution, "build_order", err)
	}

	submittedAt := time.Now().UTC()
	resp, attempts, err := e.submitOrder(ctx, req)
	if err != nil {
		return Result{}, fault.Wrap(fault.KindExecution, "submit_order", err)
	}
	if resp.OrderID == "" {
		return Result{}, fault.Newf(fault.KindExecution, "submit_order", "下单响应缺少订单号")
	}

	order := Order{
		ID:             resp.OrderID,
		MarketID:       ticket.MarketID,
		Side:           req.Side,
		Outcome:        ticket.Outcome,
		Price:          ticket.Price,
		Quantity:       ticket.Stake,
		FilledQuantity: e.clampFilled(resp.OrderID, resp.FilledAmount, ticket.Stake),
		Fee:            resp.Fee,
		Status:         StatusPending,
		CreatedAt:      submittedAt,
	}

	status, settlement, err := statusFromVenue(resp.Status)
	if err != nil {
		return Result{}, fault.Wrap(fault.KindExecution, "submit_order", err)
	}
	if err := order.transition(status); err != nil {
		return Result{}, fault.Wrap(fault.KindExecution, "submit_order", err)
	}
	if order.Status == StatusFailed {
		return Result{}, fault.Newf(fault.KindExecution, "submit_order", "订单 %s 被拒绝", order.ID)
	}

	e.logger.Info("订单已提交",
		zap.String("order_id", order.ID),
		zap.String("market_id", order.MarketID),
		zap.String("outcome", order.Outcome),
		zap.Float64("stake", ticket.Stake),
		zap.Int("attempts", attempts),
	)

	if order.Status.Terminal() {
		return e.finalize(order, settlement, attempts, submittedAt), nil
	}
	return e.awaitSettlement(ctx, order, attempts, submittedAt)
}

// submitOrder 带指数退避重试提交订单,只重试可恢复错误。
func (e *Executor) submitOrder(ctx context.Context, req venue.OrderRequest) (venue.OrderResponse, int, error) {
	var lastErr error
	delay := e.cfg.Retry.MinDelay
	for attempt := 1; attempt <= e.cfg.Retry.MaxAttempts; attempt++ {
		resp, err := e.client.PlaceOrder(ctx, req)
		if err == nil {
			return resp, attempt, nil
		}
		lastErr = err

		if !venue.IsRetryable(err) {
			return venue.OrderResponse{}, attempt, err
		}
		if attempt == e.cfg.Retry.MaxAttempts {
			break
		}

		e.logger.Warn("下单失败，准备重试",
			zap.Int("attempt", attempt),
			zap.Duration("wait", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return venue.OrderResponse{}, attempt, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if e.cfg.Retry.MaxDelay > 0 && delay > e.cfg.Retry.MaxDelay {
			delay = e.cfg.Retry.MaxDelay
		}
	}

	return venue.OrderResponse{}, e.cfg.Retry.MaxAttempts, fmt.Errorf("execution: 重试后仍下单失败: %w", lastErr)
}

// clampFilled 把成交量约束在委托量以内,超量回报按委托量截断。
func (e *Executor) clampFilled(orderID string, filled, quantity float64) float64 {
	if filled <= quantity {
		return filled
	}
	e.logger.Warn("成交量超过委托量，按委托量记录",
		zap.String("order_id", orderID),
		zap.Float64("filled", filled),
		zap.Float64("quantity", quantity),
	)
	return quantity
}

// awaitSettlement 周期性查询订单状态直至终态或超时。
// 瞬时查询错误只记录不中断,非法状态或回退立即失败。
func (e *Executor) awaitSettlement(ctx context.Context, order Order, attempts int, submittedAt time.Time) (Result, error) {
	deadline := time.Now().Add(e.cfg.SettlementTimeout)
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{}, fault.Wrap(fault.KindSettlement, "await_settlement", ctx.Err())
		case <-ticker.C:
		}

		resp, err := e.client.GetOrder(ctx, order.ID)
		if err != nil {
			if !venue.IsRetryable(err) {
				return Result{}, fault.Wrap(fault.KindSettlement, "poll_order", err)
			}
			e.logger.Warn("查询结算状态失败，继续轮询",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
		} else {
			status, settlement, serr := statusFromVenue(resp.Status)
			if serr != nil {
				return Result{}, fault.Wrap(fault.KindSettlement, "poll_order", serr)
			}
			if resp.FilledAmount > 0 {
				order.FilledQuantity = e.clampFilled(order.ID, resp.FilledAmount, order.Quantity)
			}
			if resp.Fee > 0 {
				order.Fee = resp.Fee
			}
			if err := order.transition(status); err != nil {
				return Result{}, fault.Wrap(fault.KindSettlement, "poll_order", err)
			}
			if order.Status == StatusFailed {
				return Result{}, fault.Newf(fault.KindSettlement, "poll_order", "订单 %s 进入失败状态", order.ID)
			}
			if order.Status.Terminal() {
				return e.finalize(order, settlement, attempts, submittedAt), nil
			}
		}

		if time.Now().After(deadline) {
			return Result{}, fault.Wrap(fault.KindSettlement, "await_settlement",
				fmt.Errorf("%w: 订单 %s 等待超过 %s", ErrSettlementTimeout, order.ID, e.cfg.SettlementTimeout))
		}
	}
}

// finalize 依据结算结果计算盈亏并生成报告。
func (e *Executor) finalize(order Order, settlement Settlement, attempts int, submittedAt time.Time) Result {
	result := Result{
		Order:       order,
		Settlement:  settlement,
		PnL:         settlementPnL(order, settlement),
		Fee:         order.Fee,
		Attempts:    attempts,
		SubmittedAt: submittedAt,
		SettledAt:   time.Now().UTC(),
	}

	e.logger.Info("订单已结算",
		zap.String("order_id", order.ID),
		zap.String("settlement", string(settlement)),
		zap.Float64("pnl", result.PnL),
		zap.Float64("fee", result.Fee),
	)
	return result
}

// settlementPnL 计算终局盈亏:WIN 按每份兑付1计算回报,
// LOSS 份额归零,CANCELLED 全额退回。
func settlementPnL(order Order, settlement Settlement) float64 {
	filled := order.FilledQuantity
	switch settlement {
	case SettlementWin:
		return filled/order.Price - filled - order.Fee
	case SettlementLoss:
		return -filled - order.Fee
	default:
		return 0
	}
}

// buildOrderRequest 将交易意图转换为接口请求并做参数校验。
func buildOrderRequest(ticket Ticket) (venue.OrderRequest, error) {
	if ticket.MarketID == "" {
		return venue.OrderRequest{}, errors.New("execution: market_id 不能为空")
	}
	if ticket.Stake <= 0 {
		return venue.OrderRequest{}, fmt.Errorf("execution: 投入金额无效 stake=%.6f", ticket.Stake)
	}
	if ticket.Price <= 0 || ticket.Price > 1 {
		return venue.OrderRequest{}, fmt.Errorf("execution: 参考价格必须位于(0,1] price=%.6f", ticket.Price)
	}
	if ticket.Outcome != venue.OutcomeYes && ticket.Outcome != venue.OutcomeNo {
		return venue.OrderRequest{}, fmt.Errorf("execution: 未知结果方向 %q", ticket.Outcome)
	}

	side := ticket.Side
	if side == "" {
		side = venue.SideBuy
	}
	if side != venue.SideBuy && side != venue.SideSell {
		return venue.OrderRequest{}, fmt.Errorf("execution: 未知下单方向 %q", side)
	}

	orderType := ticket.OrderType
	if orderType == "" {
		orderType = venue.OrderTypeMarket
	}

	req := venue.OrderRequest{
		MarketID: ticket.MarketID,
		Side:     side,
		Outcome:  ticket.Outcome,
		Amount:   ticket.Stake,
		Type:     orderType,
	}

	switch orderType {
	case venue.OrderTypeMarket:
	case venue.OrderTypeLimit:
		req.Price = ticket.Price
	default:
		return venue.OrderRequest{}, fmt.Errorf("execution: 不支持的订单类型 %s", orderType)
	}

	return req, nil
}
