package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"predict-bot/internal/account"
	"predict-bot/internal/config"
	"predict-bot/internal/execution"
	"predict-bot/internal/fault"
	"predict-bot/internal/feed"
	"predict-bot/internal/indicator"
	"predict-bot/internal/monitor"
	"predict-bot/internal/predict"
	"predict-bot/internal/risk"
	"predict-bot/internal/sizing"
	"predict-bot/internal/state"
	"predict-bot/internal/store"
	"predict-bot/internal/venue"
)

// marketData 是调度器需要的行情视图,便于测试注入。
type marketData interface {
	Run(ctx context.Context) error
	Ready() bool
	SampleCount() int
	Prices() []float64
	TailPrices(n int) []float64
	LastPrice() (float64, bool)
	Book() feed.Book
	Close() error
}

// orchestrator 驱动单市场的感知、决策、执行闭环。
type orchestrator struct {
	cfg    *config.Config
	logger *zap.Logger

	feed    marketData
	calc    *indicator.Calculator
	engine  *predict.Engine
	risk    *risk.Manager
	alloc   *sizing.Allocator
	trader  execution.Trader
	acct    *account.State
	states  *state.Store
	metrics state.Metrics
	monitor *monitor.Service
	venue   *venue.Client
}

func newOrchestrator(cfg *config.Config, logger *zap.Logger, db *store.DB) (*orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	monitorSvc, err := monitor.NewService(db, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化监控服务失败: %w", err)
	}

	states, err := state.NewStore(cfg.State, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化状态存储失败: %w", err)
	}

	acct := loadAccount(cfg, states, logger)

	metrics, resumed := states.LoadMetrics()
	if resumed {
		logger.Info("恢复历史运行指标", zap.Int("cycles_completed", metrics.CyclesCompleted))
	}

	wsClient := feed.NewClient(cfg.Feed, cfg.Market.ID, logger)
	marketFeed := feed.New(wsClient, cfg.Feed.BufferSize, cfg.Indicator.MinSamples(), logger)

	var (
		trader      execution.Trader
		venueClient *venue.Client
	)
	if cfg.Execution.DryRun {
		logger.Info("执行器处于模拟模式")
		trader = execution.NewDryRunTrader(cfg.DryRun, logger)
	} else {
		venueClient = venue.NewClient(cfg.Venue, logger)
		trader = execution.NewExecutor(venueClient, cfg.Execution, logger)
	}

	return &orchestrator{
		cfg:     cfg,
		logger:  logger,
		feed:    marketFeed,
		calc:    indicator.NewCalculator(cfg.Indicator),
		engine:  predict.NewEngine(cfg.Signal),
		risk:    risk.NewManager(cfg.Risk, logger),
		alloc:   sizing.NewAllocator(cfg.Sizing),
		trader:  trader,
		acct:    acct,
		states:  states,
		metrics: metrics,
		monitor: monitorSvc,
		venue:   venueClient,
	}, nil
}

// loadAccount 恢复历史账户状态;缺失、跨市场或损坏时以初始资金重新开始。
func loadAccount(cfg *config.Config, states *state.Store, logger *zap.Logger) *account.State {
	snap, ok := states.LoadState()
	if !ok {
		logger.Info("未发现历史状态，以初始资金启动", zap.Float64("capital", cfg.Account.InitialCapital))
		return account.New(cfg.Account.InitialCapital)
	}
	if snap.MarketID != cfg.Market.ID {
		logger.Warn("历史状态属于其它市场，忽略并重新开始",
			zap.String("saved", snap.MarketID),
			zap.String("configured", cfg.Market.ID),
		)
		return account.New(cfg.Account.InitialCapital)
	}
	acct, err := account.FromSnapshot(snap)
	if err != nil {
		logger.Warn("历史状态恢复失败，重新开始", zap.Error(err))
		return account.New(cfg.Account.InitialCapital)
	}
	logger.Info("恢复历史状态",
		zap.Float64("capital", acct.CurrentCapital()),
		zap.Float64("peak_capital", acct.PeakCapital()),
		zap.Int("win_streak", acct.WinStreak()),
		zap.String("status", string(acct.Status())),
	)
	return acct
}

// run 驱动固定数量的交易周期,周期之间等待固定间隔。
// 外部中断只在周期边界生效;周期级失败跳过本周期,进程级失败立即返回。
func (o *orchestrator) run(ctx context.Context) error {
	o.logger.Info("交易循环启动",
		zap.Int("cycles", o.cfg.Scheduler.Cycles),
		zap.Duration("cycle_interval", o.cfg.Scheduler.CycleInterval),
		zap.Float64("capital", o.acct.CurrentCapital()),
	)

	for cycle := 1; cycle <= o.cfg.Scheduler.Cycles; cycle++ {
		select {
		case <-ctx.Done():
			o.logger.Info("收到退出信号，在周期边界停止", zap.Int("completed", cycle-1))
			return nil
		default:
		}

		if err := o.runCycle(ctx, cycle); err != nil {
			return err
		}

		if cycle < o.cfg.Scheduler.Cycles {
			select {
			case <-ctx.Done():
				o.logger.Info("收到退出信号，在周期边界停止", zap.Int("completed", cycle))
				return nil
			case <-time.After(o.cfg.Scheduler.CycleInterval):
			}
		}
	}

	o.logger.Info("全部交易周期完成", zap.Int("cycles", o.cfg.Scheduler.Cycles))
	return nil
}

// runCycle 执行一个感知、决策、执行、落账周期。
// 返回非 nil 即进程级失败,调用方随即停机。
func (o *orchestrator) runCycle(ctx context.Context, cycle int) error {
	log := o.logger.With(zap.Int("cycle", cycle))

	if !o.feed.Ready() {
		log.Warn("行情尚未就绪，跳过本周期", zap.Int("samples", o.feed.SampleCount()))
		return o.completeCycle(ctx, log)
	}

	snap, err := o.calc.Compute(o.feed.Prices(), o.feed.Book())
	if err != nil {
		log.Warn("指标计算失败，跳过本周期", zap.Error(err))
		o.monitor.RecordError(ctx, "指标计算失败", err, map[string]interface{}{"cycle": cycle})
		return o.completeCycle(ctx, log)
	}

	lastPrice, ok := o.feed.LastPrice()
	if !ok {
		log.Warn("缺少最新成交价，跳过本周期")
		return o.completeCycle(ctx, log)
	}

	signal := o.engine.Evaluate(snap)
	o.monitor.RecordSignal(ctx, signal, lastPrice)
	log.Info("信号评估完成",
		zap.String("direction", string(signal.Direction)),
		zap.Float64("confidence", signal.Confidence),
		zap.Float64("rsi", snap.RSI),
		zap.Float64("macd_line", snap.MACDLine),
		zap.Float64("imbalance", snap.Imbalance),
	)

	if !signal.Actionable() {
		o.metrics.SignalSkips++
		log.Info("信号为观望，本周期不交易", zap.String("rationale", signal.Rationale))
		return o.completeCycle(ctx, log)
	}

	approval := o.risk.ApproveTrade(o.acct, o.feed.TailPrices(o.cfg.Risk.VolatilityWindow))
	o.monitor.RecordRisk(ctx, approval)
	o.metrics.ObserveDrawdown(approval.Metrics.DrawdownPercent)
	o.metrics.ObservePeak(approval.Metrics.PeakCapital)

	if !approval.Approved {
		if approval.Blocked(risk.ReasonDrawdownBreaker) || approval.Blocked(risk.ReasonBotHalted) {
			return o.haltOnRisk(ctx, log, cycle, approval)
		}
		o.metrics.RiskSkips++
		log.Warn("风控拦截，跳过本周期", zap.Any("reasons", approval.Reasons))
		return o.completeCycle(ctx, log)
	}

	stake := o.alloc.Size(o.acct)
	if stake <= 0 {
		o.metrics.RiskSkips++
		log.Warn("计算投入为0，跳过本周期", zap.Float64("capital", o.acct.CurrentCapital()))
		return o.completeCycle(ctx, log)
	}

	// 看跌买入 NO 合约,其价格为 1-最新成交价
	outcome := venue.OutcomeYes
	entryPrice := lastPrice
	if signal.Direction == predict.DirectionDown {
		outcome = venue.OutcomeNo
		entryPrice = 1 - lastPrice
	}
	ticket := execution.Ticket{
		MarketID:  o.cfg.Market.ID,
		Outcome:   outcome,
		Stake:     stake,
		Price:     entryPrice,
		OrderType: o.cfg.Execution.OrderType,
	}

	o.acct.Reserve(stake)
	o.metrics.TradesSubmitted++
	log.Info("提交交易",
		zap.String("outcome", outcome),
		zap.Float64("stake", stake),
		zap.Float64("price", entryPrice),
		zap.Int("win_streak", o.acct.WinStreak()),
	)

	// 在途订单不随外部取消中断,结算跟踪必须走到终态或超时
	result, err := o.trader.Execute(context.WithoutCancel(ctx), ticket)
	if err != nil {
		return o.handleExecutionError(ctx, log, cycle, err, stake)
	}

	o.acct.Release(stake)
	o.applyOutcome(result)
	o.monitor.RecordExecution(ctx, result)
	o.monitor.RecordSettlement(ctx, result, o.acct.CurrentCapital(), o.acct.WinStreak())

	if err := o.appendTradeRecord(result); err != nil {
		log.Error("写入成交流水失败", zap.Error(err))
		o.monitor.RecordError(ctx, "写入成交流水失败", err, map[string]interface{}{"order_id": result.Order.ID})
		return err
	}

	log.Info("交易结算完成",
		zap.String("order_id", result.Order.ID),
		zap.String("settlement", string(result.Settlement)),
		zap.Float64("pnl", result.PnL),
		zap.Float64("capital", o.acct.CurrentCapital()),
		zap.Int("win_streak", o.acct.WinStreak()),
	)

	return o.completeCycle(ctx, log)
}

// haltOnRisk 处理触发熔断的风控结论:停机、落盘、返回进程级错误。
func (o *orchestrator) haltOnRisk(ctx context.Context, log *zap.Logger, cycle int, approval risk.Approval) error {
	o.acct.Halt()

	reason := string(risk.ReasonDrawdownBreaker)
	detail := "风控熔断"
	if len(approval.Reasons) > 0 {
		reason = string(approval.Reasons[0].Code)
		detail = approval.Reasons[0].Message
	}

	payload := monitor.HaltPayload{
		Reason:          reason,
		Cycle:           cycle,
		Capital:         approval.Metrics.Capital,
		PeakCapital:     approval.Metrics.PeakCapital,
		DrawdownPercent: approval.Metrics.DrawdownPercent,
	}
	o.monitor.RecordHalt(ctx, payload)

	log.Error("风控熔断触发，机器人停机",
		zap.String("reason", reason),
		zap.Float64("capital", payload.Capital),
		zap.Float64("peak_capital", payload.PeakCapital),
		zap.Float64("drawdown_percent", payload.DrawdownPercent),
	)

	if err := o.persist(); err != nil {
		log.Error("停机状态持久化失败", zap.Error(err))
	}

	return fault.Newf(fault.KindRisk, reason, "%s,机器人停机", detail)
}

// handleExecutionError 对执行失败分级:下单与结算类失败只终止本周期,
// 结算超时额外保留在途资金;其余类别一律停机。
func (o *orchestrator) handleExecutionError(ctx context.Context, log *zap.Logger, cycle int, err error, stake float64) error {
	o.monitor.RecordError(ctx, "交易执行失败", err, map[string]interface{}{"cycle": cycle})

	switch fault.KindOf(err) {
	case fault.KindExecution, fault.KindAPI:
		o.acct.Release(stake)
		log.Error("下单失败，跳过本周期", zap.Error(err))
		return o.completeCycle(ctx, log)
	case fault.KindSettlement:
		if errors.Is(err, execution.ErrSettlementTimeout) {
			o.metrics.SettlementTimeouts++
			log.Error("结算等待超时，订单可能仍在场内，保留在途资金",
				zap.Float64("reserved", stake),
				zap.Error(err),
			)
		} else {
			o.acct.Release(stake)
			log.Error("结算跟踪失败，跳过本周期", zap.Error(err))
		}
		return o.completeCycle(ctx, log)
	default:
		log.Error("不可恢复错误，机器人停机", zap.Error(err))
		o.monitor.RecordHalt(ctx, monitor.HaltPayload{
			Reason:      fault.KindOf(err).String(),
			Cycle:       cycle,
			Capital:     o.acct.CurrentCapital(),
			PeakCapital: o.acct.PeakCapital(),
		})
		if perr := o.persist(); perr != nil {
			log.Error("停机状态持久化失败", zap.Error(perr))
		}
		return err
	}
}

// applyOutcome 将终局结算落账,每个周期只落账一次。
func (o *orchestrator) applyOutcome(result execution.Result) {
	switch result.Settlement {
	case execution.SettlementWin:
		o.acct.RecordWin(result.PnL)
		o.metrics.RecordWin()
	case execution.SettlementLoss:
		o.acct.RecordLoss(result.PnL)
		o.metrics.RecordLoss()
	default:
		o.acct.RecordCancelled()
		o.metrics.RecordCancelled()
	}
}

func (o *orchestrator) appendTradeRecord(result execution.Result) error {
	return o.states.AppendTrade(state.TradeRecord{
		OrderID:    result.Order.ID,
		MarketID:   result.Order.MarketID,
		Outcome:    result.Order.Outcome,
		Settlement: string(result.Settlement),
		Stake:      result.Order.Quantity,
		PnL:        result.PnL,
		Fee:        result.Fee,
		CreatedAt:  result.SubmittedAt,
		ExecutedAt: result.SettledAt,
	})
}

// completeCycle 收束一个周期:计数并把状态与指标落盘。落盘失败即停机。
func (o *orchestrator) completeCycle(ctx context.Context, log *zap.Logger) error {
	o.metrics.CyclesCompleted++
	o.metrics.UpdatedAt = time.Now().UTC()

	if err := o.persist(); err != nil {
		log.Error("周期状态持久化失败", zap.Error(err))
		o.monitor.RecordError(ctx, "状态持久化失败", err, nil)
		return err
	}

	log.Info("周期完成",
		zap.Int("cycles_completed", o.metrics.CyclesCompleted),
		zap.Float64("capital", o.acct.CurrentCapital()),
		zap.Float64("exposure", o.acct.Exposure()),
	)
	return nil
}

func (o *orchestrator) persist() error {
	if err := o.states.SaveState(o.acct.Snapshot(o.cfg.Market.ID)); err != nil {
		return err
	}
	return o.states.SaveMetrics(o.metrics)
}

// shutdown 收尾:关闭行情与下单连接,落盘最终状态,输出总结报告。
func (o *orchestrator) shutdown() {
	if err := o.feed.Close(); err != nil {
		o.logger.Warn("关闭行情连接失败", zap.Error(err))
	}
	if o.venue != nil {
		if err := o.venue.Close(); err != nil {
			o.logger.Warn("关闭下单连接失败", zap.Error(err))
		}
	}

	o.metrics.UpdatedAt = time.Now().UTC()
	if err := o.persist(); err != nil {
		o.logger.Error("最终状态持久化失败", zap.Error(err))
	}

	o.logger.Info("运行总结",
		zap.Int("cycles_completed", o.metrics.CyclesCompleted),
		zap.Int("trades_submitted", o.metrics.TradesSubmitted),
		zap.Int("wins", o.metrics.Wins),
		zap.Int("losses", o.metrics.Losses),
		zap.Int("cancellations", o.metrics.Cancellations),
		zap.Int("signal_skips", o.metrics.SignalSkips),
		zap.Int("risk_skips", o.metrics.RiskSkips),
		zap.Int("settlement_timeouts", o.metrics.SettlementTimeouts),
		zap.Float64("final_capital", o.acct.CurrentCapital()),
		zap.Float64("peak_capital", o.acct.PeakCapital()),
		zap.Float64("max_drawdown_percent", o.metrics.MaxDrawdownPercent),
		zap.String("status", string(o.acct.Status())),
	)
}
