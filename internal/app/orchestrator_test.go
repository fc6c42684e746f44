package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"testing"
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
)

// fakeMarket 提供固定不变的行情视图。
type fakeMarket struct {
	ready  bool
	prices []float64
	book   feed.Book
	closed bool
}

func (m *fakeMarket) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *fakeMarket) Ready() bool      { return m.ready }
func (m *fakeMarket) SampleCount() int { return len(m.prices) }

func (m *fakeMarket) Prices() []float64 {
	return append([]float64(nil), m.prices...)
}

func (m *fakeMarket) TailPrices(n int) []float64 {
	if n >= len(m.prices) {
		return m.Prices()
	}
	return append([]float64(nil), m.prices[len(m.prices)-n:]...)
}

func (m *fakeMarket) LastPrice() (float64, bool) {
	if len(m.prices) == 0 {
		return 0, false
	}
	return m.prices[len(m.prices)-1], true
}

func (m *fakeMarket) Book() feed.Book { return m.book }

func (m *fakeMarket) Close() error {
	m.closed = true
	return nil
}

type traderStep struct {
	result execution.Result
	err    error
}

// fakeTrader 按脚本返回执行结果并记录收到的交易单。
type fakeTrader struct {
	mu      sync.Mutex
	tickets []execution.Ticket
	steps   []traderStep
}

func (f *fakeTrader) Execute(_ context.Context, ticket execution.Ticket) (execution.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets = append(f.tickets, ticket)
	if len(f.steps) == 0 {
		return execution.Result{}, errors.New("no scripted result")
	}
	step := f.steps[0]
	if len(f.steps) > 1 {
		f.steps = f.steps[1:]
	}
	return step.result, step.err
}

func (f *fakeTrader) ticketCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickets)
}

func testAppConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Market: config.MarketConfig{ID: "mkt-btc-60k"},
		Indicator: config.IndicatorConfig{
			RSIPeriod:  3,
			MACDFast:   3,
			MACDSlow:   5,
			MACDSignal: 2,
			BookDepth:  5,
		},
		Signal: config.SignalConfig{
			// 超卖线抬到101,任何RSI都满足,方向只由MACD与盘口决定
			RSIOversold:      101,
			RSIOverbought:    200,
			BullishImbalance: 1.2,
			BearishImbalance: 0.8,
			Confidence:       0.7,
		},
		Risk: config.RiskConfig{
			MaxDrawdownPercent:  20,
			VolatilityThreshold: 500,
			VolatilityWindow:    5,
			MinCapital:          10,
			MaxExposure:         50,
			WarningRatio:        0.8,
		},
		Sizing:    config.SizingConfig{BaseSize: 5, Multiplier: 2, MaxSize: 20},
		Execution: config.ExecutionConfig{OrderType: "market"},
		Account:   config.AccountConfig{InitialCapital: 100},
		State:     config.StateConfig{Dir: t.TempDir()},
		Scheduler: config.SchedulerConfig{Cycles: 1, CycleInterval: time.Millisecond},
	}
}

// risingMarket 构造单调上行的行情:MACD在信号线上方,买盘量是卖盘两倍。
func risingMarket() *fakeMarket {
	prices := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		prices = append(prices, 0.30+0.01*float64(i))
	}
	return &fakeMarket{
		ready:  true,
		prices: prices,
		book: feed.Book{
			Bids:      []feed.BookLevel{{Price: 0.68, Quantity: 20}},
			Asks:      []feed.BookLevel{{Price: 0.70, Quantity: 10}},
			UpdatedAt: time.Now().UTC(),
		},
	}
}

// fallingMarket 构造单调下行的行情:MACD在信号线下方,卖盘量是买盘两倍。
func fallingMarket() *fakeMarket {
	prices := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		prices = append(prices, 0.69-0.01*float64(i))
	}
	return &fakeMarket{
		ready:  true,
		prices: prices,
		book: feed.Book{
			Bids:      []feed.BookLevel{{Price: 0.29, Quantity: 10}},
			Asks:      []feed.BookLevel{{Price: 0.31, Quantity: 20}},
			UpdatedAt: time.Now().UTC(),
		},
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, market marketData, trader execution.Trader) *orchestrator {
	t.Helper()

	logger := zap.NewNop()
	db, err := store.Open(config.DatabaseConfig{InMemory: true, MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("store.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	monitorSvc, err := monitor.NewService(db, logger)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	states, err := state.NewStore(cfg.State, logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	acct := loadAccount(cfg, states, logger)
	metrics, _ := states.LoadMetrics()

	return &orchestrator{
		cfg:     cfg,
		logger:  logger,
		feed:    market,
		calc:    indicator.NewCalculator(cfg.Indicator),
		engine:  predict.NewEngine(cfg.Signal),
		risk:    risk.NewManager(cfg.Risk, logger),
		alloc:   sizing.NewAllocator(cfg.Sizing),
		trader:  trader,
		acct:    acct,
		states:  states,
		metrics: metrics,
		monitor: monitorSvc,
	}
}

func settledResult(settlement execution.Settlement, pnl float64) execution.Result {
	now := time.Now().UTC()
	return execution.Result{
		Order: execution.Order{
			ID:             "ord-1",
			MarketID:       "mkt-btc-60k",
			Outcome:        "YES",
			Price:          0.69,
			Quantity:       5,
			FilledQuantity: 5,
			Fee:            0.05,
			Status:         execution.StatusSettled,
		},
		Settlement:  settlement,
		PnL:         pnl,
		Fee:         0.05,
		Attempts:    1,
		SubmittedAt: now,
		SettledAt:   now,
	}
}

func absDiff(a, b float64) float64 {
	return math.Abs(a - b)
}

func TestOrchestratorRunCycle_SkipsWhenFeedNotReady(t *testing.T) {
	cfg := testAppConfig(t)
	trader := &fakeTrader{}
	orch := newTestOrchestrator(t, cfg, &fakeMarket{ready: false}, trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if trader.ticketCount() != 0 {
		t.Errorf("expected no trades while feed not ready, got %d", trader.ticketCount())
	}
	if orch.metrics.CyclesCompleted != 1 {
		t.Errorf("expected 1 completed cycle, got %d", orch.metrics.CyclesCompleted)
	}
	if _, ok := orch.states.LoadState(); !ok {
		t.Errorf("expected account state persisted after cycle")
	}
}

func TestOrchestratorRunCycle_TradesAndSettlesWin(t *testing.T) {
	cfg := testAppConfig(t)
	trader := &fakeTrader{steps: []traderStep{{result: settledResult(execution.SettlementWin, 4.95)}}}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}

	if trader.ticketCount() != 1 {
		t.Fatalf("expected 1 ticket, got %d", trader.ticketCount())
	}
	ticket := trader.tickets[0]
	if ticket.MarketID != "mkt-btc-60k" || ticket.Outcome != "YES" {
		t.Errorf("unexpected ticket: %+v", ticket)
	}
	if absDiff(ticket.Stake, 5) > 1e-9 {
		t.Errorf("expected base stake 5 at streak 0, got %f", ticket.Stake)
	}
	if absDiff(ticket.Price, 0.69) > 1e-9 {
		t.Errorf("expected last price 0.69 as reference, got %f", ticket.Price)
	}
	if ticket.OrderType != "market" {
		t.Errorf("expected order type market, got %s", ticket.OrderType)
	}

	if absDiff(orch.acct.CurrentCapital(), 104.95) > 1e-9 {
		t.Errorf("expected capital 104.95 after win, got %f", orch.acct.CurrentCapital())
	}
	if orch.acct.WinStreak() != 1 {
		t.Errorf("expected win streak 1, got %d", orch.acct.WinStreak())
	}
	if orch.acct.Exposure() != 0 {
		t.Errorf("expected exposure released after settlement, got %f", orch.acct.Exposure())
	}
	if orch.metrics.TradesSubmitted != 1 || orch.metrics.Wins != 1 {
		t.Errorf("unexpected metrics: %+v", orch.metrics)
	}

	records, err := orch.states.ReadTrades()
	if err != nil {
		t.Fatalf("ReadTrades returned error: %v", err)
	}
	if len(records) != 1 || records[0].OrderID != "ord-1" {
		t.Errorf("expected single ledger row for ord-1, got %+v", records)
	}

	events, err := orch.monitor.ListEvents(context.Background(), monitor.EventSettlement, 5)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 settlement event, got %d", len(events))
	}
}

func TestOrchestratorRunCycle_DownSignalBuysNoAtComplement(t *testing.T) {
	cfg := testAppConfig(t)
	// 超买线压到-1,任何RSI都满足,方向只由MACD与盘口决定
	cfg.Signal.RSIOversold = -2
	cfg.Signal.RSIOverbought = -1

	result := settledResult(execution.SettlementWin, 2.1)
	result.Order.Outcome = "NO"
	result.Order.Price = 0.70
	trader := &fakeTrader{steps: []traderStep{{result: result}}}
	orch := newTestOrchestrator(t, cfg, fallingMarket(), trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if trader.ticketCount() != 1 {
		t.Fatalf("expected 1 ticket, got %d", trader.ticketCount())
	}
	ticket := trader.tickets[0]
	if ticket.Outcome != "NO" {
		t.Errorf("expected NO outcome for down signal, got %s", ticket.Outcome)
	}
	if absDiff(ticket.Price, 0.70) > 1e-9 {
		t.Errorf("expected complement price 0.70 for NO side, got %f", ticket.Price)
	}
	if absDiff(orch.acct.CurrentCapital(), 102.1) > 1e-9 {
		t.Errorf("expected capital 102.1 after settled win, got %f", orch.acct.CurrentCapital())
	}
}

func TestOrchestratorRunCycle_NeutralBookSkipsSignal(t *testing.T) {
	cfg := testAppConfig(t)
	market := risingMarket()
	market.book = feed.Book{
		Bids:      []feed.BookLevel{{Price: 0.68, Quantity: 10}},
		Asks:      []feed.BookLevel{{Price: 0.70, Quantity: 10}},
		UpdatedAt: time.Now().UTC(),
	}
	trader := &fakeTrader{}
	orch := newTestOrchestrator(t, cfg, market, trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if trader.ticketCount() != 0 {
		t.Errorf("expected no trade on skip signal, got %d", trader.ticketCount())
	}
	if orch.metrics.SignalSkips != 1 {
		t.Errorf("expected 1 signal skip, got %d", orch.metrics.SignalSkips)
	}
}

func TestOrchestratorRunCycle_StreakRaisesStake(t *testing.T) {
	cfg := testAppConfig(t)
	trader := &fakeTrader{steps: []traderStep{{result: settledResult(execution.SettlementWin, 3)}}}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	acct, err := account.FromSnapshot(account.Snapshot{
		Version:       account.SnapshotVersion,
		MarketID:      cfg.Market.ID,
		Capital:       100,
		PeakCapital:   100,
		WinStreak:     2,
		TotalTrades:   2,
		WinningTrades: 2,
		Status:        account.StatusActive,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("FromSnapshot returned error: %v", err)
	}
	orch.acct = acct

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if trader.ticketCount() != 1 {
		t.Fatalf("expected 1 ticket, got %d", trader.ticketCount())
	}
	if absDiff(trader.tickets[0].Stake, 20) > 1e-9 {
		t.Errorf("expected stake 5*2^2=20 at streak 2, got %f", trader.tickets[0].Stake)
	}
}

func TestOrchestratorRunCycle_DrawdownHaltsBot(t *testing.T) {
	cfg := testAppConfig(t)
	trader := &fakeTrader{}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	acct, err := account.FromSnapshot(account.Snapshot{
		Version:     account.SnapshotVersion,
		MarketID:    cfg.Market.ID,
		Capital:     70,
		PeakCapital: 100,
		Status:      account.StatusActive,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("FromSnapshot returned error: %v", err)
	}
	orch.acct = acct

	err = orch.runCycle(context.Background(), 1)
	if err == nil {
		t.Fatal("expected process-level error on drawdown breach")
	}
	if fault.KindOf(err) != fault.KindRisk {
		t.Errorf("expected risk kind, got %s", fault.KindOf(err))
	}
	if !strings.Contains(err.Error(), "熔断") {
		t.Errorf("expected breaker message, got %v", err)
	}
	if !orch.acct.Halted() {
		t.Errorf("expected account halted after breach")
	}
	if trader.ticketCount() != 0 {
		t.Errorf("expected no trade in halting cycle, got %d", trader.ticketCount())
	}

	snap, ok := orch.states.LoadState()
	if !ok {
		t.Fatal("expected halted state persisted")
	}
	if snap.Status != account.StatusHalted {
		t.Errorf("expected persisted status halted, got %s", snap.Status)
	}

	events, listErr := orch.monitor.ListEvents(context.Background(), monitor.EventHalt, 5)
	if listErr != nil {
		t.Fatalf("ListEvents returned error: %v", listErr)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 halt event, got %d", len(events))
	}
	raw, ok := events[0].Payload.(json.RawMessage)
	if !ok {
		t.Fatalf("unexpected payload type %T", events[0].Payload)
	}
	var payload monitor.HaltPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal halt payload: %v", err)
	}
	if payload.Reason != string(risk.ReasonDrawdownBreaker) {
		t.Errorf("expected halt reason drawdown_breaker, got %s", payload.Reason)
	}
}

func TestOrchestratorRunCycle_ResumedHaltStopsBeforeTrading(t *testing.T) {
	cfg := testAppConfig(t)
	trader := &fakeTrader{}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	orch.acct.Halt()

	err := orch.runCycle(context.Background(), 1)
	if err == nil {
		t.Fatal("expected process-level error for halted account")
	}
	if fault.KindOf(err) != fault.KindRisk {
		t.Errorf("expected risk kind, got %s", fault.KindOf(err))
	}
	if !strings.Contains(err.Error(), "已停机") {
		t.Errorf("expected halted-account message, got %v", err)
	}
	if trader.ticketCount() != 0 {
		t.Errorf("expected no trade for halted account, got %d", trader.ticketCount())
	}
}

func TestOrchestratorRunCycle_SettlementTimeoutKeepsExposure(t *testing.T) {
	cfg := testAppConfig(t)
	timeoutErr := fault.Wrap(fault.KindSettlement, "await_settlement",
		fmt.Errorf("%w: 订单 ord-9 等待超过 1s", execution.ErrSettlementTimeout))
	trader := &fakeTrader{steps: []traderStep{{err: timeoutErr}}}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("expected timeout to end the cycle only, got %v", err)
	}
	if absDiff(orch.acct.Exposure(), 5) > 1e-9 {
		t.Errorf("expected reservation kept on timeout, got exposure %f", orch.acct.Exposure())
	}
	if absDiff(orch.acct.CurrentCapital(), 100) > 1e-9 {
		t.Errorf("expected capital unchanged, got %f", orch.acct.CurrentCapital())
	}
	if orch.metrics.SettlementTimeouts != 1 || orch.metrics.TradesSubmitted != 1 {
		t.Errorf("unexpected metrics: %+v", orch.metrics)
	}
}

func TestOrchestratorRunCycle_SubmitErrorReleasesExposure(t *testing.T) {
	cfg := testAppConfig(t)
	submitErr := fault.Newf(fault.KindExecution, "place_order", "下单接口返回 503")
	trader := &fakeTrader{steps: []traderStep{{err: submitErr}}}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("expected submit failure to end the cycle only, got %v", err)
	}
	if orch.acct.Exposure() != 0 {
		t.Errorf("expected exposure released on submit failure, got %f", orch.acct.Exposure())
	}
	if orch.metrics.TradesSubmitted != 1 || orch.metrics.Wins != 0 {
		t.Errorf("unexpected metrics: %+v", orch.metrics)
	}
	records, err := orch.states.ReadTrades()
	if err != nil {
		t.Fatalf("ReadTrades returned error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no ledger rows for failed trade, got %d", len(records))
	}
}

func TestOrchestratorRunCycle_UnknownErrorIsFatal(t *testing.T) {
	cfg := testAppConfig(t)
	fatalErr := fault.Newf(fault.KindPersistence, "ledger", "磁盘写入失败")
	trader := &fakeTrader{steps: []traderStep{{err: fatalErr}}}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	err := orch.runCycle(context.Background(), 1)
	if err == nil {
		t.Fatal("expected fatal error to propagate")
	}
	if fault.KindOf(err) != fault.KindPersistence {
		t.Errorf("expected original kind preserved, got %s", fault.KindOf(err))
	}
}

func TestOrchestratorRunCycle_LossResetsStreak(t *testing.T) {
	cfg := testAppConfig(t)
	trader := &fakeTrader{steps: []traderStep{{result: settledResult(execution.SettlementLoss, -5.05)}}}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if absDiff(orch.acct.CurrentCapital(), 94.95) > 1e-9 {
		t.Errorf("expected capital 94.95 after loss, got %f", orch.acct.CurrentCapital())
	}
	if orch.acct.WinStreak() != 0 {
		t.Errorf("expected streak reset after loss, got %d", orch.acct.WinStreak())
	}
	if orch.metrics.Losses != 1 {
		t.Errorf("expected 1 loss recorded, got %d", orch.metrics.Losses)
	}
}

func TestOrchestratorRunCycle_CancelledKeepsCapital(t *testing.T) {
	cfg := testAppConfig(t)
	trader := &fakeTrader{steps: []traderStep{{result: settledResult(execution.SettlementCancelled, 0)}}}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	if err := orch.runCycle(context.Background(), 1); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if absDiff(orch.acct.CurrentCapital(), 100) > 1e-9 {
		t.Errorf("expected capital unchanged on cancellation, got %f", orch.acct.CurrentCapital())
	}
	if orch.metrics.Cancellations != 1 {
		t.Errorf("expected 1 cancellation recorded, got %d", orch.metrics.Cancellations)
	}
}

func TestOrchestratorCompleteCycle_PersistFailureIsFatal(t *testing.T) {
	cfg := testAppConfig(t)
	orch := newTestOrchestrator(t, cfg, &fakeMarket{}, &fakeTrader{})

	if err := os.RemoveAll(cfg.State.Dir); err != nil {
		t.Fatalf("remove state dir: %v", err)
	}

	err := orch.runCycle(context.Background(), 1)
	if err == nil {
		t.Fatal("expected persistence failure to be fatal")
	}
	if fault.KindOf(err) != fault.KindPersistence {
		t.Errorf("expected persistence kind, got %s", fault.KindOf(err))
	}
}

func TestOrchestratorRun_CompletesConfiguredCycles(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Scheduler.Cycles = 3
	cfg.Scheduler.CycleInterval = time.Millisecond
	orch := newTestOrchestrator(t, cfg, &fakeMarket{}, &fakeTrader{})

	if err := orch.run(context.Background()); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if orch.metrics.CyclesCompleted != 3 {
		t.Errorf("expected 3 completed cycles, got %d", orch.metrics.CyclesCompleted)
	}
}

func TestOrchestratorRun_StopsAtBoundaryWhenCancelled(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Scheduler.Cycles = 100
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trader := &fakeTrader{}
	orch := newTestOrchestrator(t, cfg, risingMarket(), trader)

	if err := orch.run(ctx); err != nil {
		t.Fatalf("expected quiet exit after cancel, got %v", err)
	}
	if orch.metrics.CyclesCompleted != 0 {
		t.Errorf("expected no cycles after pre-cancelled context, got %d", orch.metrics.CyclesCompleted)
	}
	if trader.ticketCount() != 0 {
		t.Errorf("expected no trades after cancel, got %d", trader.ticketCount())
	}
}

func TestLoadAccount_IgnoresForeignMarketState(t *testing.T) {
	cfg := testAppConfig(t)
	logger := zap.NewNop()
	states, err := state.NewStore(cfg.State, logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	foreign := account.New(500)
	if err := states.SaveState(foreign.Snapshot("mkt-eth-4k")); err != nil {
		t.Fatalf("SaveState returned error: %v", err)
	}

	acct := loadAccount(cfg, states, logger)
	if absDiff(acct.CurrentCapital(), cfg.Account.InitialCapital) > 1e-9 {
		t.Errorf("expected fresh capital %f for foreign snapshot, got %f",
			cfg.Account.InitialCapital, acct.CurrentCapital())
	}
}

func TestLoadAccount_RestoresMatchingState(t *testing.T) {
	cfg := testAppConfig(t)
	logger := zap.NewNop()
	states, err := state.NewStore(cfg.State, logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	prev := account.New(100)
	prev.RecordWin(8)
	if err := states.SaveState(prev.Snapshot(cfg.Market.ID)); err != nil {
		t.Fatalf("SaveState returned error: %v", err)
	}

	acct := loadAccount(cfg, states, logger)
	if absDiff(acct.CurrentCapital(), 108) > 1e-9 {
		t.Errorf("expected restored capital 108, got %f", acct.CurrentCapital())
	}
	if acct.WinStreak() != 1 {
		t.Errorf("expected restored streak 1, got %d", acct.WinStreak())
	}
}
