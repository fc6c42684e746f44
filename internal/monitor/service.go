package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"predict-bot/internal/execution"
	"predict-bot/internal/fault"
	"predict-bot/internal/predict"
	"predict-bot/internal/risk"
	"predict-bot/internal/store"
)

// Service 负责持久化监控事件。写入失败只告警,从不打断交易主流程。
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService 初始化监控服务,创建所需表结构。
func NewService(db *store.DB, logger *zap.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("monitor: 数据库不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:     db.Conn(),
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS bot_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bot_events_type ON bot_events(event_type);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("monitor: 初始化表失败: %w", err)
	}
	return nil
}

// Record 写入单个事件。
func (s *Service) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("monitor: 序列化事件失败: %w", err)
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bot_events (event_type, payload, created_at) VALUES (?, ?, ?)`,
		string(event.Type), string(payload), event.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("monitor: 写入事件失败: %w", err)
	}

	return nil
}

// RecordSignal 记录信号评估结果。
func (s *Service) RecordSignal(ctx context.Context, sig predict.Signal, lastPrice float64) {
	payload := SignalPayload{
		Direction:  string(sig.Direction),
		Confidence: sig.Confidence,
		RSI:        sig.Snapshot.RSI,
		MACDLine:   sig.Snapshot.MACDLine,
		MACDSignal: sig.Snapshot.MACDSignal,
		Imbalance:  sig.Snapshot.Imbalance,
		LastPrice:  lastPrice,
		Rationale:  sig.Rationale,
	}
	if err := s.Record(ctx, Event{Type: EventSignal, Payload: payload}); err != nil {
		s.logger.Warn("记录信号事件失败", zap.Error(err))
	}
}

// RecordRisk 记录风控评估。
func (s *Service) RecordRisk(ctx context.Context, approval risk.Approval) {
	reasons := make([]string, 0, len(approval.Reasons))
	for _, reason := range approval.Reasons {
		reasons = append(reasons, fmt.Sprintf("%s: %s", reason.Code, reason.Message))
	}
	payload := RiskPayload{
		Approved:          approval.Approved,
		Reasons:           reasons,
		Warnings:          approval.Warnings,
		Capital:           approval.Metrics.Capital,
		PeakCapital:       approval.Metrics.PeakCapital,
		Exposure:          approval.Metrics.Exposure,
		DrawdownPercent:   approval.Metrics.DrawdownPercent,
		VolatilityPercent: approval.Metrics.VolatilityPercent,
	}
	if err := s.Record(ctx, Event{Type: EventRiskEvaluation, Payload: payload}); err != nil {
		s.logger.Warn("记录风控事件失败", zap.Error(err))
	}
}

// RecordExecution 记录订单执行结果。
func (s *Service) RecordExecution(ctx context.Context, result execution.Result) {
	payload := ExecutionPayload{
		OrderID:   result.Order.ID,
		MarketID:  result.Order.MarketID,
		Outcome:   result.Order.Outcome,
		Stake:     result.Order.Quantity,
		Price:     result.Order.Price,
		Status:    string(result.Order.Status),
		Attempts:  result.Attempts,
		Simulated: result.Simulated,
	}
	if err := s.Record(ctx, Event{Type: EventExecution, Payload: payload}); err != nil {
		s.logger.Warn("记录执行事件失败", zap.Error(err))
	}
}

// RecordSettlement 记录结算落账后的账户变化。
func (s *Service) RecordSettlement(ctx context.Context, result execution.Result, capital float64, winStreak int) {
	payload := SettlementPayload{
		OrderID:    result.Order.ID,
		Settlement: string(result.Settlement),
		PnL:        result.PnL,
		Fee:        result.Fee,
		Capital:    capital,
		WinStreak:  winStreak,
	}
	if err := s.Record(ctx, Event{Type: EventSettlement, Payload: payload}); err != nil {
		s.logger.Warn("记录结算事件失败", zap.Error(err))
	}
}

// RecordError 记录异常及其故障类别。
func (s *Service) RecordError(ctx context.Context, msg string, err error, ctxMap map[string]interface{}) {
	payload := ErrorPayload{
		Message: msg,
		Error:   err.Error(),
		Kind:    fault.KindOf(err).String(),
		Context: ctxMap,
	}
	if recErr := s.Record(ctx, Event{Type: EventError, Payload: payload}); recErr != nil {
		s.logger.Warn("记录异常事件失败", zap.Error(recErr))
	}
}

// RecordHalt 记录停机事件。
func (s *Service) RecordHalt(ctx context.Context, payload HaltPayload) {
	if err := s.Record(ctx, Event{Type: EventHalt, Payload: payload}); err != nil {
		s.logger.Warn("记录停机事件失败", zap.Error(err))
	}
}

// ListEvents 按类型检索最近事件,时间倒序。
func (s *Service) ListEvents(ctx context.Context, eventType EventType, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT event_type, payload, created_at FROM bot_events`
	args := make([]interface{}, 0, 2)
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, string(eventType))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monitor: 查询事件失败: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			typ     string
			payload string
			created string
		)
		if scanErr := rows.Scan(&typ, &payload, &created); scanErr != nil {
			return nil, fmt.Errorf("monitor: 解析事件失败: %w", scanErr)
		}

		ts, parseErr := time.Parse(time.RFC3339, created)
		if parseErr != nil {
			ts = time.Now().UTC()
		}

		events = append(events, Event{
			Type:      EventType(typ),
			Timestamp: ts,
			Payload:   json.RawMessage(payload),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monitor: 读取事件失败: %w", err)
	}

	return events, nil
}
