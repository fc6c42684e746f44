package state

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"predict-bot/internal/account"
	"predict-bot/internal/config"
	"predict-bot/internal/fault"
)

const (
	stateFile   = "bot_state.json"
	metricsFile = "metrics.json"
	tradesFile  = "trades.log"
)

// TradeRecord 是成交流水中的一行,按 JSONL 追加。
type TradeRecord struct {
	OrderID    string    `json:"order_id"`
	MarketID   string    `json:"market_id"`
	Outcome    string    `json:"outcome"`
	Settlement string    `json:"settlement"`
	Stake      float64   `json:"stake"`
	PnL        float64   `json:"pnl"`
	Fee        float64   `json:"fee"`
	CreatedAt  time.Time `json:"created_at"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Store 管理状态文件、指标文件与成交流水。
// 状态与指标整文件原子覆盖,流水只追加。
type Store struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex
}

// NewStore 创建存储并确保目录存在。
func NewStore(cfg config.StateConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fault.Wrap(fault.KindPersistence, "init_state_dir", fmt.Errorf("创建状态目录失败: %w", err))
	}
	return &Store{
		dir:    cfg.Dir,
		logger: logger,
	}, nil
}

// SaveState 原子化写入账户快照,失败视为持久化故障。
func (s *Store) SaveState(snap account.Snapshot) error {
	if err := s.writeAtomic(stateFile, snap); err != nil {
		return fault.Wrap(fault.KindPersistence, "save_state", err)
	}
	return nil
}

// LoadState 读取并校验账户快照。
// 文件缺失、损坏或校验失败都返回 ok=false 表示全新开始,绝不报错中止。
func (s *Store) LoadState() (account.Snapshot, bool) {
	path := filepath.Join(s.dir, stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("读取状态文件失败，按全新状态启动", zap.String("path", path), zap.Error(err))
		}
		return account.Snapshot{}, false
	}

	var snap account.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("状态文件无法解析，按全新状态启动", zap.String("path", path), zap.Error(err))
		return account.Snapshot{}, false
	}
	if snap.Version != account.SnapshotVersion {
		s.logger.Warn("状态文件版本不匹配，按全新状态启动",
			zap.Int("got", snap.Version),
			zap.Int("want", account.SnapshotVersion),
		)
		return account.Snapshot{}, false
	}
	if err := snap.Validate(); err != nil {
		s.logger.Warn("状态文件校验失败，按全新状态启动", zap.String("path", path), zap.Error(err))
		return account.Snapshot{}, false
	}
	return snap, true
}

// SaveMetrics 原子化写入运行指标。
func (s *Store) SaveMetrics(m Metrics) error {
	if err := s.writeAtomic(metricsFile, m); err != nil {
		return fault.Wrap(fault.KindPersistence, "save_metrics", err)
	}
	return nil
}

// LoadMetrics 读取运行指标,缺失或损坏时返回 ok=false。
func (s *Store) LoadMetrics() (Metrics, bool) {
	path := filepath.Join(s.dir, metricsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("读取指标文件失败，重新统计", zap.String("path", path), zap.Error(err))
		}
		return Metrics{}, false
	}

	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("指标文件无法解析，重新统计", zap.String("path", path), zap.Error(err))
		return Metrics{}, false
	}
	if err := m.Validate(); err != nil {
		s.logger.Warn("指标文件校验失败，重新统计", zap.String("path", path), zap.Error(err))
		return Metrics{}, false
	}
	return m, true
}

// AppendTrade 向流水追加一行成交记录。
func (s *Store) AppendTrade(rec TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fault.Wrap(fault.KindPersistence, "append_trade", err)
	}

	path := filepath.Join(s.dir, tradesFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fault.Wrap(fault.KindPersistence, "append_trade", err)
	}

	_, werr := fmt.Fprintln(f, string(data))
	cerr := f.Close()
	if err := multierr.Append(werr, cerr); err != nil {
		return fault.Wrap(fault.KindPersistence, "append_trade", err)
	}
	return nil
}

// ReadTrades 读取全部流水记录。
// 无法解析的行(如宕机留下的残行)跳过并告警,不中断读取。
func (s *Store) ReadTrades() ([]TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, tradesFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fault.Wrap(fault.KindPersistence, "read_trades", err)
	}
	defer f.Close()

	var records []TradeRecord
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec TradeRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			s.logger.Warn("流水记录无法解析，跳过",
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fault.Wrap(fault.KindPersistence, "read_trades", err)
	}
	return records, nil
}

// writeAtomic 先写临时文件并落盘,再重命名覆盖目标文件。
func (s *Store) writeAtomic(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	cerr := tmp.Close()
	if err := multierr.Append(werr, cerr); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
