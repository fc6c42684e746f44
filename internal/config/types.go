package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了机器人运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Market    MarketConfig    `mapstructure:"market"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	Signal    SignalConfig    `mapstructure:"signal"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Sizing    SizingConfig    `mapstructure:"sizing"`
	Venue     VenueConfig     `mapstructure:"venue"`
	Execution ExecutionConfig `mapstructure:"execution"`
	DryRun    DryRunConfig    `mapstructure:"dry_run"`
	Account   AccountConfig   `mapstructure:"account"`
	State     StateConfig     `mapstructure:"state"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// MarketConfig 描述被交易的预测市场。
type MarketConfig struct {
	ID          string `mapstructure:"id"`
	Description string `mapstructure:"description"`
}

// FeedConfig 描述行情流连接与缓冲参数。
type FeedConfig struct {
	URL            string        `mapstructure:"url"`
	BufferSize     int           `mapstructure:"buffer_size"`
	ChannelSize    int           `mapstructure:"channel_size"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// IndicatorConfig 控制技术指标窗口。
type IndicatorConfig struct {
	RSIPeriod  int `mapstructure:"rsi_period"`
	MACDFast   int `mapstructure:"macd_fast"`
	MACDSlow   int `mapstructure:"macd_slow"`
	MACDSignal int `mapstructure:"macd_signal"`
	BookDepth  int `mapstructure:"book_depth"`
}

// SignalConfig 控制信号判定阈值。
type SignalConfig struct {
	RSIOversold      float64 `mapstructure:"rsi_oversold"`
	RSIOverbought    float64 `mapstructure:"rsi_overbought"`
	BullishImbalance float64 `mapstructure:"bullish_imbalance"`
	BearishImbalance float64 `mapstructure:"bearish_imbalance"`
	Confidence       float64 `mapstructure:"confidence"`
}

// RiskConfig 管理风控熔断参数。
type RiskConfig struct {
	MaxDrawdownPercent  float64 `mapstructure:"max_drawdown_percent"`
	VolatilityThreshold float64 `mapstructure:"volatility_threshold_percent"`
	VolatilityWindow    int     `mapstructure:"volatility_window"`
	MinCapital          float64 `mapstructure:"min_capital"`
	MaxExposure         float64 `mapstructure:"max_exposure"`
	WarningRatio        float64 `mapstructure:"warning_ratio"`
}

// SizingConfig 控制连胜加仓公式。
type SizingConfig struct {
	BaseSize   float64 `mapstructure:"base_size"`
	Multiplier float64 `mapstructure:"multiplier"`
	MaxSize    float64 `mapstructure:"max_size"`
}

// VenueConfig 描述下单接口连接信息。
type VenueConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	RateBurst int           `mapstructure:"rate_burst"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// ExecutionConfig 控制下单与结算行为。
type ExecutionConfig struct {
	OrderType         string        `mapstructure:"order_type"`
	Retry             RetryConfig   `mapstructure:"retry"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	SettlementTimeout time.Duration `mapstructure:"settlement_timeout"`
	DryRun            bool          `mapstructure:"dry_run"`
}

// DryRunConfig 控制模拟成交行为。
type DryRunConfig struct {
	WinProbability float64 `mapstructure:"win_probability"`
	PayoutMin      float64 `mapstructure:"payout_min"`
	PayoutMax      float64 `mapstructure:"payout_max"`
	Seed           int64   `mapstructure:"seed"`
}

// AccountConfig 控制账户初始状态。
type AccountConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
}

// StateConfig 控制状态文件落盘位置。
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// DatabaseConfig 管理事件库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig 控制主循环节奏。
type SchedulerConfig struct {
	Cycles        int           `mapstructure:"cycles"`
	CycleInterval time.Duration `mapstructure:"cycle_interval"`
}

// MinSamples 返回产出完整指标快照所需的最小样本数。
func (c IndicatorConfig) MinSamples() int {
	rsi := c.RSIPeriod + 1
	macd := c.MACDSlow + c.MACDSignal
	if rsi > macd {
		return rsi
	}
	return macd
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Market.ID == "" {
		err = multierr.Append(err, errors.New("market.id 不能为空"))
	}
	if c.Feed.URL == "" {
		err = multierr.Append(err, errors.New("feed.url 不能为空"))
	}
	if c.Feed.BufferSize <= 0 {
		err = multierr.Append(err, errors.New("feed.buffer_size 必须大于0"))
	}
	if c.Feed.ChannelSize <= 0 {
		err = multierr.Append(err, errors.New("feed.channel_size 必须大于0"))
	}
	if c.Feed.ReconnectDelay <= 0 {
		err = multierr.Append(err, errors.New("feed.reconnect_delay 必须大于0"))
	}
	if c.Indicator.RSIPeriod <= 1 {
		err = multierr.Append(err, errors.New("indicator.rsi_period 必须大于1"))
	}
	if c.Indicator.MACDFast <= 0 || c.Indicator.MACDSlow <= 0 || c.Indicator.MACDSignal <= 0 {
		err = multierr.Append(err, errors.New("indicator.macd 各周期必须大于0"))
	}
	if c.Indicator.MACDFast >= c.Indicator.MACDSlow {
		err = multierr.Append(err, errors.New("indicator.macd_fast 必须小于 macd_slow"))
	}
	if c.Indicator.BookDepth <= 0 {
		err = multierr.Append(err, errors.New("indicator.book_depth 必须大于0"))
	}
	if c.Feed.BufferSize < c.Indicator.MinSamples() {
		err = multierr.Append(err, errors.New("feed.buffer_size 不能小于指标所需最小样本数"))
	}
	if c.Signal.RSIOversold <= 0 || c.Signal.RSIOversold >= 100 {
		err = multierr.Append(err, errors.New("signal.rsi_oversold 必须位于(0,100)"))
	}
	if c.Signal.RSIOverbought <= 0 || c.Signal.RSIOverbought >= 100 {
		err = multierr.Append(err, errors.New("signal.rsi_overbought 必须位于(0,100)"))
	}
	if c.Signal.RSIOversold >= c.Signal.RSIOverbought {
		err = multierr.Append(err, errors.New("signal.rsi_oversold 必须小于 rsi_overbought"))
	}
	if c.Signal.BullishImbalance <= 1 {
		err = multierr.Append(err, errors.New("signal.bullish_imbalance 必须大于1"))
	}
	if c.Signal.BearishImbalance <= 0 || c.Signal.BearishImbalance >= 1 {
		err = multierr.Append(err, errors.New("signal.bearish_imbalance 必须位于(0,1)"))
	}
	if c.Signal.Confidence <= 0 || c.Signal.Confidence > 1 {
		err = multierr.Append(err, errors.New("signal.confidence 必须位于(0,1]"))
	}
	if c.Risk.MaxDrawdownPercent <= 0 || c.Risk.MaxDrawdownPercent >= 100 {
		err = multierr.Append(err, errors.New("risk.max_drawdown_percent 必须位于(0,100)"))
	}
	if c.Risk.VolatilityThreshold <= 0 {
		err = multierr.Append(err, errors.New("risk.volatility_threshold_percent 必须大于0"))
	}
	if c.Risk.VolatilityWindow < 2 {
		err = multierr.Append(err, errors.New("risk.volatility_window 必须不小于2"))
	}
	if c.Risk.MinCapital <= 0 {
		err = multierr.Append(err, errors.New("risk.min_capital 必须大于0"))
	}
	if c.Risk.MaxExposure <= 0 {
		err = multierr.Append(err, errors.New("risk.max_exposure 必须大于0"))
	}
	if c.Risk.WarningRatio <= 0 || c.Risk.WarningRatio >= 1 {
		err = multierr.Append(err, errors.New("risk.warning_ratio 必须位于(0,1)"))
	}
	if c.Sizing.BaseSize <= 0 {
		err = multierr.Append(err, errors.New("sizing.base_size 必须大于0"))
	}
	if c.Sizing.Multiplier < 1 {
		err = multierr.Append(err, errors.New("sizing.multiplier 必须不小于1"))
	}
	if c.Sizing.MaxSize < c.Sizing.BaseSize {
		err = multierr.Append(err, errors.New("sizing.max_size 不能小于 base_size"))
	}
	if !c.Execution.DryRun {
		if c.Venue.BaseURL == "" {
			err = multierr.Append(err, errors.New("venue.base_url 不能为空"))
		}
		if c.Venue.APIKey == "" {
			err = multierr.Append(err, errors.New("venue.api_key 不能为空"))
		}
	}
	if c.Venue.Timeout <= 0 {
		err = multierr.Append(err, errors.New("venue.timeout 必须大于0"))
	}
	if c.Venue.RateLimit <= 0 {
		err = multierr.Append(err, errors.New("venue.rate_limit 必须大于0"))
	}
	if c.Venue.RateBurst <= 0 {
		err = multierr.Append(err, errors.New("venue.rate_burst 必须大于0"))
	}
	if c.Execution.OrderType != "market" && c.Execution.OrderType != "limit" {
		err = multierr.Append(err, errors.New("execution.order_type 只支持 market 或 limit"))
	}
	if c.Execution.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("execution.retry.max_attempts 必须大于0"))
	}
	if c.Execution.Retry.MinDelay <= 0 || c.Execution.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("execution.retry.delay 必须为正"))
	}
	if c.Execution.Retry.MinDelay > c.Execution.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("execution.retry.min_delay 不能大于 max_delay"))
	}
	if c.Execution.PollInterval <= 0 {
		err = multierr.Append(err, errors.New("execution.poll_interval 必须大于0"))
	}
	if c.Execution.SettlementTimeout <= c.Execution.PollInterval {
		err = multierr.Append(err, errors.New("execution.settlement_timeout 必须大于 poll_interval"))
	}
	if c.DryRun.WinProbability < 0 || c.DryRun.WinProbability > 1 {
		err = multierr.Append(err, errors.New("dry_run.win_probability 必须位于[0,1]"))
	}
	if c.DryRun.PayoutMin <= 1 {
		err = multierr.Append(err, errors.New("dry_run.payout_min 必须大于1"))
	}
	if c.DryRun.PayoutMax < c.DryRun.PayoutMin {
		err = multierr.Append(err, errors.New("dry_run.payout_max 不能小于 payout_min"))
	}
	if c.Account.InitialCapital <= 0 {
		err = multierr.Append(err, errors.New("account.initial_capital 必须大于0"))
	}
	if c.State.Dir == "" {
		err = multierr.Append(err, errors.New("state.dir 不能为空"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Scheduler.Cycles <= 0 {
		err = multierr.Append(err, errors.New("scheduler.cycles 必须大于0"))
	}
	if c.Scheduler.CycleInterval <= 0 {
		err = multierr.Append(err, errors.New("scheduler.cycle_interval 必须大于0"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
