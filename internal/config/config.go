package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "predict"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("market.description", "")

	v.SetDefault("feed.buffer_size", 100)
	v.SetDefault("feed.channel_size", 64)
	v.SetDefault("feed.reconnect_delay", "5s")

	v.SetDefault("indicator.rsi_period", 14)
	v.SetDefault("indicator.macd_fast", 12)
	v.SetDefault("indicator.macd_slow", 26)
	v.SetDefault("indicator.macd_signal", 9)
	v.SetDefault("indicator.book_depth", 10)

	v.SetDefault("signal.rsi_oversold", 30)
	v.SetDefault("signal.rsi_overbought", 70)
	v.SetDefault("signal.bullish_imbalance", 1.1)
	v.SetDefault("signal.bearish_imbalance", 0.9)
	v.SetDefault("signal.confidence", 0.70)

	v.SetDefault("risk.max_drawdown_percent", 30)
	v.SetDefault("risk.volatility_threshold_percent", 3)
	v.SetDefault("risk.volatility_window", 5)
	v.SetDefault("risk.min_capital", 10)
	v.SetDefault("risk.max_exposure", 50)
	v.SetDefault("risk.warning_ratio", 0.8)

	v.SetDefault("sizing.base_size", 5.0)
	v.SetDefault("sizing.multiplier", 1.5)
	v.SetDefault("sizing.max_size", 25.0)

	v.SetDefault("venue.timeout", "30s")
	v.SetDefault("venue.rate_limit", 5)
	v.SetDefault("venue.rate_burst", 10)

	v.SetDefault("execution.order_type", "market")
	v.SetDefault("execution.retry.max_attempts", 3)
	v.SetDefault("execution.retry.min_delay", "2s")
	v.SetDefault("execution.retry.max_delay", "8s")
	v.SetDefault("execution.poll_interval", "10s")
	v.SetDefault("execution.settlement_timeout", "5m")
	v.SetDefault("execution.dry_run", false)

	v.SetDefault("dry_run.win_probability", 0.55)
	v.SetDefault("dry_run.payout_min", 1.6)
	v.SetDefault("dry_run.payout_max", 2.2)
	v.SetDefault("dry_run.seed", 0)

	v.SetDefault("account.initial_capital", 100.0)

	v.SetDefault("state.dir", "data")

	v.SetDefault("database.path", "data/predict_bot.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("scheduler.cycles", 18)
	v.SetDefault("scheduler.cycle_interval", "5m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
