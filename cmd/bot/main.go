package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"predict-bot/internal/app"
	"predict-bot/internal/config"
	"predict-bot/internal/log"
	"predict-bot/internal/store"
)

func main() {
	var (
		configPath string
		mode       string
		logLevel   string
	)
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.StringVar(&mode, "mode", "", "运行模式 live 或 dry-run，覆盖配置文件")
	flag.StringVar(&logLevel, "log-level", "", "日志级别，覆盖配置文件")
	flag.Parse()

	// .env 只服务本地开发,文件缺失时静默跳过
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	switch mode {
	case "":
	case "live":
		cfg.Execution.DryRun = false
	case "dry-run":
		cfg.Execution.DryRun = true
	default:
		fmt.Fprintf(os.Stderr, "未知运行模式 %q，仅支持 live 或 dry-run\n", mode)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if mode != "" || logLevel != "" {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "配置校验失败: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.Error("初始化数据库失败", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("关闭数据库失败", zap.Error(closeErr))
		}
	}()

	bot := app.New(cfg, logger, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil {
		logger.Error("系统运行异常", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("系统已安全退出")
}
