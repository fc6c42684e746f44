package app

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"predict-bot/internal/config"
	"predict-bot/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *store.DB
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, db *store.DB) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
}

// Run 构建调度器并运行固定周期数的交易循环。
// 行情摄取与交易循环各占一个协程;交易循环结束或进程级失败时整体退出。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("预测市场机器人已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("market_id", a.cfg.Market.ID),
		zap.Bool("dry_run", a.cfg.Execution.DryRun),
		zap.Int("cycles", a.cfg.Scheduler.Cycles),
	)

	orch, err := newOrchestrator(a.cfg, a.logger, a.db)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return orch.feed.Run(groupCtx)
	})

	group.Go(func() error {
		defer cancel()
		return orch.run(groupCtx)
	})

	err = group.Wait()
	orch.shutdown()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
