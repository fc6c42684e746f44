package sizing

import (
	"math"

	"predict-bot/internal/config"
)

// AccountView 是仓位计算所需的最小账户视图。
type AccountView interface {
	CurrentCapital() float64
	WinStreak() int
}

// Allocator 按连胜倍增公式计算下一笔投入。
type Allocator struct {
	cfg config.SizingConfig
}

// NewAllocator 创建仓位分配器。
func NewAllocator(cfg config.SizingConfig) *Allocator {
	return &Allocator{cfg: cfg}
}

// Size 返回下一笔交易投入:
// min(base_size × multiplier^连胜次数, max_size, 当前资金的一半)。
// 纯计算,不修改账户,也不做任何 I/O。
func (a *Allocator) Size(view AccountView) float64 {
	size := a.cfg.BaseSize * math.Pow(a.cfg.Multiplier, float64(view.WinStreak()))
	if size > a.cfg.MaxSize {
		size = a.cfg.MaxSize
	}
	if half := view.CurrentCapital() * 0.5; size > half {
		size = half
	}
	return size
}
