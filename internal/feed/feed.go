package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// source 抽象行情来源,便于测试注入。
type source interface {
	Run(ctx context.Context) error
	Ticks() <-chan PriceSample
	Books() <-chan Book
	Connected() bool
	Close() error
}

// Feed 消费行情流并维护价格缓冲与最新盘口。
type Feed struct {
	client     source
	buffer     *Buffer
	minSamples int
	logger     *zap.Logger

	mu   sync.RWMutex
	book Book
}

// New 创建行情服务。minSamples 是产出完整指标所需的最小样本数。
func New(client source, bufferSize, minSamples int, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		client:     client,
		buffer:     NewBuffer(bufferSize),
		minSamples: minSamples,
		logger:     logger,
	}
}

// Run 启动连接循环与消费循环,直到 ctx 取消。
func (f *Feed) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return f.client.Run(groupCtx)
	})

	group.Go(func() error {
		return f.consume(groupCtx)
	})

	return group.Wait()
}

func (f *Feed) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sample := <-f.client.Ticks():
			f.buffer.Push(sample)
		case book := <-f.client.Books():
			f.setBook(book)
		}
	}
}

// Ready 报告是否具备产出交易信号的条件:在线且样本充足。
func (f *Feed) Ready() bool {
	return f.client.Connected() && f.buffer.Len() >= f.minSamples
}

// SampleCount 返回缓冲内样本数。
func (f *Feed) SampleCount() int {
	return f.buffer.Len()
}

// Prices 返回全部价格样本(从旧到新)。
func (f *Feed) Prices() []float64 {
	return f.buffer.Prices()
}

// TailPrices 返回最近 n 个价格。
func (f *Feed) TailPrices(n int) []float64 {
	return f.buffer.TailPrices(n)
}

// LastPrice 返回最新成交价。
func (f *Feed) LastPrice() (float64, bool) {
	sample, ok := f.buffer.Last()
	if !ok {
		return 0, false
	}
	return sample.Price, true
}

// Book 返回最新盘口快照的副本。
func (f *Feed) Book() Book {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.book
}

// Close 关闭底层行情连接。
func (f *Feed) Close() error {
	return f.client.Close()
}

func (f *Feed) setBook(book Book) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.book = book
}
