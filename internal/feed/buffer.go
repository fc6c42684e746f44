package feed

import "sync"

// Buffer 是固定容量的价格环形缓冲区。写满后继续写入会淘汰最旧样本。
// 行情协程写入,调度循环读取,内部加锁。
type Buffer struct {
	mu       sync.Mutex
	samples  []PriceSample
	capacity int
	start    int
	count    int
}

// NewBuffer 创建容量为 capacity 的缓冲区,capacity 必须大于0。
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{
		samples:  make([]PriceSample, capacity),
		capacity: capacity,
	}
}

// Push 追加一个样本,必要时淘汰最旧的一个。
func (b *Buffer) Push(sample PriceSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.start + b.count) % b.capacity
	b.samples[idx] = sample
	if b.count < b.capacity {
		b.count++
		return
	}
	b.start = (b.start + 1) % b.capacity
}

// Len 返回当前样本数。
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Prices 按从旧到新返回全部价格的副本。
func (b *Buffer) Prices() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float64, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.samples[(b.start+i)%b.capacity].Price
	}
	return out
}

// TailPrices 返回最近 n 个价格(从旧到新),样本不足时返回全部。
func (b *Buffer) TailPrices(n int) []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = b.samples[(b.start+b.count-n+i)%b.capacity].Price
	}
	return out
}

// Last 返回最新样本,缓冲区为空时第二个返回值为 false。
func (b *Buffer) Last() (PriceSample, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return PriceSample{}, false
	}
	return b.samples[(b.start+b.count-1)%b.capacity], true
}
