package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"predict-bot/internal/config"
)

const handshakeTimeout = 10 * time.Second

// Client 维护到行情服务的 websocket 连接,断线后按固定间隔无限重连。
// 行情中断从不致命,缓冲样本不足时由调度循环跳过周期。
type Client struct {
	url            string
	marketID       string
	reconnectDelay time.Duration
	logger         *zap.Logger

	ticks chan PriceSample
	books chan Book

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
}

type wireMessage struct {
	Type      string       `json:"type"`
	MarketID  string       `json:"market_id"`
	Price     float64      `json:"price"`
	Timestamp string       `json:"timestamp"`
	Bids      [][2]float64 `json:"bids"`
	Asks      [][2]float64 `json:"asks"`
}

type subscribeMessage struct {
	Type     string   `json:"type"`
	MarketID string   `json:"market_id"`
	Channels []string `json:"channels"`
}

// NewClient 创建行情客户端。
func NewClient(cfg config.FeedConfig, marketID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:            cfg.URL,
		marketID:       marketID,
		reconnectDelay: cfg.ReconnectDelay,
		logger:         logger,
		ticks:          make(chan PriceSample, cfg.ChannelSize),
		books:          make(chan Book, cfg.ChannelSize),
	}
}

// Ticks 返回成交样本通道。
func (c *Client) Ticks() <-chan PriceSample { return c.ticks }

// Books 返回盘口快照通道。
func (c *Client) Books() <-chan Book { return c.books }

// Connected 报告当前是否在线。
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run 进入连接循环,直到 ctx 取消或客户端被关闭。
func (c *Client) Run(ctx context.Context) error {
	for {
		if c.isClosed() {
			return nil
		}

		if err := c.runOnce(ctx); err != nil {
			c.logger.Warn("行情连接中断", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("连接行情服务失败: %w", err)
	}

	c.setConn(conn)
	defer c.clearConn()

	if err := conn.WriteJSON(subscribeMessage{
		Type:     "subscribe",
		MarketID: c.marketID,
		Channels: []string{"trades", "book"},
	}); err != nil {
		return fmt.Errorf("发送订阅请求失败: %w", err)
	}

	c.logger.Info("行情服务已连接", zap.String("market_id", c.marketID))

	// ctx 取消时主动断开,促使 ReadJSON 立即返回。
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || c.isClosed() {
				return nil
			}
			return fmt.Errorf("读取行情消息失败: %w", err)
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg wireMessage) {
	switch msg.Type {
	case "trade":
		if msg.Price <= 0 || msg.Price > 1 {
			c.logger.Warn("丢弃越界成交价", zap.Float64("price", msg.Price))
			return
		}
		sample := PriceSample{Price: msg.Price, Timestamp: parseTimestamp(msg.Timestamp)}
		select {
		case c.ticks <- sample:
		default:
			c.logger.Warn("成交通道已满,丢弃样本", zap.Float64("price", msg.Price))
		}
	case "book":
		book := Book{
			Bids:      toLevels(msg.Bids),
			Asks:      toLevels(msg.Asks),
			UpdatedAt: parseTimestamp(msg.Timestamp),
		}
		select {
		case c.books <- book:
		default:
			c.logger.Warn("盘口通道已满,丢弃快照")
		}
	default:
		c.logger.Debug("忽略未知行情消息", zap.String("type", msg.Type))
	}
}

// Close 关闭连接并终止重连循环。
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.connected = true
}

func (c *Client) clearConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.connected = false
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return ts.UTC()
}

func toLevels(raw [][2]float64) []BookLevel {
	levels := make([]BookLevel, 0, len(raw))
	for _, pair := range raw {
		levels = append(levels, BookLevel{Price: pair[0], Quantity: pair[1]})
	}
	return levels
}
