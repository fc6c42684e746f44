package execution

import (
	"fmt"
	"strings"
	"time"
)

// Status 是订单生命周期状态,只允许单向推进。
type Status string

const (
	StatusPending   Status = "pending"
	StatusMatched   Status = "matched"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal 报告状态是否为终态。
func (s Status) Terminal() bool {
	switch s {
	case StatusSettled, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// Settlement 是订单的终局结算结果。
type Settlement string

const (
	SettlementWin       Settlement = "WIN"
	SettlementLoss      Settlement = "LOSS"
	SettlementCancelled Settlement = "CANCELLED"
)

// Ticket 描述一次待执行的交易意图,由调度器依据信号构造。
type Ticket struct {
	MarketID  string
	Side      string
	Outcome   string
	Stake     float64
	Price     float64
	OrderType string
}

// Order 跟踪一笔在途订单,由执行器独占直到终态。
type Order struct {
	ID             string
	MarketID       string
	Side           string
	Outcome        string
	Price          float64
	Quantity       float64
	FilledQuantity float64
	Fee            float64
	Status         Status
	CreatedAt      time.Time
}

// Result 为一次执行的终局摘要。
type Result struct {
	Order       Order
	Settlement  Settlement
	PnL         float64
	Fee         float64
	Attempts    int
	Simulated   bool
	SubmittedAt time.Time
	SettledAt   time.Time
}

// 状态机只允许这些推进;轮询间隔内漏看中间状态时可以跳级,但永不回退。
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusMatched:   true,
		StatusSettled:   true,
		StatusCancelled: true,
		StatusFailed:    true,
	},
	StatusMatched: {
		StatusSettled:   true,
		StatusCancelled: true,
	},
}

// transition 推进订单状态,拒绝任何回退或越权转移。
func (o *Order) transition(next Status) error {
	if next == o.Status {
		return nil
	}
	if allowed := allowedTransitions[o.Status]; !allowed[next] {
		return fmt.Errorf("execution: 非法状态转移 %s -> %s", o.Status, next)
	}
	o.Status = next
	return nil
}

// statusFromVenue 将接口返回的状态文本映射为内部状态与结算结果。
// 未知文本一律报错,绝不猜测。
func statusFromVenue(raw string) (Status, Settlement, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, "", nil
	case "matched", "executed":
		return StatusMatched, "", nil
	case "settled_win":
		return StatusSettled, SettlementWin, nil
	case "settled_loss":
		return StatusSettled, SettlementLoss, nil
	case "cancelled", "canceled":
		return StatusCancelled, SettlementCancelled, nil
	case "failed":
		return StatusFailed, "", nil
	default:
		return "", "", fmt.Errorf("execution: 未知订单状态 %q", raw)
	}
}
