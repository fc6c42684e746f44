package fault

import (
	"errors"
	"fmt"
)

// Kind 标识错误所属的故障类别,调度器据此区分周期级与进程级失败。
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindAPI
	KindExecution
	KindSettlement
	KindRisk
	KindPersistence
)

// String 返回类别的日志友好名称。
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAPI:
		return "api"
	case KindExecution:
		return "execution"
	case KindSettlement:
		return "settlement"
	case KindRisk:
		return "risk"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error 携带类别与操作名的包装错误。
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap 为 err 附加类别与操作名,err 为 nil 时返回 nil。
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf 构造带类别的新错误。
func Newf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf 返回错误链上最外层的类别,无类别时返回 KindUnknown。
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is 判断错误链上是否存在指定类别。
func Is(err error, kind Kind) bool {
	for err != nil {
		var fe *Error
		if !errors.As(err, &fe) {
			return false
		}
		if fe.Kind == kind {
			return true
		}
		err = fe.Err
	}
	return false
}
