package venue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// APIError 表示下单接口返回的非 2xx 响应。
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("下单接口返回 %d: %s", e.StatusCode, e.Body)
}

// Transient 报告该响应是否属于瞬时故障:限流或服务端错误。
// 4xx 意味着请求本身有问题,重试不会改变结果。
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable 判断错误是否可重试:网络错误与瞬时 API 错误可重试,
// 上下文取消与客户端错误不可。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
