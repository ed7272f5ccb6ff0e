// Error types for ReactiveGo
// 错误类型定义，错误是一等的终结值，通过事件通道送达而不是被抛出
package reactivego

import (
	"errors"
	"fmt"
)

// ============================================================================
// 错误类型
// ============================================================================

// TimeoutError 超时操作符产生的终结错误
type TimeoutError struct {
	Message string
}

// Error 实现error接口
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reactivego: %s", e.Message)
}

// NewTimeoutError 创建超时错误
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{
		Message: message,
	}
}

// IsTimeoutError 检查错误是否来自超时操作符
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// NoElementsError 阻塞式取值在空信号上产生的错误
type NoElementsError struct {
	Message string
}

// Error 实现error接口
func (e *NoElementsError) Error() string {
	return fmt.Sprintf("reactivego: %s", e.Message)
}

// NewNoElementsError 创建空信号错误
func NewNoElementsError(message string) *NoElementsError {
	return &NoElementsError{
		Message: message,
	}
}
