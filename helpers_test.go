// Test helpers for ReactiveGo
// 测试辅助工具：事件收集与异步条件等待
package reactivego

import (
	"sync"
	"time"
)

// testWaitLong 异步断言的统一等待上限
const testWaitLong = 2 * time.Second

// collector 并发安全的事件收集器
type collector struct {
	mu        sync.Mutex
	values    []interface{}
	err       error
	completed bool
}

func newCollector() *collector {
	return &collector{}
}

func (c *collector) onNext(value interface{}) {
	c.mu.Lock()
	c.values = append(c.values, value)
	c.mu.Unlock()
}

func (c *collector) onError(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *collector) onCompleted() {
	c.mu.Lock()
	c.completed = true
	c.mu.Unlock()
}

// subscribeTo 用收集器订阅信号
func (c *collector) subscribeTo(s *Signal) Disposable {
	return s.SubscribeWithCallbacks(c.onNext, c.onError, c.onCompleted)
}

func (c *collector) snapshot() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.values))
	copy(out, c.values)
	return out
}

func (c *collector) valueCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

func (c *collector) lastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *collector) isCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// eventually 轮询等待条件成立，超时返回false
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
