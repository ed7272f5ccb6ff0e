// Blocking helpers for ReactiveGo
// 阻塞式取值：把异步信号同步地收敛成值、错误或值列表
package reactivego

import (
	"sync"
)

// First 阻塞等待第一个值。信号没有发出任何值就完成时返回NoElementsError
func (s *Signal) First() (value interface{}, ok bool, err error) {
	value, ok, err = s.FirstOrDefault(nil)
	if err == nil && !ok {
		return nil, false, NewNoElementsError("signal completed without sending a value")
	}
	return value, ok, err
}

// FirstOrDefault 阻塞等待第一个值，空完成时返回defaultValue且ok为假
func (s *Signal) FirstOrDefault(defaultValue interface{}) (value interface{}, ok bool, err error) {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)

	value = defaultValue
	done := false

	s.Take(1).SubscribeWithCallbacks(
		func(v interface{}) {
			mu.Lock()
			value = v
			ok = true
			mu.Unlock()
		},
		func(e error) {
			mu.Lock()
			err = e
			done = true
			cond.Broadcast()
			mu.Unlock()
		},
		func() {
			mu.Lock()
			done = true
			cond.Broadcast()
			mu.Unlock()
		})

	mu.Lock()
	for !done {
		cond.Wait()
	}
	mu.Unlock()

	if err != nil {
		return defaultValue, false, err
	}
	return value, ok, nil
}

// Wait 阻塞到信号终结，完成返回nil，出错返回该错误
func (s *Signal) Wait() error {
	_, _, err := s.IgnoreValues().FirstOrDefault(nil)
	return err
}

// ToSlice 阻塞收集全部值。出错时丢弃已收到的值只返回错误
func (s *Signal) ToSlice() ([]interface{}, error) {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)

	var values []interface{}
	var terminalErr error
	done := false

	s.SubscribeWithCallbacks(
		func(v interface{}) {
			mu.Lock()
			values = append(values, v)
			mu.Unlock()
		},
		func(e error) {
			mu.Lock()
			terminalErr = e
			done = true
			cond.Broadcast()
			mu.Unlock()
		},
		func() {
			mu.Lock()
			done = true
			cond.Broadcast()
			mu.Unlock()
		})

	mu.Lock()
	for !done {
		cond.Wait()
	}
	mu.Unlock()

	if terminalErr != nil {
		return nil, terminalErr
	}
	return values, nil
}
