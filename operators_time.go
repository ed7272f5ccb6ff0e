// Time-based operators for ReactiveGo
// 时间相关操作符：节流、延迟与超时
package reactivego

import (
	"sync"
	"time"
)

// ============================================================================
// 节流
// ============================================================================

// Throttle 值到达后等待interval，期间有新值则丢弃旧值重新计时。
// 等待期满发送最后一个值；完成事件先把待发值刷出再完成，错误立即传出
func (s *Signal) Throttle(interval time.Duration) *Signal {
	return s.ThrottleWhile(interval, func(interface{}) bool {
		return true
	}).NameWithFormat("[%s] -Throttle(%v)", s.Name(), interval)
}

// ThrottleWhile 只节流谓词为真的值；谓词为假的值立即发送，
// 并顺带把之前压着的待发值丢弃
func (s *Signal) ThrottleWhile(interval time.Duration, predicate func(value interface{}) bool) *Signal {
	if predicate == nil {
		panic("reactivego: predicate must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()
		fallbackScheduler := NewScheduler("reactivego.throttle")

		var mu sync.Mutex
		var pending interface{}
		hasPending := false
		nextDisposable := NewSerialDisposable()
		compound.Add(nextDisposable)

		// 必须在持有mu时调用
		flush := func(send bool) {
			nextDisposable.SetDisposable(nil)
			if !hasPending {
				return
			}
			value := pending
			pending = nil
			hasPending = false
			if send {
				subscriber.SendNext(value)
			}
		}

		subscriptionDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				delayScheduler := CurrentScheduler()
				if delayScheduler == nil {
					delayScheduler = fallbackScheduler
				}
				shouldThrottle := predicate(value)

				mu.Lock()
				flush(false)
				if !shouldThrottle {
					subscriber.SendNext(value)
					mu.Unlock()
					return
				}

				pending = value
				hasPending = true
				nextDisposable.SetDisposable(ScheduleAfterDelay(delayScheduler, interval, func() {
					mu.Lock()
					flush(true)
					mu.Unlock()
				}))
				mu.Unlock()
			},
			func(err error) {
				compound.Dispose()
				subscriber.SendError(err)
			},
			func() {
				// 完成先于计时器触发时，待发值随完成一起刷出；
				// 之后醒来的计时器看到的是空状态
				mu.Lock()
				flush(true)
				subscriber.SendCompleted()
				mu.Unlock()
			})
		compound.Add(subscriptionDisposable)

		return compound
	}).NameWithFormat("[%s] -ThrottleWhile(%v)", s.Name(), interval)
}

// ============================================================================
// 延迟与超时
// ============================================================================

// Delay 把值和完成事件推迟interval后发送，错误不延迟
func (s *Signal) Delay(interval time.Duration) *Signal {
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()
		fallbackScheduler := NewScheduler("reactivego.delay")

		schedule := func(action func()) {
			delayScheduler := CurrentScheduler()
			if delayScheduler == nil {
				delayScheduler = fallbackScheduler
			}
			compound.Add(ScheduleAfterDelay(delayScheduler, interval, action))
		}

		subscriptionDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				schedule(func() {
					subscriber.SendNext(value)
				})
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				schedule(func() {
					subscriber.SendCompleted()
				})
			})
		compound.Add(subscriptionDisposable)

		return compound
	}).NameWithFormat("[%s] -Delay(%v)", s.Name(), interval)
}

// Timeout 源在interval内没有终结就在scheduler上发出超时错误并退订源。
// 源的任何事件都按原样转发，终结事件顺带取消超时计时
func (s *Signal) Timeout(interval time.Duration, scheduler Scheduler) *Signal {
	if scheduler == nil {
		panic("reactivego: scheduler must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()

		timeoutDisposable := ScheduleAfterDelay(scheduler, interval, func() {
			compound.Dispose()
			subscriber.SendError(NewTimeoutError("signal did not terminate within the timeout"))
		})
		compound.Add(timeoutDisposable)

		subscriptionDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				subscriber.SendNext(value)
			},
			func(err error) {
				compound.Dispose()
				subscriber.SendError(err)
			},
			func() {
				compound.Dispose()
				subscriber.SendCompleted()
			})
		compound.Add(subscriptionDisposable)

		return compound
	}).NameWithFormat("[%s] -Timeout(%v)", s.Name(), interval)
}
