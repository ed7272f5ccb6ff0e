// Factory functions for ReactiveGo
// 工厂函数，从常见数据源创建信号
package reactivego

import (
	"time"
)

// ============================================================================
// 基础工厂函数
// ============================================================================

// Just 从给定的值创建信号，依次发送后完成
func Just(values ...interface{}) *Signal {
	return FromSlice(values).NameWithFormat("+Just(%d values)", len(values))
}

// FromSlice 从切片创建信号。生产循环在每个值之前检查订阅是否已释放，
// 取消后立即退出，不再占用订阅调度器
func FromSlice(values []interface{}) *Signal {
	return CreateSignal(func(subscriber Subscriber) Disposable {
		for _, value := range values {
			if subscriber.IsDisposed() {
				return nil
			}
			subscriber.SendNext(value)
		}
		subscriber.SendCompleted()
		return nil
	}).NameWithFormat("+FromSlice(%d values)", len(values))
}

// Range 创建发送指定范围整数的信号，生产循环同样观察订阅的释放状态
func Range(start, count int) *Signal {
	return CreateSignal(func(subscriber Subscriber) Disposable {
		for i := 0; i < count; i++ {
			if subscriber.IsDisposed() {
				return nil
			}
			subscriber.SendNext(start + i)
		}
		subscriber.SendCompleted()
		return nil
	}).NameWithFormat("+Range(%d, %d)", start, count)
}

// FromChannel 从channel创建信号，channel关闭时信号完成
func FromChannel(ch <-chan interface{}) *Signal {
	return CreateSignal(func(subscriber Subscriber) Disposable {
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case value, ok := <-ch:
					if !ok {
						subscriber.SendCompleted()
						return
					}
					subscriber.SendNext(value)
				}
			}
		}()

		return NewDisposable(func() {
			close(done)
		})
	}).NameWithFormat("+FromChannel()")
}

// Defer 推迟到订阅时才创建实际信号，每个订阅者得到一个新的信号实例
func Defer(signalFactory func() *Signal) *Signal {
	if signalFactory == nil {
		panic("reactivego: signalFactory must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		return signalFactory().Subscribe(subscriber)
	}).NameWithFormat("+Defer()")
}

// ============================================================================
// 时间相关工厂函数
// ============================================================================

// Interval 创建以固定间隔发送当前时间的信号，第一个值在一个间隔之后发出
func Interval(interval time.Duration, scheduler Scheduler) *Signal {
	return IntervalWithLeeway(interval, 0, scheduler)
}

// IntervalWithLeeway 带定时容差提示的Interval
func IntervalWithLeeway(interval, leeway time.Duration, scheduler Scheduler) *Signal {
	if scheduler == nil {
		panic("reactivego: scheduler must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		return scheduler.ScheduleEvery(time.Now().Add(interval), interval, leeway, func() {
			subscriber.SendNext(time.Now())
		})
	}).NameWithFormat("+Interval(%v, %s)", interval, scheduler.Name())
}

// Timer 创建在延迟之后发送一次当前时间并完成的信号
func Timer(delay time.Duration, scheduler Scheduler) *Signal {
	if scheduler == nil {
		panic("reactivego: scheduler must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		return scheduler.ScheduleAfter(time.Now().Add(delay), func() {
			subscriber.SendNext(time.Now())
			subscriber.SendCompleted()
		})
	}).NameWithFormat("+Timer(%v, %s)", delay, scheduler.Name())
}
