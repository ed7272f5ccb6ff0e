// Bind operator and derived operators for ReactiveGo
// 单播组合原语bind及其机械派生的单生产者操作符
package reactivego

import (
	"reflect"
	"sync/atomic"
)

// ============================================================================
// Bind - 组合原语
// ============================================================================

// BindFunc 把源值映射为拼接进输出的新信号。返回nil信号表示终止整个绑定；
// stop为真表示停止消费源，但不强行终结已经派生出的信号
type BindFunc func(value interface{}) (signal *Signal, stop bool)

// BindHandler 每次订阅调用一次，返回该次订阅专用的BindFunc，
// 使带状态的绑定（计数、去重）在订阅之间互不串扰
type BindHandler func() BindFunc

// Bind 通用组合原语。活跃信号计数从1开始（源自身），每派生一个信号加一，
// 完成一个减一；任何活跃信号的错误立即转发并拆除其余订阅；
// 计数归零时发出整体完成
func (s *Signal) Bind(handler BindHandler) *Signal {
	if handler == nil {
		panic("reactivego: bind handler must not be nil")
	}

	return CreateSignal(func(subscriber Subscriber) Disposable {
		bindFunc := handler()
		signalCount := int32(1)
		compound := NewCompoundDisposable()

		completeSignal := func(finished Disposable) {
			if atomic.AddInt32(&signalCount, -1) == 0 {
				subscriber.SendCompleted()
				compound.Dispose()
			} else {
				compound.Remove(finished)
			}
		}

		addSignal := func(signal *Signal) {
			atomic.AddInt32(&signalCount, 1)
			selfDisposable := NewSerialDisposable()
			compound.Add(selfDisposable)

			d := signal.SubscribeWithCallbacks(
				func(value interface{}) {
					subscriber.SendNext(value)
				},
				func(err error) {
					compound.Dispose()
					subscriber.SendError(err)
				},
				func() {
					completeSignal(selfDisposable)
				})
			selfDisposable.SetDisposable(d)
		}

		sourceDisposable := NewSerialDisposable()
		compound.Add(sourceDisposable)

		d := s.SubscribeWithCallbacks(
			func(value interface{}) {
				// 绑定循环里廉价地观察取消
				if compound.IsDisposed() {
					return
				}

				signal, stop := bindFunc(value)
				if signal != nil {
					addSignal(signal)
				}
				if signal == nil || stop {
					sourceDisposable.Dispose()
					completeSignal(sourceDisposable)
				}
			},
			func(err error) {
				compound.Dispose()
				subscriber.SendError(err)
			},
			func() {
				completeSignal(sourceDisposable)
			})
		sourceDisposable.SetDisposable(d)

		return compound
	}).NameWithFormat("[%s] -Bind", s.Name())
}

// ============================================================================
// 由Bind派生的单生产者操作符
// ============================================================================

// FlattenMap 把每个源值映射为新信号并把其值拼接进输出。
// transform返回nil等价于返回空信号
func (s *Signal) FlattenMap(transform func(value interface{}) *Signal) *Signal {
	if transform == nil {
		panic("reactivego: transform must not be nil")
	}
	return s.Bind(func() BindFunc {
		return func(value interface{}) (*Signal, bool) {
			signal := transform(value)
			if signal == nil {
				signal = Empty()
			}
			return signal, false
		}
	}).NameWithFormat("[%s] -FlattenMap", s.Name())
}

// Map 对每个值应用纯函数
func (s *Signal) Map(transform func(value interface{}) interface{}) *Signal {
	if transform == nil {
		panic("reactivego: transform must not be nil")
	}
	return s.FlattenMap(func(value interface{}) *Signal {
		return Return(transform(value))
	}).NameWithFormat("[%s] -Map", s.Name())
}

// MapReplace 把每个值替换为固定值
func (s *Signal) MapReplace(replacement interface{}) *Signal {
	return s.Map(func(interface{}) interface{} {
		return replacement
	}).NameWithFormat("[%s] -MapReplace(%v)", s.Name(), replacement)
}

// Filter 只保留谓词为真的值
func (s *Signal) Filter(predicate func(value interface{}) bool) *Signal {
	if predicate == nil {
		panic("reactivego: predicate must not be nil")
	}
	return s.FlattenMap(func(value interface{}) *Signal {
		if predicate(value) {
			return Return(value)
		}
		return Empty()
	}).NameWithFormat("[%s] -Filter", s.Name())
}

// Ignore 丢弃与指定值相等的值
func (s *Signal) Ignore(value interface{}) *Signal {
	return s.Filter(func(next interface{}) bool {
		return !reflect.DeepEqual(next, value)
	}).NameWithFormat("[%s] -Ignore(%v)", s.Name(), value)
}

// IgnoreValues 丢弃全部的值，只保留终结事件
func (s *Signal) IgnoreValues() *Signal {
	return s.Filter(func(interface{}) bool {
		return false
	}).NameWithFormat("[%s] -IgnoreValues", s.Name())
}

// Take 取前count个值后完成
func (s *Signal) Take(count int) *Signal {
	if count == 0 {
		return Empty()
	}
	return s.Bind(func() BindFunc {
		taken := 0
		return func(value interface{}) (*Signal, bool) {
			if taken >= count {
				return nil, false
			}
			taken++
			return Return(value), taken == count
		}
	}).NameWithFormat("[%s] -Take(%d)", s.Name(), count)
}

// Skip 跳过前count个值
func (s *Signal) Skip(count int) *Signal {
	return s.Bind(func() BindFunc {
		skipped := 0
		return func(value interface{}) (*Signal, bool) {
			if skipped >= count {
				return Return(value), false
			}
			skipped++
			return Empty(), false
		}
	}).NameWithFormat("[%s] -Skip(%d)", s.Name(), count)
}

// TakeWhile 取值直到谓词首次为假
func (s *Signal) TakeWhile(predicate func(value interface{}) bool) *Signal {
	if predicate == nil {
		panic("reactivego: predicate must not be nil")
	}
	return s.Bind(func() BindFunc {
		return func(value interface{}) (*Signal, bool) {
			if !predicate(value) {
				return nil, false
			}
			return Return(value), false
		}
	}).NameWithFormat("[%s] -TakeWhile", s.Name())
}

// SkipWhile 跳过值直到谓词首次为假
func (s *Signal) SkipWhile(predicate func(value interface{}) bool) *Signal {
	if predicate == nil {
		panic("reactivego: predicate must not be nil")
	}
	return s.Bind(func() BindFunc {
		skipping := true
		return func(value interface{}) (*Signal, bool) {
			if skipping && predicate(value) {
				return Empty(), false
			}
			skipping = false
			return Return(value), false
		}
	}).NameWithFormat("[%s] -SkipWhile", s.Name())
}

// DistinctUntilChanged 丢弃与上一个值相等的值
func (s *Signal) DistinctUntilChanged() *Signal {
	return s.Bind(func() BindFunc {
		var last interface{}
		initial := true
		return func(value interface{}) (*Signal, bool) {
			if !initial && reflect.DeepEqual(last, value) {
				return Empty(), false
			}
			initial = false
			last = value
			return Return(value), false
		}
	}).NameWithFormat("[%s] -DistinctUntilChanged", s.Name())
}

// ScanWithStart 从初始值开始逐值归约，发送每一步的累积值
func (s *Signal) ScanWithStart(start interface{}, reduce func(running, next interface{}) interface{}) *Signal {
	if reduce == nil {
		panic("reactivego: reduce must not be nil")
	}
	return s.ScanWithStartAndIndex(start, func(running, next interface{}, _ int) interface{} {
		return reduce(running, next)
	}).NameWithFormat("[%s] -ScanWithStart", s.Name())
}

// ScanWithStartAndIndex 带值序号的Scan
func (s *Signal) ScanWithStartAndIndex(start interface{}, reduce func(running, next interface{}, index int) interface{}) *Signal {
	if reduce == nil {
		panic("reactivego: reduce must not be nil")
	}
	return s.Bind(func() BindFunc {
		running := start
		index := 0
		return func(value interface{}) (*Signal, bool) {
			running = reduce(running, value, index)
			index++
			return Return(running), false
		}
	}).NameWithFormat("[%s] -ScanWithStartAndIndex", s.Name())
}

// StartWith 在源的值之前先发送一个值
func (s *Signal) StartWith(value interface{}) *Signal {
	return Return(value).ConcatWith(s).NameWithFormat("[%s] -StartWith(%v)", s.Name(), value)
}
