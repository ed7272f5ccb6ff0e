// Combination operators for ReactiveGo
// 多信号组合操作符：拼接、合并、并发扁平化、最新值组合、配对与采样
package reactivego

import (
	"sync"
)

// ============================================================================
// 顺序拼接
// ============================================================================

// ConcatWith 源完成后继续订阅next，源错误则直接传出
func (s *Signal) ConcatWith(next *Signal) *Signal {
	if next == nil {
		panic("reactivego: next signal must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()

		sourceDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				subscriber.SendNext(value)
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				compound.Add(next.Subscribe(subscriber))
			})
		compound.Add(sourceDisposable)

		return compound
	}).NameWithFormat("[%s] -ConcatWith(%s)", s.Name(), next.Name())
}

// Concat 把一个信号的信号按顺序拼接：同时只订阅一个内层信号
func (s *Signal) Concat() *Signal {
	return s.Flatten(1).NameWithFormat("[%s] -Concat", s.Name())
}

// Concat 按顺序拼接一组信号
func Concat(signals ...*Signal) *Signal {
	items := make([]interface{}, len(signals))
	for i, signal := range signals {
		items[i] = signal
	}
	return FromSlice(items).Flatten(1).NameWithFormat("+Concat(%d signals)", len(signals))
}

// ============================================================================
// 合并与扁平化
// ============================================================================

// Merge 交错合并一组信号的值
func Merge(signals ...*Signal) *Signal {
	items := make([]interface{}, len(signals))
	for i, signal := range signals {
		items[i] = signal
	}
	return FromSlice(items).Flatten(0).NameWithFormat("+Merge(%d signals)", len(signals))
}

// MergeWith 交错合并两个信号
func (s *Signal) MergeWith(other *Signal) *Signal {
	return Merge(s, other).NameWithFormat("[%s] -MergeWith(%s)", s.Name(), other.Name())
}

// Flatten 订阅源发出的每个内层信号并合并它们的值。
// maxConcurrent限制同时活跃的内层订阅数，0表示不限；
// 超限的内层信号按到达顺序排队，有订阅完成时按FIFO补位。
// 源与全部内层信号都完成且队列为空时发出完成；任一错误立即传出
func (s *Signal) Flatten(maxConcurrent int) *Signal {
	if maxConcurrent < 0 {
		panic("reactivego: maxConcurrent must not be negative")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()

		var mu sync.Mutex
		selfCompleted := false
		var active []Disposable
		var queued []*Signal

		// 槽位（active成员）在持锁检查并发上限的同一临界区内占用，
		// 订阅动作之后在锁外进行
		var subscribeToSignal func(signal *Signal, selfDisposable *SerialDisposable)

		completeIfAllowed := func() {
			mu.Lock()
			done := selfCompleted && len(active) == 0 && len(queued) == 0
			mu.Unlock()
			if done {
				subscriber.SendCompleted()
			}
		}

		subscribeToSignal = func(signal *Signal, selfDisposable *SerialDisposable) {
			compound.Add(selfDisposable)

			d := signal.SubscribeWithCallbacks(
				func(value interface{}) {
					subscriber.SendNext(value)
				},
				func(err error) {
					subscriber.SendError(err)
				},
				func() {
					var nextSignal *Signal
					var nextDisposable *SerialDisposable
					mu.Lock()
					for i := range active {
						if active[i] == Disposable(selfDisposable) {
							active = append(active[:i], active[i+1:]...)
							break
						}
					}
					if len(queued) > 0 {
						nextSignal = queued[0]
						queued = queued[1:]
						nextDisposable = NewSerialDisposable()
						active = append(active, nextDisposable)
					}
					mu.Unlock()
					compound.Remove(selfDisposable)

					if nextSignal != nil {
						subscribeToSignal(nextSignal, nextDisposable)
					} else {
						completeIfAllowed()
					}
				})
			selfDisposable.SetDisposable(d)
		}

		outerDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				signal, ok := value.(*Signal)
				if !ok || signal == nil {
					panic("reactivego: Flatten requires a signal of signals")
				}

				mu.Lock()
				if maxConcurrent > 0 && len(active) >= maxConcurrent {
					queued = append(queued, signal)
					mu.Unlock()
					return
				}
				selfDisposable := NewSerialDisposable()
				active = append(active, selfDisposable)
				mu.Unlock()

				subscribeToSignal(signal, selfDisposable)
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				mu.Lock()
				selfCompleted = true
				mu.Unlock()
				completeIfAllowed()
			})
		compound.Add(outerDisposable)

		return compound
	}).NameWithFormat("[%s] -Flatten(%d)", s.Name(), maxConcurrent)
}

// SwitchToLatest 转发最近一个内层信号的值，新内层信号到来时
// 先退订旧的再订阅新的。源与当前内层都完成时发出完成
func (s *Signal) SwitchToLatest() *Signal {
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()
		innerDisposable := NewSerialDisposable()
		compound.Add(innerDisposable)

		var mu sync.Mutex
		outerCompleted := false
		innerActive := false

		completeIfAllowed := func() {
			mu.Lock()
			done := outerCompleted && !innerActive
			mu.Unlock()
			if done {
				subscriber.SendCompleted()
			}
		}

		outerDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				signal, ok := value.(*Signal)
				if !ok || signal == nil {
					panic("reactivego: SwitchToLatest requires a signal of signals")
				}

				mu.Lock()
				innerActive = true
				mu.Unlock()

				// 先切断旧的内层订阅，保证旧信号的值不会晚于新信号的值
				innerDisposable.SetDisposable(nil)
				innerDisposable.SetDisposable(signal.SubscribeWithCallbacks(
					func(v interface{}) {
						subscriber.SendNext(v)
					},
					func(err error) {
						subscriber.SendError(err)
					},
					func() {
						mu.Lock()
						innerActive = false
						mu.Unlock()
						completeIfAllowed()
					}))
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				mu.Lock()
				outerCompleted = true
				mu.Unlock()
				completeIfAllowed()
			})
		compound.Add(outerDisposable)

		return compound
	}).NameWithFormat("[%s] -SwitchToLatest", s.Name())
}

// ============================================================================
// 最新值组合与配对
// ============================================================================

// CombineLatest 等所有信号都发过至少一个值后，每次任一信号更新
// 就发送一次全部最新值。combiner为nil时发送[]interface{}切片。
// 全部信号完成时完成，任一错误立即传出；空输入直接完成
func CombineLatest(signals []*Signal, combiner func(values ...interface{}) interface{}) *Signal {
	if len(signals) == 0 {
		return Empty()
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()

		var mu sync.Mutex
		latest := make([]interface{}, len(signals))
		has := make([]bool, len(signals))
		completed := make([]bool, len(signals))

		for i, signal := range signals {
			index := i
			d := signal.SubscribeWithCallbacks(
				func(value interface{}) {
					mu.Lock()
					latest[index] = value
					has[index] = true
					ready := true
					for _, h := range has {
						if !h {
							ready = false
							break
						}
					}
					var snapshot []interface{}
					if ready {
						snapshot = make([]interface{}, len(latest))
						copy(snapshot, latest)
					}
					mu.Unlock()

					if !ready {
						return
					}
					if combiner != nil {
						subscriber.SendNext(combiner(snapshot...))
					} else {
						subscriber.SendNext(snapshot)
					}
				},
				func(err error) {
					subscriber.SendError(err)
				},
				func() {
					mu.Lock()
					completed[index] = true
					allDone := true
					for _, c := range completed {
						if !c {
							allDone = false
							break
						}
					}
					mu.Unlock()
					if allDone {
						subscriber.SendCompleted()
					}
				})
			compound.Add(d)
		}

		return compound
	}).NameWithFormat("+CombineLatest(%d signals)", len(signals))
}

// CombineLatestWith 两个信号的CombineLatest便捷形式
func (s *Signal) CombineLatestWith(other *Signal, combiner func(a, b interface{}) interface{}) *Signal {
	var wrap func(values ...interface{}) interface{}
	if combiner != nil {
		wrap = func(values ...interface{}) interface{} {
			return combiner(values[0], values[1])
		}
	}
	return CombineLatest([]*Signal{s, other}, wrap).
		NameWithFormat("[%s] -CombineLatestWith(%s)", s.Name(), other.Name())
}

// Zip 按序号配对各信号的值：每个信号维护一个待配对队列，
// 所有队列非空时各取队首发送一组。某个已完成信号的队列耗尽时整体完成
func Zip(signals []*Signal, combiner func(values ...interface{}) interface{}) *Signal {
	if len(signals) == 0 {
		return Empty()
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()

		var mu sync.Mutex
		queues := make([][]interface{}, len(signals))
		completed := make([]bool, len(signals))

		// 在mu内调用：能配则弹出一组，顺带判断是否应当完成
		flushLocked := func() (tuple []interface{}, done bool) {
			ready := true
			for _, q := range queues {
				if len(q) == 0 {
					ready = false
					break
				}
			}
			if ready {
				tuple = make([]interface{}, len(queues))
				for i := range queues {
					tuple[i] = queues[i][0]
					queues[i] = queues[i][1:]
				}
			}
			for i := range completed {
				if completed[i] && len(queues[i]) == 0 {
					done = true
					break
				}
			}
			return tuple, done
		}

		for i, signal := range signals {
			index := i
			d := signal.SubscribeWithCallbacks(
				func(value interface{}) {
					mu.Lock()
					queues[index] = append(queues[index], value)
					tuple, done := flushLocked()
					mu.Unlock()

					if tuple != nil {
						if combiner != nil {
							subscriber.SendNext(combiner(tuple...))
						} else {
							subscriber.SendNext(tuple)
						}
					}
					if done {
						subscriber.SendCompleted()
					}
				},
				func(err error) {
					subscriber.SendError(err)
				},
				func() {
					mu.Lock()
					completed[index] = true
					done := len(queues[index]) == 0
					mu.Unlock()
					if done {
						subscriber.SendCompleted()
					}
				})
			compound.Add(d)
		}

		return compound
	}).NameWithFormat("+Zip(%d signals)", len(signals))
}

// ZipWith 两个信号的Zip便捷形式
func (s *Signal) ZipWith(other *Signal, combiner func(a, b interface{}) interface{}) *Signal {
	var wrap func(values ...interface{}) interface{}
	if combiner != nil {
		wrap = func(values ...interface{}) interface{} {
			return combiner(values[0], values[1])
		}
	}
	return Zip([]*Signal{s, other}, wrap).
		NameWithFormat("[%s] -ZipWith(%s)", s.Name(), other.Name())
}

// ============================================================================
// 生命周期联动
// ============================================================================

// TakeUntil 转发源的值，trigger发出任意值或完成时提前完成
func (s *Signal) TakeUntil(trigger *Signal) *Signal {
	if trigger == nil {
		panic("reactivego: trigger signal must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		compound := NewCompoundDisposable()

		triggerCompletion := func() {
			compound.Dispose()
			subscriber.SendCompleted()
		}

		triggerDisposable := trigger.SubscribeWithCallbacks(
			func(interface{}) {
				triggerCompletion()
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				triggerCompletion()
			})
		compound.Add(triggerDisposable)

		sourceDisposable := s.Subscribe(subscriber)
		compound.Add(sourceDisposable)

		return compound
	}).NameWithFormat("[%s] -TakeUntil(%s)", s.Name(), trigger.Name())
}

// TakeUntilReplacement 转发源的值直到replacement发出第一个事件，
// 之后退订源并改为转发replacement的全部事件
func (s *Signal) TakeUntilReplacement(replacement *Signal) *Signal {
	if replacement == nil {
		panic("reactivego: replacement signal must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		sourceDisposable := NewSerialDisposable()

		replacementDisposable := replacement.SubscribeWithCallbacks(
			func(value interface{}) {
				sourceDisposable.Dispose()
				subscriber.SendNext(value)
			},
			func(err error) {
				sourceDisposable.Dispose()
				subscriber.SendError(err)
			},
			func() {
				sourceDisposable.Dispose()
				subscriber.SendCompleted()
			})

		if !sourceDisposable.IsDisposed() {
			sourceDisposable.SetDisposable(s.SubscribeWithCallbacks(
				func(value interface{}) {
					subscriber.SendNext(value)
				},
				func(err error) {
					subscriber.SendError(err)
				},
				nil))
		}

		return NewDisposable(func() {
			sourceDisposable.Dispose()
			replacementDisposable.Dispose()
		})
	}).NameWithFormat("[%s] -TakeUntilReplacement(%s)", s.Name(), replacement.Name())
}

// Sample 每当sampler发出值，就发送源最近一次的值；源还没有值时忽略。
// 完成与错误跟随源
func (s *Signal) Sample(sampler *Signal) *Signal {
	if sampler == nil {
		panic("reactivego: sampler signal must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		var mu sync.Mutex
		var latest interface{}
		hasLatest := false

		samplerDisposable := sampler.SubscribeWithCallbacks(
			func(interface{}) {
				mu.Lock()
				value := latest
				ok := hasLatest
				mu.Unlock()
				if ok {
					subscriber.SendNext(value)
				}
			},
			func(err error) {
				subscriber.SendError(err)
			},
			nil)

		sourceDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				mu.Lock()
				latest = value
				hasLatest = true
				mu.Unlock()
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				subscriber.SendCompleted()
			})

		return NewCompoundDisposable(samplerDisposable, sourceDisposable)
	}).NameWithFormat("[%s] -Sample(%s)", s.Name(), sampler.Name())
}
