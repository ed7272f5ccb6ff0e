// Error handling operators for ReactiveGo
// 错误处理操作符：捕获、重试、重复与try系列
package reactivego

// subscribeForever 反复订阅signal。每轮终结时先调用对应处理器，
// 处理器通过disposable.Dispose()终止循环，不终止则立即开始下一轮。
// 重订阅走递归调度蹦床，深度重试不会加深调用栈
func subscribeForever(signal *Signal, onNext func(value interface{}), onError func(err error, disposable Disposable), onCompleted func(disposable Disposable)) Disposable {
	compound := NewCompoundDisposable()

	recursive := func(recurse func()) {
		selfDisposable := NewCompoundDisposable()
		compound.Add(selfDisposable)

		subscriptionDisposable := signal.SubscribeWithCallbacks(
			onNext,
			func(err error) {
				onError(err, compound)
				compound.Remove(selfDisposable)
				recurse()
			},
			func() {
				onCompleted(compound)
				compound.Remove(selfDisposable)
				recurse()
			})
		selfDisposable.Add(subscriptionDisposable)
	}

	schedulingDisposable := SubscriptionScheduler().Schedule(func() {
		recursiveScheduler := CurrentScheduler()
		if recursiveScheduler == nil {
			recursiveScheduler = NewScheduler("reactivego.subscribe-forever")
		}
		compound.Add(recursiveScheduler.ScheduleRecursive(recursive))
	})
	compound.Add(schedulingDisposable)

	return compound
}

// ============================================================================
// 捕获
// ============================================================================

// Catch 源出错时调用handler取得替代信号并切换过去，值与完成原样转发
func (s *Signal) Catch(handler func(err error) *Signal) *Signal {
	if handler == nil {
		panic("reactivego: catch handler must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		catchDisposable := NewSerialDisposable()

		subscriptionDisposable := s.SubscribeWithCallbacks(
			func(value interface{}) {
				subscriber.SendNext(value)
			},
			func(err error) {
				fallback := handler(err)
				if fallback == nil {
					panic("reactivego: catch handler must not return nil")
				}
				catchDisposable.SetDisposable(fallback.Subscribe(subscriber))
			},
			func() {
				subscriber.SendCompleted()
			})

		return NewCompoundDisposable(subscriptionDisposable, catchDisposable)
	}).NameWithFormat("[%s] -Catch", s.Name())
}

// CatchTo 源出错时一律切换到other
func (s *Signal) CatchTo(other *Signal) *Signal {
	if other == nil {
		panic("reactivego: other signal must not be nil")
	}
	return s.Catch(func(error) *Signal {
		return other
	}).NameWithFormat("[%s] -CatchTo(%s)", s.Name(), other.Name())
}

// ============================================================================
// 重试与重复
// ============================================================================

// Retry 源出错时重新订阅，最多重试retryCount次，0表示不限次数。
// 次数用尽后把最后一次错误传出；完成事件正常终止
func (s *Signal) Retry(retryCount int) *Signal {
	return CreateSignal(func(subscriber Subscriber) Disposable {
		currentRetryCount := 0
		return subscribeForever(s,
			func(value interface{}) {
				subscriber.SendNext(value)
			},
			func(err error, disposable Disposable) {
				if retryCount == 0 || currentRetryCount < retryCount {
					currentRetryCount++
					return
				}
				disposable.Dispose()
				subscriber.SendError(err)
			},
			func(disposable Disposable) {
				disposable.Dispose()
				subscriber.SendCompleted()
			})
	}).NameWithFormat("[%s] -Retry(%d)", s.Name(), retryCount)
}

// Repeat 源完成后重新订阅并无限重复，错误照常传出
func (s *Signal) Repeat() *Signal {
	return CreateSignal(func(subscriber Subscriber) Disposable {
		return subscribeForever(s,
			func(value interface{}) {
				subscriber.SendNext(value)
			},
			func(err error, disposable Disposable) {
				disposable.Dispose()
				subscriber.SendError(err)
			},
			func(Disposable) {
				// 完成即重订阅
			})
	}).NameWithFormat("[%s] -Repeat", s.Name())
}

// ============================================================================
// Try系列
// ============================================================================

// Try 对每个值做校验，返回非nil错误则终止信号
func (s *Signal) Try(tryFn func(value interface{}) error) *Signal {
	if tryFn == nil {
		panic("reactivego: tryFn must not be nil")
	}
	return s.FlattenMap(func(value interface{}) *Signal {
		if err := tryFn(value); err != nil {
			return Error(err)
		}
		return Return(value)
	}).NameWithFormat("[%s] -Try", s.Name())
}

// TryMap 可失败的映射，返回非nil错误则终止信号
func (s *Signal) TryMap(mapFn func(value interface{}) (interface{}, error)) *Signal {
	if mapFn == nil {
		panic("reactivego: mapFn must not be nil")
	}
	return s.FlattenMap(func(value interface{}) *Signal {
		result, err := mapFn(value)
		if err != nil {
			return Error(err)
		}
		return Return(result)
	}).NameWithFormat("[%s] -TryMap", s.Name())
}
