// Side effect operators for ReactiveGo
// 副作用注入操作符：在事件流经时执行额外动作，不改变事件本身
package reactivego

// DoNext 每个值送达订阅者之前先执行action
func (s *Signal) DoNext(action func(value interface{})) *Signal {
	if action == nil {
		panic("reactivego: action must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		return s.SubscribeWithCallbacks(
			func(value interface{}) {
				action(value)
				subscriber.SendNext(value)
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				subscriber.SendCompleted()
			})
	}).NameWithFormat("[%s] -DoNext", s.Name())
}

// DoError 错误送达订阅者之前先执行action
func (s *Signal) DoError(action func(err error)) *Signal {
	if action == nil {
		panic("reactivego: action must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		return s.SubscribeWithCallbacks(
			func(value interface{}) {
				subscriber.SendNext(value)
			},
			func(err error) {
				action(err)
				subscriber.SendError(err)
			},
			func() {
				subscriber.SendCompleted()
			})
	}).NameWithFormat("[%s] -DoError", s.Name())
}

// DoCompleted 完成送达订阅者之前先执行action
func (s *Signal) DoCompleted(action func()) *Signal {
	if action == nil {
		panic("reactivego: action must not be nil")
	}
	return CreateSignal(func(subscriber Subscriber) Disposable {
		return s.SubscribeWithCallbacks(
			func(value interface{}) {
				subscriber.SendNext(value)
			},
			func(err error) {
				subscriber.SendError(err)
			},
			func() {
				action()
				subscriber.SendCompleted()
			})
	}).NameWithFormat("[%s] -DoCompleted", s.Name())
}

// Finally 无论错误还是完成，终结时都执行action
func (s *Signal) Finally(action func()) *Signal {
	if action == nil {
		panic("reactivego: action must not be nil")
	}
	return s.
		DoError(func(error) { action() }).
		DoCompleted(action).
		NameWithFormat("[%s] -Finally", s.Name())
}
