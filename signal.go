// Signal implementation for ReactiveGo
// 信号核心实现：订阅即生产的冷信号，用封闭的变体标签区分各种生产逻辑
package reactivego

// ============================================================================
// Signal 核心类型
// ============================================================================

// signalKind 信号变体标签，订阅时按标签分派生产逻辑
type signalKind int

const (
	// kindDynamic 携带任意订阅闭包的动态信号
	kindDynamic signalKind = iota
	// kindReturn 发送单个值后立即完成
	kindReturn
	// kindEmpty 立即完成
	kindEmpty
	// kindError 立即发送错误
	kindError
	// kindNever 永不发送任何事件
	kindNever
	// kindSubject 热信号，订阅挂接到Subject的订阅者集合
	kindSubject
)

// subjectAttacher Subject侧的订阅挂接点
type subjectAttacher interface {
	attach(subscriber Subscriber, disposable *CompoundDisposable)
}

// Signal 异步值序列的不可变描述。冷语义：每次订阅都从头执行定义好的
// 生产逻辑，订阅之间互不相干；建立在Subject之上时为热语义
type Signal struct {
	name         string
	kind         signalKind
	didSubscribe func(subscriber Subscriber) Disposable
	value        interface{}
	err          error
	subject      subjectAttacher
}

// ============================================================================
// 构造函数
// ============================================================================

// CreateSignal 从订阅闭包创建冷信号。每个订阅者都会触发一次closure执行，
// closure返回的Disposable会并入该次订阅的资源树
func CreateSignal(didSubscribe func(subscriber Subscriber) Disposable) *Signal {
	if didSubscribe == nil {
		panic("reactivego: didSubscribe must not be nil")
	}
	return &Signal{
		kind:         kindDynamic,
		didSubscribe: didSubscribe,
	}
}

// Return 创建发送单个值后完成的信号
func Return(value interface{}) *Signal {
	return &Signal{
		kind:  kindReturn,
		value: value,
	}
}

// Empty 创建立即完成的信号
func Empty() *Signal {
	return &Signal{
		kind: kindEmpty,
	}
}

// Error 创建立即发送错误的信号
func Error(err error) *Signal {
	return &Signal{
		kind: kindError,
		err:  err,
	}
}

// Never 创建永不发送任何事件的信号
func Never() *Signal {
	return &Signal{
		kind: kindNever,
	}
}

// ============================================================================
// 订阅协议
// ============================================================================

// Subscribe 订阅的唯一原语。返回的Disposable在终结事件之前释放时，
// 后续事件全部被抑制，生产逻辑获取的资源随之释放；信号自行终结时
// 走同一条清理路径，不会双重释放
func (s *Signal) Subscribe(subscriber Subscriber) Disposable {
	if subscriber == nil {
		panic("reactivego: subscriber must not be nil")
	}

	disposable := NewCompoundDisposable()
	sub := newPassthroughSubscriber(subscriber, disposable)

	switch s.kind {
	case kindDynamic:
		didSubscribe := s.didSubscribe
		scheduling := SubscriptionScheduler().Schedule(func() {
			disposable.Add(didSubscribe(sub))
		})
		disposable.Add(scheduling)

	case kindReturn:
		value := s.value
		disposable.Add(SubscriptionScheduler().Schedule(func() {
			sub.SendNext(value)
			sub.SendCompleted()
		}))

	case kindEmpty:
		disposable.Add(SubscriptionScheduler().Schedule(func() {
			sub.SendCompleted()
		}))

	case kindError:
		err := s.err
		disposable.Add(SubscriptionScheduler().Schedule(func() {
			sub.SendError(err)
		}))

	case kindNever:
		// 不产生任何事件，订阅只能由消费方取消

	case kindSubject:
		s.subject.attach(sub, disposable)
	}

	return disposable
}

// SubscribeWithCallbacks 使用回调函数订阅
func (s *Signal) SubscribeWithCallbacks(onNext func(value interface{}), onError func(err error), onCompleted func()) Disposable {
	return s.Subscribe(NewSubscriber(onNext, onError, onCompleted))
}

// SubscribeNext 只关心值的订阅
func (s *Signal) SubscribeNext(onNext func(value interface{})) Disposable {
	return s.SubscribeWithCallbacks(onNext, nil, nil)
}

// SubscribeError 只关心错误的订阅
func (s *Signal) SubscribeError(onError func(err error)) Disposable {
	return s.SubscribeWithCallbacks(nil, onError, nil)
}

// SubscribeCompleted 只关心完成的订阅
func (s *Signal) SubscribeCompleted(onCompleted func()) Disposable {
	return s.SubscribeWithCallbacks(nil, nil, onCompleted)
}

// SubscribeNextCompleted 关心值和完成的订阅
func (s *Signal) SubscribeNextCompleted(onNext func(value interface{}), onCompleted func()) Disposable {
	return s.SubscribeWithCallbacks(onNext, nil, onCompleted)
}
