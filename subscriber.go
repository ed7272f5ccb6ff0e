// Subscriber implementations for ReactiveGo
// 订阅者系统，事件接收端和订阅资源树的挂接点
package reactivego

import (
	"sync"
)

// ============================================================================
// Subscriber 接口
// ============================================================================

// Subscriber 事件接收端：next*、terminal?的一次性消费者。
// 终结事件（错误或完成）送达后，其持有的资源树随之释放，
// 此后到达的事件被静默丢弃
type Subscriber interface {
	// SendNext 接收下一个值
	SendNext(value interface{})
	// SendError 接收终结错误
	SendError(err error)
	// SendCompleted 接收完成信号
	SendCompleted()
	// DidSubscribe 将一次订阅的资源树挂接到本订阅者
	DidSubscribe(d *CompoundDisposable)
	// IsDisposed 本次订阅是否已经释放。同步生产循环在每次送达前
	// 都要检查，保证取消能被及时观察到
	IsDisposed() bool
}

// ============================================================================
// 回调订阅者
// ============================================================================

// callbackSubscriber 基于回调函数的订阅者，持有一个聚合全部订阅资源的
// CompoundDisposable，终结事件送达时整棵资源树被释放
type callbackSubscriber struct {
	mu         sync.Mutex
	next       func(value interface{})
	errHandler func(err error)
	completed  func()
	terminated bool
	disposable *CompoundDisposable
}

// NewSubscriber 创建回调订阅者，任意回调都可以为nil
func NewSubscriber(onNext func(value interface{}), onError func(err error), onCompleted func()) Subscriber {
	return &callbackSubscriber{
		next:       onNext,
		errHandler: onError,
		completed:  onCompleted,
		disposable: NewCompoundDisposable(),
	}
}

// SendNext 接收下一个值，终结后的值被静默丢弃
func (s *callbackSubscriber) SendNext(value interface{}) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	fn := s.next
	s.mu.Unlock()

	if fn != nil {
		fn(value)
	}
}

// SendError 接收终结错误，先释放资源树再交给错误回调
func (s *callbackSubscriber) SendError(err error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	fn := s.errHandler
	s.mu.Unlock()

	s.disposable.Dispose()
	if fn != nil {
		fn(err)
	}
}

// SendCompleted 接收完成信号，先释放资源树再交给完成回调
func (s *callbackSubscriber) SendCompleted() {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	fn := s.completed
	s.mu.Unlock()

	s.disposable.Dispose()
	if fn != nil {
		fn()
	}
}

// DidSubscribe 将订阅的资源树并入本订阅者，终结时一并释放。
// d自行释放时从本订阅者中摘除，避免长生命周期订阅者的成员无界增长
func (s *callbackSubscriber) DidSubscribe(d *CompoundDisposable) {
	if d == nil || d.IsDisposed() {
		return
	}

	selfDisposable := s.disposable
	selfDisposable.Add(d)
	d.Add(NewDisposable(func() {
		selfDisposable.Remove(d)
	}))
}

// IsDisposed 终结或资源树释放后视为已释放
func (s *callbackSubscriber) IsDisposed() bool {
	s.mu.Lock()
	terminated := s.terminated
	s.mu.Unlock()
	return terminated || s.disposable.IsDisposed()
}

// ============================================================================
// 透传订阅者
// ============================================================================

// passthroughSubscriber 单次订阅的透传装饰器，把事件送达与该次订阅的
// CompoundDisposable绑定：消费方提前取消和信号自行终结收敛到同一条清理路径，
// 每次送达前检查订阅是否已释放
type passthroughSubscriber struct {
	inner      Subscriber
	disposable *CompoundDisposable
}

// newPassthroughSubscriber 创建透传订阅者并把订阅资源树挂接到内层订阅者
func newPassthroughSubscriber(inner Subscriber, disposable *CompoundDisposable) Subscriber {
	inner.DidSubscribe(disposable)
	return &passthroughSubscriber{
		inner:      inner,
		disposable: disposable,
	}
}

// SendNext 订阅未释放时透传下一个值
func (p *passthroughSubscriber) SendNext(value interface{}) {
	if p.disposable.IsDisposed() {
		return
	}
	p.inner.SendNext(value)
}

// SendError 订阅未释放时透传终结错误
func (p *passthroughSubscriber) SendError(err error) {
	if p.disposable.IsDisposed() {
		return
	}
	p.inner.SendError(err)
}

// SendCompleted 订阅未释放时透传完成信号
func (p *passthroughSubscriber) SendCompleted() {
	if p.disposable.IsDisposed() {
		return
	}
	p.inner.SendCompleted()
}

// DidSubscribe 继续向内层订阅者挂接资源树
func (p *passthroughSubscriber) DidSubscribe(d *CompoundDisposable) {
	p.inner.DidSubscribe(d)
}

// IsDisposed 本次订阅的资源树或内层订阅者释放后视为已释放
func (p *passthroughSubscriber) IsDisposed() bool {
	return p.disposable.IsDisposed() || p.inner.IsDisposed()
}
