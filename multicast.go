// Multicast connection implementations for ReactiveGo
// 多播连接：把冷信号的一次订阅共享给任意数量的下游
package reactivego

import (
	"sync/atomic"
)

// multicastSubject 可充当多播中继的主题：既是订阅者又暴露对外信号
type multicastSubject interface {
	Subscriber
	baseSignal() *Signal
}

// MulticastConnection 封装一条源信号到主题的连接。
// 源订阅推迟到Connect被调用，且至多发生一次
type MulticastConnection struct {
	source           *Signal
	subject          multicastSubject
	hasConnected     int32
	serialDisposable *SerialDisposable
}

// Multicast 用指定主题创建多播连接，不触发订阅
func (s *Signal) Multicast(subject multicastSubject) *MulticastConnection {
	if subject == nil {
		panic("reactivego: multicast subject must not be nil")
	}
	return &MulticastConnection{
		source:           s,
		subject:          subject,
		serialDisposable: NewSerialDisposable(),
	}
}

// Signal 返回多播输出信号，订阅它不会触发对源的订阅
func (c *MulticastConnection) Signal() *Signal {
	return c.subject.baseSignal()
}

// Connect 首次调用时把主题订阅到源，之后的调用只返回同一个释放句柄。
// 释放句柄断开源订阅
func (c *MulticastConnection) Connect() Disposable {
	if atomic.CompareAndSwapInt32(&c.hasConnected, 0, 1) {
		c.serialDisposable.SetDisposable(c.source.Subscribe(c.subject))
	}
	return c.serialDisposable
}

// Autoconnect 返回一个信号：第一个订阅者到来时自动Connect，
// 最后一个订阅者退订时断开连接。断开后的连接不会重建
func (c *MulticastConnection) Autoconnect() *Signal {
	var subscriberCount int32

	return CreateSignal(func(subscriber Subscriber) Disposable {
		atomic.AddInt32(&subscriberCount, 1)

		subscriptionDisposable := c.Signal().Subscribe(subscriber)
		connectionDisposable := c.Connect()

		return NewDisposable(func() {
			subscriptionDisposable.Dispose()
			if atomic.AddInt32(&subscriberCount, -1) == 0 {
				connectionDisposable.Dispose()
			}
		})
	}).NameWithFormat("[%s] -Autoconnect", c.Signal().Name())
}

// Publish 用普通主题做多播：连接后的值只发给在场的订阅者
func (s *Signal) Publish() *MulticastConnection {
	return s.Multicast(NewSubject())
}

// Replay 立即连接并缓存全部历史，迟到的订阅者先收到完整回放
func (s *Signal) Replay() *Signal {
	connection := s.Multicast(NewReplaySubject(ReplaySubjectUnlimitedCapacity))
	connection.Connect()
	return connection.Signal().NameWithFormat("[%s] -Replay", s.Name())
}

// ReplayLast 立即连接，只缓存最近一个值
func (s *Signal) ReplayLast() *Signal {
	connection := s.Multicast(NewReplaySubject(1))
	connection.Connect()
	return connection.Signal().NameWithFormat("[%s] -ReplayLast", s.Name())
}

// ReplayLazily 缓存全部历史，但推迟到第一个订阅者到来才连接
func (s *Signal) ReplayLazily() *Signal {
	connection := s.Multicast(NewReplaySubject(ReplaySubjectUnlimitedCapacity))
	return connection.Autoconnect().NameWithFormat("[%s] -ReplayLazily", s.Name())
}
