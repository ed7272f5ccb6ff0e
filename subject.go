// Subject implementations for ReactiveGo
// Subject系统：既是信号又是订阅者的多播枢纽，包含Behavior和Replay变体
package reactivego

import (
	"math"
	"sync"
)

// ============================================================================
// Subject - 多播枢纽
// ============================================================================

// Subject 可变的多播枢纽。作为信号可以被订阅，作为订阅者可以接收并转播事件。
// 终结事件送达后上游资源被释放，主题逻辑死亡：仍接受新订阅（立即收到缓存的
// 终结状态），但不再转发任何后续的值
type Subject struct {
	*Signal
	mu          sync.Mutex
	subscribers []Subscriber
	disposable  *CompoundDisposable
	terminated  bool
	hasErr      bool
	termErr     error
}

// NewSubject 创建多播主题
func NewSubject() *Subject {
	subject := &Subject{
		disposable: NewCompoundDisposable(),
	}
	subject.Signal = &Signal{kind: kindSubject, subject: subject}
	return subject
}

// baseSignal 返回以本主题为订阅挂接点的信号，多播机制用
func (s *Subject) baseSignal() *Signal {
	return s.Signal
}

// attach 挂接下游订阅者。已终结时立即送达缓存的终结状态
func (s *Subject) attach(subscriber Subscriber, disposable *CompoundDisposable) {
	s.mu.Lock()
	if s.terminated {
		hasErr, err := s.hasErr, s.termErr
		s.mu.Unlock()
		if hasErr {
			subscriber.SendError(err)
		} else {
			subscriber.SendCompleted()
		}
		return
	}
	s.subscribers = append(s.subscribers, subscriber)
	s.mu.Unlock()

	disposable.Add(NewDisposable(func() {
		s.removeSubscriber(subscriber)
	}))
}

// removeSubscriber 按标识移除下游订阅者
func (s *Subject) removeSubscriber(subscriber Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, member := range s.subscribers {
		if member == subscriber {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// SendNext 向当前订阅者多播一个值。在锁内做订阅者快照，锁外派发：
// 派发中途加入的订阅者看不到本值，中途退出的订阅者仍会收到在途的本值
func (s *Subject) SendNext(value interface{}) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	snapshot := make([]Subscriber, len(s.subscribers))
	copy(snapshot, s.subscribers)
	s.mu.Unlock()

	for _, subscriber := range snapshot {
		subscriber.SendNext(value)
	}
}

// SendError 终结主题：先释放上游资源，再向快照派发错误
func (s *Subject) SendError(err error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	s.hasErr = true
	s.termErr = err
	snapshot := s.subscribers
	s.subscribers = nil
	s.mu.Unlock()

	s.disposable.Dispose()
	for _, subscriber := range snapshot {
		subscriber.SendError(err)
	}
}

// SendCompleted 终结主题：先释放上游资源，再向快照派发完成信号
func (s *Subject) SendCompleted() {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	snapshot := s.subscribers
	s.subscribers = nil
	s.mu.Unlock()

	s.disposable.Dispose()
	for _, subscriber := range snapshot {
		subscriber.SendCompleted()
	}
}

// DidSubscribe 登记一条上游订阅，主题终结时一并释放
func (s *Subject) DidSubscribe(d *CompoundDisposable) {
	if d == nil || d.IsDisposed() {
		return
	}

	upstream := s.disposable
	upstream.Add(d)
	d.Add(NewDisposable(func() {
		upstream.Remove(d)
	}))
}

// IsDisposed 主题终结后不再接收事件，视为已释放
func (s *Subject) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// HasSubscribers 检查是否有下游订阅者
func (s *Subject) HasSubscribers() bool {
	return s.SubscriberCount() > 0
}

// SubscriberCount 下游订阅者数量
func (s *Subject) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// ============================================================================
// BehaviorSubject - 缓存最近值的主题
// ============================================================================

// BehaviorSubject 缓存最近一个值的主题，新订阅者先收到缓存值再接收后续的值
type BehaviorSubject struct {
	*Subject
	valueMu  sync.Mutex
	hasValue bool
	current  interface{}
}

// NewBehaviorSubject 创建带默认值的行为主题
func NewBehaviorSubject(defaultValue interface{}) *BehaviorSubject {
	bs := &BehaviorSubject{
		Subject:  &Subject{disposable: NewCompoundDisposable()},
		hasValue: true,
		current:  defaultValue,
	}
	bs.Signal = &Signal{kind: kindSubject, subject: bs}
	return bs
}

// attach 经由订阅调度器先送达缓存值，再挂接实时订阅。
// 送达与挂接在值锁内完成，两者之间不会漏掉新值
func (b *BehaviorSubject) attach(subscriber Subscriber, disposable *CompoundDisposable) {
	disposable.Add(SubscriptionScheduler().Schedule(func() {
		b.valueMu.Lock()
		defer b.valueMu.Unlock()

		if disposable.IsDisposed() {
			return
		}
		if b.hasValue {
			subscriber.SendNext(b.current)
		}
		b.Subject.attach(subscriber, disposable)
	}))
}

// SendNext 更新缓存值并多播，更新与派发在值锁内完成以保持次序
func (b *BehaviorSubject) SendNext(value interface{}) {
	b.valueMu.Lock()
	defer b.valueMu.Unlock()

	b.current = value
	b.hasValue = true
	b.Subject.SendNext(value)
}

// Value 返回当前缓存值
func (b *BehaviorSubject) Value() (interface{}, bool) {
	b.valueMu.Lock()
	defer b.valueMu.Unlock()
	return b.current, b.hasValue
}

// ============================================================================
// ReplaySubject - 重放历史的主题
// ============================================================================

// ReplaySubjectUnlimitedCapacity 不限容量的常量
const ReplaySubjectUnlimitedCapacity = math.MaxInt

// nilSentinel 历史缓冲区中nil值的占位，使缓冲区可以无歧义地保存nil
type nilSentinel struct{}

// ReplaySubject 重放主题：缓存发送过的值（容量之外FIFO淘汰），
// 新订阅者依次收到全部历史、已缓存的终结状态、然后接入实时事件
type ReplaySubject struct {
	*Subject
	capacity     int
	bufMu        sync.Mutex
	values       []interface{}
	hasCompleted bool
	hasError     bool
	err          error
}

// NewReplaySubject 创建容量受限的重放主题。
// 0表示不保存历史，ReplaySubjectUnlimitedCapacity表示保存全部
func NewReplaySubject(capacity int) *ReplaySubject {
	if capacity < 0 {
		panic("reactivego: replay capacity must be non-negative")
	}
	rs := &ReplaySubject{
		Subject:  &Subject{disposable: NewCompoundDisposable()},
		capacity: capacity,
	}
	rs.Signal = &Signal{kind: kindSubject, subject: rs}
	return rs
}

// attach 经由订阅调度器重放历史，然后送达终结状态或接入实时事件
func (r *ReplaySubject) attach(subscriber Subscriber, disposable *CompoundDisposable) {
	disposable.Add(SubscriptionScheduler().Schedule(func() {
		r.bufMu.Lock()
		defer r.bufMu.Unlock()

		for _, stored := range r.values {
			if disposable.IsDisposed() {
				return
			}
			if _, isNil := stored.(nilSentinel); isNil {
				subscriber.SendNext(nil)
			} else {
				subscriber.SendNext(stored)
			}
		}

		if disposable.IsDisposed() {
			return
		}
		switch {
		case r.hasCompleted:
			subscriber.SendCompleted()
		case r.hasError:
			subscriber.SendError(r.err)
		default:
			r.Subject.attach(subscriber, disposable)
		}
	}))
}

// SendNext 把值追加到历史缓冲区并多播，追加与派发在缓冲锁内完成
func (r *ReplaySubject) SendNext(value interface{}) {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()

	if r.capacity > 0 {
		stored := value
		if stored == nil {
			stored = nilSentinel{}
		}
		r.values = append(r.values, stored)
		if len(r.values) > r.capacity {
			r.values = r.values[1:]
		}
	}
	r.Subject.SendNext(value)
}

// SendError 缓存错误状态并终结主题
func (r *ReplaySubject) SendError(err error) {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()

	r.hasError = true
	r.err = err
	r.Subject.SendError(err)
}

// SendCompleted 缓存完成状态并终结主题
func (r *ReplaySubject) SendCompleted() {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()

	r.hasCompleted = true
	r.Subject.SendCompleted()
}
