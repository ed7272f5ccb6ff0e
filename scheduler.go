// Scheduler implementations for ReactiveGo
// 调度器系统，包含立即调度器、串行队列调度器、订阅调度器和递归调度
package reactivego

import (
	"sync"
	"time"

	"github.com/petermattis/goid"
)

// ============================================================================
// Scheduler 接口
// ============================================================================

// RecursiveAction 递归调度的工作单元，通过recurse请求重新执行自身
type RecursiveAction func(recurse func())

// Scheduler 调度器接口，决定工作在何时、在哪个执行上下文中运行
type Scheduler interface {
	// Name 调度器名称，仅用于诊断
	Name() string
	// Schedule 调度一个任务
	Schedule(action func()) Disposable
	// ScheduleAfter 在指定时刻调度一个任务
	ScheduleAfter(t time.Time, action func()) Disposable
	// ScheduleEvery 在指定时刻开始以固定间隔重复调度任务，leeway为定时容差提示
	ScheduleEvery(t time.Time, interval, leeway time.Duration, action func()) Disposable
	// ScheduleRecursive 调度可递归的任务，整条递归链可以随时从外部取消
	ScheduleRecursive(action RecursiveAction) Disposable
}

// ScheduleAfterDelay 延迟调度的便捷形式
func ScheduleAfterDelay(s Scheduler, delay time.Duration, action func()) Disposable {
	return s.ScheduleAfter(time.Now().Add(delay), action)
}

// ============================================================================
// 当前调度器登记表
// ============================================================================

// 以goroutine id为键登记正在执行的调度器，安装/恢复成对出现，
// 替代原有的线程字典式全局状态
var (
	currentMu         sync.Mutex
	currentSchedulers = map[int64]Scheduler{}
)

// CurrentScheduler 返回调用goroutine上正在执行的调度器，没有则返回nil
func CurrentScheduler() Scheduler {
	gid := goid.Get()
	currentMu.Lock()
	defer currentMu.Unlock()
	return currentSchedulers[gid]
}

// asCurrentScheduler 执行期间将s安装为当前调度器，结束后恢复之前的登记值
func asCurrentScheduler(s Scheduler, action func()) {
	gid := goid.Get()
	currentMu.Lock()
	previous, had := currentSchedulers[gid]
	currentSchedulers[gid] = s
	currentMu.Unlock()

	defer func() {
		currentMu.Lock()
		if had {
			currentSchedulers[gid] = previous
		} else {
			delete(currentSchedulers, gid)
		}
		currentMu.Unlock()
	}()

	action()
}

// ============================================================================
// 递归调度
// ============================================================================

// scheduleRecursive 递归调度的通用实现。首次执行期间同步发出的recurse调用
// 只做计数，首次执行返回后再统一迭代派发，避免紧凑同步重订阅循环的栈增长；
// 之后（异步）发出的recurse调用立即触发新一轮调度。
// 每一步都持有自己的子Disposable并登记进overall，整条链可从外部整体取消
func scheduleRecursive(s Scheduler, action RecursiveAction, overall *CompoundDisposable) {
	selfDisposable := NewCompoundDisposable()
	overall.Add(selfDisposable)

	scheduling := s.Schedule(func() {
		// 本步已经开始执行，占位成员不再有取消价值
		overall.Remove(selfDisposable)

		if overall.IsDisposed() {
			return
		}

		reschedule := func() {
			if overall.IsDisposed() {
				return
			}
			scheduleRecursive(s, action, overall)
		}

		var mu sync.Mutex
		pending := 0
		immediate := false

		action(func() {
			mu.Lock()
			scheduleNow := immediate
			if !scheduleNow {
				pending++
			}
			mu.Unlock()

			if scheduleNow {
				reschedule()
			}
		})

		mu.Lock()
		synchronous := pending
		immediate = true
		mu.Unlock()

		for i := 0; i < synchronous; i++ {
			reschedule()
		}
	})
	selfDisposable.Add(scheduling)
}

// ============================================================================
// 立即调度器 - Immediate Scheduler
// ============================================================================

// immediateScheduler 在调用goroutine上同步执行任务
type immediateScheduler struct{}

var immediateInstance = &immediateScheduler{}

// ImmediateScheduler 返回立即调度器单例
func ImmediateScheduler() Scheduler {
	return immediateInstance
}

// Name 调度器名称
func (s *immediateScheduler) Name() string {
	return "reactivego.immediate"
}

// Schedule 同步执行任务，返回nil表示没有可取消的挂起工作
func (s *immediateScheduler) Schedule(action func()) Disposable {
	action()
	return nil
}

// ScheduleAfter 阻塞到指定时刻后同步执行任务
func (s *immediateScheduler) ScheduleAfter(t time.Time, action func()) Disposable {
	if d := time.Until(t); d > 0 {
		time.Sleep(d)
	}
	action()
	return nil
}

// ScheduleEvery 立即调度器不支持重复调度
func (s *immediateScheduler) ScheduleEvery(t time.Time, interval, leeway time.Duration, action func()) Disposable {
	panic("reactivego: the immediate scheduler does not support repeating work")
}

// ScheduleRecursive 在调用goroutine上以迭代方式执行递归任务，栈深与递归次数无关
func (s *immediateScheduler) ScheduleRecursive(action RecursiveAction) Disposable {
	remaining := 1
	for remaining > 0 {
		action(func() {
			remaining++
		})
		remaining--
	}
	return nil
}

// ============================================================================
// 串行队列调度器 - Queue Scheduler
// ============================================================================

// queueScheduler 由锁保护的FIFO队列支撑的串行调度器，
// 排空goroutine按需启动，同一时刻至多一个任务在执行
type queueScheduler struct {
	name     string
	mu       sync.Mutex
	queue    []func()
	draining bool
}

// NewScheduler 创建以name命名的串行队列调度器
func NewScheduler(name string) Scheduler {
	return &queueScheduler{
		name: name,
	}
}

// Name 调度器名称
func (s *queueScheduler) Name() string {
	return s.name
}

// enqueue 将任务追加到队列，必要时启动排空goroutine
func (s *queueScheduler) enqueue(task func()) {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	if !s.draining {
		s.draining = true
		go s.drain()
	}
	s.mu.Unlock()
}

// drain 依次执行队列中的任务，队列排空后退出
func (s *queueScheduler) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}

// Schedule 调度任务。返回的Disposable在任务执行前释放则任务被跳过
func (s *queueScheduler) Schedule(action func()) Disposable {
	d := NewDisposable(nil)
	s.enqueue(func() {
		if d.IsDisposed() {
			return
		}
		asCurrentScheduler(s, action)
	})
	return d
}

// ScheduleAfter 在指定时刻调度任务
func (s *queueScheduler) ScheduleAfter(t time.Time, action func()) Disposable {
	skipped := NewDisposable(nil)
	timer := time.AfterFunc(time.Until(t), func() {
		s.enqueue(func() {
			if skipped.IsDisposed() {
				return
			}
			asCurrentScheduler(s, action)
		})
	})

	return NewDisposable(func() {
		timer.Stop()
		skipped.Dispose()
	})
}

// ScheduleEvery 在指定时刻开始以固定间隔重复调度任务。
// Go的定时器不提供容差控制，leeway仅做参数校验
func (s *queueScheduler) ScheduleEvery(t time.Time, interval, leeway time.Duration, action func()) Disposable {
	if interval <= 0 {
		panic("reactivego: repeating interval must be positive")
	}
	if leeway < 0 {
		panic("reactivego: leeway must be non-negative")
	}

	skipped := NewDisposable(nil)
	run := func() {
		if skipped.IsDisposed() {
			return
		}
		asCurrentScheduler(s, action)
	}

	done := make(chan struct{})
	go func() {
		timer := time.NewTimer(time.Until(t))
		defer timer.Stop()

		select {
		case <-done:
			return
		case <-timer.C:
		}
		s.enqueue(run)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.enqueue(run)
			}
		}
	}()

	return NewDisposable(func() {
		skipped.Dispose()
		close(done)
	})
}

// ScheduleRecursive 调度可递归的任务
func (s *queueScheduler) ScheduleRecursive(action RecursiveAction) Disposable {
	overall := NewCompoundDisposable()
	scheduleRecursive(s, action, overall)
	return overall
}

// ============================================================================
// 订阅调度器 - Subscription Scheduler
// ============================================================================

// subscriptionScheduler 订阅时使用的调度器：已经处于某个调度器上下文中时
// 同步内联执行（避免多余的一次跳转），否则交给私有的后台串行调度器
type subscriptionScheduler struct {
	background Scheduler
}

var subscriptionInstance = &subscriptionScheduler{
	background: NewScheduler("reactivego.subscription.background"),
}

// SubscriptionScheduler 返回订阅调度器单例
func SubscriptionScheduler() Scheduler {
	return subscriptionInstance
}

// Name 调度器名称
func (s *subscriptionScheduler) Name() string {
	return "reactivego.subscription"
}

// Schedule 已在调度器上下文中时内联执行，否则转交后台调度器
func (s *subscriptionScheduler) Schedule(action func()) Disposable {
	if CurrentScheduler() != nil {
		action()
		return nil
	}
	return s.background.Schedule(action)
}

// ScheduleAfter 定时工作总是交给后台调度器
func (s *subscriptionScheduler) ScheduleAfter(t time.Time, action func()) Disposable {
	return s.background.ScheduleAfter(t, action)
}

// ScheduleEvery 重复工作总是交给后台调度器
func (s *subscriptionScheduler) ScheduleEvery(t time.Time, interval, leeway time.Duration, action func()) Disposable {
	return s.background.ScheduleEvery(t, interval, leeway, action)
}

// ScheduleRecursive 调度可递归的任务，递归步骤经由Schedule保持内联语义
func (s *subscriptionScheduler) ScheduleRecursive(action RecursiveAction) Disposable {
	overall := NewCompoundDisposable()
	scheduleRecursive(s, action, overall)
	return overall
}
