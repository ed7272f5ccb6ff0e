// Disposable implementations for ReactiveGo
// 可释放资源系统，包含ActionDisposable、CompoundDisposable、SerialDisposable
package reactivego

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
// Disposable 接口
// ============================================================================

// Disposable 一次性的取消/清理令牌
type Disposable interface {
	// Dispose 释放资源，可以被并发重复调用，释放动作只会执行一次
	Dispose()
	// IsDisposed 检查是否已释放
	IsDisposed() bool
}

// ============================================================================
// ActionDisposable - 基础可释放资源
// ============================================================================

// ActionDisposable 包装一个释放动作，动作最多执行一次
type ActionDisposable struct {
	disposed int32
	action   func()
}

// NewDisposable 创建包装释放动作的Disposable，action可以为nil
func NewDisposable(action func()) *ActionDisposable {
	return &ActionDisposable{
		action: action,
	}
}

// Dispose 释放资源，并发调用时恰好一个调用者执行动作
func (d *ActionDisposable) Dispose() {
	if atomic.CompareAndSwapInt32(&d.disposed, 0, 1) {
		if d.action != nil {
			d.action()
			d.action = nil
		}
	}
}

// IsDisposed 检查是否已释放
func (d *ActionDisposable) IsDisposed() bool {
	return atomic.LoadInt32(&d.disposed) == 1
}

// ============================================================================
// CompoundDisposable - 组合式资源管理器
// ============================================================================

// compoundInlineSlots 内联槽位数量，常见的0-2个成员场景避免切片分配
const compoundInlineSlots = 2

// CompoundDisposable 动态增减的Disposable集合，释放时逐一释放所有成员
type CompoundDisposable struct {
	mu       sync.Mutex
	disposed bool
	inline   [compoundInlineSlots]Disposable
	overflow []Disposable
}

// NewCompoundDisposable 创建组合式资源管理器，可携带初始成员
func NewCompoundDisposable(children ...Disposable) *CompoundDisposable {
	cd := &CompoundDisposable{}
	for _, child := range children {
		cd.Add(child)
	}
	return cd
}

// Add 添加成员。如果组合本身已释放，则立即释放新成员而不是保存
func (cd *CompoundDisposable) Add(d Disposable) {
	if d == nil {
		return
	}

	cd.mu.Lock()
	if cd.disposed {
		cd.mu.Unlock()
		// 释放动作在锁外执行，避免成员回调重入时死锁
		d.Dispose()
		return
	}

	stored := false
	for i := 0; i < compoundInlineSlots; i++ {
		if cd.inline[i] == nil {
			cd.inline[i] = d
			stored = true
			break
		}
	}
	if !stored {
		cd.overflow = append(cd.overflow, d)
	}
	cd.mu.Unlock()
}

// Remove 按标识移除成员。成员不存在时是无操作
func (cd *CompoundDisposable) Remove(d Disposable) {
	if d == nil {
		return
	}

	cd.mu.Lock()
	defer cd.mu.Unlock()

	if cd.disposed {
		return
	}

	for i := 0; i < compoundInlineSlots; i++ {
		if cd.inline[i] == d {
			cd.inline[i] = nil
			return
		}
	}
	for i, member := range cd.overflow {
		if member == d {
			cd.overflow = append(cd.overflow[:i], cd.overflow[i+1:]...)
			return
		}
	}
}

// Dispose 释放所有当前持有的成员，每个成员恰好释放一次
func (cd *CompoundDisposable) Dispose() {
	cd.mu.Lock()
	if cd.disposed {
		cd.mu.Unlock()
		return
	}
	cd.disposed = true

	// 在锁内做快照，锁外执行释放，成员的释放动作可能重入本组合
	var snapshot []Disposable
	for i := 0; i < compoundInlineSlots; i++ {
		if cd.inline[i] != nil {
			snapshot = append(snapshot, cd.inline[i])
			cd.inline[i] = nil
		}
	}
	snapshot = append(snapshot, cd.overflow...)
	cd.overflow = nil
	cd.mu.Unlock()

	for _, member := range snapshot {
		member.Dispose()
	}
}

// IsDisposed 检查是否已释放
func (cd *CompoundDisposable) IsDisposed() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.disposed
}

// count 当前成员数量，仅用于测试
func (cd *CompoundDisposable) count() int {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	n := len(cd.overflow)
	for i := 0; i < compoundInlineSlots; i++ {
		if cd.inline[i] != nil {
			n++
		}
	}
	return n
}

// ============================================================================
// SerialDisposable - 串行可替换资源
// ============================================================================

// SerialDisposable 持有至多一个可替换的Disposable，换入新成员时旧成员被换出
type SerialDisposable struct {
	mu       sync.Mutex
	disposed bool
	inner    Disposable
}

// NewSerialDisposable 创建串行可替换资源
func NewSerialDisposable() *SerialDisposable {
	return &SerialDisposable{}
}

// Disposable 返回当前持有的成员
func (sd *SerialDisposable) Disposable() Disposable {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.inner
}

// Swap 原子地换入新成员并返回旧成员，旧成员的释放由调用方负责。
// 如果本体已释放，新成员被立即释放并返回nil
func (sd *SerialDisposable) Swap(d Disposable) Disposable {
	sd.mu.Lock()
	if sd.disposed {
		sd.mu.Unlock()
		if d != nil {
			d.Dispose()
		}
		return nil
	}

	previous := sd.inner
	sd.inner = d
	sd.mu.Unlock()
	return previous
}

// SetDisposable 换入新成员并释放旧成员
func (sd *SerialDisposable) SetDisposable(d Disposable) {
	if previous := sd.Swap(d); previous != nil {
		previous.Dispose()
	}
}

// Dispose 释放本体和当前成员，释放后本体不再接受新成员
func (sd *SerialDisposable) Dispose() {
	sd.mu.Lock()
	if sd.disposed {
		sd.mu.Unlock()
		return
	}
	sd.disposed = true
	inner := sd.inner
	sd.inner = nil
	sd.mu.Unlock()

	if inner != nil {
		inner.Dispose()
	}
}

// IsDisposed 检查是否已释放
func (sd *SerialDisposable) IsDisposed() bool {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.disposed
}
