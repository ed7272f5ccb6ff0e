// Subject tests for ReactiveGo
// 主题测试：热语义、迟到订阅者、行为主题与回放主题
package reactivego

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	t.Run("delivers values to current subscribers", func(t *testing.T) {
		subject := NewSubject()
		c := newCollector()
		c.subscribeTo(subject.Signal)

		subject.SendNext(1)
		subject.SendNext(2)
		subject.SendCompleted()

		require.True(t, eventually(time.Second, c.isCompleted))
		assert.Equal(t, []interface{}{1, 2}, c.snapshot())
	})

	t.Run("values before subscription are lost", func(t *testing.T) {
		subject := NewSubject()
		subject.SendNext("early")

		c := newCollector()
		c.subscribeTo(subject.Signal)
		subject.SendNext("late")
		subject.SendCompleted()

		require.True(t, eventually(time.Second, c.isCompleted))
		assert.Equal(t, []interface{}{"late"}, c.snapshot())
	})

	t.Run("late subscriber gets cached termination", func(t *testing.T) {
		subject := NewSubject()
		subject.SendCompleted()

		c := newCollector()
		c.subscribeTo(subject.Signal)
		require.True(t, eventually(time.Second, c.isCompleted))
		assert.Equal(t, 0, c.valueCount())

		errSubject := NewSubject()
		boom := errors.New("boom")
		errSubject.SendError(boom)

		c2 := newCollector()
		c2.subscribeTo(errSubject.Signal)
		require.True(t, eventually(time.Second, func() bool {
			return c2.lastError() == boom
		}))
	})

	t.Run("events after termination are dropped", func(t *testing.T) {
		subject := NewSubject()
		c := newCollector()
		c.subscribeTo(subject.Signal)

		subject.SendCompleted()
		subject.SendNext("zombie")
		subject.SendError(errors.New("zombie"))

		require.True(t, eventually(time.Second, c.isCompleted))
		assert.Equal(t, 0, c.valueCount())
		assert.NoError(t, c.lastError())
	})

	t.Run("unsubscribing removes the subscriber", func(t *testing.T) {
		subject := NewSubject()
		c := newCollector()
		d := c.subscribeTo(subject.Signal)

		subject.SendNext(1)
		d.Dispose()
		subject.SendNext(2)

		assert.Equal(t, []interface{}{1}, c.snapshot())
		assert.False(t, subject.HasSubscribers())
	})

	t.Run("subscriber count tracks attach and detach", func(t *testing.T) {
		subject := NewSubject()
		assert.Equal(t, 0, subject.SubscriberCount())

		d1 := subject.SubscribeNext(func(interface{}) {})
		d2 := subject.SubscribeNext(func(interface{}) {})
		assert.Equal(t, 2, subject.SubscriberCount())

		d1.Dispose()
		assert.Equal(t, 1, subject.SubscriberCount())
		d2.Dispose()
		assert.Equal(t, 0, subject.SubscriberCount())
	})
}

func TestBehaviorSubject(t *testing.T) {
	t.Run("subscribers get the current value first", func(t *testing.T) {
		subject := NewBehaviorSubject(0)
		subject.SendNext(10)

		c := newCollector()
		c.subscribeTo(subject.Signal)

		require.True(t, eventually(time.Second, func() bool {
			return c.valueCount() >= 1
		}))
		subject.SendNext(20)
		subject.SendCompleted()

		require.True(t, eventually(time.Second, c.isCompleted))
		assert.Equal(t, []interface{}{10, 20}, c.snapshot())
	})

	t.Run("default value delivered before any send", func(t *testing.T) {
		subject := NewBehaviorSubject("initial")

		value, ok, err := subject.Take(1).First()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "initial", value)
	})

	t.Run("value reflects the latest send", func(t *testing.T) {
		subject := NewBehaviorSubject(1)
		subject.SendNext(2)

		v, ok := subject.Value()
		assert.True(t, ok)
		assert.Equal(t, 2, v)
	})
}

func TestReplaySubject(t *testing.T) {
	t.Run("replays buffered values to late subscribers", func(t *testing.T) {
		subject := NewReplaySubject(ReplaySubjectUnlimitedCapacity)
		subject.SendNext(1)
		subject.SendNext(2)
		subject.SendNext(3)
		subject.SendCompleted()

		values, err := subject.ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{1, 2, 3}, values)
	})

	t.Run("capacity bounds the buffer", func(t *testing.T) {
		subject := NewReplaySubject(2)
		for i := 1; i <= 5; i++ {
			subject.SendNext(i)
		}
		subject.SendCompleted()

		values, err := subject.ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{4, 5}, values)
	})

	t.Run("zero capacity keeps no history", func(t *testing.T) {
		subject := NewReplaySubject(0)
		subject.SendNext(1)
		subject.SendCompleted()

		values, err := subject.ToSlice()
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("replays nil values", func(t *testing.T) {
		subject := NewReplaySubject(ReplaySubjectUnlimitedCapacity)
		subject.SendNext(nil)
		subject.SendNext(7)
		subject.SendCompleted()

		values, err := subject.ToSlice()
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.Nil(t, values[0])
		assert.Equal(t, 7, values[1])
	})

	t.Run("replays history then the error", func(t *testing.T) {
		boom := errors.New("boom")
		subject := NewReplaySubject(ReplaySubjectUnlimitedCapacity)
		subject.SendNext(1)
		subject.SendError(boom)

		c := newCollector()
		c.subscribeTo(subject.Signal)

		require.True(t, eventually(time.Second, func() bool {
			return c.lastError() == boom
		}))
		assert.Equal(t, []interface{}{1}, c.snapshot())
	})

	t.Run("live subscribers keep receiving after replay", func(t *testing.T) {
		subject := NewReplaySubject(ReplaySubjectUnlimitedCapacity)
		subject.SendNext(1)

		c := newCollector()
		c.subscribeTo(subject.Signal)
		require.True(t, eventually(time.Second, func() bool {
			return c.valueCount() >= 1
		}))

		subject.SendNext(2)
		subject.SendCompleted()

		require.True(t, eventually(time.Second, c.isCompleted))
		assert.Equal(t, []interface{}{1, 2}, c.snapshot())
	})

	t.Run("negative capacity is rejected", func(t *testing.T) {
		assert.Panics(t, func() {
			NewReplaySubject(-1)
		})
	})
}
