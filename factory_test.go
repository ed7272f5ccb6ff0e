// Factory tests for ReactiveGo
// 信号工厂测试
package reactivego

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJust(t *testing.T) {
	values, err := Just(1, 2, 3).ToSlice()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 2, 3}, values)
}

func TestFromSlice(t *testing.T) {
	t.Run("emits in order", func(t *testing.T) {
		values, err := FromSlice([]interface{}{"a", "b", "c"}).ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"a", "b", "c"}, values)
	})

	t.Run("empty slice just completes", func(t *testing.T) {
		values, err := FromSlice(nil).ToSlice()
		require.NoError(t, err)
		assert.Empty(t, values)
	})
}

func TestRange(t *testing.T) {
	t.Run("emits the range in order", func(t *testing.T) {
		values, err := Range(5, 4).ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{5, 6, 7, 8}, values)
	})

	t.Run("early termination frees the subscription scheduler", func(t *testing.T) {
		value, ok, err := Range(0, 20_000_000).Take(1).First()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 0, value)

		// 上面的生产循环退出后，共享的后台队列必须立即可用
		start := time.Now()
		next, nextOk, nextErr := Return("ready").First()
		require.NoError(t, nextErr)
		require.True(t, nextOk)
		assert.Equal(t, "ready", next)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestFromChannel(t *testing.T) {
	ch := make(chan interface{}, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	values, err := FromChannel(ch).ToSlice()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 2, 3}, values)
}

func TestDefer(t *testing.T) {
	t.Run("factory runs per subscription", func(t *testing.T) {
		var calls int32
		s := Defer(func() *Signal {
			return Return(atomic.AddInt32(&calls, 1))
		})

		first, _, err := s.First()
		require.NoError(t, err)
		second, _, err := s.First()
		require.NoError(t, err)

		assert.Equal(t, int32(1), first)
		assert.Equal(t, int32(2), second)
	})

	t.Run("nil factory is rejected", func(t *testing.T) {
		assert.Panics(t, func() {
			Defer(nil)
		})
	})
}

func TestTimer(t *testing.T) {
	scheduler := NewScheduler("test.timer")

	start := time.Now()
	values, err := Timer(30*time.Millisecond, scheduler).ToSlice()
	require.NoError(t, err)

	require.Len(t, values, 1)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestInterval(t *testing.T) {
	scheduler := NewScheduler("test.interval")

	values, err := Interval(10*time.Millisecond, scheduler).Take(3).ToSlice()
	require.NoError(t, err)
	assert.Len(t, values, 3)
	for _, v := range values {
		_, ok := v.(time.Time)
		assert.True(t, ok)
	}
}
