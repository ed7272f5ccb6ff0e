// Error handling operator tests for ReactiveGo
// 错误处理操作符测试：捕获、重试、重复与try系列
package reactivego

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatch(t *testing.T) {
	t.Run("switches to the handler signal on error", func(t *testing.T) {
		boom := errors.New("boom")
		s := Just(1).ConcatWith(Error(boom)).Catch(func(err error) *Signal {
			assert.Equal(t, boom, err)
			return Just(2, 3)
		})

		values, err := s.ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{1, 2, 3}, values)
	})

	t.Run("handler is not invoked without an error", func(t *testing.T) {
		var calls int32
		values, err := Just(1).Catch(func(error) *Signal {
			atomic.AddInt32(&calls, 1)
			return Empty()
		}).ToSlice()

		require.NoError(t, err)
		assert.Equal(t, []interface{}{1}, values)
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("replacement errors pass through", func(t *testing.T) {
		second := errors.New("second")
		err := Error(errors.New("first")).Catch(func(error) *Signal {
			return Error(second)
		}).Wait()

		assert.Equal(t, second, err)
	})
}

func TestCatchTo(t *testing.T) {
	values, err := Error(errors.New("boom")).CatchTo(Just("fallback")).ToSlice()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"fallback"}, values)
}

func TestRetry(t *testing.T) {
	t.Run("retries the given number of times", func(t *testing.T) {
		boom := errors.New("boom")
		var attempts int32
		flaky := Defer(func() *Signal {
			atomic.AddInt32(&attempts, 1)
			return Error(boom)
		})

		err := flaky.Retry(2).Wait()
		assert.Equal(t, boom, err)
		// 首次订阅加两次重试
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	})

	t.Run("stops retrying after success", func(t *testing.T) {
		var attempts int32
		flaky := Defer(func() *Signal {
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				return Error(fmt.Errorf("attempt %d failed", n))
			}
			return Just("ok")
		})

		values, err := flaky.Retry(5).ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"ok"}, values)
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	})

	t.Run("values from failed attempts still flow", func(t *testing.T) {
		var attempts int32
		flaky := Defer(func() *Signal {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return Just(1).ConcatWith(Error(errors.New("boom")))
			}
			return Just(2)
		})

		values, err := flaky.Retry(1).ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{1, 2}, values)
	})

	t.Run("completion is not retried", func(t *testing.T) {
		var attempts int32
		s := Defer(func() *Signal {
			atomic.AddInt32(&attempts, 1)
			return Just(1)
		})

		values, err := s.Retry(5).ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{1}, values)
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("deep synchronous retry stays on the trampoline", func(t *testing.T) {
		var attempts int32
		flaky := Defer(func() *Signal {
			if atomic.AddInt32(&attempts, 1) < 3000 {
				return Error(errors.New("not yet"))
			}
			return Return("done")
		})

		value, ok, err := flaky.Retry(0).First()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "done", value)
		assert.Equal(t, int32(3000), atomic.LoadInt32(&attempts))
	})
}

func TestRepeat(t *testing.T) {
	t.Run("resubscribes after completion", func(t *testing.T) {
		values, err := Just(1, 2).Repeat().Take(6).ToSlice()
		require.NoError(t, err)
		assert.Equal(t, []interface{}{1, 2, 1, 2, 1, 2}, values)
	})

	t.Run("errors end the repetition", func(t *testing.T) {
		boom := errors.New("boom")
		var attempts int32
		s := Defer(func() *Signal {
			if atomic.AddInt32(&attempts, 1) == 2 {
				return Error(boom)
			}
			return Just(1)
		})

		c := newCollector()
		c.subscribeTo(s.Repeat())

		require.True(t, eventually(testWaitLong, func() bool {
			return c.lastError() == boom
		}))
		assert.Equal(t, []interface{}{1}, c.snapshot())
	})
}

func TestTry(t *testing.T) {
	t.Run("passing values flow through", func(t *testing.T) {
		values, err := Just(1, 2).Try(func(interface{}) error {
			return nil
		}).ToSlice()

		require.NoError(t, err)
		assert.Equal(t, []interface{}{1, 2}, values)
	})

	t.Run("a failing value terminates the signal", func(t *testing.T) {
		boom := errors.New("too big")
		values := make([]interface{}, 0)

		c := newCollector()
		c.subscribeTo(Just(1, 2, 3).Try(func(v interface{}) error {
			if v.(int) > 1 {
				return boom
			}
			return nil
		}))

		require.True(t, eventually(testWaitLong, func() bool {
			return c.lastError() == boom
		}))
		values = c.snapshot()
		assert.Equal(t, []interface{}{1}, values)
	})
}

func TestTryMap(t *testing.T) {
	t.Run("maps until the first failure", func(t *testing.T) {
		boom := errors.New("bad input")
		c := newCollector()
		c.subscribeTo(Just(2, 0, 4).TryMap(func(v interface{}) (interface{}, error) {
			n := v.(int)
			if n == 0 {
				return nil, boom
			}
			return 10 / n, nil
		}))

		require.True(t, eventually(testWaitLong, func() bool {
			return c.lastError() == boom
		}))
		assert.Equal(t, []interface{}{5}, c.snapshot())
	})

	t.Run("all values map cleanly", func(t *testing.T) {
		values, err := Just("a", "b").TryMap(func(v interface{}) (interface{}, error) {
			return v.(string) + "!", nil
		}).ToSlice()

		require.NoError(t, err)
		assert.Equal(t, []interface{}{"a!", "b!"}, values)
	})
}

func TestSideEffects(t *testing.T) {
	t.Run("do next runs before delivery", func(t *testing.T) {
		var seen []interface{}
		values, err := Just(1, 2).DoNext(func(v interface{}) {
			seen = append(seen, v)
		}).ToSlice()

		require.NoError(t, err)
		assert.Equal(t, values, seen)
	})

	t.Run("do error observes the error", func(t *testing.T) {
		boom := errors.New("boom")
		var observed error
		err := Error(boom).DoError(func(e error) {
			observed = e
		}).Wait()

		assert.Equal(t, boom, err)
		assert.Equal(t, boom, observed)
	})

	t.Run("do completed fires on completion only", func(t *testing.T) {
		var fired int32
		require.NoError(t, Empty().DoCompleted(func() {
			atomic.AddInt32(&fired, 1)
		}).Wait())
		assert.Equal(t, int32(1), atomic.LoadInt32(&fired))

		_ = Error(errors.New("boom")).DoCompleted(func() {
			atomic.AddInt32(&fired, 1)
		}).Wait()
		assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	})

	t.Run("finally runs on both terminal paths", func(t *testing.T) {
		var runs int32
		require.NoError(t, Just(1).Finally(func() {
			atomic.AddInt32(&runs, 1)
		}).Wait())

		_ = Error(errors.New("boom")).Finally(func() {
			atomic.AddInt32(&runs, 1)
		}).Wait()

		assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
	})
}
