package observe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_SetNotifiesOnChangeOnly(t *testing.T) {
	v := NewValue(false)
	var got []bool
	v.Watch(func(b bool) { got = append(got, b) })

	assert.True(t, v.Set(true))
	assert.False(t, v.Set(true))
	assert.True(t, v.Set(false))
	assert.True(t, v.Set(true))

	assert.Equal(t, []bool{true, false, true}, got)
	assert.True(t, v.Get())
}

func TestValue_CancelIsIdempotent(t *testing.T) {
	var v Value[int]
	calls := 0
	cancel := v.Watch(func(int) { calls++ })
	other := v.Watch(func(int) {})
	require.Equal(t, 2, v.Watchers())

	cancel()
	cancel()
	assert.Equal(t, 1, v.Watchers())

	v.Set(3)
	assert.Equal(t, 0, calls)
	other()
	assert.Equal(t, 0, v.Watchers())
}

func TestWhenTrue_FiresImmediatelyWhenAlreadyTrue(t *testing.T) {
	v := NewValue(true)
	n := 0
	cancel := WhenTrue(v, func() { n++ })
	defer cancel()
	assert.Equal(t, 1, n)

	v.Set(false)
	v.Set(true)
	assert.Equal(t, 2, n)
}

func TestWhenFalse(t *testing.T) {
	v := NewValue(false)
	n := 0
	WhenFalse(v, func() { n++ })
	assert.Equal(t, 0, n)
	v.Set(true)
	v.Set(false)
	assert.Equal(t, 1, n)
}

func TestEvent_DeliversDuplicates(t *testing.T) {
	var e Event[string]
	var got []string
	cancel := e.Subscribe(func(s string) { got = append(got, s) })
	e.Emit("a")
	e.Emit("a")
	cancel()
	e.Emit("b")
	assert.Equal(t, []string{"a", "a"}, got)
	assert.Equal(t, 0, e.Subscribers())
}

func TestActivity_AggregatesJobs(t *testing.T) {
	a := NewActivity()
	var got []bool
	a.Busy().Watch(func(b bool) { got = append(got, b) })

	done1 := a.Begin()
	done2 := a.Begin()
	done3 := a.Begin()
	assert.Equal(t, 3, a.Pending())

	done2()
	done2()
	done1()
	assert.True(t, a.Busy().Get())
	done3()

	assert.Equal(t, []bool{true, false}, got)
	assert.Equal(t, 0, a.Pending())
}

func TestActivity_ConcurrentJobsSettleIdle(t *testing.T) {
	a := NewActivity()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := a.Begin()
			done()
		}()
	}
	wg.Wait()
	assert.False(t, a.Busy().Get())
	assert.Equal(t, 0, a.Pending())
}
