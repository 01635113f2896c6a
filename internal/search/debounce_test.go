package search

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/perron-board/perron/internal/testutil"
)

func TestDebouncer_RunsOnce(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var runs atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger(func() {
			runs.Add(1)
			last.Store(n)
		})
	}

	testutil.Eventually(t, time.Second, func() bool { return runs.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	testutil.AssertEqual(t, runs.Load(), int32(1))
	testutil.AssertEqual(t, last.Load(), int32(5))
	testutil.AssertFalse(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	var runs atomic.Int32
	d.Trigger(func() { runs.Add(1) })
	testutil.AssertTrue(t, d.Pending())
	d.Cancel()
	testutil.AssertFalse(t, d.Pending())

	time.Sleep(40 * time.Millisecond)
	testutil.AssertEqual(t, runs.Load(), int32(0))
}

func TestDebouncer_TriggerAfterFire(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)

	var runs atomic.Int32
	d.Trigger(func() { runs.Add(1) })
	testutil.Eventually(t, time.Second, func() bool { return runs.Load() == 1 })

	d.Trigger(func() { runs.Add(1) })
	testutil.Eventually(t, time.Second, func() bool { return runs.Load() == 2 })
}
