package testutil

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitFor_ConditionMet(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	ok := WaitFor(t, func() bool {
		return n.Add(1) >= 3
	}, WithTimeout(time.Second), WithInterval(time.Millisecond))

	if !ok {
		t.Error("expected condition to be met")
	}
}

func TestWaitFor_Timeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	ok := WaitFor(t, func() bool { return false },
		WithTimeout(50*time.Millisecond), WithInterval(5*time.Millisecond))

	if ok {
		t.Error("expected timeout")
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("expected WaitFor to wait out the timeout")
	}
}

func TestMustWaitFor(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	}()

	MustWaitFor(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, WithTimeout(time.Second), WithInterval(time.Millisecond))
}
