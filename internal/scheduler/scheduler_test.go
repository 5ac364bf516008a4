package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsPeriodically(t *testing.T) {
	var calls atomic.Int32
	s := New(10*time.Millisecond, func() { calls.Add(1) })
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopHaltsExecution(t *testing.T) {
	var calls atomic.Int32
	s := New(10*time.Millisecond, func() { calls.Add(1) })
	s.Start()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestScheduler_StopIdempotent(t *testing.T) {
	s := New(time.Hour, func() {})
	s.Start()
	s.Stop()
	s.Stop() // must not panic

	// Start is usable again after Stop.
	s.Start()
	s.Stop()
}

func TestScheduler_StartTwice(t *testing.T) {
	var calls atomic.Int32
	s := New(10*time.Millisecond, func() { calls.Add(1) })
	s.Start()
	s.Start()
	defer s.Stop()

	time.Sleep(35 * time.Millisecond)
	// A second Start must not double the tick rate.
	assert.LessOrEqual(t, calls.Load(), int32(5))
}
