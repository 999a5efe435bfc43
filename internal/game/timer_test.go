package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartPhaseTimer_FiresOnceOnExpiry(t *testing.T) {
	dir := NewDirectory()
	room := dir.Create("clock")

	var fired atomic.Int32
	StartPhaseTimer(room, 30*time.Millisecond, func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	room.Mu.RLock()
	active := room.Timer.IsActive
	room.Mu.RUnlock()
	assert.False(t, active)
}

func TestCancelPhaseTimer_SuppressesTheCallback(t *testing.T) {
	dir := NewDirectory()
	room := dir.Create("clock")

	var fired atomic.Int32
	StartPhaseTimer(room, 50*time.Millisecond, func() { fired.Add(1) })
	CancelPhaseTimer(room)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	room.Mu.RLock()
	active := room.Timer.IsActive
	deadline := room.Deadline
	room.Mu.RUnlock()
	assert.False(t, active)
	assert.True(t, deadline.IsZero())
}

func TestStartPhaseTimer_RearmReplacesThePriorClock(t *testing.T) {
	dir := NewDirectory()
	room := dir.Create("clock")

	var first, second atomic.Int32
	StartPhaseTimer(room, 40*time.Millisecond, func() { first.Add(1) })
	StartPhaseTimer(room, 20*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestStartPhaseTimer_SetsTheDeadline(t *testing.T) {
	dir := NewDirectory()
	room := dir.Create("clock")

	before := time.Now()
	StartPhaseTimer(room, 10*time.Second, func() {})
	defer CancelPhaseTimer(room)

	room.Mu.RLock()
	deadline := room.Deadline
	active := room.Timer.IsActive
	room.Mu.RUnlock()

	assert.True(t, active)
	assert.WithinDuration(t, before.Add(10*time.Second), deadline, time.Second)
}
