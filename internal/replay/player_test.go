package replay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-engine/internal/models"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// tenSecondTimeline spans 10s with a snapshot every 2s
func tenSecondTimeline() *Timeline {
	var events []models.Event
	for i := int64(0); i <= 5; i++ {
		events = append(events, snapAt(i*2000, i, "rev", int(i)))
	}
	return BuildTimeline(events)
}

func TestPlayerAdvancesWhilePlaying(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	assert.Equal(t, int64(0), p.Position())

	p.Play()
	clock.Advance(3 * time.Second)
	assert.Equal(t, int64(3000), p.Position())

	// Paused: position holds
	p.Pause()
	clock.Advance(5 * time.Second)
	assert.Equal(t, int64(3000), p.Position())
}

func TestPlayerSpeedScalesElapsedTime(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	p.SetSpeed(2.0)
	p.Play()
	clock.Advance(2 * time.Second)
	assert.Equal(t, int64(4000), p.Position())
}

func TestPlayerSpeedChangeMidPlayback(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	p.Play()
	clock.Advance(2 * time.Second) // 2000ms at 1x

	// Changing speed folds in elapsed time first, so no position jump
	p.SetSpeed(4.0)
	assert.Equal(t, int64(2000), p.Position())

	clock.Advance(time.Second) // +4000ms at 4x
	assert.Equal(t, int64(6000), p.Position())
}

func TestPlayerStopsAtEnd(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	p.Play()
	clock.Advance(time.Minute)

	snap := p.Snapshot()
	assert.Equal(t, int64(10000), snap.PositionMs)
	assert.False(t, snap.Playing)
	assert.True(t, snap.State.FinalSubmission)
	assert.Equal(t, "final", snap.State.Content)
}

func TestPlayerPlayFromEndRestarts(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	p.Seek(10000)
	p.Play()
	assert.Equal(t, int64(0), p.Position())

	clock.Advance(time.Second)
	assert.Equal(t, int64(1000), p.Position())
}

func TestPlayerSeekClamps(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	p.Seek(-100)
	assert.Equal(t, int64(0), p.Position())

	p.Seek(999999)
	assert.Equal(t, int64(10000), p.Position())

	p.Seek(4500)
	assert.Equal(t, int64(4500), p.Position())
}

func TestPlayerIgnoresInvalidSpeed(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	p.SetSpeed(0)
	p.SetSpeed(-1)

	snap := p.Snapshot()
	assert.Equal(t, 1.0, snap.Speed)
}

func TestPlayerSnapshotReconstructsState(t *testing.T) {
	clock := newStepClock()

	tl := BuildTimeline([]models.Event{
		snapAt(0, 0, "a", 1),
		snapAt(2000, 1, "ab", 2),
		snapAt(4000, 2, "abc", 3),
	})
	p := NewPlayer(tl, "abc final").WithNow(clock.Now)

	p.Play()
	clock.Advance(2500 * time.Millisecond)

	snap := p.Snapshot()
	require.Equal(t, int64(2500), snap.PositionMs)
	assert.Equal(t, "ab", snap.State.Content)
	assert.True(t, snap.Playing)
	assert.Equal(t, int64(4000), snap.DurationMs)
}

func TestPlayerResetRewinds(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(tenSecondTimeline(), "final").WithNow(clock.Now)

	p.Play()
	clock.Advance(4 * time.Second)
	p.Reset()

	snap := p.Snapshot()
	assert.Equal(t, int64(0), snap.PositionMs)
	assert.False(t, snap.Playing)
}

func TestPlayerEnabled(t *testing.T) {
	clock := newStepClock()

	assert.True(t, NewPlayer(tenSecondTimeline(), "f").WithNow(clock.Now).Enabled())
	assert.False(t, NewPlayer(BuildTimeline(nil), "f").WithNow(clock.Now).Enabled())
}

func TestPlayerEmptyTimeline(t *testing.T) {
	clock := newStepClock()
	p := NewPlayer(BuildTimeline(nil), "final only").WithNow(clock.Now)

	p.Play()
	clock.Advance(time.Second)

	snap := p.Snapshot()
	assert.Equal(t, int64(0), snap.PositionMs)
	assert.False(t, snap.Playing)
	assert.Equal(t, "final only", snap.State.Content)
}
