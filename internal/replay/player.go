package replay

import (
	"sync"
	"time"
)

// PlayerState is a snapshot of the player for transport to a viewer
type PlayerState struct {
	PositionMs int64   `json:"position_ms"`
	DurationMs int64   `json:"duration_ms"`
	Speed      float64 `json:"speed"`
	Playing    bool    `json:"playing"`
	State      State   `json:"state"`
}

// Player is a session clock over a timeline. While playing, the position
// advances by real elapsed time multiplied by the playback speed; it stops
// automatically when it reaches the end of the timeline.
type Player struct {
	mu           sync.Mutex
	timeline     *Timeline
	finalContent string
	duration     int64
	speed        float64
	playing      bool
	position     int64
	lastTick     time.Time
	now          func() time.Time
}

// NewPlayer creates a stopped player at position zero with speed 1
func NewPlayer(timeline *Timeline, finalContent string) *Player {
	return &Player{
		timeline:     timeline,
		finalContent: finalContent,
		duration:     timeline.Duration(),
		speed:        1.0,
		now:          time.Now,
	}
}

// WithNow overrides the player's time source (used in tests)
func (p *Player) WithNow(now func() time.Time) *Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
	return p
}

// advance folds elapsed wall time into the position. Caller holds the lock.
func (p *Player) advance() {
	if !p.playing {
		return
	}

	now := p.now()
	elapsed := now.Sub(p.lastTick)
	p.lastTick = now

	p.position += int64(float64(elapsed.Milliseconds()) * p.speed)

	if p.position >= p.duration {
		p.position = p.duration
		p.playing = false
	}
}

// Play starts the clock. Playing from the end restarts from zero.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advance()
	if p.playing {
		return
	}

	if p.position >= p.duration {
		p.position = 0
	}
	p.playing = true
	p.lastTick = p.now()
}

// Pause stops the clock, keeping the position
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advance()
	p.playing = false
}

// Seek moves the clock to the given offset, clamped to the timeline
func (p *Player) Seek(positionMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advance()

	if positionMs < 0 {
		positionMs = 0
	}
	if positionMs > p.duration {
		positionMs = p.duration
	}
	p.position = positionMs
}

// Reset stops the clock and rewinds to the start
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.playing = false
	p.position = 0
}

// Enabled reports whether there is anything to play
func (p *Player) Enabled() bool {
	return p.duration > 0
}

// SetSpeed changes the playback speed without disturbing the position.
// Non-positive speeds are ignored.
func (p *Player) SetSpeed(speed float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if speed <= 0 {
		return
	}

	// Fold in time elapsed at the old speed first
	p.advance()
	p.speed = speed
}

// Position returns the current offset in milliseconds
func (p *Player) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advance()
	return p.position
}

// Snapshot advances the clock and returns the full player state, including
// the reconstructed editor state at the current position
func (p *Player) Snapshot() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advance()

	return PlayerState{
		PositionMs: p.position,
		DurationMs: p.duration,
		Speed:      p.speed,
		Playing:    p.playing,
		State:      p.timeline.StateAt(p.position, p.finalContent),
	}
}
