package core

import (
	"sync"
	"time"

	"pkt.systems/montage/internal/frames"
	"pkt.systems/montage/schema"
)

// clock is the virtual transport: the single authority over the current
// frame. Media elements and UI playheads follow its notifications and never
// feed a position back in, which removes the race between a media element's
// own clock and the timeline's notion of now.
//
// Position is derived from the injected time source rather than counted per
// tick, so pausing after five seconds at 30fps lands on frame 150 exactly,
// every time.
type clock struct {
	mu       sync.Mutex
	rate     int
	debounce time.Duration
	settle   time.Duration
	now      func() time.Time

	state     schema.TransportState
	base      schema.Frame
	total     schema.Frame
	startedAt time.Time
	stop      chan struct{}

	subs    map[int]func(schema.TransportEvent)
	nextSub int

	seekGen     int
	seekTimer   *time.Timer
	settleTimer *time.Timer
	closed      bool
}

func newClock(rate int, debounce, settle time.Duration, now func() time.Time) *clock {
	if now == nil {
		now = time.Now
	}
	return &clock{
		rate:     rate,
		debounce: debounce,
		settle:   settle,
		now:      now,
		state:    schema.TransportIdle,
		subs:     make(map[int]func(schema.TransportEvent)),
	}
}

// Subscribe registers a listener invoked on every frame advance and every
// explicit seek; returns an unsubscribe handle.
func (c *clock) Subscribe(fn func(schema.TransportEvent)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SetTotal recomputes the playable range after the clip model changed,
// clamping the playhead when the timeline shrank under it.
func (c *clock) SetTotal(total schema.Frame) {
	if total < 0 {
		total = 0
	}
	c.mu.Lock()
	c.total = total
	if c.positionLocked() > total {
		c.base = total
		c.startedAt = c.now()
	}
	c.mu.Unlock()
}

// Position returns the authoritative current frame.
func (c *clock) Position() schema.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// TransportSnapshot returns the current transport event without notifying
// subscribers.
func (c *clock) TransportSnapshot() schema.TransportEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return schema.TransportEvent{
		State: c.state,
		Frame: c.positionLocked(),
		Total: c.total,
	}
}

// State returns the transport state.
func (c *clock) State() schema.TransportState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *clock) positionLocked() schema.Frame {
	if c.state != schema.TransportPlaying {
		return c.base
	}
	pos := c.base + frames.FromDuration(c.now().Sub(c.startedAt), c.rate)
	if pos > c.total {
		pos = c.total
	}
	return pos
}

// Play starts the frame clock. No-op when already playing or when the
// timeline has no frames to play.
func (c *clock) Play() {
	c.mu.Lock()
	if c.closed || c.state == schema.TransportPlaying || c.total == 0 {
		c.mu.Unlock()
		return
	}
	c.cancelSeekTimersLocked()
	c.state = schema.TransportPlaying
	c.startedAt = c.now()
	c.stop = make(chan struct{})
	go c.run(c.stop)
	ev, fns := c.eventLocked()
	c.mu.Unlock()
	dispatchTransport(ev, fns)
}

// Pause stops the clock and fires a final notification at the exact frame
// the clock reached. No-op when not playing.
func (c *clock) Pause() {
	c.mu.Lock()
	if c.state != schema.TransportPlaying {
		c.mu.Unlock()
		return
	}
	c.base = c.positionLocked()
	c.state = schema.TransportPaused
	close(c.stop)
	c.stop = nil
	ev, fns := c.eventLocked()
	c.mu.Unlock()
	dispatchTransport(ev, fns)
}

// Seek moves the playhead, clamped into [0, total]. Immediate seeks from
// discrete actions apply synchronously; debounced seeks from continuous
// drags coalesce so only the last value within the window lands. A seek
// while playing keeps playing from the new frame; otherwise the transport
// passes through seeking and settles to paused.
func (c *clock) Seek(frame schema.Frame, debounced bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seekGen++
	gen := c.seekGen
	if c.seekTimer != nil {
		c.seekTimer.Stop()
		c.seekTimer = nil
	}
	if debounced {
		c.seekTimer = time.AfterFunc(c.debounce, func() {
			c.applySeek(frame, gen)
		})
		c.mu.Unlock()
		return
	}
	ev, fns := c.commitSeekLocked(frame, gen)
	c.mu.Unlock()
	dispatchTransport(ev, fns)
}

func (c *clock) applySeek(frame schema.Frame, gen int) {
	c.mu.Lock()
	if c.closed || gen != c.seekGen {
		c.mu.Unlock()
		return
	}
	ev, fns := c.commitSeekLocked(frame, gen)
	c.mu.Unlock()
	dispatchTransport(ev, fns)
}

func (c *clock) commitSeekLocked(frame schema.Frame, gen int) (schema.TransportEvent, []func(schema.TransportEvent)) {
	if frame < 0 {
		frame = 0
	}
	if frame > c.total {
		frame = c.total
	}
	wasPlaying := c.state == schema.TransportPlaying
	if wasPlaying {
		close(c.stop)
		c.stop = nil
	}
	c.base = frame
	if wasPlaying {
		c.startedAt = c.now()
		c.state = schema.TransportPlaying
		c.stop = make(chan struct{})
		go c.run(c.stop)
	} else {
		c.state = schema.TransportSeeking
		if c.settleTimer != nil {
			c.settleTimer.Stop()
		}
		c.settleTimer = time.AfterFunc(c.settle, func() {
			c.settleSeek(gen)
		})
	}
	return c.eventLocked()
}

func (c *clock) settleSeek(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.seekGen || c.state != schema.TransportSeeking {
		c.mu.Unlock()
		return
	}
	c.state = schema.TransportPaused
	ev, fns := c.eventLocked()
	c.mu.Unlock()
	dispatchTransport(ev, fns)
}

// Close tears the clock down; further calls are no-ops.
func (c *clock) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.cancelSeekTimersLocked()
	c.state = schema.TransportIdle
	c.subs = nil
	c.mu.Unlock()
}

func (c *clock) cancelSeekTimersLocked() {
	c.seekGen++
	if c.seekTimer != nil {
		c.seekTimer.Stop()
		c.seekTimer = nil
	}
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

func (c *clock) run(stop chan struct{}) {
	interval := time.Second / time.Duration(c.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.tick() {
				return
			}
		}
	}
}

// tick advances subscribers and auto-pauses at the end of the timeline.
// Returns true when the run loop should exit.
func (c *clock) tick() bool {
	c.mu.Lock()
	if c.state != schema.TransportPlaying {
		c.mu.Unlock()
		return true
	}
	pos := c.positionLocked()
	done := pos >= c.total
	if done {
		c.base = c.total
		c.state = schema.TransportPaused
		c.stop = nil
	}
	ev, fns := c.eventLocked()
	c.mu.Unlock()
	dispatchTransport(ev, fns)
	return done
}

func (c *clock) eventLocked() (schema.TransportEvent, []func(schema.TransportEvent)) {
	ev := schema.TransportEvent{
		State: c.state,
		Frame: c.positionLocked(),
		Total: c.total,
	}
	fns := make([]func(schema.TransportEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	return ev, fns
}

func dispatchTransport(ev schema.TransportEvent, fns []func(schema.TransportEvent)) {
	for _, fn := range fns {
		fn(ev)
	}
}
