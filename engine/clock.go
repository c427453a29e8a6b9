package engine

import (
	"slices"
	"time"

	"github.com/vsariola/looper"
)

type (
	// Clock is the beat clock of the looper. While running, it schedules a
	// tick for every beat slightly ahead of the audio clock: every wake-up
	// schedules all the ticks falling within LookAhead from now. Each tick
	// notifies the tick listeners and queues a metronome click at the exact
	// frame of the beat.
	Clock struct {
		e         *Engine
		running   bool
		beat      int // beat of the next tick to schedule, 0 = first beat of a measure
		measure   int
		nextTime  float64 // seconds
		listeners []tickListener
		nextID    int
		pending   []Tick // scheduled, not yet delivered to the listeners
		ahead     []Tick // scheduled, possibly still in the future
	}

	Tick struct {
		Beat    int
		Measure int
		Time    float64 // audio clock time of the beat, in seconds
	}

	tickListener struct {
		id int
		f  func(Tick)
	}
)

const (
	// LookAhead is how far ahead of the audio clock ticks are scheduled.
	LookAhead = 0.1 // seconds
	// WakeInterval is how often Engine.Run wakes up the scheduler.
	WakeInterval = 25 * time.Millisecond
)

// Start resets the clock to the first beat and starts it at the current
// audio time. Starting a running clock or starting before the audio has been
// activated does nothing.
func (c *Clock) Start() {
	c.e.update(c.start)
}

// Stop halts the clock and resets it to the first beat. Pending ticks and
// metronome clicks are cancelled.
func (c *Clock) Stop() {
	c.e.update(c.stop)
}

func (c *Clock) IsRunning() bool {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	return c.running
}

// Beat returns the beat (within the measure) of the next tick to schedule.
func (c *Clock) Beat() int {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	return c.beat
}

// Measure returns the measure of the next tick to schedule.
func (c *Clock) Measure() int {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	return c.measure
}

// OnTick registers a listener called for every scheduled tick, in order of
// increasing time. Listeners are called without the engine lock held, so they
// can call back to the engine, and never concurrently: if another goroutine
// is already delivering notifications, it delivers these too, after the ones
// queued before them. The returned function unregisters the listener.
func (c *Clock) OnTick(f func(Tick)) (unsubscribe func()) {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, tickListener{id: id, f: f})
	return func() {
		c.e.mu.Lock()
		defer c.e.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// NextBeatBoundaryTime returns the time of the next beat at or after the
// current audio time. It is the current time when the clock is not running.
func (c *Clock) NextBeatBoundaryTime() float64 {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	return c.nextBeatBoundary()
}

// NextMeasureBoundaryTime returns the time of the next first beat of a
// measure at or after the current audio time. It is the current time when the
// clock is not running.
func (c *Clock) NextMeasureBoundaryTime() float64 {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	return c.nextMeasureBoundary()
}

func (c *Clock) start() {
	if c.running || !c.e.active() {
		return
	}
	c.running = true
	c.beat, c.measure = 0, 0
	c.nextTime = c.e.currentTime()
	c.e.log.WithField("time", c.nextTime).Debug("clock started")
	c.schedule()
	c.e.changed()
}

func (c *Clock) stop() {
	if !c.running {
		return
	}
	c.running = false
	c.beat, c.measure = 0, 0
	c.pending = c.pending[:0]
	c.ahead = c.ahead[:0]
	c.e.send(cancelClicksMsg{})
	c.e.log.Debug("clock stopped")
	c.e.changed()
}

// schedule queues all the ticks within the look-ahead window. The beat
// duration is recomputed from the current tempo at every step.
func (c *Clock) schedule() {
	if !c.running {
		return
	}
	now := c.e.currentTime()
	c.ahead = slices.DeleteFunc(c.ahead, func(t Tick) bool { return t.Time < now })
	horizon := now + LookAhead
	for c.nextTime < horizon {
		tick := Tick{Beat: c.beat, Measure: c.measure, Time: c.nextTime}
		c.pending = append(c.pending, tick)
		c.ahead = append(c.ahead, tick)
		if c.e.config.MetronomeOn {
			c.e.send(clickMsg{frame: c.e.timeToFrame(tick.Time), accent: tick.Beat == 0})
		}
		c.advance()
	}
}

func (c *Clock) advance() {
	c.nextTime += looper.SecondsPerBeat(c.e.config.BPM)
	c.beat++
	if c.beat >= c.e.config.TimeSignature.Beats {
		c.beat = 0
		c.measure++
	}
}

// nextBeatBoundary looks first among the ticks already scheduled ahead of
// the audio clock, then at the next tick to schedule.
func (c *Clock) nextBeatBoundary() float64 {
	now := c.e.currentTime()
	if !c.running {
		return now
	}
	for _, t := range c.ahead {
		if t.Time >= now {
			return t.Time
		}
	}
	return c.nextTime
}

func (c *Clock) nextMeasureBoundary() float64 {
	now := c.e.currentTime()
	if !c.running {
		return now
	}
	for _, t := range c.ahead {
		if t.Beat == 0 && t.Time >= now {
			return t.Time
		}
	}
	beats := c.e.config.TimeSignature.Beats
	remaining := (beats - c.beat%beats) % beats
	return c.nextTime + float64(remaining)*looper.SecondsPerBeat(c.e.config.BPM)
}

// takeTicks returns the ticks scheduled since the last call along with the
// listeners to deliver them to.
func (c *Clock) takeTicks() ([]Tick, []tickListener) {
	if len(c.pending) == 0 {
		return nil, nil
	}
	ticks := append([]Tick(nil), c.pending...)
	c.pending = c.pending[:0]
	return ticks, append([]tickListener(nil), c.listeners...)
}
