package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/fx"
)

type (
	// Engine coordinates the looper: it owns the global configuration, the
	// tracks, the clock and the shared audio graph (input effects, monitor
	// path and master bus, all rendered by the Player).
	//
	// All methods are safe to call from any goroutine. Subscribers and tick
	// listeners are called after the engine lock has been released, so they
	// can call back into the engine.
	Engine struct {
		mu  sync.Mutex
		log logrus.FieldLogger

		config          looper.GlobalConfig
		input           looper.EffectConfig
		inputFx         *fx.Settings
		tracks          [looper.NumTracks]*Track
		clock           Clock
		master          float64 // master loop length in beats, 0 = not set
		maxRecordLength float64 // seconds

		broker     *Broker
		player     *Player
		audio      looper.AudioContext
		sampleRate int

		dirty       bool
		subscribers []subscriber
		nextID      int
		deliveries  []delivery
		delivering  bool
	}

	subscriber struct {
		id int
		f  func()
	}

	// delivery holds the notifications of one update, with the listeners and
	// subscribers registered at the time.
	delivery struct {
		ticks       []Tick
		listeners   []tickListener
		subscribers []subscriber
	}
)

// New creates an engine. The audio graph is created later, by Activate.
func New(settings looper.Settings, logger logrus.FieldLogger) *Engine {
	settings = settings.Normalize()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := &Engine{
		log:             logger,
		config:          settings.Global,
		input:           settings.Input,
		maxRecordLength: settings.Engine.MaxRecordSeconds,
		broker:          NewBroker(),
	}
	e.clock.e = e
	for i := range e.tracks {
		e.tracks[i] = &Track{e: e, index: i, config: settings.Tracks[i]}
		e.tracks[i].status.position.Store(-1)
	}
	return e
}

// Activate creates the audio graph and starts playing it on the given audio
// context. Activating an active engine does nothing. An audio context without
// input is accepted: the engine then runs without monitoring and recording.
func (e *Engine) Activate(audio looper.AudioContext) (err error) {
	e.update(func() { err = e.activate(audio) })
	return err
}

func (e *Engine) activate(audio looper.AudioContext) error {
	if e.player != nil {
		return nil
	}
	sr := audio.SampleRate()
	if sr <= 0 {
		return fmt.Errorf("invalid sample rate %d", sr)
	}
	var statuses [looper.NumTracks]*trackStatus
	for i, t := range e.tracks {
		statuses[i] = &t.status
	}
	e.player, e.audio, e.sampleRate = newPlayer(e.broker, sr, statuses), audio, sr
	e.inputFx = fx.Compile(e.input, sr, nil)
	e.send(inputEffectsMsg{settings: e.inputFx})
	e.sendGains()
	for _, t := range e.tracks {
		t.activate()
	}
	if err := audio.Play(e.player); err != nil {
		e.player, e.audio, e.sampleRate = nil, nil, 0
		for len(e.broker.ToPlayer) > 0 {
			<-e.broker.ToPlayer
		}
		return fmt.Errorf("starting audio: %w", err)
	}
	e.log.WithFields(logrus.Fields{"sampleRate": sr, "input": audio.HasInput()}).Info("audio activated")
	if !audio.HasInput() {
		e.log.WithError(looper.ErrNoInput).Warn("monitoring and recording are disabled")
	}
	e.changed()
	return nil
}

// Run is the control loop of the engine: it wakes up the clock scheduler
// every WakeInterval and handles the events coming from the player. Run
// returns when ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(WakeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Schedule()
		case msg := <-e.broker.ToModel:
			e.handle(msg)
		}
	}
}

// Schedule runs one look-ahead pass of the clock scheduler. It is called by
// Run; call it directly only when driving the engine without Run.
func (e *Engine) Schedule() {
	e.update(e.clock.schedule)
}

// ProcessEvents handles all the pending events from the player without
// blocking.
func (e *Engine) ProcessEvents() {
	for {
		select {
		case msg := <-e.broker.ToModel:
			e.handle(msg)
		default:
			return
		}
	}
}

func (e *Engine) handle(msg MsgToModel) {
	if msg.Track < 0 || msg.Track >= looper.NumTracks {
		return
	}
	e.update(func() { e.tracks[msg.Track].handleEvent(msg) })
}

// Close stops the clock and clears all tracks, releasing their buffers. The
// audio context is owned by the caller and should be closed after this.
func (e *Engine) Close() {
	e.update(func() {
		e.clock.stop()
		for _, t := range e.tracks {
			t.clear()
		}
		e.log.Debug("engine closed")
	})
}

func (e *Engine) Config() looper.GlobalConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// UpdateConfig changes the global configuration. f receives a copy of the
// current configuration to modify; out of range values are clamped.
func (e *Engine) UpdateConfig(f func(*looper.GlobalConfig)) {
	e.update(func() {
		old := e.config
		c := old
		f(&c)
		c = c.Normalize()
		if c == old {
			return
		}
		e.config = c
		if c.BPM != old.BPM {
			for _, t := range e.tracks {
				t.updateRate()
			}
		}
		if c.MonitorGain() != old.MonitorGain() || c.MetronomeGain() != old.MetronomeGain() {
			e.sendGains()
		}
		e.log.WithFields(logrus.Fields{"bpm": c.BPM, "timeSignature": c.TimeSignature, "playMode": c.PlayMode, "loopLength": c.LoopLength}).Debug("config updated")
		e.changed()
	})
}

func (e *Engine) InputEffectConfig() looper.EffectConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.input
}

// UpdateInputEffectConfig changes the effects of the shared input path,
// which feeds both the monitor and the recordings.
func (e *Engine) UpdateInputEffectConfig(f func(*looper.EffectConfig)) {
	e.update(func() {
		c := e.input
		f(&c)
		c = c.Normalize()
		if c == e.input {
			return
		}
		e.input = c
		if e.active() {
			e.inputFx = fx.Compile(c, e.sampleRate, e.inputFx)
			e.send(inputEffectsMsg{settings: e.inputFx})
		}
		e.changed()
	})
}

// StopAllTracks stops every playing or overdubbing track, each according to
// its stop mode.
func (e *Engine) StopAllTracks() {
	e.update(func() {
		for _, t := range e.tracks {
			t.stop()
		}
	})
}

// Subscribe registers a function called after every change of the engine
// state. The returned function unregisters it.
func (e *Engine) Subscribe(f func()) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subscribers = append(e.subscribers, subscriber{id: id, f: f})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subscribers {
			if s.id == id {
				e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

// CurrentTime returns the audio clock in seconds; 0 before activation.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTime()
}

// SampleRate returns the sample rate of the audio context; 0 before
// activation.
func (e *Engine) SampleRate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sampleRate
}

func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active()
}

// InputAvailable tells if the engine can monitor and record.
func (e *Engine) InputAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasInput()
}

// MasterLoopLengthBeats returns the loop length set by the first recorded
// track. ok is false when no track holds a loop.
func (e *Engine) MasterLoopLengthBeats() (beats float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.master, e.master > 0
}

// Track returns the i:th track, 0 <= i < looper.NumTracks.
func (e *Engine) Track(i int) *Track { return e.tracks[i] }

func (e *Engine) Tracks() []*Track { return e.tracks[:] }

func (e *Engine) Clock() *Clock { return &e.clock }

// update runs f with the lock held and queues the ticks that f scheduled
// and, if f changed anything, a notification of the subscribers. The queue is
// drained with the lock released by one goroutine at a time, in order; an
// update made while another goroutine (or a listener further up the stack)
// is draining leaves its notifications to that goroutine.
func (e *Engine) update(f func()) {
	e.mu.Lock()
	f()
	var d delivery
	d.ticks, d.listeners = e.clock.takeTicks()
	if e.dirty {
		e.dirty = false
		d.subscribers = append(d.subscribers, e.subscribers...)
	}
	if len(d.ticks) > 0 || len(d.subscribers) > 0 {
		e.deliveries = append(e.deliveries, d)
	}
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.deliveries) > 0 {
		d := e.deliveries[0]
		e.deliveries = e.deliveries[1:]
		e.mu.Unlock()
		d.deliver()
		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
}

func (d delivery) deliver() {
	for _, t := range d.ticks {
		for _, l := range d.listeners {
			l.f(t)
		}
	}
	for _, s := range d.subscribers {
		s.f()
	}
}

func (e *Engine) changed() { e.dirty = true }

func (e *Engine) active() bool { return e.player != nil }

func (e *Engine) hasInput() bool { return e.audio != nil && e.audio.HasInput() }

func (e *Engine) currentTime() float64 {
	if e.player == nil {
		return 0
	}
	return float64(e.player.Frame()) / float64(e.sampleRate)
}

func (e *Engine) timeToFrame(t float64) int64 {
	return int64(math.Round(t * float64(e.sampleRate)))
}

// send passes a command to the player. Before activation there is no player
// and commands are dropped.
func (e *Engine) send(msg any) {
	if e.player == nil {
		return
	}
	if !TrySend(e.broker.ToPlayer, msg) {
		e.log.WithField("msg", fmt.Sprintf("%T", msg)).Error("player queue full, command dropped")
	}
}

func (e *Engine) sendGains() {
	e.send(gainsMsg{monitor: e.config.MonitorGain(), metronome: e.config.MetronomeGain()})
}

// setMaster is called when a track commits a loop of the given length. The
// first loop sets the master length.
func (e *Engine) setMaster(beats float64) {
	if e.master == 0 {
		e.master = beats
		e.log.WithField("beats", beats).Debug("master loop length set")
	}
}

// releaseMaster unsets the master length when no track holds a loop.
func (e *Engine) releaseMaster() {
	for _, t := range e.tracks {
		if t.hasLoop {
			return
		}
	}
	if e.master != 0 {
		e.master = 0
		e.log.Debug("master loop length unset")
	}
}
