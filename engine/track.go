package engine

import (
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/fx"
)

// Track is the control side of one loop track: its configuration, its state
// machine and what the control path knows about its loop. The samples
// themselves live on the audio path once committed.
type Track struct {
	e      *Engine
	index  int
	status trackStatus
	config looper.TrackConfig
	fx     *fx.Settings

	state       looper.TrackState
	loopBeats   float64
	recordedBPM float64
	frames      int
	hasLoop     bool
	canUndo     bool
	stopping    bool // waiting for a fade-out or the loop end
	waveform    looper.Waveform

	capture    []float32
	captureGen uint32
	bufferGen  uint32
	playGen    uint32
}

// Index returns the 0-based index of the track.
func (t *Track) Index() int { return t.index }

// ToggleRecord performs the main action of the track: it starts recording an
// empty track, commits a recording, starts and stops overdubbing a playing
// track and restarts a stopped one. A track that is fading out or waiting for
// its loop end ignores it.
func (t *Track) ToggleRecord() { t.e.update(t.toggleRecord) }

// TogglePlayStop stops a playing track and plays a stopped one.
func (t *Track) TogglePlayStop() { t.e.update(t.togglePlayStop) }

// Play (re)starts the playback of the loop from its beginning.
func (t *Track) Play() { t.e.update(t.play) }

// Stop stops the playback according to the stop mode of the track. Stopping
// a track that is already fading out or waiting for its loop end stops it
// right away.
func (t *Track) Stop() { t.e.update(t.stop) }

// Clear discards the loop, the undo snapshot and any recording in progress.
func (t *Track) Clear() { t.e.update(t.clear) }

// Undo reverts the last overdub. Only one level of undo is kept.
func (t *Track) Undo() { t.e.update(t.undo) }

// UpdateConfig changes the configuration of the track. f receives a copy of
// the current configuration; out of range values are clamped.
func (t *Track) UpdateConfig(f func(*looper.TrackConfig)) {
	t.e.update(func() { t.updateConfig(f) })
}

// UpdateEffectConfig changes the effect chain of the track.
func (t *Track) UpdateEffectConfig(f func(*looper.EffectConfig)) {
	t.UpdateConfig(func(c *looper.TrackConfig) { f(&c.Effects) })
}

func (t *Track) State() looper.TrackState {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.state
}

func (t *Track) Config() looper.TrackConfig {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.config
}

// LoopLengthBeats returns the length of the committed loop; 0 without a loop.
func (t *Track) LoopLengthBeats() float64 {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.loopBeats
}

// RecordedBPM returns the tempo at which the loop was recorded.
func (t *Track) RecordedBPM() float64 {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.recordedBPM
}

func (t *Track) CanUndo() bool {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.canUndo
}

// PlaybackRate returns the current resampling ratio of the loop.
func (t *Track) PlaybackRate() float64 {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	return t.playbackRate()
}

// Waveform returns the peak summary of the loop, looper.WaveformBuckets
// values, or nil when the track has no loop.
func (t *Track) Waveform() []float32 {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	if !t.hasLoop {
		return nil
	}
	w := t.waveform
	return w[:]
}

// PlaybackProgress returns the position of the playhead in the loop, in
// [0, 1). It is 0 when the track is not playing.
func (t *Track) PlaybackProgress() float64 {
	t.e.mu.Lock()
	defer t.e.mu.Unlock()
	if (t.state != looper.TrackPlaying && t.state != looper.TrackOverdubbing) || t.frames == 0 {
		return 0
	}
	pos := t.status.position.Load()
	if pos < 0 {
		return 0
	}
	return float64(pos%int64(t.frames)) / float64(t.frames)
}

func (t *Track) logger() logrus.FieldLogger {
	return t.e.log.WithField("track", t.index+1)
}

func (t *Track) toggleRecord() {
	switch t.state {
	case looper.TrackEmpty:
		t.startRecording()
	case looper.TrackRecording:
		t.stopRecording()
	case looper.TrackPlaying:
		if t.stopping {
			// the track is about to release
			t.logger().Debug("main action ignored while stopping")
			return
		}
		t.startOverdub()
	case looper.TrackOverdubbing:
		t.stopOverdub()
	case looper.TrackStopped:
		t.play()
	}
}

func (t *Track) togglePlayStop() {
	switch t.state {
	case looper.TrackPlaying, looper.TrackOverdubbing:
		t.stop()
	case looper.TrackStopped:
		t.play()
	}
}

func (t *Track) startRecording() {
	e := t.e
	if !e.active() {
		return
	}
	if !e.hasInput() {
		t.logger().WithError(looper.ErrNoInput).Warn("cannot record")
		return
	}
	if t.capture == nil {
		t.capture = make([]float32, int(e.maxRecordLength*float64(e.sampleRate)))
	}
	start := e.currentTime()
	if e.clock.running {
		switch t.config.Quantize {
		case looper.QuantizeBeat:
			start = e.clock.nextBeatBoundary()
		case looper.QuantizeMeasure:
			start = e.clock.nextMeasureBoundary()
		}
	} else {
		e.clock.start()
	}
	t.captureGen++
	e.send(startCaptureMsg{track: t.index, gen: t.captureGen, start: e.timeToFrame(start), buffer: t.capture})
	t.state = looper.TrackRecording
	t.logger().WithField("start", start).Debug("recording")
	e.changed()
}

// stopRecording commits the captured audio as the loop of the track: the
// recorded duration is quantized, the samples are truncated or padded with
// silence to the final length and handed over to the player.
func (t *Track) stopRecording() {
	e := t.e
	n := t.status.capturedFrames(t.captureGen)
	e.send(stopCaptureMsg{track: t.index})
	if n == 0 {
		t.state = looper.TrackEmpty
		t.logger().Debug("nothing recorded")
		e.changed()
		return
	}
	recorded := looper.FramesToBeats(n, e.config.BPM, e.sampleRate)
	beats := looper.ResolveLoopLength(recorded, e.config, t.config.Quantize, e.master)
	frames := looper.LoopFrames(beats, e.config.BPM, e.sampleRate)
	loop := make([]float32, frames)
	copy(loop, t.capture[:n])
	if t.config.Reverse {
		slices.Reverse(loop)
	}
	t.bufferGen++
	t.loopBeats, t.recordedBPM, t.frames = beats, e.config.BPM, frames
	t.hasLoop, t.canUndo = true, false
	t.waveform.Peaks(loop)
	e.setMaster(beats)
	e.send(loadLoopMsg{track: t.index, bufferGen: t.bufferGen, buffer: loop})
	t.logger().WithFields(logrus.Fields{"recordedBeats": recorded, "beats": beats, "frames": frames}).Info("loop recorded")
	t.state = looper.TrackStopped
	t.play()
}

func (t *Track) play() {
	e := t.e
	if !t.hasLoop || t.state == looper.TrackRecording {
		return
	}
	if t.state == looper.TrackOverdubbing {
		t.stopOverdub()
	}
	if e.config.PlayMode == looper.PlayModeSingle {
		for _, o := range e.tracks {
			if o != t {
				o.stop()
			}
		}
	}
	fade := 0
	if t.config.StartMode == looper.StartFadeIn {
		fade = t.fadeFrames()
	}
	t.playGen++
	t.stopping = false
	e.send(playMsg{track: t.index, gen: t.playGen, rate: t.playbackRate(), loop: !t.config.OneShot, fade: fade})
	t.state = looper.TrackPlaying
	e.changed()
}

func (t *Track) stop() {
	if t.state != looper.TrackPlaying && t.state != looper.TrackOverdubbing {
		return
	}
	t.stopOverdub()
	mode := t.config.StopMode
	if t.stopping {
		mode = looper.StopImmediate
	}
	switch mode {
	case looper.StopFadeOut:
		t.e.send(stopMsg{track: t.index, kind: stopFade, fade: t.fadeFrames()})
		t.stopping = true
	case looper.StopLoopEnd:
		t.e.send(stopMsg{track: t.index, kind: stopLoopEnd})
		t.stopping = true
	default:
		t.e.send(stopMsg{track: t.index, kind: stopImmediate})
		t.state = looper.TrackStopped
		t.stopping = false
	}
	t.e.changed()
}

func (t *Track) startOverdub() {
	if !t.e.hasInput() {
		t.logger().WithError(looper.ErrNoInput).Warn("cannot overdub")
		return
	}
	snapshot := make([]float32, t.frames)
	t.e.send(startOverdubMsg{track: t.index, snapshot: snapshot, replace: t.config.DubMode == looper.DubReplace})
	t.state = looper.TrackOverdubbing
	t.canUndo = true
	t.e.changed()
}

func (t *Track) stopOverdub() {
	if t.state != looper.TrackOverdubbing {
		return
	}
	t.e.send(stopOverdubMsg{track: t.index})
	t.state = looper.TrackPlaying
	t.e.changed()
}

func (t *Track) undo() {
	if !t.canUndo {
		return
	}
	t.stopOverdub()
	t.canUndo = false
	t.e.send(undoMsg{track: t.index})
	if t.state == looper.TrackPlaying {
		t.play()
	}
	t.logger().Debug("overdub undone")
	t.e.changed()
}

func (t *Track) clear() {
	t.captureGen++
	t.bufferGen++
	t.playGen++
	t.e.send(clearMsg{track: t.index})
	t.state = looper.TrackEmpty
	t.loopBeats, t.recordedBPM, t.frames = 0, 0, 0
	t.hasLoop, t.canUndo, t.stopping = false, false, false
	t.waveform = looper.Waveform{}
	t.e.releaseMaster()
	t.e.changed()
}

func (t *Track) updateConfig(f func(*looper.TrackConfig)) {
	old := t.config
	c := old
	f(&c)
	c = c.Normalize()
	if c == old {
		return
	}
	t.config = c
	if t.e.active() {
		if c.Effects != old.Effects {
			t.fx = fx.Compile(c.Effects, t.e.sampleRate, t.fx)
			t.e.send(trackEffectsMsg{track: t.index, settings: t.fx})
		}
		if c.Pan != old.Pan || c.PlayLevel != old.PlayLevel {
			t.sendMix()
		}
		if c.DubMode != old.DubMode {
			t.e.send(dubModeMsg{track: t.index, replace: c.DubMode == looper.DubReplace})
		}
		if c.Speed != old.Speed || c.TempoSync != old.TempoSync {
			t.updateRate()
		}
		if c.Reverse != old.Reverse && t.hasLoop && t.state != looper.TrackRecording {
			t.e.send(reverseMsg{track: t.index})
			if t.state == looper.TrackPlaying {
				t.play()
			}
		}
	}
	t.e.changed()
}

// activate sends the configuration of the track to a freshly created player.
func (t *Track) activate() {
	t.fx = fx.Compile(t.config.Effects, t.e.sampleRate, nil)
	t.e.send(trackEffectsMsg{track: t.index, settings: t.fx})
	t.sendMix()
	t.e.send(dubModeMsg{track: t.index, replace: t.config.DubMode == looper.DubReplace})
}

func (t *Track) sendMix() {
	left, right := t.config.PanGains()
	t.e.send(mixMsg{track: t.index, left: left, right: right})
}

func (t *Track) updateRate() {
	if t.hasLoop {
		t.e.send(rateMsg{track: t.index, rate: t.playbackRate()})
	}
}

func (t *Track) playbackRate() float64 {
	return t.config.PlaybackRate(t.e.config.BPM, t.recordedBPM)
}

func (t *Track) fadeFrames() int {
	return int(float64(t.config.FadeTime) * t.e.config.MeasureDuration() * float64(t.e.sampleRate))
}

func (t *Track) handleEvent(msg MsgToModel) {
	switch msg.Kind {
	case EventStopped:
		if msg.PlayGen != t.playGen || msg.BufferGen != t.bufferGen {
			return
		}
		if t.state == looper.TrackPlaying || t.state == looper.TrackOverdubbing {
			t.stopOverdub()
			t.state = looper.TrackStopped
			t.stopping = false
			t.e.changed()
		}
	case EventWaveform:
		if msg.BufferGen != t.bufferGen || !t.hasLoop {
			return
		}
		t.waveform = msg.Waveform
		t.e.changed()
	case EventCaptureOverflow:
		if t.state == looper.TrackRecording {
			t.logger().Warn("maximum recording length reached, input dropped")
		}
	}
}
