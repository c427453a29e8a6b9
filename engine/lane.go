package engine

import (
	"slices"
	"sync/atomic"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/fx"
)

type (
	// trackStatus is written by the audio path and read by the control path.
	trackStatus struct {
		// captured packs the generation of the capture in the top 24 bits
		// and the number of captured frames in the low 40 bits
		captured atomic.Uint64
		position atomic.Int64 // playhead in frames, -1 when not playing
	}

	// lane is the audio path half of a track. Once a loop has been committed,
	// the lane owns its samples and the undo snapshot; the control path only
	// learns about them through events.
	lane struct {
		index  int
		status *trackStatus
		chain  *fx.Chain
		tmp    []float32

		loop      []float32
		snapshot  []float32
		bufferGen uint32
		waveform  looper.Waveform

		playing  bool
		looping  bool
		playGen  uint32
		pos      float64
		rate     float64
		gain     float32
		fadeStep float32 // per frame; negative when fading out
		left     float32
		right    float32
		tail     int // frames the effect chain still rings after playback stopped

		capturing  bool
		capture    RingBuffer[float32]
		captureGen uint32
		captureAt  int64
		overflow   bool

		dubbing bool
		replace bool
		dub     RingBuffer[float32] // shares the samples of loop; Cursor is the write position
	}
)

const (
	captureFrameBits = 40
	captureFrameMask = 1<<captureFrameBits - 1
)

func (s *trackStatus) publishCapture(gen uint32, frames int) {
	s.captured.Store(uint64(gen)<<captureFrameBits | uint64(frames)&captureFrameMask)
}

// capturedFrames returns the number of frames captured by the capture of the
// given generation; zero if the player has not started that capture yet.
func (s *trackStatus) capturedFrames(gen uint32) int {
	v := s.captured.Load()
	if uint32(v>>captureFrameBits) != gen&(1<<(64-captureFrameBits)-1) {
		return 0
	}
	return int(v & captureFrameMask)
}

func newLane(index int, status *trackStatus, sampleRate int) lane {
	status.position.Store(-1)
	return lane{
		index:  index,
		status: status,
		chain:  fx.NewChain(sampleRate),
		tmp:    make([]float32, fx.MaxBlock),
		rate:   1,
		left:   1,
		right:  1,
		gain:   1,
	}
}

func (l *lane) startCapture(m startCaptureMsg) {
	l.capturing = true
	l.capture = RingBuffer[float32]{Buffer: m.buffer}
	l.captureGen = m.gen
	l.captureAt = m.start
	l.overflow = false
	l.status.publishCapture(l.captureGen, 0)
}

func (l *lane) load(m loadLoopMsg) {
	l.capturing = false
	l.dubbing = false
	l.loop = m.buffer
	l.snapshot = nil
	l.bufferGen = m.bufferGen
	l.pos = 0
}

func (l *lane) play(m playMsg) {
	if len(l.loop) == 0 {
		return
	}
	l.playing = true
	l.playGen = m.gen
	l.looping = m.loop
	l.rate = m.rate
	l.pos = 0
	l.gain, l.fadeStep = 1, 0
	if m.fade > 0 {
		l.gain, l.fadeStep = 0, 1/float32(m.fade)
	}
}

func (l *lane) stop(m stopMsg, p *Player) {
	if !l.playing {
		return
	}
	switch m.kind {
	case stopFade:
		if m.fade > 0 && l.gain > 0 {
			l.fadeStep = -l.gain / float32(m.fade)
			return
		}
		l.release(p, true)
		return
	case stopLoopEnd:
		l.looping = false
		return
	}
	l.release(p, false)
}

// release stops playback. If ended is true, playback ended by itself and the
// control path is told about it.
func (l *lane) release(p *Player, ended bool) {
	l.playing = false
	l.fadeStep = 0
	l.tail = p.tailFrames
	l.status.position.Store(-1)
	if ended {
		p.send(MsgToModel{Track: l.index, Kind: EventStopped, PlayGen: l.playGen, BufferGen: l.bufferGen})
	}
}

func (l *lane) startOverdub(m startOverdubMsg) {
	if len(l.loop) == 0 || len(m.snapshot) != len(l.loop) {
		return
	}
	copy(m.snapshot, l.loop)
	l.snapshot = m.snapshot
	l.dubbing = true
	l.replace = m.replace
	l.dub = RingBuffer[float32]{Buffer: l.loop, Cursor: int(l.pos) % len(l.loop)}
}

func (l *lane) stopOverdub(p *Player) {
	if !l.dubbing {
		return
	}
	l.dubbing = false
	l.publishWaveform(p)
}

func (l *lane) undo(p *Player) {
	if l.snapshot == nil {
		return
	}
	l.loop, l.snapshot = l.snapshot, nil
	if l.dubbing {
		l.dub.Buffer = l.loop
	}
	l.publishWaveform(p)
}

func (l *lane) reverse(p *Player) {
	if len(l.loop) == 0 {
		return
	}
	slices.Reverse(l.loop)
	l.publishWaveform(p)
}

func (l *lane) clear() {
	l.capturing = false
	l.dubbing = false
	l.playing = false
	l.loop = nil
	l.snapshot = nil
	l.dub = RingBuffer[float32]{}
	l.capture = RingBuffer[float32]{}
	l.tail = 0
	l.chain.Reset()
	l.status.position.Store(-1)
}

func (l *lane) publishWaveform(p *Player) {
	l.waveform.Peaks(l.loop)
	p.send(MsgToModel{Track: l.index, Kind: EventWaveform, PlayGen: l.playGen, BufferGen: l.bufferGen, Waveform: l.waveform})
}

// render captures the (already effected) input, plays the loop through the
// track's effect chain and mixes the result into out. in is nil when there
// is no input.
func (l *lane) render(in []float32, out looper.AudioBuffer, frame int64, p *Player) {
	if l.capturing && in != nil {
		l.captureBlock(in, frame, p)
	}
	if !l.playing && l.tail <= 0 {
		return
	}
	buf := l.tmp[:len(out)]
	if l.playing {
		l.playBlock(buf, p)
	} else {
		clear(buf)
		l.tail -= len(buf)
	}
	if l.dubbing && in != nil {
		l.dubBlock(in)
	}
	l.chain.Process(buf)
	for i, v := range buf {
		out[i][0] += v * l.left
		out[i][1] += v * l.right
	}
}

func (l *lane) captureBlock(in []float32, frame int64, p *Player) {
	skip := int(min(max(l.captureAt-frame, 0), int64(len(in))))
	if skip == len(in) {
		return
	}
	if n := l.capture.WriteOnce(in[skip:]); n < len(in)-skip && !l.overflow {
		l.overflow = true
		p.send(MsgToModel{Track: l.index, Kind: EventCaptureOverflow, BufferGen: l.bufferGen})
	}
	l.status.publishCapture(l.captureGen, l.capture.Cursor)
}

func (l *lane) playBlock(buf []float32, p *Player) {
	n := len(l.loop)
	length := float64(n)
	for i := range buf {
		idx := int(l.pos)
		frac := float32(l.pos - float64(idx))
		a, b := l.loop[idx], l.loop[(idx+1)%n]
		buf[i] = (a + (b-a)*frac) * l.gain
		if l.fadeStep != 0 {
			l.gain += l.fadeStep
			if l.gain >= 1 {
				l.gain, l.fadeStep = 1, 0
			} else if l.gain <= 0 {
				clear(buf[i+1:])
				l.release(p, true)
				return
			}
		}
		l.pos += l.rate
		if l.pos >= length {
			if !l.looping {
				clear(buf[i+1:])
				l.release(p, true)
				return
			}
			for l.pos >= length {
				l.pos -= length
			}
		}
	}
	l.status.position.Store(int64(l.pos))
}

// dubBlock writes the input into the loop at the dub cursor. In overdub mode
// the input is summed and clamped to [-1, 1], in replace mode it overwrites.
func (l *lane) dubBlock(in []float32) {
	if l.replace {
		l.dub.WriteWrap(in)
		return
	}
	buf, c := l.dub.Buffer, l.dub.Cursor
	for _, x := range in {
		buf[c] = min(max(buf[c]+x, -1), 1)
		c++
		if c == len(buf) {
			c = 0
		}
	}
	l.dub.Cursor = c
}
