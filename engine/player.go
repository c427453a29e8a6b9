package engine

import (
	"sync/atomic"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/fx"
)

// Player is the audio path of the looper. Process is called by the audio
// context from its real-time thread; the player is controlled by messages
// from the engine via the broker and reports track events back to it.
// Everything the player needs is allocated before it receives it, so
// Process never allocates, blocks or locks.
type Player struct {
	broker     *Broker
	sampleRate int
	frame      atomic.Int64 // frames rendered since the player was created
	tailFrames int

	lanes      [looper.NumTracks]lane
	inputChain *fx.Chain
	input      []float32

	monitorGain   float32
	metronomeGain float32
	clicks        clicks
}

// newPlayer creates the player and all its buffers. statuses are shared with
// the control side of the tracks.
func newPlayer(broker *Broker, sampleRate int, statuses [looper.NumTracks]*trackStatus) *Player {
	p := &Player{
		broker:     broker,
		sampleRate: sampleRate,
		tailFrames: fx.ImpulseLength(1, sampleRate) + 2*sampleRate,
		inputChain: fx.NewChain(sampleRate),
		input:      make([]float32, fx.MaxBlock),
		clicks:     newClicks(sampleRate),
	}
	for i := range p.lanes {
		p.lanes[i] = newLane(i, statuses[i], sampleRate)
	}
	return p
}

// Frame returns the number of frames rendered so far; it is the audio clock
// of the looper.
func (p *Player) Frame() int64 { return p.frame.Load() }

func (p *Player) SampleRate() int { return p.sampleRate }

// Process renders audio to out. in is the mono input of the block, or nil if
// there is no input.
func (p *Player) Process(in []float32, out looper.AudioBuffer) {
	p.processMessages()
	for len(out) > 0 {
		n := min(len(out), fx.MaxBlock)
		var block []float32
		if len(in) >= n {
			block, in = in[:n], in[n:]
		}
		p.render(block, out[:n])
		out = out[n:]
	}
}

func (p *Player) render(in []float32, out looper.AudioBuffer) {
	frame := p.frame.Load()
	out.Fill([2]float32{})
	var wet []float32
	if in != nil {
		wet = p.input[:len(in)]
		copy(wet, in)
		p.inputChain.Process(wet)
		if g := p.monitorGain; g > 0 {
			for i, v := range wet {
				out[i][0] += v * g
				out[i][1] += v * g
			}
		}
	}
	for i := range p.lanes {
		p.lanes[i].render(wet, out, frame, p)
	}
	p.clicks.render(out, frame, p.metronomeGain)
	p.frame.Store(frame + int64(len(out)))
}

func (p *Player) processMessages() {
loop:
	for { // process new message
		select {
		case msg := <-p.broker.ToPlayer:
			switch m := msg.(type) {
			case startCaptureMsg:
				p.lanes[m.track].startCapture(m)
			case stopCaptureMsg:
				p.lanes[m.track].capturing = false
			case loadLoopMsg:
				p.lanes[m.track].load(m)
			case playMsg:
				p.lanes[m.track].play(m)
			case stopMsg:
				p.lanes[m.track].stop(m, p)
			case rateMsg:
				p.lanes[m.track].rate = m.rate
			case mixMsg:
				p.lanes[m.track].left, p.lanes[m.track].right = m.left, m.right
			case startOverdubMsg:
				p.lanes[m.track].startOverdub(m)
			case stopOverdubMsg:
				p.lanes[m.track].stopOverdub(p)
			case dubModeMsg:
				p.lanes[m.track].replace = m.replace
			case undoMsg:
				p.lanes[m.track].undo(p)
			case reverseMsg:
				p.lanes[m.track].reverse(p)
			case clearMsg:
				p.lanes[m.track].clear()
			case trackEffectsMsg:
				p.lanes[m.track].chain.Apply(m.settings)
			case inputEffectsMsg:
				p.inputChain.Apply(m.settings)
			case gainsMsg:
				p.monitorGain, p.metronomeGain = m.monitor, m.metronome
			case clickMsg:
				p.clicks.add(m, p.frame.Load())
			case cancelClicksMsg:
				p.clicks.cancel()
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

// all sends from the player are non-blocking, to ensure that the audio thread
// cannot end up in a dead-lock
func (p *Player) send(msg MsgToModel) {
	TrySend(p.broker.ToModel, msg)
}
