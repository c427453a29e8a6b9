// Package fx implements the six stage effect chain used both on the shared
// input/monitor path and on every track: compressor, distortion, filter,
// chorus, delay and reverb, always in that order.
//
// The chain is split in two halves. Compile runs on the control path and turns
// an looper.EffectConfig into an immutable *Settings, doing all the work that
// allocates or is expensive (filter design, generating the reverb impulse
// response). Chain runs on the audio path; Apply and Process never allocate.
package fx

import (
	"github.com/viterin/vek/vek32"
)

type (
	// Stage identifies a stage of the chain.
	Stage int

	// Chain is the audio path half of an effect chain. All the delay lines
	// and convolution buffers are allocated by NewChain.
	Chain struct {
		settings *Settings

		compressor compressorState
		filter     biquadState
		chorus     chorusLine
		delay      delayLine
		reverb     convolver

		wet []float32
	}

	gains struct {
		dry, wet float32
	}
)

const (
	Compressor Stage = iota
	Distortion
	Filter
	Chorus
	Delay
	Reverb
	NumStages
)

// MaxBlock is the largest block Process handles at once; longer buffers are
// processed in pieces.
const MaxBlock = 512

func NewChain(sampleRate int) *Chain {
	return &Chain{
		chorus: newChorusLine(sampleRate),
		delay:  newDelayLine(sampleRate),
		reverb: newConvolver(ImpulseLength(1, sampleRate)),
		wet:    make([]float32, MaxBlock),
	}
}

// Apply switches the chain to new settings. The settings must have been
// compiled for the sample rate of the chain.
func (c *Chain) Apply(s *Settings) {
	if s.gains[Reverb].wet > 0 && (c.settings == nil || c.settings.gains[Reverb].wet == 0) {
		// the convolution history is stale after being bypassed
		c.reverb.reset()
	}
	c.reverb.impulse = s.impulse
	c.settings = s
}

// Reset clears all the internal state: delay lines, filter and envelope
// states and the reverb tail.
func (c *Chain) Reset() {
	c.compressor = compressorState{}
	c.filter = biquadState{}
	c.chorus.reset()
	c.delay.reset()
	c.reverb.reset()
}

// Process runs the buffer through the chain in place. A chain without
// settings passes the signal through.
func (c *Chain) Process(buf []float32) {
	if c.settings == nil {
		return
	}
	for len(buf) > 0 {
		n := min(len(buf), MaxBlock)
		c.process(buf[:n])
		buf = buf[n:]
	}
}

func (c *Chain) process(buf []float32) {
	s := c.settings
	wet := c.wet[:len(buf)]
	if g := s.gains[Compressor]; g.wet > 0 {
		copy(wet, buf)
		c.compressor.process(wet, &s.compressor)
		blend(buf, wet, g)
	}
	if g := s.gains[Distortion]; g.wet > 0 {
		copy(wet, buf)
		distort(wet, s.drive)
		blend(buf, wet, g)
	}
	if g := s.gains[Filter]; g.wet > 0 {
		copy(wet, buf)
		c.filter.Filter(wet, s.biquad)
		blend(buf, wet, g)
	}
	// the modulated lines always run so that enabling them does not replay
	// old material
	copy(wet, buf)
	c.chorus.process(wet, &s.chorus)
	blend(buf, wet, s.gains[Chorus])
	copy(wet, buf)
	c.delay.process(wet, &s.delay)
	blend(buf, wet, s.gains[Delay])
	if g := s.gains[Reverb]; g.wet > 0 && s.impulse != nil {
		copy(wet, buf)
		c.reverb.process(wet)
		blend(buf, wet, g)
	}
}

// blend computes buf = dry*buf + wet*processed.
func blend(buf, processed []float32, g gains) {
	switch {
	case g.wet == 0:
		if g.dry != 1 {
			vek32.MulNumber_Inplace(buf, g.dry)
		}
	case g.dry == 0:
		vek32.MulNumber_Into(buf, processed, g.wet)
	default:
		vek32.MulNumber_Inplace(buf, g.dry)
		vek32.MulNumber_Inplace(processed, g.wet)
		vek32.Add_Inplace(buf, processed)
	}
}

func (s Stage) String() string {
	switch s {
	case Compressor:
		return "compressor"
	case Distortion:
		return "distortion"
	case Filter:
		return "filter"
	case Chorus:
		return "chorus"
	case Delay:
		return "delay"
	case Reverb:
		return "reverb"
	}
	return "unknown"
}
