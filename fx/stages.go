package fx

import (
	"math"

	"github.com/vsariola/looper"
)

type (
	compressorParams struct {
		threshold float32 // power
		exponent  float32
		attack    float32
		release   float32
	}

	compressorState struct {
		level float32
	}

	biquadState struct {
		x1, x2, y1, y2 float32
	}

	biquadCoeff struct {
		b0, b1, b2, a1, a2 float32
	}

	chorusParams struct {
		phaseInc float64
		base     float64 // frames
		depth    float64 // frames
	}

	chorusLine struct {
		buffer []float32
		pos    int
		phase  float64
	}

	delayParams struct {
		frames   int
		feedback float32
	}

	delayLine struct {
		buffer []float32
		pos    int
	}
)

const (
	compressorAttack  = 0.003 // seconds
	compressorRelease = 0.25
	chorusBaseDelay   = 0.005
	maxChorusDelay    = chorusBaseDelay + 0.020 + 0.001
	maxDelayTime      = 2
)

// process compresses the buffer in place. The level follows the signal power,
// with separate smoothing coefficients for rising and falling power. Above the
// threshold, the gain is (threshold/level)^exponent.
func (s *compressorState) process(buf []float32, p *compressorParams) {
	level := s.level
	for i, x := range buf {
		power := x * x
		alpha := p.attack
		if power < level {
			alpha = p.release
		}
		level += (power - level) * alpha
		if level > p.threshold {
			buf[i] = x * float32(math.Pow(float64(p.threshold/level), float64(p.exponent)))
		}
	}
	s.level = level
}

// distort shapes the signal with (3+k)·x·20°/(π+k·|x|); larger k bends the
// curve more sharply.
func distort(buf []float32, k float32) {
	const deg20 = 20 * math.Pi / 180
	for i, x := range buf {
		x = min(max(x, -1), 1)
		ax := x
		if ax < 0 {
			ax = -ax
		}
		buf[i] = (3 + k) * x * deg20 / (math.Pi + k*ax)
	}
}

// designBiquad returns the coefficients of a low or high pass filter. The
// resonance is the Q of the filter in decibels.
func designBiquad(c looper.FilterConfig, sampleRate float64) biquadCoeff {
	freq := min(c.Frequency, 0.49*sampleRate)
	omega := 2 * math.Pi * freq / sampleRate
	q := math.Pow(10, c.Resonance/20)
	alpha := math.Sin(omega) / (2 * q)
	cos := math.Cos(omega)
	a0 := 1 + alpha
	var b0, b1, b2 float64
	if c.Type == looper.Highpass {
		b0, b1, b2 = (1+cos)/2, -(1 + cos), (1+cos)/2
	} else {
		b0, b1, b2 = (1-cos)/2, 1-cos, (1-cos)/2
	}
	return biquadCoeff{
		b0: float32(b0 / a0),
		b1: float32(b1 / a0),
		b2: float32(b2 / a0),
		a1: float32(-2 * cos / a0),
		a2: float32((1 - alpha) / a0),
	}
}

func (state *biquadState) Filter(buffer []float32, coeff biquadCoeff) {
	s := *state
	for i := 0; i < len(buffer); i++ {
		x := buffer[i]
		y := coeff.b0*x + coeff.b1*s.x1 + coeff.b2*s.x2 - coeff.a1*s.y1 - coeff.a2*s.y2
		s.x2, s.x1 = s.x1, x
		s.y2, s.y1 = s.y1, y
		buffer[i] = y
	}
	*state = s
}

func newChorusLine(sampleRate int) chorusLine {
	return chorusLine{buffer: make([]float32, int(maxChorusDelay*float64(sampleRate))+2)}
}

func (c *chorusLine) reset() {
	clear(c.buffer)
	c.pos, c.phase = 0, 0
}

// process replaces the buffer with a copy of itself delayed by a sine
// modulated amount.
func (c *chorusLine) process(buf []float32, p *chorusParams) {
	l := len(c.buffer)
	for i, x := range buf {
		c.buffer[c.pos] = x
		d := min(max(p.base+p.depth*math.Sin(c.phase), 0), float64(l-2))
		c.phase += p.phaseInc
		if c.phase > 2*math.Pi {
			c.phase -= 2 * math.Pi
		}
		whole := int(d)
		frac := float32(d - float64(whole))
		a := c.buffer[(c.pos-whole+l)%l]
		b := c.buffer[(c.pos-whole-1+l)%l]
		buf[i] = a + (b-a)*frac
		c.pos = (c.pos + 1) % l
	}
}

func newDelayLine(sampleRate int) delayLine {
	return delayLine{buffer: make([]float32, maxDelayTime*sampleRate+1)}
}

func (d *delayLine) reset() {
	clear(d.buffer)
	d.pos = 0
}

// process replaces the buffer with the echoes; the echoes are fed back to the
// line multiplied by the feedback gain.
func (d *delayLine) process(buf []float32, p *delayParams) {
	l := len(d.buffer)
	frames := min(p.frames, l-1)
	for i, x := range buf {
		y := d.buffer[(d.pos-frames+l)%l]
		d.buffer[d.pos] = x + p.feedback*y
		buf[i] = y
		d.pos = (d.pos + 1) % l
	}
}
