package fx

import (
	"math"
	"math/cmplx"
)

type (
	// Impulse is a synthetic reverb impulse response: exponentially decaying
	// noise, normalized to unit energy. It is split into partitions whose
	// spectra are precomputed for the convolver.
	Impulse struct {
		roomSize   float64
		sampleRate int
		samples    []float32
		partitions [][]complex128
	}

	// convolver is a uniformly partitioned overlap-save convolver. Its output
	// lags the input by partitionSize frames.
	convolver struct {
		fft     fft
		impulse *Impulse
		fdl     [][]complex128 // spectra of past input windows, newest at head
		head    int
		input   []float64 // previous and current input block
		work    []complex128
		acc     []complex128
		output  []float32
		fill    int
	}

	fft struct {
		perm []int // bit-reversal permutation
	}
)

const (
	partitionSize = 1024
	fftSize       = 2 * partitionSize
	numBins       = partitionSize + 1
	tailDecay     = 6.907755278982137 // ln(1000), i.e. -60 dB at the end
)

// ImpulseLength is the length in frames of the impulse response for a room
// size in the range 0..1: 0.5 seconds for the smallest room, 3.5 seconds for
// the largest.
func ImpulseLength(roomSize float64, sampleRate int) int {
	return int(float64(sampleRate) * (0.5 + 3*roomSize))
}

// NewImpulse generates the impulse response of a room. The noise is
// deterministic, so the same room size always gives the same response.
func NewImpulse(roomSize float64, sampleRate int) *Impulse {
	n := ImpulseLength(roomSize, sampleRate)
	samples := make([]float32, n)
	seed := uint32(1)
	energy := 0.0
	for i := range samples {
		seed *= 16007
		noise := float64(int32(seed)) / -2147483648.0
		v := noise * math.Exp(-tailDecay*float64(i)/float64(n))
		samples[i] = float32(v)
		energy += v * v
	}
	if energy > 0 {
		scale := float32(1 / math.Sqrt(energy))
		for i := range samples {
			samples[i] *= scale
		}
	}
	ret := &Impulse{roomSize: roomSize, sampleRate: sampleRate, samples: samples}
	f := newFFT(fftSize)
	work := make([]complex128, fftSize)
	for start := 0; start < n; start += partitionSize {
		clear(work)
		for i, v := range samples[start:min(start+partitionSize, n)] {
			work[i] = complex(float64(v), 0)
		}
		f.transform(work, false)
		ret.partitions = append(ret.partitions, append([]complex128(nil), work[:numBins]...))
	}
	return ret
}

func (r *Impulse) RoomSize() float64 { return r.roomSize }

// Samples returns the impulse response. The slice must not be modified.
func (r *Impulse) Samples() []float32 { return r.samples }

func newConvolver(maxLength int) convolver {
	fdl := make([][]complex128, (maxLength+partitionSize-1)/partitionSize)
	for i := range fdl {
		fdl[i] = make([]complex128, numBins)
	}
	return convolver{
		fft:    newFFT(fftSize),
		fdl:    fdl,
		input:  make([]float64, fftSize),
		work:   make([]complex128, fftSize),
		acc:    make([]complex128, numBins),
		output: make([]float32, partitionSize),
	}
}

func (c *convolver) reset() {
	for _, s := range c.fdl {
		clear(s)
	}
	clear(c.input)
	clear(c.output)
	c.fill = 0
}

func (c *convolver) process(buf []float32) {
	for i, x := range buf {
		c.input[partitionSize+c.fill] = float64(x)
		buf[i] = c.output[c.fill]
		c.fill++
		if c.fill == partitionSize {
			c.fill = 0
			c.convolve()
		}
	}
}

func (c *convolver) convolve() {
	for i, x := range c.input {
		c.work[i] = complex(x, 0)
	}
	c.fft.transform(c.work, false)
	c.head = (c.head + len(c.fdl) - 1) % len(c.fdl)
	copy(c.fdl[c.head], c.work[:numBins])
	copy(c.input[:partitionSize], c.input[partitionSize:])
	clear(c.acc)
	if c.impulse != nil {
		for k, h := range c.impulse.partitions[:min(len(c.impulse.partitions), len(c.fdl))] {
			x := c.fdl[(c.head+k)%len(c.fdl)]
			for j := range c.acc {
				c.acc[j] += x[j] * h[j]
			}
		}
	}
	// the spectrum of a real signal is conjugate symmetric
	copy(c.work, c.acc)
	for j := 1; j < partitionSize; j++ {
		c.work[fftSize-j] = cmplx.Conj(c.acc[j])
	}
	c.fft.transform(c.work, true)
	for i := range c.output {
		c.output[i] = float32(real(c.work[partitionSize+i]) / fftSize)
	}
}

func newFFT(n int) fft {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			perm[i], perm[j] = perm[j], perm[i]
		}
	}
	return fft{perm: perm}
}

// transform computes the discrete Fourier transform of c in place. The
// inverse transform is not scaled by 1/n.
func (f fft) transform(c []complex128, inverse bool) {
	for i, j := range f.perm {
		if i < j {
			c[i], c[j] = c[j], c[i]
		}
	}
	sign := -1.0
	if inverse {
		sign = 1
	}
	n := len(c)
	for len := 2; len <= n; len <<= 1 {
		ang := sign * 2 * math.Pi / float64(len)
		wlen := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += len {
			w := complex(1, 0)
			for j := 0; j < len/2; j++ {
				u := c[i+j]
				v := c[i+j+len/2] * w
				c[i+j] = u + v
				c[i+j+len/2] = u - v
				w *= wlen
			}
		}
	}
}
