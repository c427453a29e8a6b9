package fx

import (
	"math"
	"testing"
)

func TestConvolverMatchesDirectConvolution(t *testing.T) {
	ir := NewImpulse(0, 8000) // 4000 samples, four partitions
	h := ir.Samples()
	x := make([]float32, 6000)
	seed := uint32(12345)
	for i := range x {
		seed = seed*1664525 + 1013904223
		x[i] = float32(seed)/float32(math.MaxUint32) - 0.5
	}
	c := newConvolver(len(h))
	c.impulse = ir
	out := append([]float32(nil), x...)
	for i := 0; i < len(out); i += 333 { // uneven block sizes
		c.process(out[i:min(i+333, len(out))])
	}
	for n := 0; n+partitionSize < len(x); n++ {
		want := 0.0
		for k := 0; k < len(h) && k <= n; k++ {
			want += float64(h[k]) * float64(x[n-k])
		}
		if got := out[n+partitionSize]; math.Abs(float64(got)-want) > 1e-4 {
			t.Fatalf("sample %d: expected %v, got %v", n, want, got)
		}
	}
}

func TestFFTRoundTrip(t *testing.T) {
	f := newFFT(16)
	c := make([]complex128, 16)
	for i := range c {
		c[i] = complex(float64(i), 0)
	}
	f.transform(c, false)
	if math.Abs(real(c[0])-120) > 1e-9 {
		t.Fatalf("DC bin should be the sum of the input, got %v", c[0])
	}
	f.transform(c, true)
	for i := range c {
		if math.Abs(real(c[i])/16-float64(i)) > 1e-9 {
			t.Fatalf("round trip changed sample %d: %v", i, c[i])
		}
	}
}
