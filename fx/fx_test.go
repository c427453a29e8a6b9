package fx_test

import (
	"math"
	"testing"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/fx"
)

const sampleRate = 48000

func TestGains(t *testing.T) {
	cfg := looper.DefaultEffectConfig()
	s := fx.Compile(cfg, sampleRate, nil)
	for stage := fx.Compressor; stage < fx.NumStages; stage++ {
		if dry, wet := s.Gains(stage); dry != 1 || wet != 0 {
			t.Errorf("disabled %v: expected gains 1/0, got %v/%v", stage, dry, wet)
		}
	}
	cfg.Compressor.Enabled = true
	cfg.Filter.Enabled = true
	cfg.Distortion.Enabled, cfg.Distortion.Mix = true, 0.5
	cfg.Chorus.Enabled, cfg.Chorus.Mix = true, 0.5
	cfg.Delay.Enabled, cfg.Delay.Mix = true, 0.5
	cfg.Reverb.Enabled, cfg.Reverb.Mix = true, 0.5
	s = fx.Compile(cfg, sampleRate, s)
	for _, stage := range []fx.Stage{fx.Distortion, fx.Chorus, fx.Delay, fx.Reverb} {
		if dry, wet := s.Gains(stage); dry != 0.5 || wet != 0.5 {
			t.Errorf("%v with mix 0.5: expected gains 0.5/0.5, got %v/%v", stage, dry, wet)
		}
	}
	for _, stage := range []fx.Stage{fx.Compressor, fx.Filter} {
		if dry, wet := s.Gains(stage); dry != 0 || wet != 1 {
			t.Errorf("enabled %v: expected gains 0/1, got %v/%v", stage, dry, wet)
		}
	}
}

func TestDelayFeedback(t *testing.T) {
	cfg := looper.DefaultEffectConfig()
	cfg.Delay.Feedback = 0.9
	if f := fx.Compile(cfg, sampleRate, nil).Feedback(); f != 0 {
		t.Errorf("disabled delay should have no feedback, got %v", f)
	}
	cfg.Delay.Enabled = true
	if f := fx.Compile(cfg, sampleRate, nil).Feedback(); f != 0.9 {
		t.Errorf("expected feedback 0.9, got %v", f)
	}
	cfg.Delay.Feedback = 3
	if f := fx.Compile(cfg, sampleRate, nil).Feedback(); f >= 1 {
		t.Errorf("feedback should stay below 1, got %v", f)
	}
}

func TestImpulseRegeneration(t *testing.T) {
	cfg := looper.DefaultEffectConfig()
	cfg.Reverb.Enabled = true
	s1 := fx.Compile(cfg, sampleRate, nil)
	if s1.Impulse() == nil {
		t.Fatalf("enabled reverb should have an impulse response")
	}
	cfg.Reverb.Mix = 0.8
	cfg.Delay.Enabled = true
	s2 := fx.Compile(cfg, sampleRate, s1)
	if s2.Impulse() != s1.Impulse() {
		t.Errorf("impulse response was regenerated although the room size did not change")
	}
	cfg.Reverb.RoomSize = 0.9
	s3 := fx.Compile(cfg, sampleRate, s2)
	if s3.Impulse() == s2.Impulse() || s3.Impulse().RoomSize() != 0.9 {
		t.Errorf("impulse response was not regenerated after a room size change")
	}
}

func TestImpulseShape(t *testing.T) {
	for _, room := range []float64{0, 0.5, 1} {
		ir := fx.NewImpulse(room, sampleRate)
		want := int(sampleRate * (0.5 + 3*room))
		s := ir.Samples()
		if len(s) != want {
			t.Fatalf("room %v: expected %d samples, got %d", room, want, len(s))
		}
		var energy, head, tail float64
		for i, v := range s {
			e := float64(v) * float64(v)
			energy += e
			if i < len(s)/4 {
				head += e
			} else if i >= len(s)*3/4 {
				tail += e
			}
		}
		if math.Abs(energy-1) > 1e-3 {
			t.Errorf("room %v: expected unit energy, got %v", room, energy)
		}
		if tail*100 > head {
			t.Errorf("room %v: impulse response does not decay (head %v, tail %v)", room, head, tail)
		}
	}
}

func TestBypass(t *testing.T) {
	c := fx.NewChain(sampleRate)
	c.Apply(fx.Compile(looper.DefaultEffectConfig(), sampleRate, nil))
	buf := make([]float32, 3000)
	for i := range buf {
		buf[i] = float32(math.Sin(float64(i) * 0.01))
	}
	orig := append([]float32(nil), buf...)
	c.Process(buf)
	for i := range buf {
		if buf[i] != orig[i] {
			t.Fatalf("bypassed chain changed sample %d: %v != %v", i, buf[i], orig[i])
		}
	}
}

func TestDelayEcho(t *testing.T) {
	cfg := looper.DefaultEffectConfig()
	cfg.Delay = looper.DelayConfig{Enabled: true, Time: 0.01, Feedback: 0.5, Mix: 1}
	c := fx.NewChain(sampleRate)
	c.Apply(fx.Compile(cfg, sampleRate, nil))
	buf := make([]float32, 2000)
	buf[0] = 1
	c.Process(buf)
	for i, v := range buf {
		var want float32
		switch i {
		case 480:
			want = 1
		case 960:
			want = 0.5
		case 1440:
			want = 0.25
		}
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("sample %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestDistortionCurve(t *testing.T) {
	shape := func(amount float64, x float32) float32 {
		cfg := looper.DefaultEffectConfig()
		cfg.Distortion = looper.DistortionConfig{Enabled: true, Amount: amount, Mix: 1}
		c := fx.NewChain(sampleRate)
		c.Apply(fx.Compile(cfg, sampleRate, nil))
		buf := []float32{x}
		c.Process(buf)
		return buf[0]
	}
	prev := float32(0)
	for _, amount := range []float64{0, 10, 50, 100} {
		// ratio of a small input to full scale grows as the curve gets sharper
		r := shape(amount, 0.1) / shape(amount, 1)
		if r <= prev {
			t.Errorf("amount %v: curve is not sharper than with less amount (%v <= %v)", amount, r, prev)
		}
		prev = r
		if v := shape(amount, 10); v != shape(amount, 1) {
			t.Errorf("amount %v: input beyond full scale should be clamped", amount)
		}
	}
}

func TestCompressorReducesLoudSignals(t *testing.T) {
	cfg := looper.DefaultEffectConfig()
	cfg.Compressor = looper.CompressorConfig{Enabled: true, Threshold: -20, Ratio: 10}
	c := fx.NewChain(sampleRate)
	c.Apply(fx.Compile(cfg, sampleRate, nil))
	buf := make([]float32, sampleRate/2)
	for i := range buf {
		buf[i] = 0.9 * float32(math.Sin(float64(i)*0.05))
	}
	c.Process(buf)
	peak := float32(0)
	for _, v := range buf[len(buf)/2:] {
		peak = max(peak, v, -v)
	}
	if peak > 0.5 {
		t.Errorf("expected compressed peak below 0.5, got %v", peak)
	}
}

func TestReverbTail(t *testing.T) {
	cfg := looper.DefaultEffectConfig()
	cfg.Reverb = looper.ReverbConfig{Enabled: true, RoomSize: 0, Mix: 1}
	c := fx.NewChain(sampleRate)
	c.Apply(fx.Compile(cfg, sampleRate, nil))
	buf := make([]float32, sampleRate)
	buf[0] = 1
	c.Process(buf)
	energy := 0.0
	for _, v := range buf {
		energy += float64(v) * float64(v)
	}
	if math.Abs(energy-1) > 1e-2 {
		t.Errorf("impulse through a unit energy reverb should keep its energy, got %v", energy)
	}
}
