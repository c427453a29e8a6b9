package looper_test

import (
	"math"
	"slices"
	"testing"

	"github.com/vsariola/looper"
)

func TestLoopCandidates(t *testing.T) {
	cases := []struct {
		name  string
		beats int
		mode  looper.QuantizeMode
		want  []float64
	}{
		{"4/4 beat", 4, looper.QuantizeBeat, []float64{1, 2, 4, 8, 12, 16, 24, 32, 64, 128, 256}},
		{"4/4 measure", 4, looper.QuantizeMeasure, []float64{4, 8, 12, 16, 24, 32, 64, 128, 256}},
		{"3/4 beat", 3, looper.QuantizeBeat, []float64{1, 2, 3, 6, 9, 12, 18, 24, 48, 96, 192}},
		{"6/8 beat", 6, looper.QuantizeBeat, []float64{1, 2, 3, 4, 5, 6, 12, 18, 24, 36, 48, 96, 192, 384}},
		{"off", 4, looper.QuantizeOff, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := looper.LoopCandidates(c.beats, c.mode)
			if !slices.Equal(got, c.want) {
				t.Fatalf("LoopCandidates(%d, %s) = %v, want %v", c.beats, c.mode, got, c.want)
			}
		})
	}
}

func TestQuantizeLoopLength(t *testing.T) {
	cases := []struct {
		recorded float64
		beats    int
		mode     looper.QuantizeMode
		want     float64
	}{
		{8.2, 4, looper.QuantizeBeat, 8},
		{3.1, 4, looper.QuantizeBeat, 4},
		{1.4, 4, looper.QuantizeBeat, 1},
		{6, 4, looper.QuantizeBeat, 4},  // tie between 4 and 8
		{10, 4, looper.QuantizeBeat, 8}, // tie between 8 and 12
		{1.4, 4, looper.QuantizeMeasure, 4},
		{5.2, 3, looper.QuantizeBeat, 6},
		{7.3, 4, looper.QuantizeOff, 7.3},
		{1000, 4, looper.QuantizeBeat, 256},
	}
	for _, c := range cases {
		if got := looper.QuantizeLoopLength(c.recorded, c.beats, c.mode); got != c.want {
			t.Errorf("QuantizeLoopLength(%v, %d, %s) = %v, want %v", c.recorded, c.beats, c.mode, got, c.want)
		}
	}
}

func TestQuantizeIsClosestCandidate(t *testing.T) {
	for _, beats := range []int{2, 3, 4, 5, 6, 7} {
		for _, mode := range []looper.QuantizeMode{looper.QuantizeBeat, looper.QuantizeMeasure} {
			candidates := looper.LoopCandidates(beats, mode)
			for r := 0.0; r < 300; r += 0.37 {
				got := looper.QuantizeLoopLength(r, beats, mode)
				d := math.Abs(r - got)
				for _, c := range candidates {
					if math.Abs(r-c) < d {
						t.Fatalf("beats %d, mode %s, recorded %v: got %v but %v is closer", beats, mode, r, got, c)
					}
				}
			}
		}
	}
}

func TestFitToMaster(t *testing.T) {
	cases := []struct{ beats, master, want float64 }{
		{12.4, 8, 16},
		{3, 8, 8},
		{8, 8, 8},
		{20, 8, 16},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := looper.FitToMaster(c.beats, c.master); got != c.want {
			t.Errorf("FitToMaster(%v, %v) = %v, want %v", c.beats, c.master, got, c.want)
		}
	}
}

func TestResolveLoopLength(t *testing.T) {
	global := looper.DefaultGlobalConfig()
	if got := looper.ResolveLoopLength(12.4, global, looper.QuantizeOff, 8); got != 16 {
		t.Errorf("with master 8, expected 16, got %v", got)
	}
	if got := looper.ResolveLoopLength(0.2, global, looper.QuantizeOff, 0); got != 1 {
		t.Errorf("expected loop length to be at least a beat, got %v", got)
	}
	global.LoopLength = 2
	if got := looper.ResolveLoopLength(3, global, looper.QuantizeBeat, 0); got != 8 {
		t.Errorf("fixed loop length of 2 measures should give 8 beats, got %v", got)
	}
	for r := 0.5; r < 100; r += 1.3 {
		got := looper.ResolveLoopLength(r, looper.DefaultGlobalConfig(), looper.QuantizeBeat, 4)
		if math.Mod(got, 4) != 0 {
			t.Fatalf("recorded %v: loop length %v is not a multiple of the master", r, got)
		}
	}
}

func TestLoopFrames(t *testing.T) {
	if got := looper.LoopFrames(8, 120, 48000); got != 192000 {
		t.Errorf("8 beats at 120 BPM should be 192000 frames, got %d", got)
	}
	if got := looper.FramesToBeats(192000, 120, 48000); got != 8 {
		t.Errorf("192000 frames at 120 BPM should be 8 beats, got %v", got)
	}
}

func TestPlaybackRate(t *testing.T) {
	c := looper.DefaultTrackConfig()
	if got := c.PlaybackRate(140, 120); math.Abs(got-140.0/120) > 1e-12 {
		t.Errorf("tempo synced rate should be 140/120, got %v", got)
	}
	c.Speed = 2
	c.TempoSync = false
	if got := c.PlaybackRate(140, 120); got != 2 {
		t.Errorf("without tempo sync, rate should equal speed, got %v", got)
	}
}

func TestWaveformPeaks(t *testing.T) {
	samples := make([]float32, looper.WaveformBuckets*10)
	samples[5] = -0.75
	samples[15] = 0.5
	samples[len(samples)-1] = 0.25
	var w looper.Waveform
	w.Peaks(samples)
	if w[0] != 0.75 || w[1] != 0.5 || w[looper.WaveformBuckets-1] != 0.25 || w[2] != 0 {
		t.Fatalf("unexpected peaks %v", w[:3])
	}
	w.Peaks(samples[:looper.WaveformBuckets-1])
	if w != (looper.Waveform{}) {
		t.Fatalf("too short loop should give an empty waveform")
	}
}
