package looper_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vsariola/looper"
)

func TestGlobalConfigNormalize(t *testing.T) {
	c := looper.DefaultGlobalConfig()
	c.BPM = 1000
	c.MonitorLevel = -5
	c.LoopLength = 99
	c.TimeSignature = looper.TimeSignature{Beats: 0, Unit: 3}
	c.PlayMode = "weird"
	c = c.Normalize()
	if c.BPM != looper.MaxBPM {
		t.Errorf("BPM should clamp to %d, got %v", looper.MaxBPM, c.BPM)
	}
	if c.MonitorLevel != 0 {
		t.Errorf("monitor level should clamp to 0, got %d", c.MonitorLevel)
	}
	if c.LoopLength != looper.MaxLoopLength {
		t.Errorf("loop length should clamp to %d, got %v", looper.MaxLoopLength, c.LoopLength)
	}
	if c.TimeSignature != (looper.TimeSignature{Beats: 1, Unit: 4}) {
		t.Errorf("unexpected time signature %v", c.TimeSignature)
	}
	if c.PlayMode != looper.PlayModeMulti {
		t.Errorf("unknown play mode should become multi, got %v", c.PlayMode)
	}
}

func TestTrackConfigNormalize(t *testing.T) {
	c := looper.DefaultTrackConfig()
	c.Speed = 1.7
	c.Pan = 300
	c.FadeTime = 0
	c.Effects.Delay.Feedback = 5
	c.Effects.Filter.Frequency = 1
	c = c.Normalize()
	if c.Speed != 2 {
		t.Errorf("speed should snap to 2, got %v", c.Speed)
	}
	if c.Pan != looper.MaxPan || c.FadeTime != looper.MinFadeTime {
		t.Errorf("unexpected pan %d / fade time %d", c.Pan, c.FadeTime)
	}
	if c.Effects.Delay.Feedback != 0.9 || c.Effects.Filter.Frequency != 20 {
		t.Errorf("effect parameters not clamped: %+v", c.Effects)
	}
}

func TestGains(t *testing.T) {
	c := looper.DefaultGlobalConfig()
	if c.MonitorGain() != 0 {
		t.Errorf("monitor is off by default, gain should be 0")
	}
	c.MonitorOn = true
	if c.MonitorGain() != 0.5 {
		t.Errorf("expected monitor gain 0.5, got %v", c.MonitorGain())
	}
	if c.MetronomeGain() != 0.7 {
		t.Errorf("expected metronome gain 0.7, got %v", c.MetronomeGain())
	}
	tc := looper.DefaultTrackConfig()
	l, r := tc.PanGains()
	if d := l - r; d > 1e-6 || d < -1e-6 {
		t.Errorf("center pan should be balanced, got %v %v", l, r)
	}
	tc.Pan = -looper.MaxPan
	if l, r = tc.PanGains(); l < 0.999 || r > 1e-6 {
		t.Errorf("hard left pan should mute the right channel, got %v %v", l, r)
	}
}

func TestReadSettings(t *testing.T) {
	const doc = `
global:
  bpm: 90
  timeSignature: 6/8
  loopLength: 4
tracks:
  - dubMode: replace
  - effects:
      reverb:
        enabled: true
engine:
  maxRecordSeconds: 30
`
	s, err := looper.ReadSettings(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if s.Global.BPM != 90 || s.Global.TimeSignature.String() != "6/8" || s.Global.LoopLength != 4 {
		t.Errorf("unexpected global config %+v", s.Global)
	}
	if !s.Global.MetronomeOn {
		t.Errorf("fields missing from the file should keep their defaults")
	}
	if s.Tracks[0].DubMode != looper.DubReplace || s.Tracks[0].PlayLevel != 100 {
		t.Errorf("track 1 should be merged over defaults, got %+v", s.Tracks[0])
	}
	if !s.Tracks[1].Effects.Reverb.Enabled || s.Tracks[1].Effects.Reverb.RoomSize != 0.5 {
		t.Errorf("track 2 reverb should be enabled with default room size, got %+v", s.Tracks[1].Effects.Reverb)
	}
	if s.Tracks[2] != looper.DefaultTrackConfig() {
		t.Errorf("track 3 should have the default config")
	}
	if s.Engine.MaxRecordSeconds != 30 {
		t.Errorf("expected max record seconds 30, got %v", s.Engine.MaxRecordSeconds)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := looper.DefaultSettings()
	s.Global.LoopLength = looper.LoopLengthAuto
	s.Global.TimeSignature = looper.TimeSignature{Beats: 7, Unit: 8}
	var buf bytes.Buffer
	if err := looper.WriteSettings(&buf, s); err != nil {
		t.Fatalf("WriteSettings: %v", err)
	}
	if !strings.Contains(buf.String(), "loopLength: auto") || !strings.Contains(buf.String(), "timeSignature: 7/8") {
		t.Errorf("unexpected encoding:\n%s", buf.String())
	}
	r, err := looper.ReadSettings(&buf)
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if r.Global != s.Global || r.Tracks != s.Tracks {
		t.Errorf("settings changed in a round trip")
	}
}

func TestReadSettingsErrors(t *testing.T) {
	for _, doc := range []string{
		"global:\n  timeSignature: four\n",
		"global:\n  loopLength: forever\n",
		"tracks: [{}, {}, {}, {}, {}]\n",
	} {
		if _, err := looper.ReadSettings(strings.NewReader(doc)); err == nil {
			t.Errorf("expected an error for %q", doc)
		}
	}
}
