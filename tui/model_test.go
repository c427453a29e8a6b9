package tui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/engine"
)

func newTestModel(t *testing.T) Model {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m, unsubscribe := NewModel(engine.New(looper.DefaultSettings(), logger))
	t.Cleanup(unsubscribe)
	return m
}

func TestWaveformRunes(t *testing.T) {
	w := make([]float32, looper.WaveformBuckets)
	for i := range w {
		w[i] = float32(i) / float32(len(w)-1)
	}
	runes := waveformRunes(w, 8)
	if runes[0] == levels[len(levels)-1] || runes[7] != levels[len(levels)-1] {
		t.Errorf("expected a rising waveform, got %q", string(runes))
	}
	for i := 1; i < len(runes); i++ {
		if runes[i] < runes[i-1] {
			t.Errorf("expected non-decreasing levels, got %q", string(runes))
		}
	}
}

func TestWaveformRunesShortInput(t *testing.T) {
	runes := waveformRunes([]float32{1, 0}, 4)
	if string(runes) != "██  " {
		t.Errorf("expected each bucket to cover two columns, got %q", string(runes))
	}
}

func TestKeys(t *testing.T) {
	m := newTestModel(t)
	m.handleKey("+")
	if bpm := m.engine.Config().BPM; bpm != 121 {
		t.Errorf("expected 121 bpm, got %v", bpm)
	}
	m.handleKey("]")
	if b := m.engine.Config().TimeSignature.Beats; b != 5 {
		t.Errorf("expected 5 beats per measure, got %v", b)
	}
	m.handleKey("s")
	if s := m.engine.Track(0).Config().Speed; s != 2 {
		t.Errorf("expected speed 2, got %v", s)
	}
	m.handleKey("f6")
	if !m.engine.Track(0).Config().Effects.Reverb.Enabled {
		t.Error("expected F6 to enable the reverb")
	}
	if !m.handleKey("q") {
		t.Error("expected q to quit")
	}
}

func TestSelectTrack(t *testing.T) {
	var model tea.Model = newTestModel(t)
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if s := model.(Model).selected; s != looper.NumTracks-1 {
		t.Errorf("expected the last track selected, got %v", s)
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if s := model.(Model).selected; s != 1 {
		t.Errorf("expected track 2 selected, got %v", s)
	}
	model.(Model).handleKey("o")
	if !model.(Model).engine.Track(1).Config().OneShot {
		t.Error("expected track 2 to be one-shot")
	}
}

func TestNextLoopLength(t *testing.T) {
	l := looper.LoopLengthAuto
	var got []looper.LoopLength
	for i := 0; i < 6; i++ {
		l = nextLoopLength(l)
		got = append(got, l)
	}
	expected := []looper.LoopLength{1, 2, 4, 8, looper.LoopLengthAuto, 1}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}
