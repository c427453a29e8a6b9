package gomidi_test

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/gomidi"
	"gitlab.com/gomidi/midi/v2"
)

type performed struct {
	action looper.Action
	track  int
}

type recorder []performed

func (r *recorder) Perform(action looper.Action, track int) {
	*r = append(*r, performed{action, track})
}

func newDispatcher(bindings []looper.MIDIBinding) (*gomidi.Dispatcher, *recorder) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := &recorder{}
	return gomidi.NewDispatcher(bindings, r, logger), r
}

func u8(v uint8) *uint8 { return &v }

func TestDefaultNoteBindings(t *testing.T) {
	d, r := newDispatcher(looper.DefaultMIDIBindings())
	d.HandleMessage(midi.NoteOn(0, 61, 100), 0)
	d.HandleMessage(midi.NoteOn(0, 66, 100), 0)
	d.HandleMessage(midi.NoteOn(0, 72, 100), 0)
	d.HandleMessage(midi.NoteOn(0, 60, 0), 0) // a note-off in disguise
	d.HandleMessage(midi.NoteOff(0, 60), 0)
	expected := []performed{
		{looper.ActionRecord, 1},
		{looper.ActionPlayStop, 2},
		{looper.ActionStopAll, -1},
	}
	if len(*r) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, *r)
	}
	for i, e := range expected {
		if (*r)[i] != e {
			t.Errorf("action %d: expected %v, got %v", i, e, (*r)[i])
		}
	}
}

func TestControlChangeTriggersOnRise(t *testing.T) {
	d, r := newDispatcher([]looper.MIDIBinding{{CC: u8(64), Action: looper.ActionRecord, Track: 1}})
	for _, v := range []uint8{0, 127, 127, 100, 0, 64, 63} {
		d.HandleMessage(midi.ControlChange(0, 64, v), 0)
	}
	if len(*r) != 2 {
		t.Errorf("expected the pedal to trigger twice, got %v", len(*r))
	}
}

func TestChannelFilter(t *testing.T) {
	d, r := newDispatcher([]looper.MIDIBinding{{Note: u8(60), Channel: 2, Action: looper.ActionUndo, Track: 4}})
	d.HandleMessage(midi.NoteOn(0, 60, 100), 0)
	if len(*r) != 0 {
		t.Fatalf("expected channel 1 to be ignored, got %v", *r)
	}
	d.HandleMessage(midi.NoteOn(1, 60, 100), 0)
	if len(*r) != 1 || (*r)[0] != (performed{looper.ActionUndo, 3}) {
		t.Errorf("expected undo of track 4, got %v", *r)
	}
}
