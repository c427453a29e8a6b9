package gomidi

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Performer executes looper actions; *engine.Engine is one.
	Performer interface {
		Perform(action looper.Action, track int)
	}

	// Dispatcher matches incoming MIDI messages against the bindings and
	// performs the bound actions. Note-ons trigger on any velocity above
	// zero; control changes trigger when the value rises to 64 or above.
	Dispatcher struct {
		bindings  []looper.MIDIBinding
		performer Performer
		log       logrus.FieldLogger

		mu       sync.Mutex
		ccValues [16][128]uint8
	}
)

func NewDispatcher(bindings []looper.MIDIBinding, p Performer, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{bindings: bindings, performer: p, log: logger}
}

// HandleMessage has the signature of a midi.ListenTo callback.
func (d *Dispatcher) HandleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity, controller, value uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		d.dispatch(func(b looper.MIDIBinding) bool {
			return b.Note != nil && *b.Note == key && matchChannel(b, channel)
		})
	case msg.GetControlChange(&channel, &controller, &value):
		d.mu.Lock()
		prev := d.ccValues[channel&15][controller&127]
		d.ccValues[channel&15][controller&127] = value
		d.mu.Unlock()
		if prev >= 64 || value < 64 {
			return
		}
		d.dispatch(func(b looper.MIDIBinding) bool {
			return b.CC != nil && *b.CC == controller && matchChannel(b, channel)
		})
	}
}

func (d *Dispatcher) dispatch(match func(looper.MIDIBinding) bool) {
	for _, b := range d.bindings {
		if !match(b) {
			continue
		}
		d.log.WithFields(logrus.Fields{"action": b.Action, "track": b.Track}).Debug("midi action")
		d.performer.Perform(b.Action, b.Track-1)
	}
}

// matchChannel compares a 0-based MIDI channel with the 1-based channel of
// the binding; 0 in the binding matches any channel.
func matchChannel(b looper.MIDIBinding, channel uint8) bool {
	return b.Channel == 0 || b.Channel == int(channel)+1
}
