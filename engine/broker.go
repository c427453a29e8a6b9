package engine

import (
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/fx"
)

type (
	// Broker connects the control path (Engine) and the audio path (Player).
	// ToPlayer carries commands; the player drains it at the start of every
	// block without blocking. ToModel carries track events from the player;
	// the player never blocks on it, so a full channel drops the event.
	Broker struct {
		ToModel  chan MsgToModel
		ToPlayer chan any
	}

	// MsgToModel is an event from the player. It is passed by value and
	// carries the waveform unboxed, so the player can send it without
	// allocating.
	MsgToModel struct {
		Track     int
		Kind      EventKind
		PlayGen   uint32 // generation of the play command the event belongs to
		BufferGen uint32 // generation of the loop buffer the event belongs to
		Waveform  looper.Waveform
	}

	EventKind int
)

const (
	EventNone EventKind = iota
	// EventStopped: playback ended on its own (fade-out, loop end or one-shot).
	EventStopped
	// EventWaveform: the loop buffer changed on the audio path.
	EventWaveform
	// EventCaptureOverflow: the capture buffer is full, input is dropped.
	EventCaptureOverflow
)

// messages from the engine to the player
type (
	startCaptureMsg struct {
		track  int
		gen    uint32
		start  int64 // frame where capture begins
		buffer []float32
	}

	stopCaptureMsg struct{ track int }

	// loadLoopMsg hands a freshly committed loop buffer over to the player.
	loadLoopMsg struct {
		track     int
		bufferGen uint32
		buffer    []float32
	}

	playMsg struct {
		track int
		gen   uint32
		rate  float64
		loop  bool
		fade  int // frames; 0 starts at full gain
	}

	stopMsg struct {
		track int
		kind  stopKind
		fade  int
	}

	rateMsg struct {
		track int
		rate  float64
	}

	mixMsg struct {
		track       int
		left, right float32
	}

	startOverdubMsg struct {
		track    int
		snapshot []float32 // receives a copy of the loop for undo
		replace  bool
	}

	stopOverdubMsg struct{ track int }

	dubModeMsg struct {
		track   int
		replace bool
	}

	undoMsg    struct{ track int }
	reverseMsg struct{ track int }
	clearMsg   struct{ track int }

	trackEffectsMsg struct {
		track    int
		settings *fx.Settings
	}

	inputEffectsMsg struct{ settings *fx.Settings }

	gainsMsg struct {
		monitor, metronome float32
	}

	clickMsg struct {
		frame  int64
		accent bool
	}

	cancelClicksMsg struct{}
)

type stopKind int

const (
	stopImmediate stopKind = iota
	stopFade
	stopLoopEnd
)

func NewBroker() *Broker {
	return &Broker{
		ToPlayer: make(chan any, 1024),
		ToModel:  make(chan MsgToModel, 1024),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
