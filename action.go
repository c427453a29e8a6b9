package looper

// Action is a named operation that input bindings (keys, MIDI footswitches)
// can trigger. Track actions apply to the track given with the action.
type Action string

const (
	ActionRecord    Action = "record" // the main action: record, overdub, play
	ActionPlayStop  Action = "playstop"
	ActionStop      Action = "stop"
	ActionClear     Action = "clear"
	ActionUndo      Action = "undo"
	ActionStopAll   Action = "stopall"
	ActionMetronome Action = "metronome"
	ActionMonitor   Action = "monitor"
	ActionClock     Action = "clock"
)

// IsTrackAction tells if the action needs a track index.
func (a Action) IsTrackAction() bool {
	switch a {
	case ActionRecord, ActionPlayStop, ActionStop, ActionClear, ActionUndo:
		return true
	}
	return false
}
