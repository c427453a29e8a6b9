package engine

import (
	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
)

// Perform executes a named action. track is the 0-based track index for
// track actions and ignored otherwise; out of range tracks and unknown
// actions are ignored.
func (e *Engine) Perform(action looper.Action, track int) {
	if action.IsTrackAction() {
		if track < 0 || track >= looper.NumTracks {
			e.log.WithFields(logrus.Fields{"action": action, "track": track + 1}).Debug("no such track")
			return
		}
		t := e.tracks[track]
		switch action {
		case looper.ActionRecord:
			t.ToggleRecord()
		case looper.ActionPlayStop:
			t.TogglePlayStop()
		case looper.ActionStop:
			t.Stop()
		case looper.ActionClear:
			t.Clear()
		case looper.ActionUndo:
			t.Undo()
		}
		return
	}
	switch action {
	case looper.ActionStopAll:
		e.StopAllTracks()
	case looper.ActionMetronome:
		e.UpdateConfig(func(c *looper.GlobalConfig) { c.MetronomeOn = !c.MetronomeOn })
	case looper.ActionMonitor:
		e.UpdateConfig(func(c *looper.GlobalConfig) { c.MonitorOn = !c.MonitorOn })
	case looper.ActionClock:
		e.update(func() {
			if e.clock.running {
				e.clock.stop()
			} else {
				e.clock.start()
			}
		})
	default:
		e.log.WithField("action", action).Debug("unknown action")
	}
}
