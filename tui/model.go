package tui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/engine"
)

// refreshInterval is how often the playheads are redrawn.
const refreshInterval = 50 * time.Millisecond

type (
	Model struct {
		engine   *engine.Engine
		updates  chan struct{}
		selected int
		quitting bool
	}

	UpdateMsg  struct{}
	refreshMsg time.Time
)

// NewModel creates the terminal front-end of the engine. The model
// subscribes to the engine; call the returned function to unsubscribe when
// the program ends.
func NewModel(e *engine.Engine) (Model, func()) {
	updates := make(chan struct{}, 1)
	unsubscribe := e.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	return Model{engine: e, updates: updates}, unsubscribe
}

func listenForUpdates(updates chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return UpdateMsg{}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForUpdates(m.updates), refresh())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.handleKey(msg.String()) {
			m.quitting = true
			return m, tea.Quit
		}
		if msg.String() == "tab" || msg.String() == "right" {
			m.selected = (m.selected + 1) % looper.NumTracks
		} else if msg.String() == "shift+tab" || msg.String() == "left" {
			m.selected = (m.selected + looper.NumTracks - 1) % looper.NumTracks
		}
	case UpdateMsg:
		return m, listenForUpdates(m.updates)
	case refreshMsg:
		return m, refresh()
	}
	return m, nil
}

// handleKey performs the action bound to key and reports whether the key
// quits the program.
func (m Model) handleKey(key string) (quit bool) {
	e := m.engine
	track := e.Track(m.selected)
	switch key {
	case "q", "ctrl+c":
		return true
	case "1", "2", "3", "4":
		e.Perform(looper.ActionRecord, int(key[0]-'1'))
	case "enter":
		e.Perform(looper.ActionPlayStop, m.selected)
	case "backspace":
		e.Perform(looper.ActionClear, m.selected)
	case "u":
		e.Perform(looper.ActionUndo, m.selected)
	case " ":
		e.Perform(looper.ActionStopAll, 0)
	case "m":
		e.Perform(looper.ActionMetronome, 0)
	case "i":
		e.Perform(looper.ActionMonitor, 0)
	case "c":
		e.Perform(looper.ActionClock, 0)
	case "+", "=":
		e.UpdateConfig(func(c *looper.GlobalConfig) { c.BPM = math.Round(c.BPM) + 1 })
	case "-", "_":
		e.UpdateConfig(func(c *looper.GlobalConfig) { c.BPM = math.Round(c.BPM) - 1 })
	case "]":
		e.UpdateConfig(func(c *looper.GlobalConfig) { c.TimeSignature.Beats++ })
	case "[":
		e.UpdateConfig(func(c *looper.GlobalConfig) { c.TimeSignature.Beats-- })
	case "l":
		e.UpdateConfig(func(c *looper.GlobalConfig) { c.LoopLength = nextLoopLength(c.LoopLength) })
	case "p":
		e.UpdateConfig(func(c *looper.GlobalConfig) {
			if c.PlayMode == looper.PlayModeSingle {
				c.PlayMode = looper.PlayModeMulti
			} else {
				c.PlayMode = looper.PlayModeSingle
			}
		})
	case "r":
		track.UpdateConfig(func(c *looper.TrackConfig) { c.Reverse = !c.Reverse })
	case "o":
		track.UpdateConfig(func(c *looper.TrackConfig) { c.OneShot = !c.OneShot })
	case "t":
		track.UpdateConfig(func(c *looper.TrackConfig) { c.TempoSync = !c.TempoSync })
	case "s":
		track.UpdateConfig(func(c *looper.TrackConfig) { c.Speed = nextSpeed(c.Speed) })
	case "d":
		track.UpdateConfig(func(c *looper.TrackConfig) {
			if c.DubMode == looper.DubReplace {
				c.DubMode = looper.DubOverdub
			} else {
				c.DubMode = looper.DubReplace
			}
		})
	case "x":
		track.UpdateConfig(func(c *looper.TrackConfig) { c.StopMode = nextStopMode(c.StopMode) })
	case "f":
		track.UpdateConfig(func(c *looper.TrackConfig) {
			if c.StartMode == looper.StartFadeIn {
				c.StartMode = looper.StartImmediate
			} else {
				c.StartMode = looper.StartFadeIn
			}
		})
	case "f1", "f2", "f3", "f4", "f5", "f6":
		stage := int(key[1] - '1')
		track.UpdateEffectConfig(func(c *looper.EffectConfig) { toggleEffect(c, stage) })
	}
	return false
}

func nextLoopLength(l looper.LoopLength) looper.LoopLength {
	switch {
	case l == looper.LoopLengthAuto:
		return 1
	case l >= 8:
		return looper.LoopLengthAuto
	default:
		return l * 2
	}
}

func nextSpeed(s float64) float64 {
	for i, v := range looper.Speeds {
		if v == s {
			return looper.Speeds[(i+1)%len(looper.Speeds)]
		}
	}
	return 1
}

func nextStopMode(s looper.StopMode) looper.StopMode {
	switch s {
	case looper.StopImmediate:
		return looper.StopFadeOut
	case looper.StopFadeOut:
		return looper.StopLoopEnd
	default:
		return looper.StopImmediate
	}
}

// toggleEffect flips the stage in chain order: compressor, distortion,
// filter, chorus, delay, reverb.
func toggleEffect(c *looper.EffectConfig, stage int) {
	switch stage {
	case 0:
		c.Compressor.Enabled = !c.Compressor.Enabled
	case 1:
		c.Distortion.Enabled = !c.Distortion.Enabled
	case 2:
		c.Filter.Enabled = !c.Filter.Enabled
	case 3:
		c.Chorus.Enabled = !c.Chorus.Enabled
	case 4:
		c.Delay.Enabled = !c.Delay.Enabled
	case 5:
		c.Reverb.Enabled = !c.Reverb.Enabled
	}
}
