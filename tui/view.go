package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/engine"
)

const waveformWidth = 50

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#333"))
	playheadStyle = lipgloss.NewStyle().Reverse(true)
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f80"))

	stateStyles = map[looper.TrackState]lipgloss.Style{
		looper.TrackEmpty:       dimStyle,
		looper.TrackRecording:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f33")),
		looper.TrackPlaying:     lipgloss.NewStyle().Foreground(lipgloss.Color("#3f3")),
		looper.TrackOverdubbing: lipgloss.NewStyle().Foreground(lipgloss.Color("#fc0")),
		looper.TrackStopped:     statusStyle,
	}
)

var levels = []rune(" ▁▂▃▄▅▆▇█")

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header()))
	out.WriteString("\n")
	if !m.engine.InputAvailable() {
		out.WriteString(warningStyle.Render("no audio input: recording and monitoring are disabled"))
		out.WriteString("\n")
	}
	out.WriteString("\n")
	for i, t := range m.engine.Tracks() {
		line := trackLine(t)
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(dimStyle.Render("1-4:rec/dub/play  enter:play/stop  u:undo  bksp:clear  space:stop all  tab:select"))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render("+/-:tempo  [/]:meter  l:length  p:play mode  m:metronome  i:monitor  c:clock  q:quit"))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render("r:reverse  o:one-shot  t:tempo sync  s:speed  d:dub mode  x:stop mode  f:fade-in  F1-F6:effects"))
	return out.String()
}

func (m Model) header() string {
	c := m.engine.Config()
	clock := m.engine.Clock()
	clockState := "stopped"
	if clock.IsRunning() {
		clockState = fmt.Sprintf("beat %d/%d", clock.Beat()+1, c.TimeSignature.Beats)
	}
	master := "-"
	if beats, ok := m.engine.MasterLoopLengthBeats(); ok {
		master = fmt.Sprintf("%g beats", beats)
	}
	return fmt.Sprintf("looper  %.0f bpm  %v  %s  length:%v  clock:%s  master:%s  metronome:%s  monitor:%s",
		c.BPM, c.TimeSignature, c.PlayMode, c.LoopLength, clockState, master, onOff(c.MetronomeOn), onOff(c.MonitorOn))
}

func trackLine(t *engine.Track) string {
	c := t.Config()
	state := t.State()
	name := fmt.Sprintf("%d %-11s", t.Index()+1, strings.ToUpper(state.String()))
	length := "         "
	if beats := t.LoopLengthBeats(); beats > 0 {
		length = fmt.Sprintf("%5g bt ", beats)
	}
	playing := state == looper.TrackPlaying || state == looper.TrackOverdubbing
	wave := waveformView(t.Waveform(), waveformWidth, t.PlaybackProgress(), playing)
	flags := fmt.Sprintf(" x%g %s %s%s%s %s", c.Speed, c.StopMode, flag(c.Reverse, "R"), flag(c.OneShot, "1"), flag(c.TempoSync, "T"), effectFlags(c.Effects))
	return stateStyles[state].Render(name) + length + wave + statusStyle.Render(flags)
}

// waveformView draws the waveform as a row of block characters, the
// playhead in reverse video.
func waveformView(w []float32, width int, progress float64, playing bool) string {
	if len(w) == 0 {
		return dimStyle.Render(strings.Repeat("·", width))
	}
	runes := waveformRunes(w, width)
	if !playing {
		return string(runes)
	}
	head := min(int(progress*float64(width)), width-1)
	return string(runes[:head]) + playheadStyle.Render(string(runes[head])) + string(runes[head+1:])
}

// waveformRunes downsamples the waveform to width columns, each showing the
// largest peak of its buckets.
func waveformRunes(w []float32, width int) []rune {
	ret := make([]rune, width)
	for i := range ret {
		from, to := i*len(w)/width, (i+1)*len(w)/width
		var peak float32
		for _, v := range w[from:max(to, from+1)] {
			peak = max(peak, v)
		}
		level := int(min(peak, 1) * float32(len(levels)-1))
		ret[i] = levels[level]
	}
	return ret
}

func effectFlags(c looper.EffectConfig) string {
	return flag(c.Compressor.Enabled, "C") + flag(c.Distortion.Enabled, "D") + flag(c.Filter.Enabled, "F") +
		flag(c.Chorus.Enabled, "H") + flag(c.Delay.Enabled, "E") + flag(c.Reverb.Enabled, "V")
}

func flag(on bool, s string) string {
	if on {
		return s
	}
	return "."
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
