package looper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	// GlobalConfig is the configuration shared by all tracks. It is owned by
	// the engine and only changed through engine.UpdateConfig.
	GlobalConfig struct {
		BPM            float64       `yaml:"bpm"`
		TimeSignature  TimeSignature `yaml:"timeSignature"`
		PlayMode       PlayMode      `yaml:"playMode"`
		LoopLength     LoopLength    `yaml:"loopLength"`
		MonitorLevel   int           `yaml:"monitorLevel"`
		MonitorOn      bool          `yaml:"monitorOn"`
		MetronomeLevel int           `yaml:"metronomeLevel"`
		MetronomeOn    bool          `yaml:"metronomeOn"`
	}

	// TimeSignature is a meter such as 4/4 or 6/8. Beats is the number of
	// beats in a measure; the tempo always counts Beats, whatever the Unit.
	TimeSignature struct {
		Beats int
		Unit  int
	}

	// PlayMode tells if tracks play independently (multi) or if starting one
	// track stops all the others (single).
	PlayMode string

	// LoopLength is the global loop length override in measures. Zero means
	// automatic, i.e. the length is quantized from the recorded duration.
	LoopLength int
)

const (
	PlayModeMulti  PlayMode = "multi"
	PlayModeSingle PlayMode = "single"
)

const (
	MinBPM = 40
	MaxBPM = 300

	MaxTimeSignatureBeats = 32
	MaxLoopLength         = 64 // measures
	MaxLevel              = 100
)

// LoopLengthAuto disables the global loop length override.
const LoopLengthAuto LoopLength = 0

// DefaultGlobalConfig returns the configuration of a freshly created engine.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		BPM:            120,
		TimeSignature:  TimeSignature{Beats: 4, Unit: 4},
		PlayMode:       PlayModeMulti,
		LoopLength:     LoopLengthAuto,
		MonitorLevel:   50,
		MonitorOn:      false,
		MetronomeLevel: 70,
		MetronomeOn:    true,
	}
}

// Normalize clamps every field to its valid range. Invalid values are never
// rejected.
func (c GlobalConfig) Normalize() GlobalConfig {
	if math.IsNaN(c.BPM) {
		c.BPM = DefaultGlobalConfig().BPM
	}
	c.BPM = min(max(c.BPM, MinBPM), MaxBPM)
	c.TimeSignature = c.TimeSignature.Normalize()
	if c.PlayMode != PlayModeSingle {
		c.PlayMode = PlayModeMulti
	}
	c.LoopLength = min(max(c.LoopLength, 0), MaxLoopLength)
	c.MonitorLevel = min(max(c.MonitorLevel, 0), MaxLevel)
	c.MetronomeLevel = min(max(c.MetronomeLevel, 0), MaxLevel)
	return c
}

// SecondsPerBeat returns the duration of one beat at the configured tempo.
func (c GlobalConfig) SecondsPerBeat() float64 { return SecondsPerBeat(c.BPM) }

// MeasureDuration returns the duration of one measure in seconds.
func (c GlobalConfig) MeasureDuration() float64 {
	return SecondsPerBeat(c.BPM) * float64(c.TimeSignature.Beats)
}

// MonitorGain is the linear gain of the monitor path.
func (c GlobalConfig) MonitorGain() float32 {
	if !c.MonitorOn {
		return 0
	}
	return float32(c.MonitorLevel) / MaxLevel
}

// MetronomeGain is the linear gain of the metronome clicks.
func (c GlobalConfig) MetronomeGain() float32 {
	if !c.MetronomeOn {
		return 0
	}
	return float32(c.MetronomeLevel) / MaxLevel
}

func (t TimeSignature) Normalize() TimeSignature {
	t.Beats = min(max(t.Beats, 1), MaxTimeSignatureBeats)
	switch t.Unit {
	case 1, 2, 4, 8, 16, 32:
	default:
		t.Unit = 4
	}
	return t
}

func (t TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", t.Beats, t.Unit)
}

// ParseTimeSignature parses strings like "6/8".
func ParseTimeSignature(s string) (TimeSignature, error) {
	b, u, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return TimeSignature{}, fmt.Errorf("time signature %q: missing '/'", s)
	}
	beats, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("time signature %q: %w", s, err)
	}
	unit, err := strconv.Atoi(strings.TrimSpace(u))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("time signature %q: %w", s, err)
	}
	return TimeSignature{Beats: beats, Unit: unit}, nil
}

func (t TimeSignature) MarshalYAML() (any, error) {
	return t.String(), nil
}

func (t *TimeSignature) UnmarshalYAML(value *yaml.Node) error {
	ts, err := ParseTimeSignature(value.Value)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

func (l LoopLength) String() string {
	if l == LoopLengthAuto {
		return "auto"
	}
	return strconv.Itoa(int(l))
}

func (l LoopLength) MarshalYAML() (any, error) {
	if l == LoopLengthAuto {
		return "auto", nil
	}
	return int(l), nil
}

func (l *LoopLength) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "auto" {
		*l = LoopLengthAuto
		return nil
	}
	var i int
	if err := value.Decode(&i); err != nil {
		return fmt.Errorf("loop length must be \"auto\" or a number of measures: %w", err)
	}
	*l = LoopLength(i)
	return nil
}
