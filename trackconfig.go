package looper

import "math"

type (
	// TrackConfig holds the behaviour of one track. It is owned by the track
	// and changed through Track.UpdateConfig.
	TrackConfig struct {
		RecordAction RecordAction `yaml:"recordAction"`
		DubMode      DubMode      `yaml:"dubMode"`
		OneShot      bool         `yaml:"oneShot"`
		StartMode    StartMode    `yaml:"startMode"`
		StopMode     StopMode     `yaml:"stopMode"`
		FadeTime     int          `yaml:"fadeTime"` // in measures
		PlayLevel    int          `yaml:"playLevel"`
		Pan          int          `yaml:"pan"`
		Reverse      bool         `yaml:"reverse"`
		Speed        float64      `yaml:"speed"`
		TempoSync    bool         `yaml:"tempoSync"`
		Quantize     QuantizeMode `yaml:"quantize"`
		Effects      EffectConfig `yaml:"effects"`
	}

	// RecordAction names the order in which the main action cycles through
	// the states. Both orders currently drive the same cycle: record, then
	// play/overdub on successive presses.
	RecordAction string

	// DubMode tells whether overdubbing sums with (overdub) or overwrites
	// (replace) the existing loop.
	DubMode string

	StartMode string
	StopMode  string

	// QuantizeMode controls how the recorded duration is snapped to a musical
	// length, and whether recording waits for the next beat or measure.
	QuantizeMode string

	// TrackState is the state of a track's record/play state machine.
	TrackState int
)

const (
	RecordDubPlay RecordAction = "rec-dub-play"
	RecordPlayDub RecordAction = "rec-play-dub"

	DubOverdub DubMode = "overdub"
	DubReplace DubMode = "replace"

	StartImmediate StartMode = "immediate"
	StartFadeIn    StartMode = "fade-in"

	StopImmediate StopMode = "immediate"
	StopFadeOut   StopMode = "fade-out"
	StopLoopEnd   StopMode = "loop-end"

	QuantizeOff     QuantizeMode = "off"
	QuantizeBeat    QuantizeMode = "beat"
	QuantizeMeasure QuantizeMode = "measure"
)

const (
	TrackEmpty TrackState = iota
	TrackRecording
	TrackPlaying
	TrackOverdubbing
	TrackStopped
)

const (
	MinFadeTime = 1
	MaxFadeTime = 8
	MaxPan      = 100
)

// Speeds lists the supported playback speed multipliers.
var Speeds = [...]float64{0.5, 1, 2}

func DefaultTrackConfig() TrackConfig {
	return TrackConfig{
		RecordAction: RecordDubPlay,
		DubMode:      DubOverdub,
		StartMode:    StartImmediate,
		StopMode:     StopImmediate,
		FadeTime:     1,
		PlayLevel:    100,
		Speed:        1,
		TempoSync:    true,
		Quantize:     QuantizeBeat,
		Effects:      DefaultEffectConfig(),
	}
}

// Normalize clamps numeric fields and replaces unknown enumeration values
// with their defaults. Speed snaps to the nearest supported speed.
func (c TrackConfig) Normalize() TrackConfig {
	d := DefaultTrackConfig()
	if c.RecordAction != RecordPlayDub {
		c.RecordAction = RecordDubPlay
	}
	if c.DubMode != DubReplace {
		c.DubMode = DubOverdub
	}
	if c.StartMode != StartFadeIn {
		c.StartMode = StartImmediate
	}
	switch c.StopMode {
	case StopFadeOut, StopLoopEnd:
	default:
		c.StopMode = StopImmediate
	}
	switch c.Quantize {
	case QuantizeOff, QuantizeMeasure:
	default:
		c.Quantize = QuantizeBeat
	}
	c.FadeTime = min(max(c.FadeTime, MinFadeTime), MaxFadeTime)
	c.PlayLevel = min(max(c.PlayLevel, 0), MaxLevel)
	c.Pan = min(max(c.Pan, -MaxPan), MaxPan)
	if math.IsNaN(c.Speed) {
		c.Speed = d.Speed
	}
	best := Speeds[0]
	for _, s := range Speeds[1:] {
		if math.Abs(c.Speed-s) < math.Abs(c.Speed-best) {
			best = s
		}
	}
	c.Speed = best
	c.Effects = c.Effects.Normalize()
	return c
}

// PanGains returns the equal-power left and right gains of the pan setting,
// including the play level.
func (c TrackConfig) PanGains() (left, right float32) {
	x := (float64(c.Pan)/MaxPan + 1) * math.Pi / 4
	level := float64(c.PlayLevel) / MaxLevel
	return float32(math.Cos(x) * level), float32(math.Sin(x) * level)
}

// PlaybackRate is the resampling ratio of a loop recorded at recordedBPM when
// the current tempo is bpm.
func (c TrackConfig) PlaybackRate(bpm, recordedBPM float64) float64 {
	if !c.TempoSync || recordedBPM <= 0 {
		return c.Speed
	}
	return c.Speed * bpm / recordedBPM
}

func (s TrackState) String() string {
	switch s {
	case TrackEmpty:
		return "empty"
	case TrackRecording:
		return "recording"
	case TrackPlaying:
		return "playing"
	case TrackOverdubbing:
		return "overdubbing"
	case TrackStopped:
		return "stopped"
	}
	return "unknown"
}
