package looper

import "math"

type (
	// EffectConfig configures the six stages of an effect chain. The stages
	// are always processed in the order compressor, distortion, filter,
	// chorus, delay, reverb.
	EffectConfig struct {
		Compressor CompressorConfig `yaml:"compressor"`
		Distortion DistortionConfig `yaml:"distortion"`
		Filter     FilterConfig     `yaml:"filter"`
		Chorus     ChorusConfig     `yaml:"chorus"`
		Delay      DelayConfig      `yaml:"delay"`
		Reverb     ReverbConfig     `yaml:"reverb"`
	}

	CompressorConfig struct {
		Enabled   bool    `yaml:"enabled"`
		Threshold float64 `yaml:"threshold"` // dB
		Ratio     float64 `yaml:"ratio"`
	}

	DistortionConfig struct {
		Enabled bool    `yaml:"enabled"`
		Amount  float64 `yaml:"amount"`
		Mix     float64 `yaml:"mix"`
	}

	FilterConfig struct {
		Enabled   bool       `yaml:"enabled"`
		Type      FilterType `yaml:"type"`
		Frequency float64    `yaml:"frequency"` // Hz
		Resonance float64    `yaml:"resonance"` // dB
	}

	ChorusConfig struct {
		Enabled bool    `yaml:"enabled"`
		Rate    float64 `yaml:"rate"`  // Hz
		Depth   float64 `yaml:"depth"` // ms
		Mix     float64 `yaml:"mix"`
	}

	DelayConfig struct {
		Enabled  bool    `yaml:"enabled"`
		Time     float64 `yaml:"time"` // seconds
		Feedback float64 `yaml:"feedback"`
		Mix      float64 `yaml:"mix"`
	}

	ReverbConfig struct {
		Enabled  bool    `yaml:"enabled"`
		RoomSize float64 `yaml:"roomSize"`
		Mix      float64 `yaml:"mix"`
	}

	FilterType string
)

const (
	Lowpass  FilterType = "lowpass"
	Highpass FilterType = "highpass"
)

func DefaultEffectConfig() EffectConfig {
	return EffectConfig{
		Compressor: CompressorConfig{Threshold: -24, Ratio: 4},
		Distortion: DistortionConfig{Amount: 20, Mix: 0.5},
		Filter:     FilterConfig{Type: Lowpass, Frequency: 1000, Resonance: 1},
		Chorus:     ChorusConfig{Rate: 1.5, Depth: 5, Mix: 0.3},
		Delay:      DelayConfig{Time: 0.3, Feedback: 0.4, Mix: 0.3},
		Reverb:     ReverbConfig{RoomSize: 0.5, Mix: 0.3},
	}
}

// Normalize clamps all parameters to their ranges.
func (c EffectConfig) Normalize() EffectConfig {
	d := DefaultEffectConfig()
	c.Compressor.Threshold = clampParam(c.Compressor.Threshold, -100, 0, d.Compressor.Threshold)
	c.Compressor.Ratio = clampParam(c.Compressor.Ratio, 1, 20, d.Compressor.Ratio)
	c.Distortion.Amount = clampParam(c.Distortion.Amount, 0, 100, d.Distortion.Amount)
	c.Distortion.Mix = clampParam(c.Distortion.Mix, 0, 1, d.Distortion.Mix)
	if c.Filter.Type != Highpass {
		c.Filter.Type = Lowpass
	}
	c.Filter.Frequency = clampParam(c.Filter.Frequency, 20, 20000, d.Filter.Frequency)
	c.Filter.Resonance = clampParam(c.Filter.Resonance, 0, 30, d.Filter.Resonance)
	c.Chorus.Rate = clampParam(c.Chorus.Rate, 0.1, 10, d.Chorus.Rate)
	c.Chorus.Depth = clampParam(c.Chorus.Depth, 0, 20, d.Chorus.Depth)
	c.Chorus.Mix = clampParam(c.Chorus.Mix, 0, 1, d.Chorus.Mix)
	c.Delay.Time = clampParam(c.Delay.Time, 0, 1, d.Delay.Time)
	c.Delay.Feedback = clampParam(c.Delay.Feedback, 0, 0.9, d.Delay.Feedback)
	c.Delay.Mix = clampParam(c.Delay.Mix, 0, 1, d.Delay.Mix)
	c.Reverb.RoomSize = clampParam(c.Reverb.RoomSize, 0, 1, d.Reverb.RoomSize)
	c.Reverb.Mix = clampParam(c.Reverb.Mix, 0, 1, d.Reverb.Mix)
	return c
}

func clampParam(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return min(max(v, lo), hi)
}
