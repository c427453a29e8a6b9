package fx

import (
	"math"

	"github.com/vsariola/looper"
)

// Settings is a compiled, immutable EffectConfig for a given sample rate.
// Settings can be shared between chains and passed to the audio path as is.
type Settings struct {
	config     looper.EffectConfig
	sampleRate int
	gains      [NumStages]gains

	compressor compressorParams
	drive      float32
	biquad     biquadCoeff
	chorus     chorusParams
	delay      delayParams
	impulse    *Impulse
}

// maxFeedback caps the delay feedback below unity gain.
const maxFeedback = 0.95

// Compile builds the settings of cfg. prev, if not nil, are the settings
// currently in use; the reverb impulse response of prev is reused unless the
// room size or sample rate changed.
func Compile(cfg looper.EffectConfig, sampleRate int, prev *Settings) *Settings {
	cfg = cfg.Normalize()
	sr := float64(sampleRate)
	s := &Settings{config: cfg, sampleRate: sampleRate}

	s.gains[Compressor] = switchGains(cfg.Compressor.Enabled)
	s.gains[Distortion] = mixGains(cfg.Distortion.Enabled, cfg.Distortion.Mix)
	s.gains[Filter] = switchGains(cfg.Filter.Enabled)
	s.gains[Chorus] = mixGains(cfg.Chorus.Enabled, cfg.Chorus.Mix)
	s.gains[Delay] = mixGains(cfg.Delay.Enabled, cfg.Delay.Mix)
	s.gains[Reverb] = mixGains(cfg.Reverb.Enabled, cfg.Reverb.Mix)

	s.compressor = compressorParams{
		threshold: float32(math.Pow(10, cfg.Compressor.Threshold/10)), // dB to power
		exponent:  float32((1 - 1/cfg.Compressor.Ratio) / 2),
		attack:    float32(1 - math.Exp(-1/(compressorAttack*sr))),
		release:   float32(1 - math.Exp(-1/(compressorRelease*sr))),
	}
	s.drive = float32(cfg.Distortion.Amount)
	s.biquad = designBiquad(cfg.Filter, sr)
	s.chorus = chorusParams{
		phaseInc: 2 * math.Pi * cfg.Chorus.Rate / sr,
		base:     chorusBaseDelay * sr,
		depth:    cfg.Chorus.Depth / 1000 * sr,
	}
	s.delay = delayParams{frames: max(int(math.Round(cfg.Delay.Time*sr)), 1)}
	if cfg.Delay.Enabled {
		s.delay.feedback = float32(min(cfg.Delay.Feedback, maxFeedback))
	}

	if prev != nil && prev.impulse != nil && prev.sampleRate == sampleRate &&
		(prev.impulse.roomSize == cfg.Reverb.RoomSize || !cfg.Reverb.Enabled) {
		s.impulse = prev.impulse
	} else if cfg.Reverb.Enabled {
		s.impulse = NewImpulse(cfg.Reverb.RoomSize, sampleRate)
	}
	return s
}

// Config returns the normalized configuration the settings were compiled
// from.
func (s *Settings) Config() looper.EffectConfig { return s.config }

func (s *Settings) SampleRate() int { return s.sampleRate }

// Gains returns the gains of the bypass and processed paths of a stage.
func (s *Settings) Gains(stage Stage) (dry, wet float32) {
	g := s.gains[stage]
	return g.dry, g.wet
}

// Feedback is the effective feedback gain of the delay.
func (s *Settings) Feedback() float32 { return s.delay.feedback }

// Impulse is the reverb impulse response, or nil if the reverb has never
// been enabled.
func (s *Settings) Impulse() *Impulse { return s.impulse }

// switchGains is used for the stages that have no mix control.
func switchGains(enabled bool) gains {
	if enabled {
		return gains{dry: 0, wet: 1}
	}
	return gains{dry: 1, wet: 0}
}

func mixGains(enabled bool, mix float64) gains {
	if !enabled {
		return gains{dry: 1, wet: 0}
	}
	return gains{dry: float32(1 - mix), wet: float32(mix)}
}
