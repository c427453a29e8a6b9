package looper

import (
	"math"
	"slices"
)

// measureMultiples are the loop lengths, in measures, a quantized loop can
// snap to.
var measureMultiples = [...]int{1, 2, 3, 4, 6, 8, 16, 32, 64}

// SecondsPerBeat returns the duration of a beat at the given tempo.
func SecondsPerBeat(bpm float64) float64 {
	return 60 / bpm
}

// LoopFrames returns the length of a loop of the given number of beats, in
// sample frames.
func LoopFrames(beats, bpm float64, sampleRate int) int {
	return int(math.Round(beats * SecondsPerBeat(bpm) * float64(sampleRate)))
}

// FramesToBeats converts a number of frames to beats at the given tempo.
func FramesToBeats(frames int, bpm float64, sampleRate int) float64 {
	return float64(frames) / float64(sampleRate) / SecondsPerBeat(bpm)
}

// LoopCandidates returns the ascending, de-duplicated list of loop lengths
// (in beats) that a recording can be quantized to. QuantizeOff returns nil.
//
// In QuantizeBeat mode, the list starts with sub-measure lengths: powers of
// two up to the measure for binary meters (2, 4, 8... beats per measure),
// otherwise every integer beat count up to the measure. Both modes contain
// the measure multiples 1, 2, 3, 4, 6, 8, 16, 32 and 64.
func LoopCandidates(beatsPerMeasure int, mode QuantizeMode) []float64 {
	if mode == QuantizeOff || beatsPerMeasure < 1 {
		return nil
	}
	ret := make([]float64, 0, beatsPerMeasure+len(measureMultiples))
	if mode == QuantizeBeat {
		if beatsPerMeasure&(beatsPerMeasure-1) == 0 {
			for b := 1; b <= beatsPerMeasure; b *= 2 {
				ret = append(ret, float64(b))
			}
		} else {
			for b := 1; b <= beatsPerMeasure; b++ {
				ret = append(ret, float64(b))
			}
		}
	}
	for _, m := range measureMultiples {
		ret = append(ret, float64(m*beatsPerMeasure))
	}
	slices.Sort(ret)
	return slices.Compact(ret)
}

// QuantizeLoopLength snaps recordedBeats to the closest candidate of
// LoopCandidates. Ties resolve to the smaller candidate. With QuantizeOff,
// recordedBeats is returned unchanged.
func QuantizeLoopLength(recordedBeats float64, beatsPerMeasure int, mode QuantizeMode) float64 {
	candidates := LoopCandidates(beatsPerMeasure, mode)
	if len(candidates) == 0 {
		return recordedBeats
	}
	best := candidates[0]
	bestDist := math.Abs(recordedBeats - best)
	for _, c := range candidates[1:] {
		if d := math.Abs(recordedBeats - c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// FitToMaster coerces a loop length to a positive integer multiple of the
// master loop length.
func FitToMaster(beats, master float64) float64 {
	if master <= 0 {
		return beats
	}
	return max(master, math.Round(beats/master)*master)
}

// ResolveLoopLength computes the final length in beats of a loop whose
// recording lasted recordedBeats. A fixed global loop length replaces the
// quantized value and an established master length forces a multiple of it.
// The result is never shorter than one beat.
func ResolveLoopLength(recordedBeats float64, global GlobalConfig, mode QuantizeMode, master float64) float64 {
	beats := QuantizeLoopLength(recordedBeats, global.TimeSignature.Beats, mode)
	if global.LoopLength != LoopLengthAuto {
		beats = float64(int(global.LoopLength) * global.TimeSignature.Beats)
	}
	beats = max(beats, 1)
	return FitToMaster(beats, master)
}
