package looper

import "github.com/viterin/vek/vek32"

// WaveformBuckets is the number of peaks in a waveform summary.
const WaveformBuckets = 200

// Waveform is a peak-per-bucket summary of a loop, for display.
type Waveform [WaveformBuckets]float32

// Peaks computes the absolute peak of each of the WaveformBuckets equally
// sized segments of samples. Trailing samples that do not fill a whole bucket
// are ignored; loops shorter than WaveformBuckets give an all-zero summary.
// Peaks does not allocate.
func (w *Waveform) Peaks(samples []float32) {
	size := len(samples) / WaveformBuckets
	if size == 0 {
		*w = Waveform{}
		return
	}
	for i := range w {
		seg := samples[i*size : (i+1)*size]
		w[i] = max(vek32.Max(seg), -vek32.Min(seg))
	}
}
