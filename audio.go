package looper

import "errors"

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right
	AudioBuffer [][2]float32

	// AudioProcessor renders audio. Process is called from the real-time
	// thread of an AudioContext: in holds the mono input of the block (nil if
	// the context cannot capture) and out must be filled completely. Process
	// must never block or allocate.
	AudioProcessor interface {
		Process(in []float32, out AudioBuffer)
	}

	// AudioContext is an audio device. Play starts calling the processor until
	// the context is closed; a context can drive only one processor.
	AudioContext interface {
		Play(p AudioProcessor) error
		SampleRate() int
		HasInput() bool
		Close() error
	}
)

// ErrNoInput is reported when the audio device has no usable capture side,
// e.g. because access to the microphone was denied. The looper keeps running,
// but monitoring and recording produce nothing.
var ErrNoInput = errors.New("audio input not available")

// Fill sets all samples of the buffer to value.
func (b AudioBuffer) Fill(value [2]float32) {
	for i := range b {
		b[i] = value
	}
}
