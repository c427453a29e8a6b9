package oto

import (
	"errors"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/looper"
)

type (
	// Context is an output-only audio context. oto cannot capture audio, so a
	// looper running on it has no input.
	Context struct {
		context    *oto.Context
		sampleRate int
		bufferSize int // frames
		player     *oto.Player
	}

	// processorReader renders the processor when oto pulls more bytes.
	processorReader struct {
		processor looper.AudioProcessor
		buffer    looper.AudioBuffer
	}
)

const bytesPerFrame = 4 // two 16-bit channels

// NewContext opens the default output device. oto allows only one context
// per process.
func NewContext(sampleRate, bufferFrames int) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate),
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{context: context, sampleRate: sampleRate, bufferSize: bufferFrames}, nil
}

func (c *Context) SampleRate() int { return c.sampleRate }

func (c *Context) HasInput() bool { return false }

// Play starts pulling audio from the processor.
func (c *Context) Play(p looper.AudioProcessor) error {
	if c.player != nil {
		return errors.New("oto context is already playing")
	}
	c.player = c.context.NewPlayer(&processorReader{processor: p})
	c.player.SetBufferSize(c.bufferSize * bytesPerFrame)
	c.player.Play()
	if err := c.player.Err(); err != nil {
		return fmt.Errorf("cannot start oto player: %w", err)
	}
	return nil
}

// Close stops the playback and suspends the device.
func (c *Context) Close() error {
	if c.player != nil {
		if err := c.player.Close(); err != nil {
			return fmt.Errorf("cannot close oto player: %w", err)
		}
		c.player = nil
	}
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (r *processorReader) Read(buf []byte) (int, error) {
	frames := len(buf) / bytesPerFrame
	if cap(r.buffer) < frames {
		r.buffer = make(looper.AudioBuffer, frames)
	}
	out := r.buffer[:frames]
	r.processor.Process(nil, out)
	return len(AudioBufferTo16BitLE(out, buf[:0])), nil
}
