// Package malgo is a duplex audio context on top of miniaudio: it plays the
// looper on the default output device and feeds it the default capture
// device, mono.
package malgo

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
)

// Context implements looper.AudioContext. When the capture device cannot be
// opened, the context falls back to playback only and HasInput returns false.
type Context struct {
	context   *malgo.AllocatedContext
	device    *malgo.Device
	processor looper.AudioProcessor
	hasInput  bool
	log       logrus.FieldLogger
}

// NewContext initializes the devices but does not start them.
func NewContext(sampleRate, periodFrames int, logger logrus.FieldLogger) (*Context, error) {
	c := &Context{log: logger.WithField("backend", "malgo")}
	context, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		c.log.Debug(strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("cannot init malgo context: %w", err)
	}
	c.context = context
	device, err := c.initDevice(malgo.Duplex, sampleRate, periodFrames)
	if err == nil {
		c.hasInput = true
	} else {
		c.log.WithError(err).Warn("cannot open capture device, falling back to playback only")
		if device, err = c.initDevice(malgo.Playback, sampleRate, periodFrames); err != nil {
			c.free()
			return nil, fmt.Errorf("cannot open playback device: %w", err)
		}
	}
	c.device = device
	return c, nil
}

func (c *Context) initDevice(kind malgo.DeviceType, sampleRate, periodFrames int) (*malgo.Device, error) {
	config := malgo.DefaultDeviceConfig(kind)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 2
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = uint32(sampleRate)
	config.PeriodSizeInFrames = uint32(periodFrames)
	config.Alsa.NoMMap = 1
	return malgo.InitDevice(c.context.Context, config, malgo.DeviceCallbacks{Data: c.onData})
}

func (c *Context) SampleRate() int { return int(c.device.SampleRate()) }

func (c *Context) HasInput() bool { return c.hasInput }

// Play starts the device. The processor is called from the real-time thread
// of miniaudio.
func (c *Context) Play(p looper.AudioProcessor) error {
	if c.processor != nil {
		return errors.New("malgo context is already playing")
	}
	c.processor = p
	if err := c.device.Start(); err != nil {
		c.processor = nil
		return fmt.Errorf("cannot start malgo device: %w", err)
	}
	return nil
}

func (c *Context) Close() error {
	c.device.Uninit()
	return c.free()
}

func (c *Context) free() error {
	defer c.context.Free()
	if err := c.context.Uninit(); err != nil {
		return fmt.Errorf("cannot uninit malgo context: %w", err)
	}
	return nil
}

// onData views the raw sample bytes as float32 without copying.
func (c *Context) onData(output, input []byte, frameCount uint32) {
	n := int(frameCount)
	if c.processor == nil || n == 0 || len(output) < n*8 {
		return
	}
	out := looper.AudioBuffer(unsafe.Slice((*[2]float32)(unsafe.Pointer(&output[0])), n))
	var in []float32
	if c.hasInput && len(input) >= n*4 {
		in = unsafe.Slice((*float32)(unsafe.Pointer(&input[0])), n)
	}
	c.processor.Process(in, out)
}
