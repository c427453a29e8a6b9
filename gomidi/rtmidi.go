//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// RTMIDIContext listens to one MIDI input port through rtmidi.
type RTMIDIContext struct {
	driver *rtmididrv.Driver
	in     drivers.In
	stop   func()
}

func NewContext() (*RTMIDIContext, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("opening MIDI driver failed: %w", err)
	}
	return &RTMIDIContext{driver: driver}, nil
}

// InputNames lists the names of the available input ports.
func (c *RTMIDIContext) InputNames() ([]string, error) {
	ins, err := c.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	ret := make([]string, len(ins))
	for i, in := range ins {
		ret[i] = in.String()
	}
	return ret, nil
}

// Listen opens the first input port whose name starts with namePrefix (any
// port if the prefix is empty) and passes its messages to handler. It
// returns the name of the opened port.
func (c *RTMIDIContext) Listen(namePrefix string, handler func(msg midi.Message, timestampms int32)) (string, error) {
	if c.in != nil {
		return "", errors.New("already listening to a MIDI input")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return "", fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		if err := in.Open(); err != nil {
			return "", fmt.Errorf("opening MIDI input %q failed: %w", in.String(), err)
		}
		stop, err := midi.ListenTo(in, handler)
		if err != nil {
			in.Close()
			return "", fmt.Errorf("listening to MIDI input %q failed: %w", in.String(), err)
		}
		c.in, c.stop = in, stop
		return in.String(), nil
	}
	if namePrefix == "" {
		return "", errors.New("could not find any MIDI input")
	}
	return "", fmt.Errorf("could not find a MIDI input starting with %q", namePrefix)
}

func (c *RTMIDIContext) Close() error {
	if c.stop != nil {
		c.stop()
	}
	if c.in != nil && c.in.IsOpen() {
		c.in.Close()
	}
	return c.driver.Close()
}
