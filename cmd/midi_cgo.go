//go:build cgo

package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/gomidi"
)

// ListenMIDI opens the configured MIDI input and performs the bound actions
// on p.
func ListenMIDI(s looper.MIDISettings, p gomidi.Performer, logger logrus.FieldLogger) (io.Closer, error) {
	context, err := gomidi.NewContext()
	if err != nil {
		return nil, err
	}
	dispatcher := gomidi.NewDispatcher(s.Bindings, p, logger.WithField("component", "midi"))
	name, err := context.Listen(s.Input, dispatcher.HandleMessage)
	if err != nil {
		context.Close()
		return nil, err
	}
	logger.WithField("port", name).Info("listening to MIDI input")
	return context, nil
}
