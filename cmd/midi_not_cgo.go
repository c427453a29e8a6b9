//go:build !cgo

package cmd

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/gomidi"
)

func ListenMIDI(s looper.MIDISettings, p gomidi.Performer, logger logrus.FieldLogger) (io.Closer, error) {
	// with no cgo, there is no rtmidi driver
	return nil, errors.New("MIDI input is not available in builds without cgo")
}
