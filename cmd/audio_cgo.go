//go:build cgo

package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/malgo"
)

// NewAudioContext opens the audio backend named in the settings. If the
// duplex malgo backend cannot be opened, it falls back to output-only oto.
func NewAudioContext(s looper.AudioSettings, logger logrus.FieldLogger) (looper.AudioContext, error) {
	if s.Backend == "oto" {
		return newOto(s)
	}
	context, err := malgo.NewContext(s.SampleRate, s.PeriodFrames, logger)
	if err == nil {
		return context, nil
	}
	logger.WithError(err).Warn("cannot open malgo backend, falling back to oto")
	return newOto(s)
}
