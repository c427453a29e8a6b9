//go:build !cgo

package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
)

// NewAudioContext opens the oto backend: malgo needs cgo.
func NewAudioContext(s looper.AudioSettings, logger logrus.FieldLogger) (looper.AudioContext, error) {
	if s.Backend != "oto" {
		logger.WithField("backend", s.Backend).Warn("backend not available without cgo, using oto")
	}
	return newOto(s)
}
