package cmd

import (
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/oto"
)

func newOto(s looper.AudioSettings) (looper.AudioContext, error) {
	context, err := oto.NewContext(s.SampleRate, s.PeriodFrames)
	if err != nil {
		return nil, err
	}
	return context, nil
}
