package engine

import "math"

const (
	clickDuration    = 0.03 // seconds
	clickAccentFreq  = 1000
	clickNormalFreq  = 800
	clickAccentPeak  = 1
	clickNormalPeak  = 0.6
	clickFinalLevel  = 0.001
	maxPendingClicks = 16
)

// ClickSamples renders a metronome click: a short sine burst decaying
// exponentially to -60 dB. Accented clicks (the first beat of a measure) are
// higher and louder.
func ClickSamples(sampleRate int, accent bool) []float32 {
	freq, peak := float64(clickNormalFreq), float64(clickNormalPeak)
	if accent {
		freq, peak = clickAccentFreq, clickAccentPeak
	}
	n := int(clickDuration * float64(sampleRate))
	ret := make([]float32, n)
	decay := math.Log(clickFinalLevel/peak) / float64(n)
	for i := range ret {
		t := float64(i) / float64(sampleRate)
		ret[i] = float32(peak * math.Exp(decay*float64(i)) * math.Sin(2*math.Pi*freq*t))
	}
	return ret
}

type (
	// clicks renders the clicks scheduled by the clock at their exact frames.
	clicks struct {
		accent, normal []float32
		pending        [maxPendingClicks]pendingClick
		count          int
	}

	pendingClick struct {
		frame  int64
		accent bool
	}
)

func newClicks(sampleRate int) clicks {
	return clicks{
		accent: ClickSamples(sampleRate, true),
		normal: ClickSamples(sampleRate, false),
	}
}

// add queues a click. A click whose frame already passed starts right away.
func (c *clicks) add(msg clickMsg, now int64) {
	if c.count == maxPendingClicks {
		return
	}
	c.pending[c.count] = pendingClick{frame: max(msg.frame, now), accent: msg.accent}
	c.count++
}

func (c *clicks) cancel() { c.count = 0 }

func (c *clicks) render(out [][2]float32, frame int64, gain float32) {
	end := frame + int64(len(out))
	kept := 0
	for _, p := range c.pending[:c.count] {
		samples := c.normal
		if p.accent {
			samples = c.accent
		}
		if p.frame < end {
			// range of click samples that fall in this block
			from := int(max(frame-p.frame, 0))
			to := int(min(end-p.frame, int64(len(samples))))
			if gain != 0 {
				offset := int(p.frame + int64(from) - frame)
				for i, v := range samples[from:to] {
					out[offset+i][0] += v * gain
					out[offset+i][1] += v * gain
				}
			}
			if to == len(samples) {
				continue
			}
		}
		c.pending[kept] = p
		kept++
	}
	c.count = kept
}
