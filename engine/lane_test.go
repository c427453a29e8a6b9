package engine

import (
	"testing"
)

func TestDubCursorWraps(t *testing.T) {
	loop := make([]float32, 10)
	l := lane{loop: loop, dubbing: true, dub: RingBuffer[float32]{Buffer: loop, Cursor: 7}}
	in := make([]float32, 25)
	for i := range in {
		in[i] = 0.25
	}
	l.dubBlock(in)
	if l.dub.Cursor != 2 {
		t.Errorf("expected the cursor to wrap to 2, got %v", l.dub.Cursor)
	}
	// samples 7..9 and 0..1 were written three times, the rest twice
	for i, v := range loop {
		expected := float32(0.5)
		if i >= 7 || i < 2 {
			expected = 0.75
		}
		if v != expected {
			t.Errorf("sample %d: expected %v, got %v", i, expected, v)
		}
	}
	l.dubBlock(in)
	for i, v := range loop {
		if v > 1 {
			t.Errorf("sample %d: expected the sum to be clamped to 1, got %v", i, v)
		}
	}
}

func TestReplaceDubOverwrites(t *testing.T) {
	loop := []float32{1, 1, 1, 1}
	l := lane{loop: loop, dubbing: true, replace: true, dub: RingBuffer[float32]{Buffer: loop, Cursor: 3}}
	l.dubBlock([]float32{0.5, 0.25})
	expected := []float32{0.25, 1, 1, 0.5}
	for i, v := range loop {
		if v != expected[i] {
			t.Errorf("sample %d: expected %v, got %v", i, expected[i], v)
		}
	}
	if l.dub.Cursor != 1 {
		t.Errorf("expected cursor 1, got %v", l.dub.Cursor)
	}
}

func TestCaptureStatus(t *testing.T) {
	var s trackStatus
	if n := s.capturedFrames(1); n != 0 {
		t.Errorf("expected no frames before the capture starts, got %v", n)
	}
	s.publishCapture(1, 12345)
	if n := s.capturedFrames(1); n != 12345 {
		t.Errorf("expected 12345 frames, got %v", n)
	}
	if n := s.capturedFrames(2); n != 0 {
		t.Errorf("expected a newer capture to see no frames, got %v", n)
	}
}

func TestCaptureStartsAtFrame(t *testing.T) {
	var s trackStatus
	buffer := make([]float32, 100)
	l := lane{status: &s}
	l.startCapture(startCaptureMsg{gen: 3, start: 40, buffer: buffer})
	in := make([]float32, 32)
	for i := range in {
		in[i] = 1
	}
	p := &Player{broker: NewBroker()}
	l.captureBlock(in, 0, p)
	l.captureBlock(in, 32, p)
	if n := s.capturedFrames(3); n != 24 {
		t.Errorf("expected 24 frames captured from frame 40, got %v", n)
	}
	for i := 0; i < 5; i++ {
		l.captureBlock(in, 64+int64(i)*32, p)
	}
	if n := s.capturedFrames(3); n != len(buffer) {
		t.Errorf("expected a full capture buffer, got %v", n)
	}
	select {
	case msg := <-p.broker.ToModel:
		if msg.Kind != EventCaptureOverflow {
			t.Errorf("expected an overflow event, got %v", msg.Kind)
		}
	default:
		t.Error("expected an overflow event")
	}
}

func TestLateClickStartsNow(t *testing.T) {
	c := newClicks(8000)
	c.add(clickMsg{frame: 10, accent: true}, 100)
	out := make([][2]float32, 64)
	c.render(out, 100, 1)
	if out[0][0] != c.accent[0] || out[2][0] != c.accent[2] {
		t.Errorf("expected the click to start at the first frame, got %v", out[:4])
	}
	c.cancel()
	clear(out)
	c.render(out, 164, 1)
	for _, v := range out {
		if v != [2]float32{} {
			t.Fatal("expected silence after cancelling the clicks")
		}
	}
}
