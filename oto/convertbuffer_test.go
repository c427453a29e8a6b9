package oto_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/vsariola/looper"
	"github.com/vsariola/looper/oto"
)

func TestAudioBufferTo16BitLE(t *testing.T) {
	buf := looper.AudioBuffer{{0, 0.5}, {-2, 2}}
	got := oto.AudioBufferTo16BitLE(buf, nil)
	if len(got) != 8 {
		t.Fatalf("expected 8 bytes, got %v", len(got))
	}
	expected := []int16{0, int16(0.5 * math.MaxInt16), -math.MaxInt16, math.MaxInt16}
	for i, e := range expected {
		if v := int16(binary.LittleEndian.Uint16(got[2*i:])); v != e {
			t.Errorf("sample %d: expected %v, got %v", i, e, v)
		}
	}
}

func TestAudioBufferTo16BitLEAppends(t *testing.T) {
	dst := make([]byte, 0, 64)
	got := oto.AudioBufferTo16BitLE(looper.AudioBuffer{{1, 1}}, dst)
	if &got[0] != &dst[:1][0] {
		t.Error("expected the capacity of dst to be reused")
	}
}
