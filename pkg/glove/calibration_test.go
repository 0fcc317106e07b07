package glove

import (
	"errors"
	"math"
	"testing"

	"github.com/gwillem/emgctl/pkg/hand"
)

func TestRange_Position(t *testing.T) {
	r := Range{
		Min: 20,
		Max: 40,
	}

	tests := []struct {
		raw      int
		expected uint16
	}{
		{20, 65535}, // min -> fully closed
		{40, 0},     // max -> open
		{30, 32768}, // 32767.5 rounds half to even
		{25, 49151}, // 49151.25
		{35, 16384}, // 16383.75
		{41, 0},     // beyond max clamps to 0
		{100, 0},
		{19, 65535}, // below min clamps to max position
		{-50, 65535},
	}

	for _, tt := range tests {
		got := r.Position(tt.raw)
		if got != tt.expected {
			t.Errorf("Position(%d) = %d, want %d", tt.raw, got, tt.expected)
		}
	}
}

func TestRange_PositionMonotonic(t *testing.T) {
	ranges := []Range{
		{Min: 20, Max: 40},
		{Min: 24, Max: 52},
		{Min: 0, Max: 1},
		{Min: 100, Max: 4000},
	}

	for _, r := range ranges {
		if got := r.Position(r.Min); got != hand.MaxPosition {
			t.Errorf("%+v: Position(min) = %d, want %d", r, got, hand.MaxPosition)
		}
		if got := r.Position(r.Max); got != 0 {
			t.Errorf("%+v: Position(max) = %d, want 0", r, got)
		}

		span := r.Max - r.Min
		prev := r.Position(r.Min - span)
		for raw := r.Min - span; raw <= r.Max+span; raw++ {
			got := r.Position(raw)
			if got > prev {
				t.Fatalf("%+v: Position(%d) = %d > Position(%d) = %d", r, raw, got, raw-1, prev)
			}
			prev = got
		}
	}
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		n, fromMin, fromMax, toMin, toMax float64
		expected                          float64
	}{
		{30, 20, 40, 65535, 0, 32767.5},
		{20, 20, 40, 65535, 0, 65535},
		{60, 20, 40, 65535, 0, -65535}, // extrapolates
		{5, 0, 10, 0, 100, 50},
	}

	for _, tt := range tests {
		got := Interpolate(tt.n, tt.fromMin, tt.fromMax, tt.toMin, tt.toMax)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Interpolate(%v, %v, %v, %v, %v) = %f, want %f",
				tt.n, tt.fromMin, tt.fromMax, tt.toMin, tt.toMax, got, tt.expected)
		}
	}
}

func TestSmooth(t *testing.T) {
	tests := []struct {
		prev, raw int
		expected  int
	}{
		{0, 0, 0},
		{0, 1, 0},   // 0.5 -> 0
		{0, 3, 2},   // 1.5 -> 2
		{10, 3, 6},  // 6.5 -> 6
		{6, 8, 7},   // exact
		{7, 21, 14}, // exact
		{100, 50, 75},
	}

	for _, tt := range tests {
		got := Smooth(tt.prev, tt.raw)
		if got != tt.expected {
			t.Errorf("Smooth(%d, %d) = %d, want %d", tt.prev, tt.raw, got, tt.expected)
		}
	}
}

func TestCalibration_Validate(t *testing.T) {
	if err := DefaultCalibration.Validate(); err != nil {
		t.Fatalf("DefaultCalibration invalid: %v", err)
	}

	cal := DefaultCalibration
	cal[hand.Index] = Range{Min: 52, Max: 52}
	cal[hand.ThumbRoot] = Range{Min: 41, Max: 40}

	err := cal.Validate()
	if err == nil {
		t.Fatal("Validate should fail")
	}

	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("error %v is not a *RangeError", err)
	}

	got := RangeErrors(err)
	if len(got) != 2 {
		t.Fatalf("got %d range errors, want 2", len(got))
	}
	if got[0].Finger != hand.Index || got[0].Min != 52 || got[0].Max != 52 {
		t.Errorf("first error = %+v", got[0])
	}
	if got[1].Finger != hand.ThumbRoot || got[1].Min != 41 || got[1].Max != 40 {
		t.Errorf("second error = %+v", got[1])
	}
}

func TestUseDefault(t *testing.T) {
	cal, err := UseDefault(DefaultCalibration)
	if err != nil {
		t.Fatalf("UseDefault: %v", err)
	}
	if cal != DefaultCalibration {
		t.Errorf("UseDefault changed the calibration: %v", cal)
	}

	bad := DefaultCalibration
	bad[hand.Pinky] = Range{Min: 60, Max: 52}
	if _, err := UseDefault(bad); err == nil {
		t.Error("UseDefault should reject an invalid range")
	}
}

func TestChannelMap_Validate(t *testing.T) {
	if err := DefaultChannelMap.Validate(8); err != nil {
		t.Errorf("DefaultChannelMap on 8 channels: %v", err)
	}
	if err := DefaultChannelMap.Validate(6); err == nil {
		t.Error("DefaultChannelMap on 6 channels should fail")
	}
	if err := (ChannelMap{0, 1, 2, 3, 4, -1}).Validate(8); err == nil {
		t.Error("negative channel should fail")
	}
	if err := IdentityChannelMap.Validate(DefaultGloveChannels); err != nil {
		t.Errorf("IdentityChannelMap: %v", err)
	}
}
