package glove

import (
	"errors"
	"fmt"
	"math"

	"github.com/gwillem/emgctl/pkg/hand"
)

// Range holds the raw reference values of one finger.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Calibration holds a raw range per finger, in finger order.
type Calibration [hand.NumFingers]Range

// DefaultCalibration is a known-good range for the gForce EMG armband at
// 8-bit resolution, used to restart without collecting samples.
var DefaultCalibration = Calibration{
	{Min: 32, Max: 34},
	{Min: 24, Max: 52},
	{Min: 24, Max: 52},
	{Min: 24, Max: 52},
	{Min: 24, Max: 52},
	{Min: 30, Max: 40},
}

// RangeError reports a finger whose calibrated min is not below its max.
type RangeError struct {
	Finger hand.Finger
	Min    int
	Max    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range for finger %d (%s): min %d must be less than max %d",
		int(e.Finger), e.Finger, e.Min, e.Max)
}

// Validate checks every finger and returns one *RangeError per invalid range.
func (c Calibration) Validate() error {
	var errs []error
	for i, r := range c {
		if r.Min >= r.Max {
			errs = append(errs, &RangeError{Finger: hand.Finger(i), Min: r.Min, Max: r.Max})
		}
	}
	return errors.Join(errs...)
}

// RangeErrors extracts the per-finger failures from a Validate error.
func RangeErrors(err error) []*RangeError {
	var out []*RangeError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, RangeErrors(e)...)
		}
		return out
	}
	var re *RangeError
	if errors.As(err, &re) {
		out = append(out, re)
	}
	return out
}

// Interpolate linearly maps n from [fromMin, fromMax] to [toMin, toMax].
// Values outside the source range extrapolate.
func Interpolate(n, fromMin, fromMax, toMin, toMax float64) float64 {
	return (n-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

// Smooth folds one raw reading into the running value: the average of the
// two, rounded half to even.
func Smooth(prev, raw int) int {
	return int(math.RoundToEven(float64(prev+raw) / 2))
}

// Position converts a smoothed raw value into a finger position. The scale is
// inverted: r.Min maps to hand.MaxPosition and r.Max maps to 0.
func (r Range) Position(raw int) uint16 {
	v := math.RoundToEven(Interpolate(float64(raw), float64(r.Min), float64(r.Max), hand.MaxPosition, 0))
	return uint16(clamp(v, 0, hand.MaxPosition))
}

func clamp(n, smallest, largest float64) float64 {
	return math.Max(smallest, math.Min(n, largest))
}
