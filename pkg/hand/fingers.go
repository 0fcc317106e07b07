// Package hand provides abstractions for driving multi-finger robotic hands.
package hand

import "fmt"

// Finger identifies a finger drive of the hand.
type Finger int

// Finger drives, in register order.
const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	ThumbRoot
)

// NumFingers is the number of finger drives on the hand.
const NumFingers = 6

// MaxPosition is the fully closed position of a finger drive.
const MaxPosition = 65535

var fingerNames = [NumFingers]string{
	"thumb",
	"index",
	"middle",
	"ring",
	"pinky",
	"thumb_root",
}

func (f Finger) String() string {
	if f < 0 || int(f) >= NumFingers {
		return fmt.Sprintf("finger_%d", int(f))
	}
	return fingerNames[f]
}

// AllFingers returns all fingers in register order.
func AllFingers() []Finger {
	return []Finger{
		Thumb,
		Index,
		Middle,
		Ring,
		Pinky,
		ThumbRoot,
	}
}

// Positions holds one target per finger, 0 (open) to MaxPosition (closed).
type Positions [NumFingers]uint16

// Registers returns the positions as a register block.
func (p Positions) Registers() []uint16 {
	return p[:]
}
