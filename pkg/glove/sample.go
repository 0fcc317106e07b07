// Package glove reads sensor glove samples and turns them into finger positions.
package glove

import (
	"fmt"

	"github.com/gwillem/emgctl/pkg/hand"
)

// ChannelVector holds one raw reading per sensor channel for a single sample tick.
type ChannelVector []int

// Batch is a group of consecutive sample ticks delivered together.
type Batch []ChannelVector

// ChannelMap maps each finger to the raw channel that drives it.
type ChannelMap [hand.NumFingers]int

// DefaultChannelMap is the gForce armband layout:
// thumb, index, middle, ring, pinky, thumb root.
var DefaultChannelMap = ChannelMap{7, 6, 0, 3, 4, 5}

// IdentityChannelMap maps finger i to channel i, as the USB glove reports them.
var IdentityChannelMap = ChannelMap{0, 1, 2, 3, 4, 5}

// Validate checks that every channel exists on a source with numChannels channels.
func (m ChannelMap) Validate(numChannels int) error {
	for i, ch := range m {
		if ch < 0 || ch >= numChannels {
			return fmt.Errorf("finger %s: channel %d out of range [0, %d)", hand.Finger(i), ch, numChannels)
		}
	}
	return nil
}

// width returns the minimum vector length the map can index.
func (m ChannelMap) width() int {
	w := 0
	for _, ch := range m {
		if ch+1 > w {
			w = ch + 1
		}
	}
	return w
}

// checkBatch reports the first vector too short for the map.
func (m ChannelMap) checkBatch(b Batch) error {
	w := m.width()
	for i, v := range b {
		if len(v) < w {
			return fmt.Errorf("%w: sample %d has %d channels, need %d", ErrShortVector, i, len(v), w)
		}
	}
	return nil
}
