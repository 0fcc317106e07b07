package glove

import "github.com/gwillem/emgctl/pkg/hand"

// Mapper converts live sample batches into finger positions.
//
// It keeps one smoothed raw value per finger across batches. The zero state
// is all zeros.
type Mapper struct {
	channels    ChannelMap
	calibration Calibration
	state       [hand.NumFingers]int
}

// NewMapper creates a mapper for a validated calibration.
func NewMapper(channels ChannelMap, cal Calibration) *Mapper {
	return &Mapper{
		channels:    channels,
		calibration: cal,
	}
}

// Map folds every sample of the batch into the smoothed state, in arrival
// order, and returns the resulting positions. A batch with a vector too short
// for the channel map is rejected without touching the state.
func (m *Mapper) Map(batch Batch) (hand.Positions, error) {
	if err := m.channels.checkBatch(batch); err != nil {
		return hand.Positions{}, err
	}

	for _, v := range batch {
		for f := range m.state {
			m.state[f] = Smooth(m.state[f], v[m.channels[f]])
		}
	}
	return m.Positions(), nil
}

// Positions returns the positions for the current smoothed state.
func (m *Mapper) Positions() hand.Positions {
	var p hand.Positions
	for f, raw := range m.state {
		p[f] = m.calibration[f].Position(raw)
	}
	return p
}

// State returns the smoothed raw value per finger.
func (m *Mapper) State() [hand.NumFingers]int {
	return m.state
}

// SetState replaces the smoothed raw values.
func (m *Mapper) SetState(state [hand.NumFingers]int) {
	m.state = state
}

// Calibration returns the ranges the mapper scales against.
func (m *Mapper) Calibration() Calibration {
	return m.calibration
}
