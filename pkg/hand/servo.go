package hand

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// ServoRange maps a finger onto one servo of a tendon-driven hand.
type ServoRange struct {
	ID       int  `json:"id"`
	RangeMin int  `json:"range_min"`
	RangeMax int  `json:"range_max"`
	Inverted bool `json:"inverted,omitempty"`
}

// Denormalize converts a finger position [0, MaxPosition] to a raw servo position.
func (r ServoRange) Denormalize(pos uint16) int {
	frac := float64(pos) / MaxPosition
	if r.Inverted {
		frac = 1 - frac
	}
	rangeSize := float64(r.RangeMax - r.RangeMin)
	return int(frac*rangeSize) + r.RangeMin
}

// ServoHand drives one Feetech STS servo per finger.
type ServoHand struct {
	bus    *feetech.Bus
	group  *feetech.ServoGroup
	servos [NumFingers]ServoRange
}

// NewServoHand opens the servo bus and enables torque on all finger servos.
func NewServoHand(ctx context.Context, port string, servos [NumFingers]ServoRange) (*ServoHand, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	ids := make([]int, 0, NumFingers)
	for _, s := range servos {
		ids = append(ids, s.ID)
	}
	group := feetech.NewServoGroupByIDs(bus, ids...)

	h := &ServoHand{
		bus:    bus,
		group:  group,
		servos: servos,
	}
	if err := h.group.EnableAll(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("enable servos: %w", err)
	}
	return h, nil
}

// Close releases the fingers and closes the bus connection.
func (h *ServoHand) Close() error {
	if err := h.group.DisableAll(context.Background()); err != nil {
		h.bus.Close()
		return fmt.Errorf("disable servos: %w", err)
	}
	return h.bus.Close()
}

// SetPositions writes target positions to all finger servos.
func (h *ServoHand) SetPositions(ctx context.Context, positions Positions) error {
	if err := h.group.SetPositions(ctx, h.rawPositions(positions)); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

func (h *ServoHand) rawPositions(positions Positions) feetech.PositionMap {
	raw := make(feetech.PositionMap, NumFingers)
	for i, pos := range positions {
		s := h.servos[i]
		raw[s.ID] = s.Denormalize(pos)
	}
	return raw
}
