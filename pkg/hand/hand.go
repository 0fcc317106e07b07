package hand

import "context"

// Sink accepts finger targets and transmits them to the hand hardware.
type Sink interface {
	// SetPositions sends one target per finger. A failed write leaves the
	// hand at its previous targets.
	SetPositions(ctx context.Context, positions Positions) error
	Close() error
}
