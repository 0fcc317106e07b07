package glove

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotOpen     = errors.New("source not open")
	ErrNotStarted  = errors.New("source not streaming")
	ErrClosed      = errors.New("source closed")
	ErrShortVector = errors.New("sample vector too short")
)

// Resolution is the sample width of the glove ADC.
type Resolution int

const (
	Bits8  Resolution = 8
	Bits12 Resolution = 12
)

// StreamConfig selects what the glove streams.
type StreamConfig struct {
	SampleRate  int        `json:"sample_rate"`
	Resolution  Resolution `json:"resolution"`
	BatchLen    int        `json:"batch_len"`
	ChannelMask uint8      `json:"channel_mask"`
}

// DefaultStreamConfig matches the glove firmware defaults.
var DefaultStreamConfig = StreamConfig{
	SampleRate:  300,
	Resolution:  Bits8,
	BatchLen:    48,
	ChannelMask: 0xff,
}

// Validate checks the stream settings.
func (c StreamConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.Resolution != Bits8 && c.Resolution != Bits12 {
		return fmt.Errorf("invalid resolution %d (must be 8 or 12)", c.Resolution)
	}
	if c.BatchLen <= 0 {
		return fmt.Errorf("invalid batch length %d", c.BatchLen)
	}
	if c.ChannelMask == 0 {
		return errors.New("channel mask selects no channels")
	}
	return nil
}

// Source supplies an ordered, unbounded sequence of sample batches.
//
// The lifecycle is Open, Configure, Start, Next..., Stop, Close.
type Source interface {
	Open(ctx context.Context) error
	Configure(cfg StreamConfig) error
	Start() error
	// Next blocks until the next batch is available.
	Next(ctx context.Context) (Batch, error)
	Stop() error
	Close() error
	// Channels returns the number of channels in each vector.
	Channels() int
	Name() string
}
