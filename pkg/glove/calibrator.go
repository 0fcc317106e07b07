package glove

import (
	"context"
	"fmt"
	"math"

	"github.com/gwillem/emgctl/pkg/hand"
)

// DefaultBatchesPerPhase is the number of batches collected per gesture.
const DefaultBatchesPerPhase = 256

// Phase is one guided gesture of the calibration sequence.
type Phase int

const (
	PhaseSpread Phase = iota
	PhaseThumbRoot
	PhaseThumb
	PhaseFist
)

// Phases returns the calibration phases in the order they run.
func Phases() []Phase {
	return []Phase{PhaseSpread, PhaseThumbRoot, PhaseThumb, PhaseFist}
}

func (p Phase) String() string {
	switch p {
	case PhaseSpread:
		return "spread"
	case PhaseThumbRoot:
		return "thumb root"
	case PhaseThumb:
		return "thumb"
	case PhaseFist:
		return "fist"
	default:
		return fmt.Sprintf("phase_%d", int(p))
	}
}

// Prompt is the instruction shown to the operator for the phase.
func (p Phase) Prompt() string {
	switch p {
	case PhaseSpread:
		return "Please spread your fingers"
	case PhaseThumbRoot:
		return "Please rotate your thumb root to maximum angle"
	case PhaseThumb:
		return "Please flex your thumb"
	case PhaseFist:
		return "Please make a fist"
	default:
		return p.String()
	}
}

// collectsMax reports whether the phase records maxima (true) or minima.
func (p Phase) collectsMax() bool {
	return p == PhaseSpread
}

// fingers returns the fingers whose reference value the phase records.
func (p Phase) fingers() []hand.Finger {
	switch p {
	case PhaseThumbRoot:
		return []hand.Finger{hand.ThumbRoot}
	case PhaseThumb:
		return []hand.Finger{hand.Thumb}
	case PhaseFist:
		return []hand.Finger{hand.Thumb, hand.Index, hand.Middle, hand.Ring, hand.Pinky}
	default:
		return hand.AllFingers()
	}
}

// Prompter asks the operator to get ready for a gesture.
type Prompter interface {
	// Ready blocks until the operator confirms. An error aborts calibration.
	Ready(ctx context.Context, prompt string) error
}

// Calibrator derives per-finger ranges from guided gestures.
//
// Each phase records a running extremum over every sample of every batch it
// consumes. Extremes carry across phases, so the thumb minimum covers both
// the thumb and the fist phases.
type Calibrator struct {
	Source          Source
	Channels        ChannelMap
	BatchesPerPhase int
	Prompter        Prompter

	// Progress, if set, is called after every batch.
	Progress func(phase Phase, batches int)
}

// Run collects all phases and returns the validated calibration.
func (c *Calibrator) Run(ctx context.Context) (Calibration, error) {
	n := c.BatchesPerPhase
	if n <= 0 {
		n = DefaultBatchesPerPhase
	}

	var cal Calibration
	for i := range cal {
		cal[i] = Range{Min: math.MaxInt, Max: math.MinInt}
	}

	for _, phase := range Phases() {
		if c.Prompter != nil {
			if err := c.Prompter.Ready(ctx, phase.Prompt()); err != nil {
				return Calibration{}, fmt.Errorf("%s phase: %w", phase, err)
			}
		}
		if err := c.collect(ctx, phase, n, &cal); err != nil {
			return Calibration{}, fmt.Errorf("%s phase: %w", phase, err)
		}
	}

	if err := cal.Validate(); err != nil {
		return Calibration{}, err
	}
	return cal, nil
}

func (c *Calibrator) collect(ctx context.Context, phase Phase, n int, cal *Calibration) error {
	fingers := phase.fingers()
	for b := 0; b < n; b++ {
		batch, err := c.Source.Next(ctx)
		if err != nil {
			return fmt.Errorf("read batch %d: %w", b, err)
		}
		if err := c.Channels.checkBatch(batch); err != nil {
			return fmt.Errorf("batch %d: %w", b, err)
		}

		for _, v := range batch {
			for _, f := range fingers {
				raw := v[c.Channels[f]]
				if phase.collectsMax() {
					cal[f].Max = max(cal[f].Max, raw)
				} else {
					cal[f].Min = min(cal[f].Min, raw)
				}
			}
		}

		if c.Progress != nil {
			c.Progress(phase, b+1)
		}
	}
	return nil
}

// UseDefault validates a caller-supplied calibration in place of collection.
func UseDefault(cal Calibration) (Calibration, error) {
	if err := cal.Validate(); err != nil {
		return Calibration{}, err
	}
	return cal, nil
}
