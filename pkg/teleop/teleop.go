// Package teleop runs the glove-to-hand control loop.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gwillem/emgctl/pkg/glove"
	"github.com/gwillem/emgctl/pkg/hand"
	"github.com/gwillem/emgctl/pkg/telemetry"
)

// State represents the outcome of one control step.
type State struct {
	Positions hand.Positions
	Raw       [hand.NumFingers]int
	Timestamp time.Time
	Error     error
}

// Publisher receives every control step, e.g. for telemetry.
type Publisher interface {
	Publish(s telemetry.Sample) error
	Close() error
}

// Controller manages the control loop.
type Controller struct {
	source    glove.Source
	sink      hand.Sink
	mapper    *glove.Mapper
	telemetry Publisher
	halt      bool

	terminated atomic.Bool

	mu          sync.RWMutex
	running     bool
	steps       int
	writeErrors int
	stateCh     chan State
	logCh       chan string
}

// Config holds configuration for the controller.
type Config struct {
	Source           glove.Source // streaming, owned by the controller from here on
	Sink             hand.Sink
	Mapper           *glove.Mapper
	Telemetry        Publisher // optional
	HaltOnWriteError bool      // stop the loop on the first failed hand write
}

// Stats counts control steps.
type Stats struct {
	Steps       int
	WriteErrors int
}

// NewController creates a new controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Source == nil {
		return nil, errors.New("no sample source")
	}
	if cfg.Sink == nil {
		return nil, errors.New("no hand")
	}
	if cfg.Mapper == nil {
		return nil, errors.New("no mapper")
	}

	return &Controller{
		source:    cfg.Source,
		sink:      cfg.Sink,
		mapper:    cfg.Mapper,
		telemetry: cfg.Telemetry,
		halt:      cfg.HaltOnWriteError,
		stateCh:   make(chan State, 1),
		logCh:     make(chan string, 10),
	}, nil
}

// Close closes the hand and the telemetry connection.
func (c *Controller) Close() error {
	var errs []error
	if err := c.sink.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.telemetry != nil {
		if err := c.telemetry.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Stop asks the loop to finish after the current step. A step waiting for
// a batch is not interrupted.
func (c *Controller) Stop() {
	c.terminated.Store(true)
}

// Stopped reports whether Stop has been called.
func (c *Controller) Stopped() bool {
	return c.terminated.Load()
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Source returns the name of the sample source.
func (c *Controller) Source() string {
	return c.source.Name()
}

// Stats returns the step counters.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Steps: c.steps, WriteErrors: c.writeErrors}
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Run executes control steps until Stop is called or a step fails fatally.
// On return the sample source has been stopped and closed.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	defer c.shutdown()

	c.log("Control loop started on %s", c.source.Name())

	for !c.terminated.Load() {
		if err := c.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) step(ctx context.Context) error {
	batch, err := c.source.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log("Read error: %v", err)
		return fmt.Errorf("read batch: %w", err)
	}

	positions, err := c.mapper.Map(batch)
	if err != nil {
		c.log("Skipped batch: %v", err)
		c.sendState(State{Error: err, Timestamp: time.Now()})
		return nil
	}

	now := time.Now()
	state := State{
		Positions: positions,
		Raw:       c.mapper.State(),
		Timestamp: now,
	}

	writeErr := c.sink.SetPositions(ctx, positions)

	c.mu.Lock()
	c.steps++
	if writeErr != nil {
		c.writeErrors++
	}
	c.mu.Unlock()

	if writeErr != nil {
		c.log("Write error: %v", writeErr)
		state.Error = writeErr
		if c.halt {
			c.sendState(state)
			return fmt.Errorf("write positions: %w", writeErr)
		}
	}

	if c.telemetry != nil {
		if err := c.telemetry.Publish(telemetry.Sample{
			Timestamp: now,
			Positions: positions,
			Raw:       state.Raw,
		}); err != nil {
			c.log("Telemetry error: %v", err)
		}
	}

	c.sendState(state)
	return nil
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if err := c.source.Stop(); err != nil {
		c.log("Warning: failed to stop %s: %v", c.source.Name(), err)
	}
	if err := c.source.Close(); err != nil {
		c.log("Warning: failed to close %s: %v", c.source.Name(), err)
	} else {
		c.log("Glove disconnected")
	}
	c.log("Control loop stopped")
}
