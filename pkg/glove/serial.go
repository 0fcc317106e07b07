package glove

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Defaults for the USB glove.
const (
	DefaultGloveBaudRate = 115200
	DefaultGloveChannels = 6
	defaultQueueLen      = 16
)

// FindGlovePort returns the first USB serial port, or "" if none is present.
func FindGlovePort() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("list ports: %w", err)
	}
	for _, port := range ports {
		if strings.Contains(port, "ttyUSB") || strings.Contains(port, "ttyACM") {
			return port, nil
		}
	}
	return "", nil
}

func openPort(name string, baud int) (io.ReadCloser, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// SerialConfig holds the settings for a USB glove.
type SerialConfig struct {
	Port     string
	BaudRate int
	Channels int
	QueueLen int
}

type item struct {
	batch Batch
	err   error
}

// SerialSource streams glove frames from a serial port. A reader goroutine
// decodes frames and hands complete batches to a bounded queue; Next takes
// them in arrival order.
type SerialSource struct {
	cfg    SerialConfig
	stream StreamConfig
	open   func(name string, baud int) (io.ReadCloser, error)

	mu       sync.Mutex
	port     io.ReadCloser
	queue    chan item
	stop     chan struct{}
	done     chan struct{}
	closed   chan struct{}
	started  bool
	isClosed bool
	failure  error
}

// NewSerialSource creates a source for the glove on cfg.Port.
func NewSerialSource(cfg SerialConfig) *SerialSource {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultGloveBaudRate
	}
	if cfg.Channels == 0 {
		cfg.Channels = DefaultGloveChannels
	}
	if cfg.QueueLen == 0 {
		cfg.QueueLen = defaultQueueLen
	}
	return &SerialSource{
		cfg:    cfg,
		stream: DefaultStreamConfig,
		open:   openPort,
		closed: make(chan struct{}),
	}
}

// Name returns the serial port name.
func (s *SerialSource) Name() string { return s.cfg.Port }

// Channels returns the number of channels per vector.
func (s *SerialSource) Channels() int { return s.cfg.Channels }

// Open connects to the serial port.
func (s *SerialSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return ErrClosed
	}
	if s.port != nil {
		return nil
	}

	port, err := s.open(s.cfg.Port, s.cfg.BaudRate)
	if err != nil {
		return fmt.Errorf("open glove port %s: %w", s.cfg.Port, err)
	}
	s.port = port
	return nil
}

// Configure sets the stream settings. The glove streams all channels at its
// own rate; BatchLen sets how many frames make up one batch and ChannelMask
// zeroes deselected channels.
func (s *SerialSource) Configure(cfg StreamConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrNotOpen
	}
	if s.started {
		return errors.New("cannot configure while streaming")
	}
	s.stream = cfg
	return nil
}

// Start launches the reader goroutine.
func (s *SerialSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrNotOpen
	}
	if s.started {
		return nil
	}

	s.queue = make(chan item, s.cfg.QueueLen)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.started = true
	go s.read(s.port, s.stream, s.queue, s.stop, s.done)
	return nil
}

// Next returns the next batch, blocking until one is available.
func (s *SerialSource) Next(ctx context.Context) (Batch, error) {
	s.mu.Lock()
	queue, started := s.queue, s.started
	s.mu.Unlock()
	if !started {
		return nil, ErrNotStarted
	}

	select {
	case it, ok := <-queue:
		if !ok {
			return nil, s.ended()
		}
		return it.batch, it.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrClosed
	}
}

// ended returns the error that stopped the reader, or ErrNotStarted.
func (s *SerialSource) ended() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	return ErrNotStarted
}

// Stop halts streaming and waits for the reader goroutine to exit.
func (s *SerialSource) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

// Close stops streaming and closes the port.
func (s *SerialSource) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	close(s.closed)
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *SerialSource) read(r io.Reader, cfg StreamConfig, queue chan<- item, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(queue)

	send := func(it item) bool {
		select {
		case queue <- it:
			return true
		case <-stop:
			return false
		}
	}

	var dec Decoder
	batch := make(Batch, 0, cfg.BatchLen)
	buf := make([]byte, 256)

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			payload, ok := dec.Feed(b)
			if !ok {
				continue
			}
			v := ParseVector(payload)
			if len(v) < s.cfg.Channels {
				continue
			}
			batch = append(batch, applyMask(v, cfg.ChannelMask))
			if len(batch) == cfg.BatchLen {
				if !send(item{batch: batch}) {
					return
				}
				batch = make(Batch, 0, cfg.BatchLen)
			}
		}
		if err != nil {
			err = fmt.Errorf("read glove port: %w", err)
			s.mu.Lock()
			s.failure = err
			s.mu.Unlock()
			send(item{err: err})
			return
		}
	}
}

// applyMask zeroes channels whose bit is clear. Channels above 7 are kept.
func applyMask(v ChannelVector, mask uint8) ChannelVector {
	if mask == 0xff {
		return v
	}
	for i := range v {
		if i < 8 && mask&(1<<i) == 0 {
			v[i] = 0
		}
	}
	return v
}
