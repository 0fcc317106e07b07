package glove

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// SimChannels is the channel count of the simulated armband.
const SimChannels = 8

// SimSource generates synthetic EMG: each channel swings slowly between a
// resting and an active level, with some noise on top.
type SimSource struct {
	// Period is the time one channel takes for a full rest-active-rest cycle.
	Period time.Duration
	// Unpaced skips the sleep that matches the sample rate.
	Unpaced bool

	mu      sync.Mutex
	rng     *rand.Rand
	cfg     StreamConfig
	tick    int
	open    bool
	started bool
}

// NewSimSource creates a simulated source with a fixed seed.
func NewSimSource(seed uint64) *SimSource {
	return &SimSource{
		Period: 4 * time.Second,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cfg:    DefaultStreamConfig,
	}
}

func (s *SimSource) Name() string { return "simulator" }
func (s *SimSource) Channels() int { return SimChannels }

func (s *SimSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return ctx.Err()
}

func (s *SimSource) Configure(cfg StreamConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	s.cfg = cfg
	return nil
}

func (s *SimSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNotOpen
	}
	s.started = true
	return nil
}

func (s *SimSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

func (s *SimSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.open = false
	return nil
}

// Next generates one batch of BatchLen vectors.
func (s *SimSource) Next(ctx context.Context) (Batch, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	cfg := s.cfg
	batch := make(Batch, cfg.BatchLen)
	for i := range batch {
		batch[i] = s.sample(cfg)
		s.tick++
	}
	s.mu.Unlock()

	if !s.Unpaced {
		wait := time.Duration(cfg.BatchLen) * time.Second / time.Duration(cfg.SampleRate)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return batch, ctx.Err()
}

func (s *SimSource) sample(cfg StreamConfig) ChannelVector {
	full := float64(int(1)<<cfg.Resolution - 1)
	rest, active := 0.1*full, 0.8*full
	t := float64(s.tick) / float64(cfg.SampleRate)
	period := s.Period.Seconds()

	v := make(ChannelVector, SimChannels)
	for ch := range v {
		phase := 2 * math.Pi * (t/period + float64(ch)/SimChannels)
		level := rest + (active-rest)*(0.5+0.5*math.Sin(phase))
		level += s.rng.NormFloat64() * 0.02 * full
		v[ch] = int(clamp(math.Round(level), 0, full))
	}
	return applyMask(v, cfg.ChannelMask)
}
