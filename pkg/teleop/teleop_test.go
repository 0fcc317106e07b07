package teleop

import (
	"context"
	"errors"
	"testing"

	"github.com/gwillem/emgctl/pkg/glove"
	"github.com/gwillem/emgctl/pkg/hand"
	"github.com/gwillem/emgctl/pkg/telemetry"
)

type fakeSource struct {
	batch   glove.Batch
	err     error
	reads   int
	onRead  func(n int)
	stopped bool
	closed  bool
}

func (s *fakeSource) Open(context.Context) error { return nil }
func (s *fakeSource) Configure(glove.StreamConfig) error { return nil }
func (s *fakeSource) Start() error { return nil }
func (s *fakeSource) Channels() int { return 6 }
func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Next(ctx context.Context) (glove.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.reads++
	if s.onRead != nil {
		s.onRead(s.reads)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func (s *fakeSource) Stop() error {
	s.stopped = true
	return nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSink struct {
	written []hand.Positions
	err     error
	onWrite func(n int)
	closed  bool
}

func (s *fakeSink) SetPositions(_ context.Context, p hand.Positions) error {
	s.written = append(s.written, p)
	if s.onWrite != nil {
		s.onWrite(len(s.written))
	}
	return s.err
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

type fakePublisher struct {
	samples []telemetry.Sample
	closed  bool
}

func (p *fakePublisher) Publish(s telemetry.Sample) error {
	p.samples = append(p.samples, s)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func testMapper() *glove.Mapper {
	var cal glove.Calibration
	for i := range cal {
		cal[i] = glove.Range{Min: 20, Max: 40}
	}
	return glove.NewMapper(glove.IdentityChannelMap, cal)
}

func TestController_RunUntilStopped(t *testing.T) {
	src := &fakeSource{batch: glove.Batch{{30, 30, 30, 30, 30, 30}}}
	sink := &fakeSink{}
	pub := &fakePublisher{}

	ctrl, err := NewController(Config{
		Source:    src,
		Sink:      sink,
		Mapper:    testMapper(),
		Telemetry: pub,
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	sink.onWrite = func(n int) {
		if n == 5 {
			ctrl.Stop()
		}
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if src.reads != 5 {
		t.Errorf("read %d batches, want 5", src.reads)
	}
	if len(sink.written) != 5 {
		t.Errorf("wrote %d times, want 5", len(sink.written))
	}
	if !src.stopped || !src.closed {
		t.Errorf("source not shut down: stopped=%v closed=%v", src.stopped, src.closed)
	}
	if len(pub.samples) != 5 {
		t.Errorf("published %d samples, want 5", len(pub.samples))
	}
	if got := ctrl.Stats(); got.Steps != 5 || got.WriteErrors != 0 {
		t.Errorf("Stats = %+v", got)
	}

	// 0 -> 15 -> 22 -> 26 -> 28 -> 29 with the smoothing filter
	last := sink.written[4]
	if want := (glove.Range{Min: 20, Max: 40}).Position(29); last[0] != want {
		t.Errorf("last position = %d", last[0])
	}

	state := <-ctrl.States()
	if state.Raw[0] != 29 || state.Positions != last {
		t.Errorf("last state = %+v", state)
	}

	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !sink.closed || !pub.closed {
		t.Error("Close did not close sink and telemetry")
	}
}

func TestController_StoppedBeforeRun(t *testing.T) {
	src := &fakeSource{batch: glove.Batch{{30, 30, 30, 30, 30, 30}}}
	ctrl, _ := NewController(Config{Source: src, Sink: &fakeSink{}, Mapper: testMapper()})

	ctrl.Stop()
	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.reads != 0 {
		t.Errorf("read %d batches after Stop", src.reads)
	}
	if !src.closed {
		t.Error("source not closed")
	}
}

func TestController_WriteErrorContinues(t *testing.T) {
	src := &fakeSource{batch: glove.Batch{{30, 30, 30, 30, 30, 30}}}
	sink := &fakeSink{err: errors.New("no response")}
	ctrl, _ := NewController(Config{Source: src, Sink: sink, Mapper: testMapper()})
	sink.onWrite = func(n int) {
		if n == 3 {
			ctrl.Stop()
		}
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := ctrl.Stats(); got.Steps != 3 || got.WriteErrors != 3 {
		t.Errorf("Stats = %+v, want 3 steps and 3 write errors", got)
	}
}

func TestController_HaltOnWriteError(t *testing.T) {
	writeErr := errors.New("no response")
	src := &fakeSource{batch: glove.Batch{{30, 30, 30, 30, 30, 30}}}
	sink := &fakeSink{err: writeErr}
	ctrl, _ := NewController(Config{Source: src, Sink: sink, Mapper: testMapper(), HaltOnWriteError: true})

	err := ctrl.Run(context.Background())
	if !errors.Is(err, writeErr) {
		t.Fatalf("Run error = %v, want %v", err, writeErr)
	}
	if len(sink.written) != 1 {
		t.Errorf("wrote %d times, want 1", len(sink.written))
	}
	if !src.closed {
		t.Error("source not closed after fatal write error")
	}
}

func TestController_SourceError(t *testing.T) {
	src := &fakeSource{err: glove.ErrClosed}
	ctrl, _ := NewController(Config{Source: src, Sink: &fakeSink{}, Mapper: testMapper()})

	if err := ctrl.Run(context.Background()); !errors.Is(err, glove.ErrClosed) {
		t.Fatalf("Run error = %v, want ErrClosed", err)
	}
}

func TestController_SkipsShortBatch(t *testing.T) {
	src := &fakeSource{batch: glove.Batch{{30, 30}}}
	sink := &fakeSink{}
	ctrl, _ := NewController(Config{Source: src, Sink: sink, Mapper: testMapper()})
	src.onRead = func(n int) {
		if n == 3 {
			ctrl.Stop()
		}
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.written) != 0 {
		t.Errorf("short batches reached the hand %d times", len(sink.written))
	}
	if got := ctrl.Stats(); got.Steps != 0 {
		t.Errorf("Steps = %d, want 0", got.Steps)
	}

	state := <-ctrl.States()
	if !errors.Is(state.Error, glove.ErrShortVector) {
		t.Errorf("state error = %v, want ErrShortVector", state.Error)
	}
}

func TestController_ContextCanceled(t *testing.T) {
	src := &fakeSource{batch: glove.Batch{{30, 30, 30, 30, 30, 30}}}
	ctrl, _ := NewController(Config{Source: src, Sink: &fakeSink{}, Mapper: testMapper()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ctrl.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestNewController_Validation(t *testing.T) {
	if _, err := NewController(Config{Sink: &fakeSink{}, Mapper: testMapper()}); err == nil {
		t.Error("missing source should fail")
	}
	if _, err := NewController(Config{Source: &fakeSource{}, Mapper: testMapper()}); err == nil {
		t.Error("missing sink should fail")
	}
	if _, err := NewController(Config{Source: &fakeSource{}, Sink: &fakeSink{}}); err == nil {
		t.Error("missing mapper should fail")
	}
}
