package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"

	"github.com/avelko/driftfm/api"
	"github.com/avelko/driftfm/internal/source"
	playerrors "github.com/avelko/driftfm/pkg/errors"
)

// fakeStreamer satisfies beep.StreamSeekCloser without touching audio.
type fakeStreamer struct{}

func (fakeStreamer) Stream(samples [][2]float64) (int, bool) { return 0, false }
func (fakeStreamer) Err() error                              { return nil }
func (fakeStreamer) Len() int                                { return 0 }
func (fakeStreamer) Position() int                           { return 0 }
func (fakeStreamer) Seek(p int) error                        { return nil }
func (fakeStreamer) Close() error                            { return nil }

// fakeDecoder accepts everything except data marked "bad".
func fakeDecoder(data []byte, name string) (beep.StreamSeekCloser, beep.Format, error) {
	if string(data) == "bad" {
		return nil, beep.Format{}, playerrors.NewFetchError(playerrors.KindDecode, name, fmt.Errorf("unreadable"))
	}
	return fakeStreamer{}, beep.Format{SampleRate: 44100}, nil
}

// fakeSource scripts Random by call index. When gate is non-nil every call
// blocks until a token is sent, so tests can hold a fetch in flight.
type fakeSource struct {
	mu    sync.Mutex
	calls []time.Time
	fn    func(n int) (api.Track, error)
	gate  chan struct{}
}

func (s *fakeSource) Random(ctx context.Context, progress source.ProgressSink) (api.Track, error) {
	s.mu.Lock()
	s.calls = append(s.calls, time.Now())
	n := len(s.calls)
	s.mu.Unlock()

	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return api.Track{}, playerrors.NewFetchError(playerrors.KindOther, "", ctx.Err())
		}
	}

	return s.fn(n)
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSource) callTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.calls...)
}

func okTrack(n int) (api.Track, error) {
	return api.Track{
		ID:   fmt.Sprintf("tracks/%d.mp3", n),
		Name: fmt.Sprintf("Track %d", n),
		Data: []byte("ok"),
	}, nil
}

func transientErr(n int) (api.Track, error) {
	return api.Track{}, playerrors.NewFetchError(playerrors.KindOther, "x", fmt.Errorf("boom %d", n))
}

func timeoutErr(n int) (api.Track, error) {
	return api.Track{}, playerrors.NewFetchError(playerrors.KindTimeout, "x", fmt.Errorf("deadline %d", n))
}

// fakeSink records sink mutations and lets tests fire the drain callback.
type fakeSink struct {
	mu      sync.Mutex
	appends int
	stops   int
	paused  bool
	volume  float64
	onDone  func()
}

func newFakeSink() *fakeSink {
	return &fakeSink{volume: 1}
}

func (s *fakeSink) Append(st beep.StreamSeekCloser, f beep.Format, onDone func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	s.onDone = onDone
}

func (s *fakeSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.onDone = nil
}

func (s *fakeSink) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *fakeSink) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *fakeSink) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = level
}

func (s *fakeSink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *fakeSink) Position() time.Duration { return 0 }

func (s *fakeSink) appendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}

// finish simulates the current track draining.
func (s *fakeSink) finish() {
	s.mu.Lock()
	done := s.onDone
	s.onDone = nil
	s.mu.Unlock()

	if done != nil {
		done()
	}
}

// fakeBookmarker records toggles in memory.
type fakeBookmarker struct {
	mu      sync.Mutex
	toggled []string
	on      map[string]bool
}

func (b *fakeBookmarker) Toggle(id, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.on == nil {
		b.on = make(map[string]bool)
	}
	b.toggled = append(b.toggled, id)
	b.on[id] = !b.on[id]
	return b.on[id], nil
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// startPlayer builds a player around the fakes and runs its control loop
// until the test ends.
func startPlayer(t *testing.T, src source.Source, sink Sink, bufferSize int, backoff time.Duration) *Player {
	t.Helper()

	p := New(Options{
		Source:     src,
		Sink:       sink,
		Decoder:    fakeDecoder,
		BufferSize: bufferSize,
		Backoff:    backoff,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("player did not shut down")
		}
	})

	return p
}
