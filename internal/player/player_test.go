package player

import (
	"context"
	"testing"
	"time"

	"github.com/avelko/driftfm/api"
)

func TestPlayer_FirstTrackDirectFetch(t *testing.T) {
	// Buffer empty, N=3: the first request exposes a loading state, then
	// plays, then the fetcher refills the buffer.
	src := &fakeSource{fn: okTrack, gate: make(chan struct{})}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 3, time.Second)

	loading := p.Bus().Subscribe(api.EventLoading)

	p.Send(api.Message{Type: api.MsgInit})

	waitFor(t, time.Second, func() bool {
		return p.Current().State == api.StateLoading
	}, "loading state")

	select {
	case <-loading:
	case <-time.After(time.Second):
		t.Fatal("no loading event published")
	}

	src.gate <- struct{}{} // release the direct fetch

	waitFor(t, time.Second, func() bool {
		return p.Current().State == api.StatePlaying
	}, "playing state")

	if info := p.Current().Info; info == nil || info.ID != "tracks/1.mp3" {
		t.Errorf("Unexpected now playing info: %+v", p.Current().Info)
	}
	if sink.appendCount() != 1 {
		t.Errorf("Expected 1 sink append, got %d", sink.appendCount())
	}

	// Release the refill fetches triggered by the success
	go func() {
		for i := 0; i < 3; i++ {
			src.gate <- struct{}{}
		}
	}()

	waitFor(t, time.Second, func() bool { return p.Buffered() == 3 }, "buffer refill")
}

func TestPlayer_PopSkipsLoadingState(t *testing.T) {
	// Buffer pre-seeded: a skip pops synchronously and no loading state
	// is ever observed.
	src := &fakeSource{fn: okTrack}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 5, time.Second)

	loading := p.Bus().Subscribe(api.EventLoading)

	p.buffer.Push(api.Track{ID: "seeded/a.mp3", Name: "A", Data: []byte("ok")})
	p.buffer.Push(api.Track{ID: "seeded/b.mp3", Name: "B", Data: []byte("ok")})

	p.Send(api.Message{Type: api.MsgNext})

	waitFor(t, time.Second, func() bool {
		return p.Current().State == api.StatePlaying
	}, "playing state")

	if info := p.Current().Info; info == nil || info.ID != "seeded/a.mp3" {
		t.Errorf("Expected the seeded track to play, got %+v", p.Current().Info)
	}

	select {
	case <-loading:
		t.Error("Loading state observed although the buffer had tracks")
	default:
	}

	// The pop opened a slot, so a refill brings the buffer back up
	waitFor(t, time.Second, func() bool { return p.Buffered() == 5 }, "buffer refill")
}

func TestPlayer_TransientRetriesWithBackoff(t *testing.T) {
	// Three transient failures, then success: retried with the backoff
	// spacing and no user intervention.
	const backoff = 50 * time.Millisecond

	src := &fakeSource{fn: func(n int) (api.Track, error) {
		if n <= 3 {
			return transientErr(n)
		}
		return okTrack(n)
	}}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 1, backoff)

	failed := p.Bus().Subscribe(api.EventFetchFailed)

	p.Send(api.Message{Type: api.MsgInit})

	waitFor(t, 2*time.Second, func() bool {
		return p.Current().State == api.StatePlaying
	}, "playing state after retries")

	times := src.callTimes()
	if len(times) < 4 {
		t.Fatalf("Expected at least 4 fetch attempts, got %d", len(times))
	}
	for i := 1; i < 4; i++ {
		if gap := times[i].Sub(times[i-1]); gap < backoff-5*time.Millisecond {
			t.Errorf("Attempt %d followed after %v; expected at least the backoff", i+1, gap)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-failed:
		case <-time.After(time.Second):
			t.Fatalf("Expected 3 failure events, got %d", i)
		}
	}
}

func TestPlayer_TimeoutRetriesImmediately(t *testing.T) {
	src := &fakeSource{fn: func(n int) (api.Track, error) {
		if n == 1 {
			return timeoutErr(n)
		}
		return okTrack(n)
	}}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 1, 500*time.Millisecond)

	p.Send(api.Message{Type: api.MsgInit})

	waitFor(t, time.Second, func() bool {
		return p.Current().State == api.StatePlaying
	}, "playing state")

	times := src.callTimes()
	if len(times) < 2 {
		t.Fatalf("Expected at least 2 attempts, got %d", len(times))
	}
	if gap := times[1].Sub(times[0]); gap >= 400*time.Millisecond {
		t.Errorf("Timeout failure waited %v; expected retry without backoff", gap)
	}
}

func TestPlayer_CoalescesSkipsInFlight(t *testing.T) {
	// Two skips land while a fetch is in flight: exactly one more track
	// change runs afterwards, not two.
	src := &fakeSource{fn: okTrack, gate: make(chan struct{}, 16)}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 1, time.Second)

	p.Send(api.Message{Type: api.MsgInit})
	waitFor(t, time.Second, func() bool { return src.callCount() == 1 }, "fetch in flight")

	p.Send(api.Message{Type: api.MsgNext})
	p.Send(api.Message{Type: api.MsgNext})

	// Unblock every fetch from here on
	for i := 0; i < 16; i++ {
		src.gate <- struct{}{}
	}

	waitFor(t, time.Second, func() bool { return sink.appendCount() == 2 }, "second transition")

	// Settle: no stale third transition may appear
	time.Sleep(50 * time.Millisecond)
	if n := sink.appendCount(); n != 2 {
		t.Errorf("Expected exactly 2 sink appends, got %d", n)
	}
}

func TestPlayer_AutoplayOnTrackEnd(t *testing.T) {
	src := &fakeSource{fn: okTrack}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 1, time.Second)

	p.Send(api.Message{Type: api.MsgInit})
	waitFor(t, time.Second, func() bool { return sink.appendCount() == 1 }, "first track")

	sink.finish()

	waitFor(t, time.Second, func() bool { return sink.appendCount() == 2 }, "autoplay transition")
}

func TestPlayer_DecodeFailureDiscardsBytes(t *testing.T) {
	src := &fakeSource{fn: func(n int) (api.Track, error) {
		if n == 1 {
			return api.Track{ID: "broken.mp3", Name: "Broken", Data: []byte("bad")}, nil
		}
		return okTrack(n)
	}}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 1, 10*time.Millisecond)

	p.Send(api.Message{Type: api.MsgInit})

	waitFor(t, time.Second, func() bool {
		now := p.Current()
		return now.State == api.StatePlaying && now.Info != nil && now.Info.ID != "broken.mp3"
	}, "playing a fresh track after decode failure")

	if src.callCount() < 2 {
		t.Errorf("Expected a fresh fetch after decode failure, got %d calls", src.callCount())
	}
}

func TestPlayer_PauseAndVolume(t *testing.T) {
	src := &fakeSource{fn: okTrack}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 1, time.Second)

	states := p.Bus().Subscribe(api.EventStateChange)

	p.Send(api.Message{Type: api.MsgPlayPause})
	waitFor(t, time.Second, sink.IsPaused, "paused")

	p.Send(api.Message{Type: api.MsgPlayPause})
	waitFor(t, time.Second, func() bool { return !sink.IsPaused() }, "unpaused")

	p.Send(api.Message{Type: api.MsgChangeVolume, Volume: -0.3})
	waitFor(t, time.Second, func() bool { return sink.Volume() == 0.7 }, "volume lowered")

	p.Send(api.Message{Type: api.MsgChangeVolume, Volume: 0.9})
	waitFor(t, time.Second, func() bool { return sink.Volume() == 1 }, "volume clamped")

	select {
	case ev := <-states:
		if _, ok := ev.Payload.(api.SinkState); !ok {
			t.Errorf("Unexpected state change payload %T", ev.Payload)
		}
	case <-time.After(time.Second):
		t.Error("No state change event published")
	}
}

func TestPlayer_Bookmark(t *testing.T) {
	src := &fakeSource{fn: okTrack}
	sink := newFakeSink()
	marks := &fakeBookmarker{}

	p := New(Options{
		Source:     src,
		Sink:       sink,
		Decoder:    fakeDecoder,
		Bookmarks:  marks,
		BufferSize: 1,
		Backoff:    time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	booked := p.Bus().Subscribe(api.EventBookmarked)

	// Bookmarking with nothing playing is a no-op
	p.Send(api.Message{Type: api.MsgBookmark})

	p.Send(api.Message{Type: api.MsgInit})
	waitFor(t, time.Second, func() bool {
		return p.Current().State == api.StatePlaying
	}, "playing state")

	p.Send(api.Message{Type: api.MsgBookmark})

	select {
	case ev := <-booked:
		change, ok := ev.Payload.(api.BookmarkChange)
		if !ok {
			t.Fatalf("Unexpected payload %T", ev.Payload)
		}
		if !change.Bookmarked {
			t.Error("Expected track to be bookmarked")
		}
		if change.Info.ID != "tracks/1.mp3" {
			t.Errorf("Bookmarked wrong track: %s", change.Info.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("No bookmark event published")
	}

	marks.mu.Lock()
	defer marks.mu.Unlock()
	if len(marks.toggled) != 1 {
		t.Errorf("Expected exactly 1 toggle, got %d", len(marks.toggled))
	}
}

func TestPlayer_QuitStopsLoop(t *testing.T) {
	src := &fakeSource{fn: okTrack}
	p := New(Options{
		Source:     src,
		Sink:       newFakeSink(),
		Decoder:    fakeDecoder,
		BufferSize: 1,
	})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	p.Send(api.Message{Type: api.MsgQuit})

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error on quit: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after quit")
	}
}

func TestPlayer_SustainedFailureKeepsLoading(t *testing.T) {
	// The player never gives up: under permanent failure it stays in the
	// loading state with progress reset, not an error state.
	src := &fakeSource{fn: transientErr}
	sink := newFakeSink()
	p := startPlayer(t, src, sink, 1, 5*time.Millisecond)

	p.Send(api.Message{Type: api.MsgInit})

	waitFor(t, time.Second, func() bool { return src.callCount() >= 4 }, "several attempts")

	if state := p.Current().State; state != api.StateLoading {
		t.Errorf("Expected loading state under sustained failure, got %v", state)
	}
	if sink.appendCount() != 0 {
		t.Error("Nothing should have been appended")
	}
}

func TestPlayer_QuitDuringRetryBackoff(t *testing.T) {
	// Quit must cancel a track change sleeping in its retry backoff rather
	// than wait it out before the workers can be joined.
	src := &fakeSource{fn: transientErr}
	p := New(Options{
		Source:     src,
		Sink:       newFakeSink(),
		Decoder:    fakeDecoder,
		BufferSize: 1,
		Backoff:    time.Minute,
	})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	p.Send(api.Message{Type: api.MsgInit})
	waitFor(t, time.Second, func() bool { return src.callCount() >= 1 }, "first attempt")

	p.Send(api.Message{Type: api.MsgQuit})

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error on quit: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return while a retry backoff was pending")
	}
}

func TestPlayer_QuitClosesBus(t *testing.T) {
	p := New(Options{
		Source:     &fakeSource{fn: okTrack},
		Sink:       newFakeSink(),
		Decoder:    fakeDecoder,
		BufferSize: 1,
	})

	events := p.Bus().SubscribeAll()

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	p.Send(api.Message{Type: api.MsgQuit})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit")
	}

	if _, ok := <-events; ok {
		t.Error("Subscription channel still open after shutdown")
	}
}
