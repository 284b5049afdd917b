package player

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"

	"github.com/avelko/driftfm/api"
	"github.com/avelko/driftfm/internal/audio"
	"github.com/avelko/driftfm/internal/source"
	playerrors "github.com/avelko/driftfm/pkg/errors"
	"github.com/avelko/driftfm/pkg/events"
)

// Sink is the audio output the player drives. Exactly one exists per
// process, and only the player mutates it.
type Sink interface {
	Append(streamer beep.StreamSeekCloser, format beep.Format, onDone func())
	Stop()
	SetPaused(paused bool)
	IsPaused() bool
	SetVolume(level float64)
	Volume() float64
	Position() time.Duration
}

// Decoder turns raw track bytes into a playable streamer.
type Decoder func(data []byte, name string) (beep.StreamSeekCloser, beep.Format, error)

// Bookmarker persists bookmark toggles, keyed by track path.
type Bookmarker interface {
	Toggle(id, name string) (bool, error)
}

// Options configures a Player. Source and Sink are required; everything
// else has a sensible default.
type Options struct {
	Source     source.Source
	Sink       Sink
	Decoder    Decoder
	Bookmarks  Bookmarker
	Bus        *events.Bus
	BufferSize int
	Backoff    time.Duration
}

// Player owns the "now playing" slot, the look-ahead buffer and the sink.
// All transitions are serialized through one control loop; observers read
// atomic snapshots and send messages, never touching state directly.
type Player struct {
	sink      Sink
	source    source.Source
	decode    Decoder
	bookmarks Bookmarker
	bus       *events.Bus
	buffer    *TrackBuffer
	fetcher   *Fetcher
	progress  *Progress
	backoff   time.Duration
	current   atomic.Pointer[api.NowPlaying]
	msgs      chan api.Message
}

// New creates a stopped player. Call Run to start the control loop.
func New(opts Options) *Player {
	if opts.Decoder == nil {
		opts.Decoder = audio.Decode
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 5
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}

	progress := &Progress{}
	buffer := NewTrackBuffer(opts.BufferSize)

	p := &Player{
		sink:      opts.Sink,
		source:    opts.Source,
		decode:    opts.Decoder,
		bookmarks: opts.Bookmarks,
		bus:       opts.Bus,
		buffer:    buffer,
		fetcher:   NewFetcher(buffer, opts.Source, progress, opts.Backoff),
		progress:  progress,
		backoff:   opts.Backoff,
		msgs:      make(chan api.Message, 8),
	}
	p.current.Store(&api.NowPlaying{State: api.StateEmpty})
	return p
}

// Send queues a message for the control loop. It never blocks; if the
// control channel is saturated the message is dropped, which for repeated
// keypresses is indistinguishable from coalescing.
func (p *Player) Send(msg api.Message) {
	select {
	case p.msgs <- msg:
	default:
	}
}

// Current returns an atomic snapshot of the now-playing slot.
func (p *Player) Current() api.NowPlaying {
	return *p.current.Load()
}

// DownloadProgress returns the shared fetch progress in [0, 1].
func (p *Player) DownloadProgress() float64 {
	return p.progress.Get()
}

// Buffered returns how many tracks are waiting in the look-ahead buffer.
func (p *Player) Buffered() int {
	return p.buffer.Len()
}

// Paused reports the sink pause state.
func (p *Player) Paused() bool {
	return p.sink.IsPaused()
}

// VolumeLevel returns the sink volume in [0, 1].
func (p *Player) VolumeLevel() float64 {
	return p.sink.Volume()
}

// Position returns the playback position within the current track.
func (p *Player) Position() time.Duration {
	return p.sink.Position()
}

// Bus returns the event bus observers subscribe to.
func (p *Player) Bus() *events.Bus {
	return p.bus
}

// Run is the control loop: the single consumer of the message stream,
// applying one transition at a time. It returns when ctx is cancelled or a
// quit message arrives, after joining the fetcher and any in-flight track
// change. The event bus is closed on return, so observers see their
// subscription channels close once the last event has been published.
func (p *Player) Run(ctx context.Context) error {
	// Deferred LIFO order matters: on return the workers must be cancelled
	// first, then joined, then the bus closed once nothing can publish.
	var wg sync.WaitGroup
	defer p.bus.Close()
	defer wg.Wait()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.fetcher.Run(runCtx)
	}()

	// busy: one advance sequence is in flight. queued: at most one more
	// has been requested behind it; extra skip intents collapse into it.
	busy := false
	queued := false

	spawn := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.advance(runCtx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-p.msgs:
			if !ok {
				return playerrors.ErrLoopClosed
			}

			switch msg.Type {
			case api.MsgInit, api.MsgNext:
				if busy {
					queued = true
					continue
				}
				busy = true
				spawn()

			case api.MsgLoaded:
				if queued {
					queued = false
					spawn() // busy stays true
					continue
				}
				busy = false

			case api.MsgTryAgain:
				// The retry produces a fresh track either way, so it
				// also serves any skip queued during the failure.
				queued = false
				spawn()

			case api.MsgPlay:
				p.sink.SetPaused(false)
				p.publishState()

			case api.MsgPause:
				p.sink.SetPaused(true)
				p.publishState()

			case api.MsgPlayPause:
				p.sink.SetPaused(!p.sink.IsPaused())
				p.publishState()

			case api.MsgChangeVolume:
				p.sink.SetVolume(p.sink.Volume() + msg.Volume)
				p.publishState()

			case api.MsgSetVolume:
				p.sink.SetVolume(msg.Volume)
				p.publishState()

			case api.MsgBookmark:
				p.toggleBookmark()

			case api.MsgQuit:
				return nil
			}
		}
	}
}

// advance performs one track transition: stop, obtain (buffer pop or
// direct fetch), decode, append, report. Runs off the control loop so the
// loop stays responsive; the loop guarantees at most one runs at a time.
func (p *Player) advance(ctx context.Context) {
	p.sink.Stop()

	track, ok := p.buffer.TryPop()
	if !ok {
		// Empty buffer: expose the load to the listener rather than wait
		// for the fetcher. This is the first-track path and the graceful
		// degradation under sustained starvation.
		p.setCurrent(api.NowPlaying{State: api.StateLoading})
		p.progress.Reset()
		p.bus.Publish(api.Event{Type: api.EventLoading})

		var err error
		track, err = p.source.Random(ctx, p.progress)
		if err != nil {
			p.fail(ctx, err)
			return
		}
	}

	streamer, format, err := p.decode(track.Data, track.ID)
	if err != nil {
		// Bad bytes are discarded, never retried.
		p.fail(ctx, err)
		return
	}

	info := &api.TrackInfo{
		ID:       track.ID,
		Name:     track.Name,
		Duration: audio.Duration(streamer, format),
	}

	p.sink.Append(streamer, format, func() {
		p.Send(api.Message{Type: api.MsgNext})
	})
	p.setCurrent(api.NowPlaying{State: api.StatePlaying, Info: info})
	p.fetcher.Notify()
	p.bus.Publish(api.Event{Type: api.EventTrackStarted, Payload: info})
	p.deliver(ctx, api.Message{Type: api.MsgLoaded})
}

// fail applies the retry policy for a failed fetch or decode and schedules
// another attempt. Errors caused by shutdown cancellation are swallowed.
func (p *Player) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}

	p.progress.Reset()
	p.bus.Publish(api.Event{Type: api.EventFetchFailed, Payload: err})

	if !playerrors.IsTimeout(err) {
		if !sleep(ctx, p.backoff) {
			return
		}
	}

	p.deliver(ctx, api.Message{Type: api.MsgTryAgain})
}

// deliver sends an internal outcome to the control loop, giving up only at
// shutdown. Outcomes, unlike intents, must not be dropped.
func (p *Player) deliver(ctx context.Context, msg api.Message) {
	select {
	case p.msgs <- msg:
	case <-ctx.Done():
	}
}

func (p *Player) setCurrent(now api.NowPlaying) {
	p.current.Store(&now)
}

func (p *Player) publishState() {
	p.bus.Publish(api.Event{Type: api.EventStateChange, Payload: api.SinkState{
		Paused: p.sink.IsPaused(),
		Volume: p.sink.Volume(),
	}})
}

func (p *Player) toggleBookmark() {
	if p.bookmarks == nil {
		return
	}

	now := p.Current()
	if now.State != api.StatePlaying || now.Info == nil {
		return
	}

	bookmarked, err := p.bookmarks.Toggle(now.Info.ID, now.Info.Name)
	if err != nil {
		log.Printf("bookmark toggle failed: %v", err)
		return
	}

	p.bus.Publish(api.Event{Type: api.EventBookmarked, Payload: api.BookmarkChange{
		Info:       now.Info,
		Bookmarked: bookmarked,
	}})
}
