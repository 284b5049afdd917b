package player

import (
	"context"
	"time"

	"github.com/avelko/driftfm/internal/source"
	playerrors "github.com/avelko/driftfm/pkg/errors"
)

// Fetcher is the background worker that keeps the track buffer full. It
// sits idle until notified, then fetches sequentially until the buffer hits
// capacity. It has no terminal error state; shutdown is the only way out.
type Fetcher struct {
	buffer   *TrackBuffer
	source   source.Source
	progress *Progress
	backoff  time.Duration
	notify   chan struct{}
}

// NewFetcher wires a fetcher to its buffer and source.
func NewFetcher(buffer *TrackBuffer, src source.Source, progress *Progress, backoff time.Duration) *Fetcher {
	return &Fetcher{
		buffer:   buffer,
		source:   src,
		progress: progress,
		backoff:  backoff,
		// Capacity 1: notifications arriving mid-fill coalesce into at
		// most one further refill cycle.
		notify: make(chan struct{}, 1),
	}
}

// Notify wakes the fetcher. Never blocks; redundant notifications are
// dropped.
func (f *Fetcher) Notify() {
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Run consumes notifications until ctx is cancelled.
func (f *Fetcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.notify:
		}
		f.fill(ctx)
	}
}

// fill fetches tracks until the buffer is full. Timeouts already spent
// their wall-clock waiting, so they retry immediately; any other failure
// sleeps the fixed backoff first.
func (f *Fetcher) fill(ctx context.Context) {
	for f.buffer.Len() < f.buffer.Cap() {
		if ctx.Err() != nil {
			return
		}

		track, err := f.source.Random(ctx, f.progress)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.progress.Reset()
			if !playerrors.IsTimeout(err) {
				if !sleep(ctx, f.backoff) {
					return
				}
			}
			continue
		}

		if f.buffer.Push(track) != nil {
			return
		}
	}
}

// sleep waits for d, or returns false early if ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
