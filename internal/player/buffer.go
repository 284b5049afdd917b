package player

import (
	"sync"

	"github.com/avelko/driftfm/api"
	playerrors "github.com/avelko/driftfm/pkg/errors"
)

// TrackBuffer is the bounded look-ahead queue of fetched, not-yet-decoded
// tracks. The fetcher pushes, the playback path pops; both under one lock,
// so the length invariant 0 <= len <= cap holds at every observable instant.
type TrackBuffer struct {
	mu       sync.Mutex
	tracks   []api.Track
	capacity int
}

// NewTrackBuffer creates an empty buffer with the given capacity.
func NewTrackBuffer(capacity int) *TrackBuffer {
	return &TrackBuffer{
		tracks:   make([]api.Track, 0, capacity),
		capacity: capacity,
	}
}

// TryPop removes and returns the oldest track. It never blocks; popping an
// empty buffer reports false.
func (b *TrackBuffer) TryPop() (api.Track, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.tracks) == 0 {
		return api.Track{}, false
	}

	track := b.tracks[0]
	b.tracks[0] = api.Track{} // release the byte slice
	b.tracks = b.tracks[1:]
	return track, true
}

// Push appends a track. The fetcher checks Len before fetching, so hitting
// the capacity here means a second writer snuck in.
func (b *TrackBuffer) Push(track api.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.tracks) >= b.capacity {
		return playerrors.ErrBufferFull
	}

	b.tracks = append(b.tracks, track)
	return nil
}

// Len returns the number of buffered tracks.
func (b *TrackBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tracks)
}

// Cap returns the buffer capacity.
func (b *TrackBuffer) Cap() int {
	return b.capacity
}
