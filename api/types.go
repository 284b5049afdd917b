package api

import "time"

// Track holds one fetched, not-yet-decoded track. The raw bytes are owned by
// whoever currently holds the value; they are handed off, never shared.
type Track struct {
	ID   string
	Name string
	Data []byte
}

// TrackInfo describes the track loaded into the sink. Duration is zero when
// the decoder could not determine it.
type TrackInfo struct {
	ID       string
	Name     string
	Duration time.Duration
}

// PlayState is the coarse state of the "now playing" slot.
type PlayState int

const (
	// StateEmpty means nothing has been requested yet.
	StateEmpty PlayState = iota
	// StateLoading means a fetch is in flight and the buffer was empty.
	StateLoading
	// StatePlaying means a decoded track has been appended to the sink.
	StatePlaying
)

// NowPlaying is an immutable snapshot of the current track slot. A new value
// is swapped in on every transition; readers never observe a partial update.
type NowPlaying struct {
	State PlayState
	Info  *TrackInfo
}

// MessageType identifies a control message.
type MessageType int

const (
	// MsgInit requests the very first track, with nothing to stop.
	MsgInit MessageType = iota
	// MsgNext skips to the next track.
	MsgNext
	// MsgLoaded reports that a requested track was fetched, decoded and
	// appended. Sent internally, never by a frontend.
	MsgLoaded
	// MsgTryAgain reports that fetching or decoding failed and the current
	// request should be retried. Sent internally.
	MsgTryAgain
	// MsgPlay unpauses the sink.
	MsgPlay
	// MsgPause pauses the sink.
	MsgPause
	// MsgPlayPause toggles the sink pause state.
	MsgPlayPause
	// MsgChangeVolume adjusts the volume by Volume (a delta).
	MsgChangeVolume
	// MsgSetVolume sets the volume to Volume.
	MsgSetVolume
	// MsgBookmark toggles a bookmark for the current track.
	MsgBookmark
	// MsgQuit shuts the player down.
	MsgQuit
)

// Message is one entry in the control loop's ordered stream. Both frontend
// intents and internal fetch outcomes travel through the same channel.
type Message struct {
	Type   MessageType
	Volume float64
}

// EventType identifies an observer event.
type EventType int

const (
	// EventTrackStarted fires when a track has been appended to the sink.
	EventTrackStarted EventType = iota
	// EventLoading fires when a direct fetch begins with an empty buffer.
	EventLoading
	// EventFetchFailed fires once per failed fetch or decode attempt.
	EventFetchFailed
	// EventStateChange fires on pause and volume transitions.
	EventStateChange
	// EventBookmarked fires when a bookmark is toggled.
	EventBookmarked
)

// Event is a read-only notification delivered to observers. Observers never
// mutate player state directly; they send Messages instead.
type Event struct {
	Type    EventType
	Payload any
}

// SinkState is the payload of EventStateChange.
type SinkState struct {
	Paused bool
	Volume float64
}

// BookmarkChange is the payload of EventBookmarked.
type BookmarkChange struct {
	Info       *TrackInfo
	Bookmarked bool
}
