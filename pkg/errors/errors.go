package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrEmptyList     = errors.New("track list has no entries")
	ErrBufferFull    = errors.New("track buffer is full")
	ErrUnknownLength = errors.New("response has no content length")
	ErrInvalidVolume = errors.New("volume must be between 0.0 and 1.0")
	ErrLoopClosed    = errors.New("control channel closed")
)

// FetchKind classifies a failed fetch so the retry policy never has to
// inspect error strings or unwrap provider-specific causes.
type FetchKind int

const (
	// KindTimeout means the request-level deadline expired. The caller
	// already waited, so no additional backoff is applied.
	KindTimeout FetchKind = iota
	// KindRateLimited means the source gave up after its own 429 retries.
	KindRateLimited
	// KindNotFound means the track path no longer exists at the source.
	KindNotFound
	// KindDecode means the bytes arrived but could not be decoded.
	KindDecode
	// KindOther covers transient transport and IO failures.
	KindOther
)

func (k FetchKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate limited"
	case KindNotFound:
		return "not found"
	case KindDecode:
		return "decode"
	default:
		return "other"
	}
}

// FetchError wraps a failed fetch or decode attempt with its classification
// and the track path that caused it.
type FetchError struct {
	Kind  FetchKind
	Track string
	Err   error
}

func (e *FetchError) Error() string {
	if e.Track != "" {
		return fmt.Sprintf("fetch %s: %s: %v", e.Track, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch: %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the attempt failed by exceeding its deadline.
func (e *FetchError) Timeout() bool {
	return e.Kind == KindTimeout
}

// NewFetchError creates a new FetchError
func NewFetchError(kind FetchKind, track string, err error) *FetchError {
	return &FetchError{Kind: kind, Track: track, Err: err}
}

// IsTimeout reports whether err is a FetchError classified as a timeout.
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Timeout()
}

// KindOf returns the classification of err, or KindOther if err is not a
// FetchError.
func KindOf(err error) FetchKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindOther
}
