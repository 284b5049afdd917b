package audio

import (
	"bytes"
	"path"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	playerrors "github.com/avelko/driftfm/pkg/errors"
)

// nopSeekCloser adapts an in-memory reader to the decoders' closer interfaces.
type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

// Decode decodes raw track bytes based on the track path's extension.
// Tracks without a recognized extension are treated as mp3, which is what
// lofi catalogs overwhelmingly serve. Failures are classified as decode
// errors so the retry policy discards the bytes and fetches a new track.
func Decode(data []byte, name string) (beep.StreamSeekCloser, beep.Format, error) {
	r := nopSeekCloser{bytes.NewReader(data)}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch strings.ToLower(path.Ext(name)) {
	case ".wav":
		streamer, format, err = wav.Decode(r)
	case ".flac":
		streamer, format, err = flac.Decode(r)
	default:
		streamer, format, err = mp3.Decode(r)
	}

	if err != nil {
		return nil, beep.Format{}, playerrors.NewFetchError(playerrors.KindDecode, name, err)
	}

	return streamer, format, nil
}

// Duration computes the total playing time of a decoded streamer, or zero
// if the length is unknown.
func Duration(streamer beep.StreamSeekCloser, format beep.Format) time.Duration {
	n := streamer.Len()
	if n <= 0 {
		return 0
	}
	return format.SampleRate.D(n)
}
