package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	perrors "github.com/pkg/errors"

	"github.com/avelko/driftfm/api"
	playerrors "github.com/avelko/driftfm/pkg/errors"
)

const (
	userAgent = "driftfm/0.1"

	// Rate-limit handling is a provider concern: a 429 is retried here,
	// inside the source, before a terminal error ever reaches the player.
	rateLimitRetries = 5
	rateLimitDelay   = 20 * time.Second

	readChunk = 32 * 1024
)

// Client fetches random tracks from a List over HTTP. It satisfies Source.
type Client struct {
	http    *http.Client
	list    *List
	rngMu   sync.Mutex
	rng     *rand.Rand
	rlDelay time.Duration
	rlTries int
}

// New creates a Client for the given list. timeout applies per request.
func New(list *List, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		list:    list,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		rlDelay: rateLimitDelay,
		rlTries: rateLimitRetries,
	}
}

// Random picks a random entry from the list and downloads it.
func (c *Client) Random(ctx context.Context, progress ProgressSink) (api.Track, error) {
	c.rngMu.Lock()
	entry := c.list.Random(c.rng)
	c.rngMu.Unlock()

	data, err := c.download(ctx, entry.Path, progress)
	if err != nil {
		return api.Track{}, err
	}

	name := entry.Display
	if name == "" {
		name = sniffName(data)
	}
	if name == "" {
		name = FormatName(entry.Path)
	}

	return api.Track{ID: entry.Path, Name: name, Data: data}, nil
}

// download fetches the raw bytes for a single track path.
func (c *Client) download(ctx context.Context, path string, progress ProgressSink) ([]byte, error) {
	full := path
	if !strings.Contains(full, "://") {
		full = c.list.Base() + full
	}

	if local, ok := strings.CutPrefix(full, "file://"); ok {
		return readLocal(path, local, progress)
	}

	for attempt := 0; ; attempt++ {
		data, retry, err := c.fetchOnce(ctx, path, full, progress)
		if err == nil {
			return data, nil
		}
		if !retry || attempt >= c.rlTries {
			return nil, err
		}
		// Provider asked us to back off; wait well clear of the limit.
		select {
		case <-ctx.Done():
			return nil, classify(path, ctx.Err())
		case <-time.After(c.rlDelay):
		}
	}
}

// fetchOnce performs a single HTTP attempt. retry is true only for
// rate-limit responses, which download retries with a long delay.
func (c *Client) fetchOnce(ctx context.Context, path, full string, progress ProgressSink) (data []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, false, playerrors.NewFetchError(playerrors.KindOther, path, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, classify(path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		err := perrors.Errorf("rate limited fetching %s", full)
		return nil, true, playerrors.NewFetchError(playerrors.KindRateLimited, path, err)
	case resp.StatusCode == http.StatusNotFound:
		err := perrors.Errorf("track not found at %s", full)
		return nil, false, playerrors.NewFetchError(playerrors.KindNotFound, path, err)
	case resp.StatusCode != http.StatusOK:
		err := perrors.Errorf("unexpected status %d from %s", resp.StatusCode, full)
		return nil, false, playerrors.NewFetchError(playerrors.KindOther, path, err)
	}

	data, err = readBody(resp.Body, resp.ContentLength, progress)
	if err != nil {
		return nil, false, classify(path, err)
	}

	return data, false, nil
}

// readBody reads the whole response, updating progress as bytes arrive.
// Progress stays monotone within one attempt because only the reader of a
// single body writes to it.
func readBody(body io.Reader, total int64, progress ProgressSink) ([]byte, error) {
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, readChunk)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if progress != nil && total > 0 {
				frac := float64(buf.Len()) / float64(total)
				progress.Set(min(frac, 1))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if progress != nil {
		progress.Set(1)
	}

	return buf.Bytes(), nil
}

// readLocal serves file:// entries straight from disk.
func readLocal(path, local string, progress ProgressSink) ([]byte, error) {
	data, err := os.ReadFile(local)
	if err != nil {
		kind := playerrors.KindOther
		if os.IsNotExist(err) {
			kind = playerrors.KindNotFound
		}
		return nil, playerrors.NewFetchError(kind, path, err)
	}

	if progress != nil {
		progress.Set(1)
	}
	return data, nil
}

// sniffName pulls a display name out of the audio metadata, if any.
func sniffName(data []byte) string {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil || m.Title() == "" {
		return ""
	}

	if artist := m.Artist(); artist != "" {
		return m.Title() + " by " + artist
	}
	return m.Title()
}

// classify wraps a transport error, marking deadline expiry as a timeout so
// the retry policy skips its backoff sleep.
func classify(path string, err error) *playerrors.FetchError {
	var ne net.Error
	if (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return playerrors.NewFetchError(playerrors.KindTimeout, path, err)
	}
	return playerrors.NewFetchError(playerrors.KindOther, path, err)
}
