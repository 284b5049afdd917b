package state

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	perrors "github.com/pkg/errors"
)

// bookmarkHeader keeps the file valid as a track list without a base URL.
const bookmarkHeader = "noheader"

// Bookmarks manages the bookmarked-tracks file. Entries use the track-list
// line format, `path!Display Name`, one per line under a "noheader" first
// line, so a bookmarks file is itself playable as a track list.
type Bookmarks struct {
	path    string
	mu      sync.Mutex
	entries []string
}

// LoadBookmarks reads the bookmarks file at path. A missing file yields an
// empty set.
func LoadBookmarks(path string) (*Bookmarks, error) {
	b := &Bookmarks{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, perrors.Wrap(err, "read bookmarks")
	}

	text := strings.TrimPrefix(string(data), bookmarkHeader)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			b.entries = append(b.entries, line)
		}
	}

	return b, nil
}

// Toggle adds the track if absent, removes it if present, and saves.
// Returns whether the track is now bookmarked.
func (b *Bookmarks) Toggle(id, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := id + "!" + name
	idx := -1
	for i, e := range b.entries {
		if e == entry {
			idx = i
			break
		}
	}

	if idx >= 0 {
		b.entries = append(b.entries[:idx], b.entries[idx+1:]...)
	} else {
		b.entries = append(b.entries, entry)
	}

	if err := b.save(); err != nil {
		return false, err
	}
	return idx < 0, nil
}

// Contains reports whether the track is bookmarked.
func (b *Bookmarks) Contains(id, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := id + "!" + name
	for _, e := range b.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// Save writes the bookmarks file.
func (b *Bookmarks) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.save()
}

func (b *Bookmarks) save() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return perrors.Wrap(err, "create data directory")
	}

	text := bookmarkHeader + "\n" + strings.Join(b.entries, "\n") + "\n"
	if err := os.WriteFile(b.path, []byte(text), 0644); err != nil {
		return perrors.Wrap(err, "write bookmarks")
	}
	return nil
}
