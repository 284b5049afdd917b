package source

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	perrors "github.com/pkg/errors"

	playerrors "github.com/avelko/driftfm/pkg/errors"
)

// Entry is one line from a track list: a path relative to the list base (or
// a full URL), optionally with a custom display name.
type Entry struct {
	Path    string
	Display string
}

// List is a parsed track list. The format is line-oriented: the first
// non-empty line is the base URL, every following line a track path. A line
// may carry a custom display name after a "!" separator.
type List struct {
	Name    string
	base    string
	entries []Entry
}

// Base returns the URL prefix prepended to relative track paths.
func (l *List) Base() string {
	return l.base
}

// Len returns the number of track entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Random returns a uniformly random entry.
func (l *List) Random(rng *rand.Rand) Entry {
	return l.entries[rng.Intn(len(l.entries))]
}

// Parse builds a List from raw list text.
func Parse(name, text string) (*List, error) {
	list := &List{Name: name}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if list.base == "" {
			list.base = line
			continue
		}

		// path!Display Name!ArtURL, trailing fields optional
		parts := strings.SplitN(line, "!", 3)
		entry := Entry{Path: parts[0]}
		if len(parts) > 1 {
			entry.Display = parts[1]
		}
		list.entries = append(list.entries, entry)
	}

	if len(list.entries) == 0 {
		return nil, playerrors.ErrEmptyList
	}

	return list, nil
}

// Load reads and parses a track list file. An empty path yields the
// embedded default list.
func Load(path string) (*List, error) {
	if path == "" {
		return Parse("lofi", defaultList)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.Wrap(err, "read track list")
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, string(data))
}
