package state

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	perrors "github.com/pkg/errors"
)

// Volume is persisted as an integer percentage so the file stays readable
// and hand-editable.

// LoadVolume reads the saved volume and returns it normalized to [0, 1].
// If the file does not exist, a default of 100% is written and returned.
func LoadVolume(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := SaveVolume(path, 1); err != nil {
				return 0, err
			}
			return 1, nil
		}
		return 0, perrors.Wrap(err, "read volume")
	}

	text := strings.TrimSuffix(strings.TrimSpace(string(data)), "%")
	percent, err := strconv.Atoi(text)
	if err != nil {
		return 0, perrors.Wrap(err, "parse volume")
	}

	v := float64(percent) / 100
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, nil
}

// SaveVolume writes the volume (0.0..1.0) as an integer percent.
func SaveVolume(path string, volume float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return perrors.Wrap(err, "create data directory")
	}

	percent := int(math.Round(math.Abs(volume) * 100))
	if err := os.WriteFile(path, []byte(strconv.Itoa(percent)), 0644); err != nil {
		return perrors.Wrap(err, "write volume")
	}
	return nil
}
