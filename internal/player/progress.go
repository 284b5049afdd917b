package player

import (
	"math"
	"sync/atomic"
)

// Progress is the shared download progress, a single value in [0, 1].
// Written by whichever fetch is currently reporting, read by observers at
// any time. Advisory only; no ordering guarantee against the track slot.
type Progress struct {
	bits atomic.Uint32
}

// Set stores a new fraction, clamped to [0, 1].
func (p *Progress) Set(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.bits.Store(math.Float32bits(float32(v)))
}

// Get returns the last stored fraction.
func (p *Progress) Get() float64 {
	return float64(math.Float32frombits(p.bits.Load()))
}

// Reset zeroes the progress, marking the start of a new attempt.
func (p *Progress) Reset() {
	p.bits.Store(0)
}
