package audio

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
)

// The speaker runs at a fixed rate; tracks with other rates are resampled.
const outputSampleRate = beep.SampleRate(44100)

// Output owns the process-wide audio device. Exactly one instance exists;
// only the player's orchestrator mutates it.
type Output struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	mixer      *beep.Mixer
	volume     *effects.Volume
	ctrl       *beep.Ctrl
	streamer   beep.StreamSeekCloser
	streamRate beep.SampleRate
	level      float64
	paused     bool
}

// NewOutput initializes the speaker and begins playing silence.
func NewOutput() (*Output, error) {
	sr := outputSampleRate
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, err
	}

	mixer := &beep.Mixer{}
	volume := &effects.Volume{
		Streamer: mixer,
		Base:     2,
		Volume:   1, // level 1.0 on the level*2-1 scale
		Silent:   false,
	}
	speaker.Play(volume)

	return &Output{
		sampleRate: sr,
		mixer:      mixer,
		volume:     volume,
		level:      1,
	}, nil
}

// Append replaces whatever is playing with the given streamer. onDone fires
// once the streamer is drained; it never fires for streamers removed by
// Stop or a later Append.
func (o *Output) Append(streamer beep.StreamSeekCloser, format beep.Format, onDone func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var stream beep.Streamer = streamer
	if format.SampleRate != o.sampleRate {
		stream = beep.Resample(4, format.SampleRate, o.sampleRate, streamer)
	}

	ctrl := &beep.Ctrl{Streamer: stream, Paused: o.paused}

	speaker.Lock()
	o.mixer.Clear()
	o.mixer.Add(beep.Seq(ctrl, beep.Callback(onDone)))
	speaker.Unlock()

	if o.streamer != nil {
		o.streamer.Close()
	}
	o.streamer = streamer
	o.streamRate = format.SampleRate
	o.ctrl = ctrl
}

// Stop removes the current streamer. Safe to call when nothing is playing.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	speaker.Lock()
	o.mixer.Clear()
	speaker.Unlock()

	if o.streamer != nil {
		o.streamer.Close()
		o.streamer = nil
	}
	o.ctrl = nil
}

// SetPaused pauses or resumes playback. The flag survives track changes.
func (o *Output) SetPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	speaker.Lock()
	if o.ctrl != nil {
		o.ctrl.Paused = paused
	}
	speaker.Unlock()
	o.paused = paused
}

// IsPaused reports whether playback is paused.
func (o *Output) IsPaused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// SetVolume sets the playback level, clamped to [0, 1].
func (o *Output) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	speaker.Lock()
	o.volume.Volume = level*2 - 1
	o.volume.Silent = level == 0
	speaker.Unlock()
	o.level = level
}

// Volume returns the current playback level in [0, 1].
func (o *Output) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// Position returns how far into the current track playback has advanced.
func (o *Output) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		return 0
	}

	speaker.Lock()
	pos := o.streamer.Position()
	speaker.Unlock()

	return o.streamRate.D(pos)
}
