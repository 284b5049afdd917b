package source

import (
	"context"

	"github.com/avelko/driftfm/api"
)

// ProgressSink receives download progress as a fraction in [0, 1]. Updates
// are advisory; implementations must never block the writer.
type ProgressSink interface {
	Set(v float64)
}

// Source produces one randomly selected track per call. Calls are stateless
// and independent, so the fetch worker and the playback path may call it
// concurrently. progress may be nil.
type Source interface {
	Random(ctx context.Context, progress ProgressSink) (api.Track, error)
}
