package playback

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/pixelcourt/pixelcourt/internal/narration"
)

// Fetcher acquires narration assets with two guarantees: concurrent requests
// for the same step share one result (singleflight), and at most one
// synthesis call is outstanding across the whole client at any time
// (serialized by fetchMu). Completed assets are cached per step index for
// the session's lifetime.
type Fetcher struct {
	narrator narration.Narrator
	logger   *logrus.Logger

	group   singleflight.Group
	fetchMu sync.Mutex // serializes the actual synthesis calls

	cacheMu sync.Mutex
	cache   map[int]*narration.Asset
}

// NewFetcher creates a fetcher on top of the given narrator.
func NewFetcher(narrator narration.Narrator, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		narrator: narrator,
		logger:   logger,
		cache:    make(map[int]*narration.Asset),
	}
}

// Get returns the narration asset for a step, fetching it if necessary.
// Repeats for a cached index are free.
func (f *Fetcher) Get(ctx context.Context, index int, step *Step) (*narration.Asset, error) {
	f.cacheMu.Lock()
	if asset, ok := f.cache[index]; ok {
		f.cacheMu.Unlock()
		return asset, nil
	}
	f.cacheMu.Unlock()

	result, err, _ := f.group.Do(strconv.Itoa(index), func() (interface{}, error) {
		// Re-check under the flight: another caller may have completed
		// the fetch while we queued on fetchMu.
		f.cacheMu.Lock()
		if asset, ok := f.cache[index]; ok {
			f.cacheMu.Unlock()
			return asset, nil
		}
		f.cacheMu.Unlock()

		f.fetchMu.Lock()
		defer f.fetchMu.Unlock()

		asset, err := f.narrator.Synthesize(ctx, step.Text, step.Speaker)
		if err != nil {
			return nil, fmt.Errorf("narration for step %d: %w", index, err)
		}

		f.cacheMu.Lock()
		f.cache[index] = asset
		f.cacheMu.Unlock()

		f.logger.WithFields(logrus.Fields{
			"step":       index,
			"words":      len(asset.Timestamps),
			"audio_size": len(asset.Audio),
		}).Debug("Narration acquired")
		return asset, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*narration.Asset), nil
}

// Cached reports whether an asset for the index is already available.
func (f *Fetcher) Cached(index int) bool {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()
	_, ok := f.cache[index]
	return ok
}

// Reset releases every cached asset. Called on session reset.
func (f *Fetcher) Reset() {
	f.cacheMu.Lock()
	defer f.cacheMu.Unlock()
	for _, asset := range f.cache {
		asset.Release()
	}
	f.cache = make(map[int]*narration.Asset)
}
