package scanner

import (
	"context"
	"fmt"
	"io"

	"github.com/juho05/log"

	"github.com/juho05/melodeon/audiotags"
	"github.com/juho05/melodeon/cache"
	"github.com/juho05/melodeon/config"
	"github.com/juho05/melodeon/ffmpeg"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewFromConfig creates a scanner with the cache backend, tag reader and loudness analyzer described by conf.
// The returned closer releases the cache backend.
func NewFromConfig(ctx context.Context, conf config.Config) (*Scanner, io.Closer, error) {
	var store cache.Store
	var closer io.Closer = nopCloser{}
	switch conf.CacheBackend {
	case config.CacheBackendRedis:
		redisStore, err := cache.NewRedisStore(ctx, conf.RedisURL, conf.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		store = redisStore
		closer = redisStore
	default:
		fileStore, err := cache.NewFileStore(conf.DataDir)
		if err != nil {
			return nil, nil, err
		}
		log.Tracef("using scan cache file %s", fileStore.Path())
		store = fileStore
	}

	var loudness LoudnessAnalyzer
	if conf.ComputeReplayGain {
		analyzer, err := ffmpeg.NewAnalyzer(conf.LoudnessConcurrency, conf.LoudnessTimeout)
		if err != nil {
			closer.Close()
			return nil, nil, fmt.Errorf("replay gain computation enabled: %w", err)
		}
		loudness = analyzer
	}

	s, err := New(Options{
		MusicDir:         conf.MusicDir,
		Store:            store,
		Tags:             audiotags.Reader{FallbackProber: ffmpeg.Probe},
		Loudness:         loudness,
		ScanHidden:       conf.ScanHidden,
		Workers:          conf.ScanWorkers,
		CoverArtPriority: conf.CoverArtPriority,
	})
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return s, closer, nil
}
