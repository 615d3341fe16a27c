package scanner

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/juho05/log"

	"github.com/juho05/melodeon/audiotags"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/util"
)

const (
	gainTolerance = 0.01
	peakTolerance = 1e-6
)

// computeReplayGain measures the loudness of song, stores the track gain and peak in its tags and updates song.
// A mismatch between the written and the read back values is only logged.
func (s *Scanner) computeReplayGain(ctx context.Context, song *catalog.Song) (err error) {
	gain, peak := song.TrackGain, song.TrackPeak
	defer func() {
		if r := recover(); r != nil {
			song.TrackGain, song.TrackPeak = gain, peak
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	log.Tracef("computing replay gain of %s...", song.RelativePath)
	loudness, err := s.loudness.Analyze(ctx, song.Path)
	if err != nil {
		return err
	}
	rg := audiotags.ReplayGain{
		TrackGain: util.ToPtr(loudness.TrackGain()),
		TrackPeak: util.ToPtr(loudness.TrackPeak()),
		AlbumGain: song.AlbumGain,
		AlbumPeak: song.AlbumPeak,
	}
	song.TrackGain = rg.TrackGain
	song.TrackPeak = rg.TrackPeak

	err = s.tags.WriteReplayGain(song.Path, rg)
	if err != nil {
		return fmt.Errorf("write replay gain: %w", err)
	}

	written, err := s.tags.ReadReplayGain(song.Path)
	if err != nil {
		log.Errorf("replay gain of %s: read back: %s", song.RelativePath, err)
	} else if !floatEqual(written.TrackGain, rg.TrackGain, gainTolerance) || !floatEqual(written.TrackPeak, rg.TrackPeak, peakTolerance) {
		log.Errorf("replay gain of %s: read back mismatch: wrote gain %s peak %s, read gain %s peak %s",
			song.RelativePath, formatOptional(rg.TrackGain), formatOptional(rg.TrackPeak),
			formatOptional(written.TrackGain), formatOptional(written.TrackPeak))
	}

	// the write changed the file, the cache record has to describe the new version
	info, err := os.Stat(song.Path)
	if err == nil {
		song.Size = info.Size()
		song.LastModified = info.ModTime()
	}
	log.Tracef("replay gain of %s: %.2f dB, peak %.6f", song.RelativePath, *rg.TrackGain, *rg.TrackPeak)
	return nil
}

// floatEqual compares the read back value a with the written value b.
func floatEqual(a, b *float64, tolerance float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return math.Abs(*a-*b) <= tolerance+1e-9
}

func formatOptional(v *float64) string {
	if v == nil {
		return "<none>"
	}
	return fmt.Sprintf("%g", *v)
}

// RecomputeReplayGain measures the loudness of a single song again and updates its tags, catalog entry and
// cache record. The caller waits for running scans and mutations.
func (s *Scanner) RecomputeReplayGain(ctx context.Context, songID string) (*catalog.Song, error) {
	if s.loudness == nil {
		return nil, ErrReplayGainDisabled
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.Catalog().Song(songID)
	if err != nil {
		return nil, err
	}
	song := *current
	err = s.computeReplayGain(ctx, &song)
	if err != nil {
		return nil, fmt.Errorf("recompute replay gain: %w", err)
	}
	s.snapshot.Store(s.Catalog().WithSong(&song))
	s.saveRecords(ctx, withSongRecord(s.records, songRecord(&song)))
	return &song, nil
}
