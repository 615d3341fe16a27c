package scanner

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juho05/log"

	"github.com/juho05/melodeon/audiotags"
	"github.com/juho05/melodeon/cache"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/ffmpeg"
)

var (
	ErrMediaDirNotFound   = errors.New("music directory not found")
	ErrReplayGainDisabled = errors.New("replay gain computation is disabled")
)

func init() {
	mime.AddExtensionType(".aac", "audio/aac")
	mime.AddExtensionType(".m4a", "audio/mp4")
	mime.AddExtensionType(".mp3", "audio/mpeg")
	mime.AddExtensionType(".oga", "audio/ogg")
	mime.AddExtensionType(".ogg", "audio/ogg")
	mime.AddExtensionType(".opus", "audio/opus")
	mime.AddExtensionType(".wav", "audio/wav")
	mime.AddExtensionType(".flac", "audio/flac")
}

// TagReader reads and writes the tags of audio files. audiotags.Reader implements it.
type TagReader interface {
	Read(path string) (*audiotags.Metadata, error)
	ReadReplayGain(path string) (audiotags.ReplayGain, error)
	WriteReplayGain(path string, rg audiotags.ReplayGain) error
}

// LoudnessAnalyzer measures the loudness of audio files. *ffmpeg.Analyzer implements it.
type LoudnessAnalyzer interface {
	Analyze(ctx context.Context, path string) (ffmpeg.Loudness, error)
}

type Options struct {
	MusicDir string
	Store    cache.Store
	Tags     TagReader
	// Loudness is optional. Missing replay gain values are only computed if it is set.
	Loudness         LoudnessAnalyzer
	ScanHidden       bool
	Workers          int
	CoverArtPriority []string
}

type Scanner struct {
	// lock is held during scans and catalog mutations.
	lock     sync.Mutex
	musicDir string

	store    cache.Store
	tags     TagReader
	loudness LoudnessAnalyzer

	scanHidden       bool
	workers          int
	coverArtPriority []string

	snapshot atomic.Pointer[catalog.Snapshot]
	// records is the cache of the current snapshot, guarded by lock.
	records *cache.Snapshot

	firstScanOnce sync.Once
	firstScanDone chan struct{}
	firstScanErr  error

	scanning  atomic.Bool
	processed atomic.Int64
	total     atomic.Int64
	scanStart atomic.Int64
	lastErr   atomic.Pointer[error]

	now func() time.Time
}

func New(options Options) (*Scanner, error) {
	musicDir, err := filepath.Abs(options.MusicDir)
	if err != nil {
		return nil, fmt.Errorf("new scanner: %w", err)
	}
	if options.Store == nil || options.Tags == nil {
		return nil, errors.New("new scanner: store and tag reader are required")
	}
	workers := options.Workers
	if workers < 1 {
		workers = 1
	}
	s := &Scanner{
		musicDir:         filepath.Clean(musicDir),
		store:            options.Store,
		tags:             options.Tags,
		loudness:         options.Loudness,
		scanHidden:       options.ScanHidden,
		workers:          workers,
		coverArtPriority: options.CoverArtPriority,
		firstScanDone:    make(chan struct{}),
		now:              time.Now,
	}
	s.snapshot.Store(catalog.Empty())
	return s, nil
}

func (s *Scanner) MusicDir() string {
	return s.musicDir
}

// Catalog returns the current snapshot. It never blocks.
func (s *Scanner) Catalog() *catalog.Snapshot {
	return s.snapshot.Load()
}

// WaitForFirstScan blocks until the first scan of the process finished and returns its error.
func (s *Scanner) WaitForFirstScan(ctx context.Context) error {
	select {
	case <-s.firstScanDone:
		return s.firstScanErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scanner) firstScanFinished(err error) {
	s.firstScanOnce.Do(func() {
		s.firstScanErr = err
		close(s.firstScanDone)
	})
}

// SkipFirstScan releases WaitForFirstScan callers without scanning.
func (s *Scanner) SkipFirstScan() {
	s.firstScanFinished(nil)
}

// LoadCache publishes a snapshot built from the persisted cache without touching the music directory.
func (s *Scanner) LoadCache(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	records, err := s.loadRecords(ctx)
	if err != nil {
		return err
	}
	if records == nil {
		return cache.ErrNotFound
	}
	s.snapshot.Store(snapshotFromRecords(s.musicDir, records))
	return nil
}

func (s *Scanner) loadRecords(ctx context.Context) (*cache.Snapshot, error) {
	if s.records != nil {
		return s.records, nil
	}
	records, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			log.Tracef("no usable scan cache found")
			return nil, nil
		}
		return nil, fmt.Errorf("load scan cache: %w", err)
	}
	s.records = records
	return records, nil
}

// saveRecords must be called with lock held.
func (s *Scanner) saveRecords(ctx context.Context, records *cache.Snapshot) {
	s.records = records
	err := s.store.Save(ctx, records)
	if err != nil {
		log.Errorf("save scan cache: %s", err)
	}
}
