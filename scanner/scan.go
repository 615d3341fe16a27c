package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/juho05/log"
	"golang.org/x/sync/errgroup"

	"github.com/juho05/melodeon/cache"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/playlists"
)

type mediaDir struct {
	audio           []string
	playlists       []string
	legacyPlaylists []string
	// images maps directories to the names of the image files they contain.
	images map[string][]string
}

// Scan scans the music directory and publishes the new catalog. If full is true the cache is ignored
// and every file is read again. If another scan or a catalog mutation is in progress, Scan returns nil
// immediately without scanning.
func (s *Scanner) Scan(ctx context.Context, full bool) (err error) {
	if !s.lock.TryLock() {
		log.Infof("scan requested while busy, skipping")
		return nil
	}
	defer s.lock.Unlock()

	s.scanning.Store(true)
	s.processed.Store(0)
	s.total.Store(0)
	s.scanStart.Store(s.now().UnixNano())
	defer func() {
		s.scanning.Store(false)
		if r := recover(); r != nil {
			err = fmt.Errorf("scan: panic: %v", r)
		}
		if err != nil {
			log.Errorf("scan: %s", err)
			s.lastErr.Store(&err)
		} else {
			s.lastErr.Store(nil)
		}
		s.firstScanFinished(err)
	}()

	return s.scan(ctx, full)
}

func (s *Scanner) scan(ctx context.Context, full bool) error {
	start := s.now()
	info, err := os.Stat(s.musicDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrMediaDirNotFound, s.musicDir)
	}

	var previous *cache.Snapshot
	if !full {
		previous, err = s.loadRecords(ctx)
		if err != nil {
			log.Warnf("scan: ignoring scan cache: %s", err)
		}
	}

	log.Infof("Scanning %s (full scan: %t)...", s.musicDir, full)

	log.Tracef("walking music directory...")
	dir, err := s.walk(ctx)
	if err != nil {
		return err
	}
	s.total.Store(int64(len(dir.audio)))

	log.Tracef("scanning %d audio files with %d workers...", len(dir.audio), s.workers)
	songs, err := s.scanSongs(ctx, dir, previous.SongsByPath())
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	byPath := make(map[string]*catalog.Song, len(songs))
	for _, song := range songs {
		byPath[song.RelativePath] = song
	}
	lookup := func(relPath string) (*catalog.Song, bool) {
		song, ok := byPath[relPath]
		return song, ok
	}

	log.Tracef("converting %d legacy playlists...", len(dir.legacyPlaylists))
	canonical := s.convertLegacyPlaylists(dir)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	log.Tracef("parsing %d playlists...", len(canonical))
	results := s.scanPlaylists(canonical, previous.PlaylistsByPath(), lookup, full)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	lists := make([]*catalog.Playlist, 0, len(results))
	missing := make([]catalog.MissingPlaylistItem, 0)
	records := &cache.Snapshot{
		Version:   cache.Version,
		LastScan:  start,
		Songs:     make([]cache.SongRecord, 0, len(songs)),
		Playlists: make([]cache.PlaylistRecord, 0, len(results)),
	}
	for _, song := range songs {
		records.Songs = append(records.Songs, songRecord(song))
	}
	for _, r := range results {
		lists = append(lists, r.Playlist)
		missing = append(missing, r.Missing...)
		records.Playlists = append(records.Playlists, playlistRecord(r))
	}

	log.Tracef("building catalog...")
	snapshot := catalog.New(songs, lists, missing, start)
	s.snapshot.Store(snapshot)

	log.Tracef("saving scan cache...")
	s.saveRecords(ctx, records)

	log.Infof("Scanned %d songs and %d playlists in %s.", snapshot.SongCount(), len(lists), s.now().Sub(start).Round(time.Millisecond))
	return nil
}

// walk collects all relevant files in the music directory. Inaccessible files are skipped.
func (s *Scanner) walk(ctx context.Context) (*mediaDir, error) {
	dir := &mediaDir{
		images: make(map[string][]string),
	}
	err := filepath.WalkDir(s.musicDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.musicDir {
				return err
			}
			log.Warnf("scan: skipping %s: %s", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != s.musicDir && !s.scanHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		switch {
		case playlists.IsPlaylist(path):
			dir.playlists = append(dir.playlists, path)
		case playlists.IsLegacyPlaylist(path):
			dir.legacyPlaylists = append(dir.legacyPlaylists, path)
		case isAudioFile(path):
			dir.audio = append(dir.audio, path)
		case isImageFile(path):
			parent := filepath.Dir(path)
			dir.images[parent] = append(dir.images[parent], d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk music dir: %w", err)
	}
	return dir, nil
}

func isAudioFile(path string) bool {
	return strings.HasPrefix(mime.TypeByExtension(filepath.Ext(path)), "audio/")
}

func isImageFile(path string) bool {
	t := mime.TypeByExtension(filepath.Ext(path))
	return t == "image/jpeg" || t == "image/png" || t == "image/webp"
}

func (s *Scanner) scanSongs(ctx context.Context, dir *mediaDir, previous map[string]cache.SongRecord) ([]*catalog.Song, error) {
	results := make([]*catalog.Song, len(dir.audio))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range dir.audio {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.scanSong(gctx, path, dir.images[filepath.Dir(path)], previous)
			s.processed.Add(1)
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("scan songs: %w", err)
	}
	songs := make([]*catalog.Song, 0, len(results))
	for _, song := range results {
		if song != nil {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

// convertLegacyPlaylists returns the canonical playlists of dir including the converted legacy playlists.
func (s *Scanner) convertLegacyPlaylists(dir *mediaDir) []string {
	canonical := make([]string, 0, len(dir.playlists)+len(dir.legacyPlaylists))
	seen := make(map[string]struct{}, len(dir.playlists))
	for _, p := range dir.playlists {
		canonical = append(canonical, p)
		seen[p] = struct{}{}
	}
	for _, path := range dir.legacyPlaylists {
		target, _, err := playlists.ConvertLegacy(s.musicDir, path, s.now())
		if err != nil {
			log.Warnf("scan: %s", err)
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		canonical = append(canonical, target)
	}
	return canonical
}

// scanPlaylists parses all playlists. Playlists whose file did not change are rebuilt from their cache records.
func (s *Scanner) scanPlaylists(paths []string, previous map[string]cache.PlaylistRecord, lookup playlists.SongLookup, full bool) []*playlists.Result {
	results := make([]*playlists.Result, 0, len(paths))
	for _, path := range paths {
		result, err := s.scanPlaylist(path, previous, lookup, full)
		if err != nil {
			log.Warnf("scan: %s", err)
			continue
		}
		results = append(results, result)
	}
	return results
}

func (s *Scanner) scanPlaylist(path string, previous map[string]cache.PlaylistRecord, lookup playlists.SongLookup, full bool) (*playlists.Result, error) {
	relPath, ok := playlists.Resolve(s.musicDir, s.musicDir, path)
	if !ok {
		return nil, fmt.Errorf("playlist %s is outside of the music directory", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat playlist: %w", err)
	}
	if r, ok := previous[relPath]; ok && !full && cache.Unchanged(r.Size, r.LastModified, info.Size(), info.ModTime()) {
		result, err := playlists.Link(s.musicDir, path, info, r.Name, r.Comment, r.Changed, playlistItems(r), lookup)
		if err == nil {
			result.LastModified = r.LastModified
			return result, nil
		}
		log.Warnf("scan: reuse cached playlist %s: %s", relPath, err)
	}
	return playlists.Parse(s.musicDir, path, lookup)
}

func relativePath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("outside of music directory")
	}
	return filepath.ToSlash(rel), nil
}
