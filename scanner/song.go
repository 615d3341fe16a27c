package scanner

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/juho05/log"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/audiotags"
	"github.com/juho05/melodeon/cache"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/config"
)

// scanSong returns nil if the file cannot be accessed.
func (s *Scanner) scanSong(ctx context.Context, path string, images []string, previous map[string]cache.SongRecord) *catalog.Song {
	relPath, err := relativePath(s.musicDir, path)
	if err != nil {
		log.Warnf("scan: skipping %s: %s", path, err)
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		log.Warnf("scan: skipping %s: %s", path, err)
		return nil
	}

	if r, ok := previous[relPath]; ok && cache.Unchanged(r.Size, r.LastModified, info.Size(), info.ModTime()) {
		song := songFromRecord(s.musicDir, r)
		song.Path = path
		s.findSidecars(song, images)
		return song
	}

	log.Tracef("reading tags of %s", relPath)
	metadata, err := s.readTags(path)
	if err != nil {
		if errors.Is(err, audiotags.ErrNoMetadata) {
			log.Warnf("scan: %s has no metadata", relPath)
		} else {
			log.Warnf("scan: read tags of %s: %s", relPath, err)
		}
		metadata = &audiotags.Metadata{}
	}

	song := &catalog.Song{
		ID:               melodeon.SongID(relPath),
		Path:             path,
		RelativePath:     relPath,
		Title:            metadata.Title,
		Artist:           metadata.Artist,
		AlbumArtist:      metadata.AlbumArtist,
		Album:            metadata.Album,
		Genre:            metadata.Genre,
		Year:             metadata.Year,
		Track:            metadata.Track,
		Duration:         (metadata.Properties.LengthMs + 500) / 1000,
		BitRate:          metadata.Properties.BitRate,
		Size:             info.Size(),
		ContentType:      contentType(path),
		Created:          createdTime(path, info),
		LastModified:     info.ModTime(),
		HasEmbeddedCover: metadata.HasImage,
		Lyrics:           metadata.Lyrics,
		TrackGain:        metadata.ReplayGain.TrackGain,
		TrackPeak:        metadata.ReplayGain.TrackPeak,
		AlbumGain:        metadata.ReplayGain.AlbumGain,
		AlbumPeak:        metadata.ReplayGain.AlbumPeak,
	}
	if song.Title == "" {
		name := filepath.Base(path)
		song.Title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	s.findSidecars(song, images)

	if s.loudness != nil && song.TrackGain == nil {
		err = s.computeReplayGain(ctx, song)
		if err != nil {
			log.Warnf("scan: compute replay gain of %s: %s", relPath, err)
		}
	}
	return song
}

// readTags turns a panicking tag parser into an error.
func (s *Scanner) readTags(path string) (metadata *audiotags.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			metadata = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.tags.Read(path)
}

func contentType(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}

func createdTime(path string, info os.FileInfo) time.Time {
	t, err := times.Stat(path)
	if err == nil && t.HasBirthTime() {
		return t.BirthTime()
	}
	return info.ModTime()
}

// findSidecars looks for lyrics and cover art files next to the song.
// images are the names of the image files in the directory of the song.
func (s *Scanner) findSidecars(song *catalog.Song, images []string) {
	song.LyricsPath = findLyricsSidecar(song.Path)
	song.CoverArtPath = s.findCover(song, images)
}

func findLyricsSidecar(songPath string) string {
	basePath := strings.TrimSuffix(songPath, filepath.Ext(songPath))
	for _, ext := range []string{".lrc", ".txt"} {
		info, err := os.Stat(basePath + ext)
		if err == nil && info.Mode().IsRegular() {
			return basePath + ext
		}
	}
	return ""
}

// findCover returns the first image matching the configured cover art patterns in priority order.
// If the embedded cover has a higher priority than the first matching image, no path is returned.
func (s *Scanner) findCover(song *catalog.Song, images []string) string {
	dir := filepath.Dir(song.Path)
	for _, pattern := range s.coverArtPriority {
		if pattern == config.CoverArtPriorityEmbedded {
			if song.HasEmbeddedCover {
				return ""
			}
			continue
		}
		for _, name := range images {
			match, err := filepath.Match(pattern, strings.ToLower(name))
			if err != nil {
				log.Errorf("invalid cover art priority pattern %s: %v", pattern, err)
				break
			}
			if !match {
				continue
			}
			c := filepath.Join(dir, name)
			if _, err := os.Stat(c); err != nil {
				continue
			}
			return c
		}
	}
	return ""
}
