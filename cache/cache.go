package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Version is incremented whenever the record layout changes incompatibly.
const Version = 1

var ErrNotFound = errors.New("scan cache not found")

// Store persists the scan cache as a single blob.
type Store interface {
	// Load returns ErrNotFound if no compatible cache exists.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

type Snapshot struct {
	Version   int              `json:"version"`
	LastScan  time.Time        `json:"lastScan"`
	Songs     []SongRecord     `json:"songs"`
	Playlists []PlaylistRecord `json:"playlists"`
}

type SongRecord struct {
	RelativePath     string    `json:"relativePath"`
	Size             int64     `json:"size"`
	Created          time.Time `json:"created"`
	LastModified     time.Time `json:"lastModified"`
	Title            string    `json:"title"`
	Artist           string    `json:"artist,omitempty"`
	AlbumArtist      string    `json:"albumArtist,omitempty"`
	Album            string    `json:"album,omitempty"`
	Genre            string    `json:"genre,omitempty"`
	Year             int       `json:"year,omitempty"`
	Track            int       `json:"track,omitempty"`
	Duration         int       `json:"duration"`
	BitRate          int       `json:"bitRate"`
	ContentType      string    `json:"contentType"`
	HasEmbeddedCover bool      `json:"hasEmbeddedCover,omitempty"`
	Lyrics           string    `json:"lyrics,omitempty"`
	LyricsPath       string    `json:"lyricsPath,omitempty"`
	CoverArtPath     string    `json:"coverArtPath,omitempty"`
	TrackGain        *float64  `json:"trackGain,omitempty"`
	TrackPeak        *float64  `json:"trackPeak,omitempty"`
	AlbumGain        *float64  `json:"albumGain,omitempty"`
	AlbumPeak        *float64  `json:"albumPeak,omitempty"`
}

type PlaylistRecord struct {
	RelativePath string               `json:"relativePath"`
	Name         string               `json:"name"`
	Comment      string               `json:"comment,omitempty"`
	Size         int64                `json:"size"`
	LastModified time.Time            `json:"lastModified"`
	Created      time.Time            `json:"created"`
	Changed      time.Time            `json:"changed"`
	Items        []PlaylistItemRecord `json:"items"`
}

type PlaylistItemRecord struct {
	RelativePath string    `json:"relativePath"`
	AddedDate    time.Time `json:"addedDate"`
}

// SongsByPath indexes the song records by relative path.
func (s *Snapshot) SongsByPath() map[string]SongRecord {
	if s == nil {
		return map[string]SongRecord{}
	}
	m := make(map[string]SongRecord, len(s.Songs))
	for _, r := range s.Songs {
		m[r.RelativePath] = r
	}
	return m
}

func (s *Snapshot) PlaylistsByPath() map[string]PlaylistRecord {
	if s == nil {
		return map[string]PlaylistRecord{}
	}
	m := make(map[string]PlaylistRecord, len(s.Playlists))
	for _, r := range s.Playlists {
		m[r.RelativePath] = r
	}
	return m
}

// Unchanged reports whether a file with the given live size and modification time may reuse a record
// with cachedSize and cachedModTime. Timestamps are compared in whole seconds.
func Unchanged(cachedSize int64, cachedModTime time.Time, size int64, modTime time.Time) bool {
	return cachedSize == size && cachedModTime.Unix() >= modTime.Unix()
}

func encode(snapshot *Snapshot) ([]byte, error) {
	snapshot.Version = Version
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode scan cache: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	err := json.Unmarshal(data, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("decode scan cache: %w", err)
	}
	if snapshot.Version != Version {
		return nil, fmt.Errorf("%w: incompatible version %d", ErrNotFound, snapshot.Version)
	}
	return &snapshot, nil
}
