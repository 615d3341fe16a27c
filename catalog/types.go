package catalog

import (
	"path"
	"time"

	"github.com/juho05/melodeon"
)

// Song is a single audio file. RelativePath is slash separated and relative to the music directory.
type Song struct {
	ID               string
	Path             string
	RelativePath     string
	Title            string
	Artist           string
	AlbumArtist      string
	Album            string
	Genre            string
	Year             int
	Track            int
	Duration         int // seconds
	BitRate          int // kbit/s
	Size             int64
	ContentType      string
	Created          time.Time
	LastModified     time.Time
	LyricsPath       string
	CoverArtPath     string
	HasEmbeddedCover bool
	Lyrics           string
	TrackGain        *float64
	TrackPeak        *float64
	AlbumGain        *float64
	AlbumPeak        *float64
}

// EffectiveAlbumArtist is the album artist or, if unset, the track artist.
func (s *Song) EffectiveAlbumArtist() string {
	if s.AlbumArtist != "" {
		return s.AlbumArtist
	}
	return s.Artist
}

func (s *Song) AlbumID() string {
	return melodeon.AlbumID(s.EffectiveAlbumArtist(), s.Album)
}

func (s *Song) ArtistID() string {
	return melodeon.ArtistID(s.Artist)
}

func (s *Song) DirectoryID() string {
	return melodeon.DirectoryID(path.Dir(s.RelativePath))
}

func (s *Song) HasReplayGain() bool {
	return s.TrackGain != nil || s.AlbumGain != nil
}

type Artist struct {
	ID       string
	Name     string
	AlbumIDs []string
	SongIDs  []string
}

type Album struct {
	ID       string
	Name     string
	Artist   string
	ArtistID string
	Year     int
	Genre    string
	Duration int
	// Created is the creation time of the newest song.
	Created time.Time
	// CoverSongID is the first song with cover art, empty if no song has one.
	CoverSongID string
	// Songs are ordered by track number, then title.
	Songs []*Song
}

type Directory struct {
	ID           string
	Name         string
	RelativePath string
	ParentID     string
	ChildIDs     []string
	Songs        []*Song
}

type Playlist struct {
	ID           string
	Name         string
	Path         string
	RelativePath string
	Comment      string
	Created      time.Time
	Changed      time.Time
	Items        []PlaylistItem
	Virtual      bool
}

func (p *Playlist) Duration() int {
	var d int
	for _, item := range p.Items {
		d += item.Song.Duration
	}
	return d
}

type PlaylistItem struct {
	Song      *Song
	AddedDate time.Time
}

// MissingPlaylistItem is a playlist entry whose target file does not exist.
type MissingPlaylistItem struct {
	RelativePath string
	Path         string
	PlaylistName string
	PlaylistPath string
	// Position is the index of the entry in the playlist file.
	Position  int
	AddedDate time.Time
}

type Genre struct {
	Name       string
	SongCount  int
	AlbumCount int
}
