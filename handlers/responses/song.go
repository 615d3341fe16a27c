package responses

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/util"
)

type Song struct {
	ID          string      `json:"id"`
	Parent      string      `json:"parent"`
	Title       string      `json:"title"`
	Album       *string     `json:"album,omitempty"`
	AlbumID     string      `json:"albumId"`
	Artist      *string     `json:"artist,omitempty"`
	ArtistID    string      `json:"artistId"`
	AlbumArtist *string     `json:"albumArtist,omitempty"`
	Track       *int        `json:"track,omitempty"`
	Year        *int        `json:"year,omitempty"`
	Genre       *string     `json:"genre,omitempty"`
	CoverArt    bool        `json:"coverArt"`
	HasLyrics   bool        `json:"hasLyrics"`
	Path        string      `json:"path"`
	Size        int64       `json:"size"`
	ContentType string      `json:"contentType"`
	Suffix      string      `json:"suffix"`
	Duration    int         `json:"duration"`
	BitRate     int         `json:"bitRate"`
	Created     time.Time   `json:"created"`
	ReplayGain  *ReplayGain `json:"replayGain,omitempty"`
	// Missing marks the placeholder of a playlist entry whose file does not exist.
	Missing bool `json:"missing,omitempty"`
}

type ReplayGain struct {
	TrackGain *float64 `json:"trackGain,omitempty"`
	TrackPeak *float64 `json:"trackPeak,omitempty"`
	AlbumGain *float64 `json:"albumGain,omitempty"`
	AlbumPeak *float64 `json:"albumPeak,omitempty"`
}

func NewSong(s *catalog.Song) *Song {
	if s == nil {
		return nil
	}
	song := &Song{
		ID:          s.ID,
		Parent:      s.DirectoryID(),
		Title:       s.Title,
		Album:       util.NilIfEmpty(s.Album),
		AlbumID:     s.AlbumID(),
		Artist:      util.NilIfEmpty(s.Artist),
		ArtistID:    s.ArtistID(),
		AlbumArtist: util.NilIfEmpty(s.AlbumArtist),
		Track:       util.NilIfEmpty(s.Track),
		Year:        util.NilIfEmpty(s.Year),
		Genre:       util.NilIfEmpty(s.Genre),
		CoverArt:    s.CoverArtPath != "" || s.HasEmbeddedCover,
		HasLyrics:   s.LyricsPath != "" || s.Lyrics != "",
		Path:        s.RelativePath,
		Size:        s.Size,
		ContentType: s.ContentType,
		Suffix:      strings.TrimPrefix(filepath.Ext(s.Path), "."),
		Duration:    s.Duration,
		BitRate:     s.BitRate,
		Created:     s.Created,
		Missing:     melodeon.IsIDType(s.ID, melodeon.IDTypeMissingItem),
	}
	if s.HasReplayGain() || s.TrackPeak != nil || s.AlbumPeak != nil {
		song.ReplayGain = &ReplayGain{
			TrackGain: s.TrackGain,
			TrackPeak: s.TrackPeak,
			AlbumGain: s.AlbumGain,
			AlbumPeak: s.AlbumPeak,
		}
	}
	return song
}

func NewSongs(songs []*catalog.Song) []*Song {
	return util.Map(songs, NewSong)
}
