package responses

import (
	"time"

	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/util"
)

type Album struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	ArtistID  string    `json:"artistId"`
	Year      *int      `json:"year,omitempty"`
	Genre     *string   `json:"genre,omitempty"`
	SongCount int       `json:"songCount"`
	Duration  int       `json:"duration"`
	Created   time.Time `json:"created"`
	// CoverArt is the id of the song providing the cover art of the album.
	CoverArt *string `json:"coverArt,omitempty"`
	Songs    []*Song `json:"songs,omitempty"`
}

func NewAlbum(a *catalog.Album) *Album {
	if a == nil {
		return nil
	}
	return &Album{
		ID:        a.ID,
		Name:      a.Name,
		Artist:    a.Artist,
		ArtistID:  a.ArtistID,
		Year:      util.NilIfEmpty(a.Year),
		Genre:     util.NilIfEmpty(a.Genre),
		SongCount: len(a.Songs),
		Duration:  a.Duration,
		Created:   a.Created,
		CoverArt:  util.NilIfEmpty(a.CoverSongID),
	}
}

func NewAlbums(albums []*catalog.Album) []*Album {
	return util.Map(albums, NewAlbum)
}

func NewAlbumWithSongs(a *catalog.Album) *Album {
	album := NewAlbum(a)
	if album != nil {
		album.Songs = NewSongs(a.Songs)
	}
	return album
}
