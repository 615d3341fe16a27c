package responses

import (
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/util"
)

type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	AlbumCount int      `json:"albumCount"`
	SongCount  int      `json:"songCount"`
	Albums     []*Album `json:"albums,omitempty"`
}

func NewArtist(a *catalog.Artist) *Artist {
	if a == nil {
		return nil
	}
	return &Artist{
		ID:         a.ID,
		Name:       a.Name,
		AlbumCount: len(a.AlbumIDs),
		SongCount:  len(a.SongIDs),
	}
}

func NewArtists(artists []*catalog.Artist) []*Artist {
	return util.Map(artists, NewArtist)
}
