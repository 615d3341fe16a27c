package responses

import (
	"time"

	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/util"
)

type Playlist struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Comment   *string          `json:"comment,omitempty"`
	Path      *string          `json:"path,omitempty"`
	Virtual   bool             `json:"virtual"`
	SongCount int              `json:"songCount"`
	Duration  int              `json:"duration"`
	Created   time.Time        `json:"created"`
	Changed   time.Time        `json:"changed"`
	Entries   []*PlaylistEntry `json:"entries,omitempty"`
}

type PlaylistEntry struct {
	*Song
	AddedDate time.Time `json:"addedDate"`
}

func NewPlaylist(p *catalog.Playlist) *Playlist {
	return &Playlist{
		ID:        p.ID,
		Name:      p.Name,
		Comment:   util.NilIfEmpty(p.Comment),
		Path:      util.NilIfEmpty(p.RelativePath),
		Virtual:   p.Virtual,
		SongCount: len(p.Items),
		Duration:  p.Duration(),
		Created:   p.Created,
		Changed:   p.Changed,
	}
}

func NewPlaylists(p []*catalog.Playlist) []*Playlist {
	return util.Map(p, NewPlaylist)
}

func NewPlaylistWithEntries(p *catalog.Playlist) *Playlist {
	playlist := NewPlaylist(p)
	playlist.Entries = make([]*PlaylistEntry, 0, len(p.Items))
	for _, item := range p.Items {
		playlist.Entries = append(playlist.Entries, &PlaylistEntry{
			Song:      NewSong(item.Song),
			AddedDate: item.AddedDate,
		})
	}
	return playlist
}
