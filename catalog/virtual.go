package catalog

import (
	"cmp"
	"path"
	"slices"
	"strings"

	"github.com/juho05/melodeon"
)

const (
	AllSongsPlaylistName      = "All Songs"
	MissingTracksPlaylistName = "Missing Tracks"
	NoReplayGainPlaylistName  = "No Replay Gain"
)

// Playlist returns the playlist with the given id. Virtual playlists are computed on every call.
func (s *Snapshot) Playlist(id string) (*Playlist, error) {
	switch id {
	case melodeon.PlaylistIDAllSongs:
		return s.allSongsPlaylist(), nil
	case melodeon.PlaylistIDMissingTracks:
		return s.missingTracksPlaylist(), nil
	case melodeon.PlaylistIDNoReplayGain:
		return s.noReplayGainPlaylist(), nil
	}
	p, ok := s.playlists[id]
	if !ok {
		return nil, notFound("playlist", id)
	}
	return p, nil
}

// Playlists returns the virtual playlists followed by all regular playlists ordered by name.
func (s *Snapshot) Playlists() []*Playlist {
	playlists := make([]*Playlist, 0, len(s.playlistList)+3)
	playlists = append(playlists, s.allSongsPlaylist(), s.missingTracksPlaylist(), s.noReplayGainPlaylist())
	return append(playlists, s.playlistList...)
}

func (s *Snapshot) virtualPlaylist(id, name string, songs []*Song) *Playlist {
	p := &Playlist{
		ID:      id,
		Name:    name,
		Created: s.lastScan,
		Changed: s.lastScan,
		Items:   make([]PlaylistItem, 0, len(songs)),
		Virtual: true,
	}
	for _, song := range songs {
		p.Items = append(p.Items, PlaylistItem{
			Song:      song,
			AddedDate: song.Created,
		})
	}
	return p
}

func (s *Snapshot) allSongsPlaylist() *Playlist {
	return s.virtualPlaylist(melodeon.PlaylistIDAllSongs, AllSongsPlaylistName, s.songList)
}

func (s *Snapshot) noReplayGainPlaylist() *Playlist {
	songs := make([]*Song, 0)
	for _, song := range s.songList {
		if !song.HasReplayGain() {
			songs = append(songs, song)
		}
	}
	slices.SortFunc(songs, func(a, b *Song) int {
		return cmp.Or(
			strings.Compare(a.Artist, b.Artist),
			strings.Compare(a.Album, b.Album),
			cmp.Compare(a.Track, b.Track),
			strings.Compare(a.Title, b.Title),
			strings.Compare(a.ID, b.ID),
		)
	})
	return s.virtualPlaylist(melodeon.PlaylistIDNoReplayGain, NoReplayGainPlaylistName, songs)
}

func (s *Snapshot) missingTracksPlaylist() *Playlist {
	p := s.virtualPlaylist(melodeon.PlaylistIDMissingTracks, MissingTracksPlaylistName, nil)
	for _, m := range s.missing {
		p.Items = append(p.Items, PlaylistItem{
			Song:      missingSong(m),
			AddedDate: m.AddedDate,
		})
	}
	return p
}

// missingSong returns the placeholder shown for a dangling playlist entry.
func missingSong(m MissingPlaylistItem) *Song {
	name := path.Base(m.RelativePath)
	return &Song{
		ID:           melodeon.MissingItemID(m.PlaylistPath, m.RelativePath, m.Position),
		Path:         m.Path,
		RelativePath: m.RelativePath,
		Title:        strings.TrimSuffix(name, path.Ext(name)),
		Album:        m.PlaylistName,
		Created:      m.AddedDate,
	}
}
