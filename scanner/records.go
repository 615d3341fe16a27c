package scanner

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/cache"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/playlists"
)

func songFromRecord(root string, r cache.SongRecord) *catalog.Song {
	return &catalog.Song{
		ID:               melodeon.SongID(r.RelativePath),
		Path:             filepath.Join(root, filepath.FromSlash(r.RelativePath)),
		RelativePath:     r.RelativePath,
		Title:            r.Title,
		Artist:           r.Artist,
		AlbumArtist:      r.AlbumArtist,
		Album:            r.Album,
		Genre:            r.Genre,
		Year:             r.Year,
		Track:            r.Track,
		Duration:         r.Duration,
		BitRate:          r.BitRate,
		Size:             r.Size,
		ContentType:      r.ContentType,
		Created:          r.Created,
		LastModified:     r.LastModified,
		LyricsPath:       r.LyricsPath,
		CoverArtPath:     r.CoverArtPath,
		HasEmbeddedCover: r.HasEmbeddedCover,
		Lyrics:           r.Lyrics,
		TrackGain:        r.TrackGain,
		TrackPeak:        r.TrackPeak,
		AlbumGain:        r.AlbumGain,
		AlbumPeak:        r.AlbumPeak,
	}
}

func songRecord(s *catalog.Song) cache.SongRecord {
	return cache.SongRecord{
		RelativePath:     s.RelativePath,
		Size:             s.Size,
		Created:          s.Created,
		LastModified:     s.LastModified,
		Title:            s.Title,
		Artist:           s.Artist,
		AlbumArtist:      s.AlbumArtist,
		Album:            s.Album,
		Genre:            s.Genre,
		Year:             s.Year,
		Track:            s.Track,
		Duration:         s.Duration,
		BitRate:          s.BitRate,
		ContentType:      s.ContentType,
		HasEmbeddedCover: s.HasEmbeddedCover,
		Lyrics:           s.Lyrics,
		LyricsPath:       s.LyricsPath,
		CoverArtPath:     s.CoverArtPath,
		TrackGain:        s.TrackGain,
		TrackPeak:        s.TrackPeak,
		AlbumGain:        s.AlbumGain,
		AlbumPeak:        s.AlbumPeak,
	}
}

func playlistRecord(r *playlists.Result) cache.PlaylistRecord {
	items := make([]cache.PlaylistItemRecord, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, cache.PlaylistItemRecord{
			RelativePath: item.RelativePath,
			AddedDate:    item.AddedDate,
		})
	}
	return cache.PlaylistRecord{
		RelativePath: r.Playlist.RelativePath,
		Name:         r.Playlist.Name,
		Comment:      r.Playlist.Comment,
		Size:         r.Size,
		LastModified: r.LastModified,
		Created:      r.Playlist.Created,
		Changed:      r.Playlist.Changed,
		Items:        items,
	}
}

func playlistItems(r cache.PlaylistRecord) []playlists.Item {
	items := make([]playlists.Item, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, playlists.Item{
			RelativePath: item.RelativePath,
			AddedDate:    item.AddedDate,
		})
	}
	return items
}

// snapshotFromRecords builds a catalog from cache records only. Playlist entries without a song record
// are reported as missing.
func snapshotFromRecords(root string, records *cache.Snapshot) *catalog.Snapshot {
	songs := make([]*catalog.Song, 0, len(records.Songs))
	byPath := make(map[string]*catalog.Song, len(records.Songs))
	for _, r := range records.Songs {
		song := songFromRecord(root, r)
		songs = append(songs, song)
		byPath[song.RelativePath] = song
	}
	lists := make([]*catalog.Playlist, 0, len(records.Playlists))
	missing := make([]catalog.MissingPlaylistItem, 0)
	for _, r := range records.Playlists {
		p := &catalog.Playlist{
			ID:           melodeon.PlaylistID(r.RelativePath),
			Name:         r.Name,
			Path:         filepath.Join(root, filepath.FromSlash(r.RelativePath)),
			RelativePath: r.RelativePath,
			Comment:      r.Comment,
			Created:      r.Created,
			Changed:      r.Changed,
			Items:        make([]catalog.PlaylistItem, 0, len(r.Items)),
		}
		for i, item := range r.Items {
			if song, ok := byPath[item.RelativePath]; ok {
				p.Items = append(p.Items, catalog.PlaylistItem{Song: song, AddedDate: item.AddedDate})
				continue
			}
			missing = append(missing, catalog.MissingPlaylistItem{
				RelativePath: item.RelativePath,
				Path:         filepath.Join(root, filepath.FromSlash(item.RelativePath)),
				PlaylistName: r.Name,
				PlaylistPath: r.RelativePath,
				Position:     i,
				AddedDate:    item.AddedDate,
			})
		}
		lists = append(lists, p)
	}
	return catalog.New(songs, lists, missing, records.LastScan)
}

// withPlaylistRecord returns a copy of records with r added or replaced.
func withPlaylistRecord(records *cache.Snapshot, r cache.PlaylistRecord) *cache.Snapshot {
	updated := copyRecords(records)
	i := slices.IndexFunc(updated.Playlists, func(p cache.PlaylistRecord) bool {
		return p.RelativePath == r.RelativePath
	})
	if i >= 0 {
		updated.Playlists[i] = r
	} else {
		updated.Playlists = append(updated.Playlists, r)
	}
	return updated
}

func withoutPlaylistRecord(records *cache.Snapshot, relPath string) *cache.Snapshot {
	updated := copyRecords(records)
	updated.Playlists = slices.DeleteFunc(updated.Playlists, func(p cache.PlaylistRecord) bool {
		return p.RelativePath == relPath
	})
	return updated
}

func withSongRecord(records *cache.Snapshot, r cache.SongRecord) *cache.Snapshot {
	updated := copyRecords(records)
	i := slices.IndexFunc(updated.Songs, func(s cache.SongRecord) bool {
		return s.RelativePath == r.RelativePath
	})
	if i >= 0 {
		updated.Songs[i] = r
	} else {
		updated.Songs = append(updated.Songs, r)
	}
	return updated
}

func copyRecords(records *cache.Snapshot) *cache.Snapshot {
	if records == nil {
		return &cache.Snapshot{Version: cache.Version}
	}
	return &cache.Snapshot{
		Version:   records.Version,
		LastScan:  records.LastScan,
		Songs:     slices.Clone(records.Songs),
		Playlists: slices.Clone(records.Playlists),
	}
}

func hasPathSeparator(name string) bool {
	return strings.ContainsAny(name, `/\`)
}
