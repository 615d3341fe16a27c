package catalog

import (
	"cmp"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/util"
)

// Snapshot is an immutable catalog built from one scan. It must not be modified after New returns,
// the values returned by its methods are shared between all readers.
type Snapshot struct {
	lastScan time.Time

	songs       map[string]*Song
	songsByPath map[string]*Song
	songList    []*Song

	artists    map[string]*Artist
	artistList []*Artist

	albums    map[string]*Album
	albumList []*Album

	directories map[string]*Directory

	playlists    map[string]*Playlist
	playlistList []*Playlist
	missing      []MissingPlaylistItem

	genres     []Genre
	genreSongs map[string][]*Song

	searchSongs   []string
	searchAlbums  []string
	searchArtists []string
}

func Empty() *Snapshot {
	return New(nil, nil, nil, time.Time{})
}

// New builds a snapshot. Playlist items are linked to the songs of the new snapshot by id,
// items referencing unknown songs are dropped.
func New(songs []*Song, playlists []*Playlist, missing []MissingPlaylistItem, lastScan time.Time) *Snapshot {
	s := &Snapshot{
		lastScan:    lastScan,
		songs:       make(map[string]*Song, len(songs)),
		songsByPath: make(map[string]*Song, len(songs)),
		songList:    make([]*Song, 0, len(songs)),
		artists:     make(map[string]*Artist),
		albums:      make(map[string]*Album),
		directories: make(map[string]*Directory),
		playlists:   make(map[string]*Playlist, len(playlists)),
		genreSongs:  make(map[string][]*Song),
	}

	for _, song := range songs {
		if _, ok := s.songs[song.ID]; ok {
			continue
		}
		s.songs[song.ID] = song
		s.songsByPath[song.RelativePath] = song
		s.songList = append(s.songList, song)
	}
	slices.SortFunc(s.songList, func(a, b *Song) int {
		return cmp.Or(strings.Compare(a.Title, b.Title), strings.Compare(a.ID, b.ID))
	})

	s.buildAlbums()
	s.buildArtists()
	s.buildDirectories()
	s.buildGenres()
	s.buildPlaylists(playlists)

	s.missing = slices.Clone(missing)
	slices.SortStableFunc(s.missing, compareMissing)

	s.buildSearchIndex()
	return s
}

func (s *Snapshot) LastScan() time.Time {
	return s.lastScan
}

func compareSongsInAlbum(a, b *Song) int {
	return cmp.Or(
		cmp.Compare(a.Track, b.Track),
		strings.Compare(a.Title, b.Title),
		strings.Compare(a.ID, b.ID),
	)
}

func compareMissing(a, b MissingPlaylistItem) int {
	return cmp.Or(
		strings.Compare(a.PlaylistName, b.PlaylistName),
		strings.Compare(a.RelativePath, b.RelativePath),
		cmp.Compare(a.Position, b.Position),
	)
}

func (s *Snapshot) buildAlbums() {
	for _, song := range s.songList {
		id := song.AlbumID()
		album, ok := s.albums[id]
		if !ok {
			artist := song.EffectiveAlbumArtist()
			album = &Album{
				ID:       id,
				Name:     song.Album,
				Artist:   artist,
				ArtistID: melodeon.ArtistID(artist),
			}
			s.albums[id] = album
			s.albumList = append(s.albumList, album)
		}
		album.Songs = append(album.Songs, song)
		album.Duration += song.Duration
		if song.Created.After(album.Created) {
			album.Created = song.Created
		}
		if album.Year == 0 {
			album.Year = song.Year
		}
		if album.Genre == "" {
			album.Genre = song.Genre
		}
	}
	for _, album := range s.albumList {
		slices.SortFunc(album.Songs, compareSongsInAlbum)
		for _, song := range album.Songs {
			if song.CoverArtPath != "" || song.HasEmbeddedCover {
				album.CoverSongID = song.ID
				break
			}
		}
	}
	slices.SortFunc(s.albumList, func(a, b *Album) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
}

func (s *Snapshot) artist(name string) *Artist {
	id := melodeon.ArtistID(name)
	artist, ok := s.artists[id]
	if !ok {
		artist = &Artist{
			ID:   id,
			Name: name,
		}
		s.artists[id] = artist
		s.artistList = append(s.artistList, artist)
	}
	return artist
}

func (s *Snapshot) buildArtists() {
	for _, album := range s.albumList {
		if album.Artist == "" {
			continue
		}
		artist := s.artist(album.Artist)
		artist.AlbumIDs = append(artist.AlbumIDs, album.ID)
	}
	for _, song := range s.songList {
		if song.Artist == "" {
			continue
		}
		artist := s.artist(song.Artist)
		artist.SongIDs = append(artist.SongIDs, song.ID)
	}
	slices.SortFunc(s.artistList, func(a, b *Artist) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
}

func (s *Snapshot) directory(relPath string) *Directory {
	id := melodeon.DirectoryID(relPath)
	if dir, ok := s.directories[id]; ok {
		return dir
	}
	dir := &Directory{
		ID:           id,
		RelativePath: relPath,
	}
	s.directories[id] = dir
	if relPath != "." {
		dir.Name = path.Base(relPath)
		parent := s.directory(path.Dir(relPath))
		dir.ParentID = parent.ID
		parent.ChildIDs = append(parent.ChildIDs, id)
	}
	return dir
}

func (s *Snapshot) buildDirectories() {
	s.directory(".")
	for _, song := range s.songList {
		dir := s.directory(path.Dir(song.RelativePath))
		dir.Songs = append(dir.Songs, song)
	}
	for _, dir := range s.directories {
		slices.SortFunc(dir.Songs, func(a, b *Song) int {
			return strings.Compare(a.RelativePath, b.RelativePath)
		})
		slices.SortFunc(dir.ChildIDs, func(a, b string) int {
			return strings.Compare(s.directories[a].Name, s.directories[b].Name)
		})
	}
}

func (s *Snapshot) buildGenres() {
	albumGenres := make(map[string]map[string]struct{})
	names := make(map[string]string)
	for _, song := range s.songList {
		if song.Genre == "" {
			continue
		}
		key := strings.ToLower(song.Genre)
		if _, ok := names[key]; !ok {
			names[key] = song.Genre
			albumGenres[key] = make(map[string]struct{})
		}
		s.genreSongs[key] = append(s.genreSongs[key], song)
		albumGenres[key][song.AlbumID()] = struct{}{}
	}
	s.genres = make([]Genre, 0, len(names))
	for _, key := range util.MapKeys(names) {
		s.genres = append(s.genres, Genre{
			Name:       names[key],
			SongCount:  len(s.genreSongs[key]),
			AlbumCount: len(albumGenres[key]),
		})
	}
	slices.SortFunc(s.genres, func(a, b Genre) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func (s *Snapshot) buildPlaylists(playlists []*Playlist) {
	s.playlistList = make([]*Playlist, 0, len(playlists))
	for _, p := range playlists {
		if p.Virtual || melodeon.IsVirtualPlaylistID(p.ID) {
			continue
		}
		if _, ok := s.playlists[p.ID]; ok {
			continue
		}
		linked := *p
		linked.Items = make([]PlaylistItem, 0, len(p.Items))
		for _, item := range p.Items {
			if item.Song == nil {
				continue
			}
			song, ok := s.songs[item.Song.ID]
			if !ok {
				continue
			}
			linked.Items = append(linked.Items, PlaylistItem{
				Song:      song,
				AddedDate: item.AddedDate,
			})
		}
		s.playlists[linked.ID] = &linked
		s.playlistList = append(s.playlistList, &linked)
	}
	slices.SortFunc(s.playlistList, func(a, b *Playlist) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
}

func (s *Snapshot) buildSearchIndex() {
	s.searchSongs = util.Map(s.songList, func(song *Song) string {
		return util.NormalizeText(song.Title + " " + song.Artist + " " + song.Album)
	})
	s.searchAlbums = util.Map(s.albumList, func(album *Album) string {
		return util.NormalizeText(album.Name)
	})
	s.searchArtists = util.Map(s.artistList, func(artist *Artist) string {
		return util.NormalizeText(artist.Name)
	})
}

// Songs returns all songs ordered by title.
func (s *Snapshot) Songs() []*Song {
	return s.songList
}

// RegularPlaylists returns all file backed playlists ordered by name.
func (s *Snapshot) RegularPlaylists() []*Playlist {
	return s.playlistList
}

// MissingItems returns all dangling playlist entries ordered by playlist name, then relative path.
func (s *Snapshot) MissingItems() []MissingPlaylistItem {
	return s.missing
}

// WithPlaylist returns a copy of s with p added or replaced and the missing items of p replaced by missing.
func (s *Snapshot) WithPlaylist(p *Playlist, missing []MissingPlaylistItem) *Snapshot {
	playlists := make([]*Playlist, 0, len(s.playlistList)+1)
	for _, existing := range s.playlistList {
		if existing.ID != p.ID {
			playlists = append(playlists, existing)
		}
	}
	playlists = append(playlists, p)
	newMissing := make([]MissingPlaylistItem, 0, len(s.missing)+len(missing))
	for _, m := range s.missing {
		if m.PlaylistPath != p.RelativePath {
			newMissing = append(newMissing, m)
		}
	}
	newMissing = append(newMissing, missing...)
	return New(s.songList, playlists, newMissing, s.lastScan)
}

// WithoutPlaylist returns a copy of s without the playlist with the given id and its missing items.
func (s *Snapshot) WithoutPlaylist(id string) *Snapshot {
	removed, ok := s.playlists[id]
	if !ok {
		return s
	}
	playlists := make([]*Playlist, 0, len(s.playlistList))
	for _, p := range s.playlistList {
		if p.ID != id {
			playlists = append(playlists, p)
		}
	}
	missing := make([]MissingPlaylistItem, 0, len(s.missing))
	for _, m := range s.missing {
		if m.PlaylistPath != removed.RelativePath {
			missing = append(missing, m)
		}
	}
	return New(s.songList, playlists, missing, s.lastScan)
}

// WithSong returns a copy of s with the song that has the same id as song replaced.
func (s *Snapshot) WithSong(song *Song) *Snapshot {
	songs := make([]*Song, 0, len(s.songList))
	for _, existing := range s.songList {
		if existing.ID == song.ID {
			songs = append(songs, song)
		} else {
			songs = append(songs, existing)
		}
	}
	return New(songs, s.playlistList, s.missing, s.lastScan)
}
