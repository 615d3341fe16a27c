package catalog

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/util"
)

func (s *Snapshot) Song(id string) (*Song, error) {
	song, ok := s.songs[id]
	if !ok {
		return nil, notFound("song", id)
	}
	return song, nil
}

// SongByPath looks up a song by its slash separated path relative to the music directory.
func (s *Snapshot) SongByPath(relPath string) (*Song, bool) {
	song, ok := s.songsByPath[relPath]
	return song, ok
}

func (s *Snapshot) SongCount() int {
	return len(s.songList)
}

func (s *Snapshot) Artist(id string) (*Artist, error) {
	artist, ok := s.artists[id]
	if !ok {
		return nil, notFound("artist", id)
	}
	return artist, nil
}

// Artists returns all artists ordered by name.
func (s *Snapshot) Artists() []*Artist {
	return s.artistList
}

func (s *Snapshot) ArtistAlbums(id string) ([]*Album, error) {
	artist, err := s.Artist(id)
	if err != nil {
		return nil, err
	}
	albums := make([]*Album, 0, len(artist.AlbumIDs))
	for _, albumID := range artist.AlbumIDs {
		albums = append(albums, s.albums[albumID])
	}
	return albums, nil
}

func (s *Snapshot) Album(id string) (*Album, error) {
	album, ok := s.albums[id]
	if !ok {
		return nil, notFound("album", id)
	}
	return album, nil
}

// Albums returns all albums ordered by name.
func (s *Snapshot) Albums() []*Album {
	return s.albumList
}

func (s *Snapshot) Directory(id string) (*Directory, error) {
	dir, ok := s.directories[id]
	if !ok {
		return nil, notFound("directory", id)
	}
	return dir, nil
}

func (s *Snapshot) RootDirectory() *Directory {
	return s.directories[melodeon.DirectoryID(".")]
}

// Genres returns all genres ordered by name. Genre names are compared case-insensitively,
// the spelling of the first song (by title) wins.
func (s *Snapshot) Genres() []Genre {
	return s.genres
}

// SongsByGenre returns the songs of a genre ordered by title.
func (s *Snapshot) SongsByGenre(genre string, offset, count int) []*Song {
	return util.Page(s.genreSongs[strings.ToLower(genre)], offset, count)
}

// RandomSongs returns up to n distinct songs chosen uniformly at random.
func (s *Snapshot) RandomSongs(n int) []*Song {
	return sample(s.songList, n)
}

// RandomAlbums returns up to n distinct albums chosen uniformly at random.
func (s *Snapshot) RandomAlbums(n int) []*Album {
	return sample(s.albumList, n)
}

func sample[T any](list []T, n int) []T {
	n = max(min(n, len(list)), 0)
	result := make([]T, 0, n)
	for _, i := range rand.Perm(len(list))[:n] {
		result = append(result, list[i])
	}
	return result
}

// NewestAlbums returns albums ordered by creation time, newest first.
func (s *Snapshot) NewestAlbums(offset, count int) []*Album {
	albums := slices.Clone(s.albumList)
	slices.SortFunc(albums, func(a, b *Album) int {
		return cmp.Or(b.Created.Compare(a.Created), strings.Compare(a.ID, b.ID))
	})
	return util.Page(albums, offset, count)
}

type SearchOptions struct {
	ArtistOffset int
	ArtistCount  int
	AlbumOffset  int
	AlbumCount   int
	SongOffset   int
	SongCount    int
}

type SearchResult struct {
	Artists []*Artist
	Albums  []*Album
	Songs   []*Song
}

// Search matches query case and accent insensitively as a substring of artist names, album names and
// song titles (songs also match on their artist and album). An empty query matches everything.
func (s *Snapshot) Search(query string, opts SearchOptions) SearchResult {
	q := strings.TrimSpace(util.NormalizeText(query))
	return SearchResult{
		Artists: util.Page(match(s.artistList, s.searchArtists, q), opts.ArtistOffset, opts.ArtistCount),
		Albums:  util.Page(match(s.albumList, s.searchAlbums, q), opts.AlbumOffset, opts.AlbumCount),
		Songs:   util.Page(match(s.songList, s.searchSongs, q), opts.SongOffset, opts.SongCount),
	}
}

func match[T any](list []T, normalized []string, query string) []T {
	if query == "" {
		return list
	}
	result := make([]T, 0)
	for i, n := range normalized {
		if strings.Contains(n, query) {
			result = append(result, list[i])
		}
	}
	return result
}
