package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/handlers/responses"
	"github.com/juho05/melodeon/util"
)

func (h *Handler) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypeSong)
	if !ok {
		return
	}
	song, err := h.Scanner.Catalog().Song(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	res := responses.New()
	res.Song = responses.NewSong(song)
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetArtists(w http.ResponseWriter, r *http.Request) {
	res := responses.New()
	res.Artists = responses.NewArtists(h.Scanner.Catalog().Artists())
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypeArtist)
	if !ok {
		return
	}
	snapshot := h.Scanner.Catalog()
	artist, err := snapshot.Artist(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	albums, err := snapshot.ArtistAlbums(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	res := responses.New()
	res.Artist = responses.NewArtist(artist)
	res.Artist.Albums = responses.NewAlbums(albums)
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetAlbums(w http.ResponseWriter, r *http.Request) {
	q := getQuery(w, r)
	offset, count, ok := q.Paginate("count", "offset", maxListSize)
	if !ok {
		return
	}
	res := responses.New()
	res.Albums = responses.NewAlbums(util.Page(h.Scanner.Catalog().Albums(), offset, count))
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypeAlbum)
	if !ok {
		return
	}
	album, err := h.Scanner.Catalog().Album(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	res := responses.New()
	res.Album = responses.NewAlbumWithSongs(album)
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetRootDirectory(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Scanner.Catalog()
	res := responses.New()
	res.Directory = responses.NewDirectory(snapshot.RootDirectory(), snapshot.Directory)
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetDirectory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypeDirectory)
	if !ok {
		return
	}
	snapshot := h.Scanner.Catalog()
	dir, err := snapshot.Directory(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	res := responses.New()
	res.Directory = responses.NewDirectory(dir, snapshot.Directory)
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetGenres(w http.ResponseWriter, r *http.Request) {
	res := responses.New()
	res.Genres = responses.NewGenres(h.Scanner.Catalog().Genres())
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetSongsByGenre(w http.ResponseWriter, r *http.Request) {
	q := getQuery(w, r)
	offset, count, ok := q.Paginate("count", "offset", 10)
	if !ok {
		return
	}
	genre := chi.URLParam(r, "name")
	res := responses.New()
	res.Songs = responses.NewSongs(h.Scanner.Catalog().SongsByGenre(genre, offset, count))
	res.EncodeOrLog(w, http.StatusOK)
}
