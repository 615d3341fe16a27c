package handlers

import (
	"net/http"

	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/handlers/responses"
)

func (h *Handler) handleGetRandomSongs(w http.ResponseWriter, r *http.Request) {
	q := getQuery(w, r)
	count, ok := q.IntRangeDef("count", 0, maxListSize, 10)
	if !ok {
		return
	}
	res := responses.New()
	res.Songs = responses.NewSongs(h.Scanner.Catalog().RandomSongs(count))
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetRandomAlbums(w http.ResponseWriter, r *http.Request) {
	q := getQuery(w, r)
	count, ok := q.IntRangeDef("count", 0, maxListSize, 10)
	if !ok {
		return
	}
	res := responses.New()
	res.Albums = responses.NewAlbums(h.Scanner.Catalog().RandomAlbums(count))
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetNewestAlbums(w http.ResponseWriter, r *http.Request) {
	q := getQuery(w, r)
	offset, count, ok := q.Paginate("count", "offset", 10)
	if !ok {
		return
	}
	res := responses.New()
	res.Albums = responses.NewAlbums(h.Scanner.Catalog().NewestAlbums(offset, count))
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := getQuery(w, r)
	var opts catalog.SearchOptions
	var ok bool
	if opts.ArtistOffset, opts.ArtistCount, ok = q.Paginate("artistCount", "artistOffset", 20); !ok {
		return
	}
	if opts.AlbumOffset, opts.AlbumCount, ok = q.Paginate("albumCount", "albumOffset", 20); !ok {
		return
	}
	if opts.SongOffset, opts.SongCount, ok = q.Paginate("songCount", "songOffset", 20); !ok {
		return
	}
	res := responses.New()
	res.SearchResult = responses.NewSearchResult(h.Scanner.Catalog().Search(q.Str("q"), opts))
	res.EncodeOrLog(w, http.StatusOK)
}
