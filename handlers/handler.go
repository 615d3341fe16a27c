package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/juho05/melodeon/scanner"
)

type Handler struct {
	router  chi.Router
	Scanner *scanner.Scanner

	// ctx is the lifetime of background work started by requests, e.g. scans.
	ctx context.Context
}

func New(ctx context.Context, scanner *scanner.Scanner) *Handler {
	h := &Handler{
		Scanner: scanner,
		ctx:     ctx,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.handlePing)
		r.Get("/scan", h.handleGetScanStatus)
		r.Post("/scan", h.handleStartScan)

		r.Get("/songs/{id}", h.handleGetSong)
		r.Post("/songs/{id}/replaygain", h.handleRecomputeReplayGain)
		r.Get("/artists", h.handleGetArtists)
		r.Get("/artists/{id}", h.handleGetArtist)
		r.Get("/albums", h.handleGetAlbums)
		r.Get("/albums/{id}", h.handleGetAlbum)
		r.Get("/directories", h.handleGetRootDirectory)
		r.Get("/directories/{id}", h.handleGetDirectory)
		r.Get("/genres", h.handleGetGenres)
		r.Get("/genres/{name}/songs", h.handleGetSongsByGenre)

		r.Get("/random/songs", h.handleGetRandomSongs)
		r.Get("/random/albums", h.handleGetRandomAlbums)
		r.Get("/newest/albums", h.handleGetNewestAlbums)
		r.Get("/search", h.handleSearch)

		r.Get("/playlists", h.handleGetPlaylists)
		r.Post("/playlists", h.handleCreatePlaylist)
		r.Get("/playlists/{id}", h.handleGetPlaylist)
		r.Patch("/playlists/{id}", h.handleUpdatePlaylist)
		r.Put("/playlists/{id}", h.handleReplacePlaylist)
		r.Delete("/playlists/{id}", h.handleDeletePlaylist)
	})

	h.router = r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.StripSlashes(h.router).ServeHTTP(w, r)
}
