package handlers

import (
	"net/http"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/handlers/responses"
	"github.com/juho05/melodeon/scanner"
)

func (h *Handler) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	res := responses.New()
	res.Playlists = responses.NewPlaylists(h.Scanner.Catalog().Playlists())
	res.EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypePlaylist)
	if !ok {
		return
	}
	playlist, err := h.Scanner.Catalog().Playlist(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	h.respondPlaylist(w, http.StatusOK, playlist)
}

type playlistBody struct {
	Name    string   `json:"name"`
	Comment string   `json:"comment"`
	SongIDs []string `json:"songIds"`
}

func (h *Handler) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body playlistBody
	if !decodeBody(w, r, &body) || !validateSongIDs(w, "songIds", body.SongIDs) {
		return
	}
	playlist, err := h.Scanner.CreatePlaylist(r.Context(), body.Name, body.Comment, body.SongIDs)
	if err != nil {
		respondErr(w, err)
		return
	}
	h.respondPlaylist(w, http.StatusCreated, playlist)
}

// handleReplacePlaylist replaces name, comment and songs of a playlist.
func (h *Handler) handleReplacePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypePlaylist)
	if !ok {
		return
	}
	var body playlistBody
	if !decodeBody(w, r, &body) || !validateSongIDs(w, "songIds", body.SongIDs) {
		return
	}
	playlist, err := h.Scanner.UpdatePlaylist(r.Context(), id, body.Name, body.Comment, body.SongIDs)
	if err != nil {
		respondErr(w, err)
		return
	}
	h.respondPlaylist(w, http.StatusOK, playlist)
}

type playlistPatch struct {
	Name                *string  `json:"name"`
	Comment             *string  `json:"comment"`
	SongIDsToAdd        []string `json:"songIdsToAdd"`
	SongIndicesToRemove []int    `json:"songIndicesToRemove"`
}

// handleUpdatePlaylist applies removals, then additions, then name and comment changes.
// Removal indices refer to the playable entries before the update.
func (h *Handler) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypePlaylist)
	if !ok {
		return
	}
	var body playlistPatch
	if !decodeBody(w, r, &body) || !validateSongIDs(w, "songIdsToAdd", body.SongIDsToAdd) {
		return
	}

	playlist, err := h.Scanner.PatchPlaylist(r.Context(), id, scanner.PlaylistPatch{
		Name:                body.Name,
		Comment:             body.Comment,
		SongIDsToAdd:        body.SongIDsToAdd,
		SongIndicesToRemove: body.SongIndicesToRemove,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	h.respondPlaylist(w, http.StatusOK, playlist)
}

func (h *Handler) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypePlaylist)
	if !ok {
		return
	}
	err := h.Scanner.DeletePlaylist(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	responses.New().EncodeOrLog(w, http.StatusOK)
}

func (h *Handler) respondPlaylist(w http.ResponseWriter, code int, playlist *catalog.Playlist) {
	res := responses.New()
	res.Playlist = responses.NewPlaylistWithEntries(playlist)
	res.EncodeOrLog(w, code)
}
