package responses

import (
	"encoding/json"
	"net/http"

	"github.com/juho05/log"

	"github.com/juho05/melodeon"
)

type status string

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

type Response struct {
	Status        status `json:"status"`
	Type          string `json:"type"`
	ServerVersion string `json:"serverVersion"`

	Error        *Error        `json:"error,omitempty"`
	ScanStatus   *ScanStatus   `json:"scanStatus,omitempty"`
	Song         *Song         `json:"song,omitempty"`
	Songs        []*Song       `json:"songs,omitempty"`
	Artist       *Artist       `json:"artist,omitempty"`
	Artists      []*Artist     `json:"artists,omitempty"`
	Album        *Album        `json:"album,omitempty"`
	Albums       []*Album      `json:"albums,omitempty"`
	Directory    *Directory    `json:"directory,omitempty"`
	Genres       []*Genre      `json:"genres,omitempty"`
	Playlist     *Playlist     `json:"playlist,omitempty"`
	Playlists    []*Playlist   `json:"playlists,omitempty"`
	SearchResult *SearchResult `json:"searchResult,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func New() Response {
	return Response{
		Status:        statusOK,
		Type:          melodeon.ServerName,
		ServerVersion: melodeon.Version,
	}
}

func EncodeError(w http.ResponseWriter, code int, msg string) {
	r := New()
	r.Status = statusFailed
	r.Error = &Error{
		Code:    code,
		Message: msg,
	}
	r.EncodeOrLog(w, code)
}

func (r Response) EncodeOrLog(w http.ResponseWriter, code int) {
	err := r.Encode(w, code)
	if err != nil {
		log.Error(err)
	}
}

func (r Response) Encode(w http.ResponseWriter, code int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(r)
}
