package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/juho05/log"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/handlers/responses"
	"github.com/juho05/melodeon/scanner"
)

const maxBodySize = 1 << 20

func respondErr(w http.ResponseWriter, err error) {
	var catalogErr catalog.Error
	if errors.As(err, &catalogErr) {
		msg := catalogErr.Message
		if msg == "" {
			msg = string(catalogErr.Type)
		} else {
			msg = fmt.Sprintf("%s: %s", catalogErr.Type, msg)
		}
		switch catalogErr.Type {
		case catalog.ErrNotFound:
			responses.EncodeError(w, http.StatusNotFound, msg)
			return
		case catalog.ErrVirtualPlaylist:
			responses.EncodeError(w, http.StatusForbidden, msg)
			return
		case catalog.ErrDuplicateName, catalog.ErrConflict:
			responses.EncodeError(w, http.StatusConflict, msg)
			return
		case catalog.ErrInvalidParams:
			responses.EncodeError(w, http.StatusBadRequest, msg)
			return
		}
	}
	if errors.Is(err, scanner.ErrReplayGainDisabled) {
		responses.EncodeError(w, http.StatusConflict, err.Error())
		return
	}
	respondInternalErr(w, err)
}

func respondInternalErr(w http.ResponseWriter, err error) {
	log.Error(err)
	responses.EncodeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// pathID returns the id path parameter if it is a valid id of one of the allowed types.
// It responds with 404 and returns false otherwise.
func pathID(w http.ResponseWriter, r *http.Request, allowedIDTypes ...melodeon.IDType) (string, bool) {
	id := chi.URLParam(r, "id")
	idType, ok := melodeon.GetIDType(id)
	if !ok || !melodeon.ValidID(id) || !slices.Contains(allowedIDTypes, idType) {
		responses.EncodeError(w, http.StatusNotFound, fmt.Sprintf("%s: %s", catalog.ErrNotFound, id))
		return "", false
	}
	return id, true
}

// decodeBody decodes the JSON request body into v and responds with 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(v)
	if err != nil {
		responses.EncodeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err))
		return false
	}
	return true
}

func validateSongIDs(w http.ResponseWriter, name string, ids []string) bool {
	for _, id := range ids {
		if !melodeon.IsIDType(id, melodeon.IDTypeSong) {
			responses.EncodeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %s", name, id))
			return false
		}
	}
	return true
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	responses.New().EncodeOrLog(w, http.StatusOK)
}
