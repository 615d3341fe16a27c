package handlers

import (
	"net/http"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/handlers/responses"
)

func (h *Handler) handleGetScanStatus(w http.ResponseWriter, r *http.Request) {
	h.respondScanStatus(w, http.StatusOK)
}

// handleStartScan starts a scan in the background. A request during a running scan is a no-op.
func (h *Handler) handleStartScan(w http.ResponseWriter, r *http.Request) {
	q := getQuery(w, r)
	full, ok := q.Bool("full", false)
	if !ok {
		return
	}
	if !h.Scanner.Status().Scanning {
		// errors are logged and reported by the scan status
		go h.Scanner.Scan(h.ctx, full)
	}
	h.respondScanStatus(w, http.StatusAccepted)
}

func (h *Handler) respondScanStatus(w http.ResponseWriter, code int) {
	res := responses.New()
	res.ScanStatus = responses.NewScanStatus(h.Scanner.Status(), h.Scanner.Catalog().SongCount())
	res.EncodeOrLog(w, code)
}

func (h *Handler) handleRecomputeReplayGain(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, melodeon.IDTypeSong)
	if !ok {
		return
	}
	song, err := h.Scanner.RecomputeReplayGain(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	res := responses.New()
	res.Song = responses.NewSong(song)
	res.EncodeOrLog(w, http.StatusOK)
}
