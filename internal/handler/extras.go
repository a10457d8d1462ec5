package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
)

// Pinned handles GET /api/news/featured/pinned: the five most recent
// pinned published news items.
func (h *Handler) Pinned(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.store.FindWhere(r.Context(), res, map[string]string{"isPinned": "true"}, 5)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writeData(w, http.StatusOK, recordsJSON(res, records))
	}
}

// TopDownloads handles GET /api/library/top/downloads.
func (h *Handler) TopDownloads(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.store.Top(r.Context(), res, "downloads DESC", limitParam(r, resource.DefaultLimit))
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writeData(w, http.StatusOK, recordsJSON(res, records))
	}
}

// Download handles POST /api/library/{id}/download: an atomic
// download-counter increment returning the post-increment record.
func (h *Handler) Download(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		rec, err := h.store.IncrementDownloads(r.Context(), res, id)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writeData(w, http.StatusOK, recordJSON(res, rec, nil))
	}
}

// TopRated handles GET /api/knowledge-bank/top/rated.
func (h *Handler) TopRated(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.store.Top(r.Context(), res, "(body->>'rating')::numeric DESC NULLS LAST", limitParam(r, resource.DefaultLimit))
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writeData(w, http.StatusOK, recordsJSON(res, records))
	}
}

// ByCode handles GET /api/branches/code/{code}. Codes are stored
// upper-cased, so the lookup is case-insensitive by normalization.
func (h *Handler) ByCode(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(mux.Vars(r)["code"])
		records, err := h.store.FindWhere(r.Context(), res, map[string]string{"code": code}, 1)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		if len(records) == 0 {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeData(w, http.StatusOK, recordJSON(res, &records[0], nil))
	}
}

// ByCity handles GET /api/branches/city/{city}: case-insensitive
// substring match on the branch city.
func (h *Handler) ByCity(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city := mux.Vars(r)["city"]
		records, err := h.store.FindWhere(r.Context(), res, map[string]string{"city": city}, resource.MaxLimit)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writeData(w, http.StatusOK, recordsJSON(res, records))
	}
}

// BranchSections handles GET /api/branches/{id}/sections.
func (h *Handler) BranchSections(sections *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		records, err := h.store.FindWhere(r.Context(), sections, map[string]string{"branchId": id.String()}, resource.MaxLimit)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writeData(w, http.StatusOK, recordsJSON(sections, records))
	}
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > resource.MaxLimit {
		return resource.MaxLimit
	}
	return n
}
