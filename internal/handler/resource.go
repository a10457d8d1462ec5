// Package handler binds the generic list/detail/mutation flow to one
// resource descriptor per route. Every resource route is the same
// handler parameterized by its descriptor.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/logger"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/store"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/validate"
)

// Store is the persistence surface the handlers need; *store.Store
// implements it.
type Store interface {
	List(ctx context.Context, res *resource.Resource, q resource.ListQuery) ([]store.Record, int64, error)
	FindWhere(ctx context.Context, res *resource.Resource, filters map[string]string, limit int) ([]store.Record, error)
	Top(ctx context.Context, res *resource.Resource, orderExpr string, limit int) ([]store.Record, error)
	GetForView(ctx context.Context, res *resource.Resource, id uuid.UUID) (*store.Record, error)
	Get(ctx context.Context, res *resource.Resource, id uuid.UUID) (*store.Record, error)
	IncrementDownloads(ctx context.Context, res *resource.Resource, id uuid.UUID) (*store.Record, error)
	Create(ctx context.Context, res *resource.Resource, body map[string]any, published bool) (*store.Record, error)
	Update(ctx context.Context, res *resource.Resource, id uuid.UUID, body map[string]any, published bool) (*store.Record, error)
	Delete(ctx context.Context, res *resource.Resource, id uuid.UUID) error
	ExpandRefs(ctx context.Context, res *resource.Resource, rec *store.Record) (map[string][]map[string]any, error)
}

type Handler struct {
	store Store
}

func New(s Store) *Handler {
	return &Handler{store: s}
}

// List handles GET /api/<resource>.
func (h *Handler) List(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		q := resource.ListQuery{
			Page:    resource.ParsePage(values),
			Filters: collectFilters(res, values),
			Search:  values.Get("search"),
		}
		records, total, err := h.store.List(r.Context(), res, q)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writePage(w, recordsJSON(res, records), Pagination{
			Page:  q.Page.Page,
			Limit: q.Page.Limit,
			Total: total,
			Pages: q.Page.Pages(total),
		})
	}
}

// Detail handles GET /api/<resource>/{id}: counter increment plus
// cross-reference expansion.
func (h *Handler) Detail(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		rec, err := h.store.GetForView(r.Context(), res, id)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		refs, err := h.store.ExpandRefs(r.Context(), res, rec)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		writeData(w, http.StatusOK, recordJSON(res, rec, refs))
	}
}

// Create handles POST /api/<resource>.
func (h *Handler) Create(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		published, ok := popPublished(w, body, res.PublishDefault)
		if !ok {
			return
		}
		stripReserved(body)
		validate.ApplyDefaults(res, body)
		if err := validate.Record(res, body); err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		validate.Normalize(res, body)

		rec, err := h.store.Create(r.Context(), res, body, published)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		logger.Info("record_created", map[string]any{"resource": res.Name, "id": rec.ID.String()})
		writeData(w, http.StatusCreated, recordJSON(res, rec, nil))
	}
}

// Update handles PUT /api/<resource>/{id}: merge semantics, the whole
// merged document is re-validated before the write.
func (h *Handler) Update(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		patch, ok := decodeBody(w, r)
		if !ok {
			return
		}
		publishedPatch, hasPublished, ok := popPublishedOptional(w, patch)
		if !ok {
			return
		}
		stripReserved(patch)

		existing, err := h.store.Get(r.Context(), res, id)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		merged := make(map[string]any, len(existing.Body)+len(patch))
		for k, v := range existing.Body {
			merged[k] = v
		}
		for k, v := range patch {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		if err := validate.Record(res, merged); err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		validate.Normalize(res, merged)

		published := existing.Published
		if hasPublished {
			published = publishedPatch
		}
		rec, err := h.store.Update(r.Context(), res, id, merged, published)
		if err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		logger.Info("record_updated", map[string]any{"resource": res.Name, "id": rec.ID.String()})
		writeData(w, http.StatusOK, recordJSON(res, rec, nil))
	}
}

// Delete handles DELETE /api/<resource>/{id}. Hard delete; a repeated
// delete of the same id yields 404.
func (h *Handler) Delete(res *resource.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := h.store.Delete(r.Context(), res, id); err != nil {
			writeFailure(w, r.URL.Path, err)
			return
		}
		logger.Info("record_deleted", map[string]any{"resource": res.Name, "id": id.String()})
		writeMessage(w, http.StatusOK, "record deleted")
	}
}

// pathID parses the {id} path variable. A malformed id is a 400,
// distinct from the 404 of an id that simply does not resolve.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed record id")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, true
}

func popPublished(w http.ResponseWriter, body map[string]any, fallback bool) (bool, bool) {
	v, has, ok := popPublishedOptional(w, body)
	if !ok {
		return false, false
	}
	if !has {
		return fallback, true
	}
	return v, true
}

func popPublishedOptional(w http.ResponseWriter, body map[string]any) (value, present, ok bool) {
	raw, has := body["isPublished"]
	if !has {
		return false, false, true
	}
	b, isBool := raw.(bool)
	if !isBool {
		writeError(w, http.StatusBadRequest, "isPublished: must be a boolean")
		return false, false, false
	}
	delete(body, "isPublished")
	return b, true, true
}

// stripReserved drops store-managed attributes from a submitted body;
// counters and timestamps are never client-settable.
func stripReserved(body map[string]any) {
	for _, key := range []string{"id", "views", "downloads", "createdAt", "updatedAt"} {
		delete(body, key)
	}
}

func collectFilters(res *resource.Resource, values url.Values) map[string]string {
	filters := map[string]string{}
	for param := range res.Filters {
		if v := values.Get(param); v != "" {
			filters[param] = v
		}
	}
	return filters
}

func recordJSON(res *resource.Resource, rec *store.Record, refs map[string][]map[string]any) map[string]any {
	out := make(map[string]any, len(rec.Body)+6)
	for k, v := range rec.Body {
		out[k] = v
	}
	for field, items := range refs {
		out[field] = items
	}
	out["id"] = rec.ID.String()
	out["isPublished"] = rec.Published
	if res.ViewCounted {
		out["views"] = rec.Views
	}
	if res.Downloads {
		out["downloads"] = rec.Downloads
	}
	out["createdAt"] = rec.CreatedAt.UTC()
	out["updatedAt"] = rec.UpdatedAt.UTC()
	return out
}

func recordsJSON(res *resource.Resource, records []store.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for i := range records {
		out = append(out, recordJSON(res, &records[i], nil))
	}
	return out
}
