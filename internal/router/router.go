package router

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/config"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/handler"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/logger"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
)

// resourcePaths maps URL segments onto registry names. Every listed
// resource gets the uniform list/detail/create/update/delete routes.
var resourcePaths = []string{"legislation", "knowledge-bank", "news", "library", "branches", "sections"}

// New builds the full route table over the resource registry.
func New(cfg *config.Config, h *handler.Handler) (*mux.Router, error) {
	r := mux.NewRouter()
	wrap := func(fn http.HandlerFunc) http.Handler {
		return withCORS(cfg.CORS.AllowOrigin, cfg.CORS.AllowCredentials, withLogging(fn))
	}

	lookup := func(name string) (*resource.Resource, error) {
		res := resource.Get(name)
		if res == nil {
			return nil, fmt.Errorf("resource %q not found in registry", name)
		}
		return res, nil
	}

	// resource-specific routes go first so they are not shadowed by {id}
	news, err := lookup("news")
	if err != nil {
		return nil, err
	}
	r.Handle("/api/news/featured/pinned", wrap(h.Pinned(news))).Methods(http.MethodGet, http.MethodOptions)

	library, err := lookup("library")
	if err != nil {
		return nil, err
	}
	r.Handle("/api/library/top/downloads", wrap(h.TopDownloads(library))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/api/library/{id}/download", wrap(h.Download(library))).Methods(http.MethodPost, http.MethodOptions)

	knowledge, err := lookup("knowledge-bank")
	if err != nil {
		return nil, err
	}
	r.Handle("/api/knowledge-bank/top/rated", wrap(h.TopRated(knowledge))).Methods(http.MethodGet, http.MethodOptions)

	branches, err := lookup("branches")
	if err != nil {
		return nil, err
	}
	sections, err := lookup("sections")
	if err != nil {
		return nil, err
	}
	r.Handle("/api/branches/code/{code}", wrap(h.ByCode(branches))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/api/branches/city/{city}", wrap(h.ByCity(branches))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/api/branches/{id}/sections", wrap(h.BranchSections(sections))).Methods(http.MethodGet, http.MethodOptions)

	for _, path := range resourcePaths {
		res, err := lookup(path)
		if err != nil {
			return nil, err
		}
		base := "/api/" + path
		r.Handle(base, wrap(h.List(res))).Methods(http.MethodGet, http.MethodOptions)
		r.Handle(base, wrap(h.Create(res))).Methods(http.MethodPost, http.MethodOptions)
		r.Handle(base+"/{id}", wrap(h.Detail(res))).Methods(http.MethodGet, http.MethodOptions)
		r.Handle(base+"/{id}", wrap(h.Update(res))).Methods(http.MethodPut, http.MethodOptions)
		r.Handle(base+"/{id}", wrap(h.Delete(res))).Methods(http.MethodDelete, http.MethodOptions)
	}

	return r, nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		fields := map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": sw.status,
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
