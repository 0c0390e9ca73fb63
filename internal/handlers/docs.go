package handlers

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
	"github.com/go-chi/chi/v5"
)

// Access labels for routes that need no permission
const (
	AccessPublic        = "public"
	AccessAuthenticated = "authenticated"
	AccessUnclassified  = "unclassified"
)

// RouteDoc describes one mounted route and what it requires
type RouteDoc struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Access string `json:"access"`
}

// RouteIndex walks routes and labels each with its permission, or with an
// access label when the classifier requires none.
func RouteIndex(routes chi.Routes, engine *authz.Engine) ([]RouteDoc, error) {
	var docs []RouteDoc
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.TrimSuffix(route, "/*")
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		doc := RouteDoc{Method: method, Path: route}
		requirement := authz.Classify(method, route)
		switch {
		case !requirement.Public():
			doc.Access = string(requirement.Permission)
		case engine.Unclassified(method, route):
			doc.Access = AccessUnclassified
		case engine.RequiresAuthentication(route):
			doc.Access = AccessAuthenticated
		default:
			doc.Access = AccessPublic
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Path != docs[j].Path {
			return docs[i].Path < docs[j].Path
		}
		return docs[i].Method < docs[j].Method
	})
	return docs, nil
}

// DocsHandler serves the route index. The index is built on first request,
// after every route has been mounted.
type DocsHandler struct {
	routes chi.Routes
	engine *authz.Engine

	once sync.Once
	docs []RouteDoc
	err  error
}

func NewDocsHandler(routes chi.Routes, engine *authz.Engine) *DocsHandler {
	return &DocsHandler{routes: routes, engine: engine}
}

// Index lists every route with its access requirement
func (h *DocsHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.docs, h.err = RouteIndex(h.routes, h.engine)
	})
	if h.err != nil {
		writeServiceError(w, r, h.err, "Failed to build route index")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": h.docs})
}
