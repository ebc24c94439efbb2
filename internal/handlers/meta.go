package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const msgServiceUnavailable = "The service is not available"

// ReadinessChecker reports whether the credential store can serve requests.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// RequireStore rejects every request with 503 while the store is not ready.
func RequireStore(checker ReadinessChecker, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := checker.Ready(r.Context()); err != nil {
				log.WithError(err).Warn("credential store not ready")
				writeError(w, http.StatusServiceUnavailable, msgServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Healthz reports store readiness.
func Healthz(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Welcome points clients at the endpoint listing.
func Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Welcome to the authentication API",
		"endpoints": "/endpoints",
	})
}

// Endpoint is one entry of the route listing.
type Endpoint struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// Endpoints lists every route registered on routes, sorted by path.
func Endpoints(routes chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoints, err := listEndpoints(routes)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list endpoints")
			return
		}
		writeJSON(w, http.StatusOK, endpoints)
	}
}

func listEndpoints(routes chi.Routes) ([]Endpoint, error) {
	byPath := map[string][]string{}
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		byPath[route] = append(byPath[route], method)
		return nil
	})
	if err != nil {
		return nil, err
	}

	endpoints := make([]Endpoint, 0, len(byPath))
	for path, methods := range byPath {
		sort.Strings(methods)
		endpoints = append(endpoints, Endpoint{Path: path, Methods: methods})
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Path < endpoints[j].Path })
	return endpoints, nil
}
