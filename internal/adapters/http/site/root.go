// Package site serves the service banner and the catch-all not-found body.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

// Banner is the message served on GET /.
const Banner = "Savra Teacher Insights API is running"

type message struct {
	Message string `json:"message"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Register attaches the banner and the JSON not-found fallback to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	root := NewRootHandler()
	mux.HandleFunc("GET /{$}", root.HandleRoot)
	mux.HandleFunc("/", root.HandleNotFound)
}

// RootHandler handles root path requests.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET /.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	write(w, http.StatusOK, message{Message: Banner})
}

// HandleNotFound answers unknown paths with a JSON body.
func (h *RootHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	write(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "no route for " + r.URL.Path})
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
