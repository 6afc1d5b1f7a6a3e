package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

func wantsFragment(r *http.Request) bool {
	return r.Header.Get(middleware.HeaderFragment) != ""
}

// writeHTML renders into a buffer first so a failed render never leaves a
// half-written page behind.
func writeHTML(w http.ResponseWriter, r *http.Request, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "render failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}
