package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/firdesk/internal/classify"
	"github.com/dgallion1/firdesk/internal/collector"
	"github.com/dgallion1/firdesk/internal/docpath"
	"github.com/dgallion1/firdesk/internal/places"
	"github.com/dgallion1/firdesk/internal/render"
	"github.com/dgallion1/firdesk/internal/session"
	"github.com/dgallion1/firdesk/internal/statement"
	"github.com/dgallion1/firdesk/internal/store"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": "encode response: " + err.Error()})
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n'))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// statusFor maps a collaborator error to an HTTP status.
func statusFor(err error) int {
	var inputErr *collector.InputError
	var classErr *classify.ClassificationError
	var renderErr *render.RenderingError
	var persistErr *store.PersistenceError
	switch {
	case errors.As(err, &inputErr), errors.Is(err, statement.ErrEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrComplete),
		errors.Is(err, docpath.ErrPathConflict),
		errors.Is(err, session.ErrNotComplete):
		return http.StatusConflict
	case errors.Is(err, docpath.ErrInvalidPath),
		errors.Is(err, classify.ErrEmptyText),
		errors.Is(err, places.ErrCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, places.ErrNoStations):
		return http.StatusNotFound
	case errors.As(err, &classErr):
		return http.StatusBadGateway
	case errors.As(err, &renderErr), errors.As(err, &persistErr):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// writeErr answers with the error envelope; input errors also name the field.
func writeErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	var inputErr *collector.InputError
	if errors.As(err, &inputErr) {
		writeJSON(w, code, map[string]string{"error": inputErr.Err.Error(), "field": inputErr.Key})
		return
	}
	jsonError(w, err.Error(), code)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
