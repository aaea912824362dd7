package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/firdesk/internal/catalog"
	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/dgallion1/firdesk/internal/render"
	"github.com/dgallion1/firdesk/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSaveFIR(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := decodeJSON(r, &doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json: " + err.Error()})
		return
	}
	id, err := s.deps.Store.Save(r.Context(), fir.Normalize(doc))
	if err != nil {
		s.log.Error("save fir failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	s.log.Info("fir saved", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (s *Server) handleListFIRs(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultRecent
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			jsonError(w, "limit must be between 1 and 200", http.StatusBadRequest)
			return
		}
		limit = n
	}
	records, err := s.deps.Store.Recent(r.Context(), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetFIR(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (string, fir.Report, bool) {
	id := chi.URLParam(r, "id")
	rec, err := s.deps.Store.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return "", fir.Report{}, false
	}
	report, err := fir.Decode(rec.Document)
	if err != nil {
		writeErr(w, &render.RenderingError{Stage: "decode", Err: err})
		return "", fir.Report{}, false
	}
	return id, report, true
}

func (s *Server) handleFIRHTML(w http.ResponseWriter, r *http.Request) {
	_, report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	html, err := render.FillHTML(report)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleFIRPDF(w http.ResponseWriter, r *http.Request) {
	if s.deps.Renderer == nil {
		jsonError(w, "pdf rendering unavailable", http.StatusServiceUnavailable)
		return
	}
	id, report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	pdf, err := s.deps.Renderer.Render(r.Context(), report)
	if err != nil {
		s.log.Error("render fir failed", "id", id, "error", err)
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="fir_%s.pdf"`, sanitizeFilename(id)))
	w.Write(pdf)
}

func (s *Server) handleCatalogs(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"catalogs": catalog.Names()}
	if s.deps.Catalog != nil {
		resp["default"] = s.deps.Catalog.Name
	}
	writeJSON(w, http.StatusOK, resp)
}
