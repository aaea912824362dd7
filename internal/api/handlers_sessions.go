package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/firdesk/internal/catalog"
	"github.com/dgallion1/firdesk/internal/classify"
	"github.com/dgallion1/firdesk/internal/collector"
	"github.com/dgallion1/firdesk/internal/docpath"
	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/dgallion1/firdesk/internal/llm"
	"github.com/dgallion1/firdesk/internal/session"
	"github.com/dgallion1/firdesk/internal/statement"
	"github.com/go-chi/chi/v5"
)

const answerCheckTimeout = 15 * time.Second

type sessionView struct {
	session.Snapshot
	Check    string             `json:"check,omitempty"`
	Sections []classify.Section `json:"sections,omitempty"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.deps.Sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) catalogFor(name string) (*catalog.Catalog, error) {
	if name == "" && s.deps.Catalog != nil {
		return s.deps.Catalog, nil
	}
	if name == "" {
		name = "fir"
	}
	return catalog.Load(name)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Catalog string `json:"catalog"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	cat, err := s.catalogFor(req.Catalog)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	sess, err := s.deps.Sessions.Create(cat)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView{Snapshot: sess.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Snapshot: sess.Snapshot()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Sessions.Delete(chi.URLParam(r, "id")) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Answer string `json:"answer"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	var field collector.Field
	err := sess.Do(func(c *collector.Collector) error {
		f, ok := c.Current()
		if !ok {
			return collector.ErrComplete
		}
		field = f
		return c.Submit(req.Answer)
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	view := sessionView{Snapshot: sess.Snapshot()}
	if s.cfg.LLMCheckAnswers && s.deps.LLM != nil {
		view.Check = s.checkAnswer(r.Context(), field, req.Answer)
	}
	writeJSON(w, http.StatusOK, view)
}

// checkAnswer asks the language model for an advisory opinion. Failures are
// logged and yield no opinion.
func (s *Server) checkAnswer(ctx context.Context, field collector.Field, answer string) string {
	ctx, cancel := context.WithTimeout(ctx, answerCheckTimeout)
	defer cancel()
	resp, err := s.deps.LLM.Generate(ctx, llm.Request{
		Prompt:      llm.ValidationPrompt(field.Label, strings.TrimSpace(answer)),
		Temperature: llm.DefaultTemperature,
	})
	if err != nil {
		s.log.Warn("answer check failed", "field", field.Key, "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Text)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Skip(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Snapshot: sess.Snapshot()})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Back()
	writeJSON(w, http.StatusOK, sessionView{Snapshot: sess.Snapshot()})
}

func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Path  string `json:"path"`
		Value any    `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Edit(req.Path, req.Value); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Snapshot: sess.Snapshot()})
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !statement.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := statement.Import(bytes.NewReader(data), filename)
	if err != nil {
		if errors.Is(err, statement.ErrEmpty) {
			writeErr(w, err)
			return
		}
		jsonError(w, "could not read statement: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Edit("firstInformationContents", doc.Text()); err != nil {
		writeErr(w, err)
		return
	}
	s.log.Info("statement imported", "session_id", sess.ID, "filename", filename, "sections", len(doc.Sections))
	writeJSON(w, http.StatusOK, sessionView{Snapshot: sess.Snapshot()})
}

func (s *Server) handleSessionSections(w http.ResponseWriter, r *http.Request) {
	if s.deps.Classifier == nil {
		jsonError(w, "section classifier unavailable", http.StatusServiceUnavailable)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v, _ := docpath.Get(sess.Document(), "firstInformationContents")
	text, _ := v.(string)
	sections, err := s.deps.Classifier.Predict(r.Context(), text)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := sess.Edit("section2", fir.SectionList(sections)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Snapshot: sess.Snapshot(), Sections: sections})
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id, fresh, err := sess.Save(r.Context(), func(ctx context.Context, doc any) (string, error) {
		return s.deps.Store.Save(ctx, fir.Normalize(doc))
	})
	if err != nil {
		if errors.Is(err, session.ErrNotComplete) {
			writeErr(w, err)
			return
		}
		s.log.Error("save session failed", "session_id", sess.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if fresh {
		s.log.Info("fir saved", "id", id, "session_id", sess.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id, "fresh": fresh})
}
