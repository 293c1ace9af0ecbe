package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jmarchini/octable/internal/core"
	"github.com/jmarchini/octable/internal/logging"
	"github.com/jmarchini/octable/internal/web/templates"
)

// handleUploadPage renders the landing page.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Layout("Table Editor", templates.UploadPage()).Render(r.Context(), w)
}

// handleEditorPage renders the editing surface for a live session.
func (s *Server) handleEditorPage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	view, err := s.service.CurrentView(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	info, err := s.service.Info(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Layout("Editing "+info.FileName, templates.EditorPage(templates.EditorPageData{
		SessionID: sessionID,
		Kind:      string(info.Kind),
		FileName:  info.FileName,
		TableHTML: view.HTML,
		CanUndo:   view.CanUndo,
		CanRedo:   view.CanRedo,
	})).Render(r.Context(), w)
}

// handleHealth reports liveness plus the current session count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"sessions": s.service.Sessions().Len(),
	})
}

// handleUpload validates an uploaded file and starts an editing session.
// The form field name selects the table kind: metadata_file or
// citations_file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}

	kind, file, header, err := uploadedFile(r)
	if err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		s.respondErrorStatus(w, r, fmt.Errorf("invalid csv: %q is not a .csv file", header.Filename), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		s.respondErrorStatus(w, r, errors.New("empty file"), http.StatusBadRequest)
		return
	}

	verifyIDs := r.FormValue("verify_id_existence") == "true"

	sess, err := s.service.CreateSession(r.Context(), kind, header.Filename, data, verifyIDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("session created",
		"session_id", sess.ID,
		"kind", kind,
		"file", header.Filename,
		"bytes", len(data),
	)

	writeJSON(w, map[string]string{
		"sessionId": sess.ID,
		"editorUrl": "/editor/" + sess.ID,
	})
}

// uploadedFile picks the table kind from whichever upload field is present.
func uploadedFile(r *http.Request) (core.TableKind, multipart.File, *multipart.FileHeader, error) {
	if file, header, err := r.FormFile("metadata_file"); err == nil {
		return core.KindMeta, file, header, nil
	}
	if file, header, err := r.FormFile("citations_file"); err == nil {
		return core.KindCits, file, header, nil
	}
	return "", nil, nil, errors.New("no file provided")
}

// sessionRequest is the common JSON body for session-scoped operations.
type sessionRequest struct {
	SessionID string `json:"sessionId"`
	IssueID   string `json:"issueId,omitempty"`
	Name      string `json:"name,omitempty"`
	DraftID   string `json:"draftId,omitempty"`
}

// commandRequest is the JSON body for POST /api/edit/item.
type commandRequest struct {
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`
	ItemID    string `json:"itemId,omitempty"`
	Index     int    `json:"index,omitempty"`
	Value     string `json:"value,omitempty"`
	RowID     string `json:"rowId,omitempty"`
	Position  *int   `json:"position,omitempty"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidCommand, err)
	}
	return nil
}

// handleCurrentView returns the session's current (possibly filtered) view.
func (s *Server) handleCurrentView(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.CurrentView(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleEditItem applies one edit command and returns the refreshed view.
func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}

	cmd := core.Command{
		Kind:     core.CommandKind(req.Kind),
		ItemID:   core.ItemID(req.ItemID),
		Index:    req.Index,
		Value:    req.Value,
		RowID:    core.RowID(req.RowID),
		Position: -1,
	}
	if req.Position != nil {
		cmd.Position = *req.Position
	}

	ctx := WithRequestMetadata(r.Context(), r)
	view, err := s.service.ApplyCommand(ctx, req.SessionID, cmd)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleUndo reverts the most recent edit.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	view, err := s.service.Undo(r.Context(), req.SessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleRedo re-applies the most recently undone edit.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	view, err := s.service.Redo(r.Context(), req.SessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleFilteredRows restricts the view to the rows implicated by one issue.
func (s *Server) handleFilteredRows(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	view, err := s.service.FilteredRows(r.Context(), req.SessionID, req.IssueID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleClearFilter restores the full table view.
func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	view, err := s.service.ClearFilter(r.Context(), req.SessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleChanges lists every edited or added item against the baseline.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := s.service.Changes(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"changes": changes,
		"count":   len(changes),
	})
}

// handleRevalidate runs the current table back through the validator.
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	view, errorCount, err := s.service.Revalidate(r.Context(), req.SessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("session revalidated",
		"session_id", req.SessionID,
		"error_count", errorCount,
	)

	writeJSON(w, map[string]any{
		"view":       view,
		"errorCount": errorCount,
	})
}

// handleExport serializes the table and streams it as a CSV download.
// Exporting accepts the current state: the baseline resets to it.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.service.ExportCSV(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

// handleSessionInfo returns the session's metadata projection.
func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Info(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, info)
}

// handleEndSession destroys a session.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.service.EndSession(r.Context(), sessionID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "sessionId": sessionID})
}

// handleSaveDraft persists the session's current state under a name.
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.service.SaveDraft(r.Context(), req.SessionID, req.Name); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "saved"})
}

// handleLoadDraft reconstructs a live session from a persisted draft.
func (s *Server) handleLoadDraft(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	sess, err := s.service.LoadDraft(r.Context(), req.DraftID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{
		"sessionId": sess.ID,
		"editorUrl": "/editor/" + sess.ID,
	})
}

// handleListDrafts returns draft metadata, most recently updated first.
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.service.ListDrafts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if drafts == nil {
		drafts = []core.DraftInfo{}
	}
	writeJSON(w, drafts)
}

// handleDeleteDraft removes a persisted draft.
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.DeleteDraft(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "draftId": id})
}
