package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ValidationResult is what the external validation rule engine returns: the
// annotated rendering of the table plus the number of findings.
type ValidationResult struct {
	HTML       string
	ErrorCount int
}

// Validator is the boundary to the external validation rule engine. The
// engine decides what is well-formed and produces the issue-annotated
// rendering; this core only parses its output.
type Validator interface {
	Validate(ctx context.Context, kind TableKind, csvData []byte, verifyIDs bool) (*ValidationResult, error)
}

// Draft is a persisted snapshot of an editing session: enough to
// reconstruct a live session later. History is not persisted; a reloaded
// draft starts with an empty undo log.
type Draft struct {
	ID          string
	Name        string
	Kind        TableKind
	FileName    string
	VerifyIDs   bool
	CSV         []byte // current table state
	BaselineCSV []byte // baseline at save time, for change tracking
	EditedItems int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DraftInfo is the listing projection of a draft.
type DraftInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        TableKind `json:"kind"`
	FileName    string    `json:"fileName"`
	EditedItems int       `json:"editedItems"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EditRecord is one audit entry for an applied command.
type EditRecord struct {
	SessionID string
	Action    string
	ItemID    string
	RowID     string
	OldValue  string
	NewValue  string
	ClientIP  string
	UserAgent string
}

// DraftStore persists drafts and the edit audit trail.
// Implemented by the Postgres store; satisfied by fakes in tests.
type DraftStore interface {
	SaveDraft(ctx context.Context, d Draft) error
	LoadDraft(ctx context.Context, id string) (*Draft, error)
	ListDrafts(ctx context.Context) ([]DraftInfo, error)
	DeleteDraft(ctx context.Context, id string) (bool, error)
	RecordEdit(ctx context.Context, rec EditRecord) error
}

// View is the rendered projection returned by every session operation.
type View struct {
	HTML        string `json:"html"`
	Filtered    bool   `json:"filtered"`
	IssueID     string `json:"issueId,omitempty"`
	RowIndices  []int  `json:"rowIndices,omitempty"`
	RowCount    int    `json:"rowCount"`
	CanUndo     bool   `json:"canUndo"`
	CanRedo     bool   `json:"canRedo"`
	EditedItems int    `json:"editedItems"`
	Noop        bool   `json:"noop,omitempty"`
}

// SessionInfo is the metadata projection of a session.
type SessionInfo struct {
	SessionID   string    `json:"sessionId"`
	Kind        TableKind `json:"kind"`
	FileName    string    `json:"fileName"`
	VerifyIDs   bool      `json:"verifyIdExistence"`
	RowCount    int       `json:"rowCount"`
	IssueCount  int       `json:"issueCount"`
	EditedItems int       `json:"editedItems"`
	CanUndo     bool      `json:"canUndo"`
	CanRedo     bool      `json:"canRedo"`
	CreatedAt   time.Time `json:"createdAt"`
	ValidatedAt time.Time `json:"lastValidatedAt"`
}

// Service provides the session-scoped edit operations. All operations are
// synchronous and serialized per session.
type Service struct {
	sessions     *Manager
	validator    Validator
	store        DraftStore
	maxUndoDepth int
}

// NewService wires the session registry, the external validator boundary
// and the draft store.
func NewService(sessions *Manager, validator Validator, store DraftStore, maxUndoDepth int) *Service {
	return &Service{
		sessions:     sessions,
		validator:    validator,
		store:        store,
		maxUndoDepth: maxUndoDepth,
	}
}

// Sessions exposes the registry for lifecycle management (janitor, tests).
func (s *Service) Sessions() *Manager { return s.sessions }

// CreateSession validates an uploaded flat file, parses the annotated
// rendering and registers a fresh session with its baseline snapshot.
func (s *Service) CreateSession(ctx context.Context, kind TableKind, fileName string, csvData []byte, verifyIDs bool) (*Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown table kind %q", ErrInvalidCommand, kind)
	}

	result, err := s.validator.Validate(ctx, kind, csvData, verifyIDs)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	table, issues, err := ParseAnnotated(result.HTML, kind, nil)
	if err != nil {
		return nil, err
	}
	table.Delimiter = DetectDelimiter(csvData)

	sess := s.sessions.NewSession(kind, fileName, table, issues, s.maxUndoDepth)
	sess.VerifyIDs = verifyIDs
	return sess, nil
}

// ApplyCommand executes one mutation, records it for undo and in the audit
// trail, and returns the re-rendered (possibly filtered) view.
func (s *Service) ApplyCommand(ctx context.Context, sessionID string, cmd Command) (View, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	inverse, err := Apply(sess.Table, cmd)
	if err != nil {
		return View{}, err
	}
	sess.History.Record(inverse)
	sess.EditCount++

	s.auditEdit(ctx, sess, cmd, inverse)
	return s.renderLocked(sess), nil
}

// Undo reverts the most recent command. An empty undo log is a benign
// no-op, reported in the view rather than as an error.
func (s *Service) Undo(ctx context.Context, sessionID string) (View, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	if err := sess.History.Undo(sess.Table); err != nil {
		if err == ErrNothingToUndo {
			view := s.renderLocked(sess)
			view.Noop = true
			return view, nil
		}
		return View{}, err
	}
	return s.renderLocked(sess), nil
}

// Redo re-applies the most recently undone command; symmetric with Undo.
func (s *Service) Redo(ctx context.Context, sessionID string) (View, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	if err := sess.History.Redo(sess.Table); err != nil {
		if err == ErrNothingToRedo {
			view := s.renderLocked(sess)
			view.Noop = true
			return view, nil
		}
		return View{}, err
	}
	return s.renderLocked(sess), nil
}

// FilteredRows selects an issue filter on the session and returns the
// filtered view. The filter persists across subsequent operations until
// cleared.
func (s *Service) FilteredRows(ctx context.Context, sessionID, issueID string) (View, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	if !sess.Issues.Has(issueID) {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownIssue, issueID)
	}
	sess.FilterIssue = issueID
	return s.renderLocked(sess), nil
}

// ClearFilter drops the session's issue filter. View-state only: the table
// is not mutated.
func (s *Service) ClearFilter(ctx context.Context, sessionID string) (View, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	sess.FilterIssue = ""
	return s.renderLocked(sess), nil
}

// CurrentView re-renders the session's current (possibly filtered) view.
func (s *Service) CurrentView(ctx context.Context, sessionID string) (View, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, err
	}
	sess.Lock()
	defer sess.Unlock()
	return s.renderLocked(sess), nil
}

// ExportCSV serializes the table to the flat-file format and resets the
// baseline to the exported state: exported changes are accepted.
func (s *Service) ExportCSV(ctx context.Context, sessionID string) ([]byte, string, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, "", err
	}
	sess.Lock()
	defer sess.Unlock()

	data, err := ExportCSV(sess.Table)
	if err != nil {
		return nil, "", err
	}
	sess.Baseline = sess.Table.Clone()

	name := "metadata_edited.csv"
	if sess.Kind == KindCits {
		name = "citations_edited.csv"
	}
	return data, name, nil
}

// Revalidate runs the current table back through the external validator
// and re-parses the fresh annotated rendering, preserving row and item
// identities where possible so the in-flight history stays meaningful. The
// baseline is kept; a selected filter survives only if the issue still
// exists.
func (s *Service) Revalidate(ctx context.Context, sessionID string) (View, int, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return View{}, 0, err
	}
	sess.Lock()
	defer sess.Unlock()

	data, err := ExportCSV(sess.Table)
	if err != nil {
		return View{}, 0, err
	}

	result, err := s.validator.Validate(ctx, sess.Kind, data, sess.VerifyIDs)
	if err != nil {
		return View{}, 0, fmt.Errorf("validator: %w", err)
	}

	table, issues, err := ParseAnnotated(result.HTML, sess.Kind, sess.Table)
	if err != nil {
		return View{}, 0, err
	}
	table.Delimiter = sess.Table.Delimiter

	sess.Table = table
	sess.Issues = issues
	sess.ValidatedAt = time.Now()
	if sess.FilterIssue != "" && !issues.Has(sess.FilterIssue) {
		sess.FilterIssue = ""
	}

	return s.renderLocked(sess), result.ErrorCount, nil
}

// Changes lists every edited or added item against the baseline.
func (s *Service) Changes(ctx context.Context, sessionID string) ([]ItemChange, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return Changes(sess.Baseline, sess.Table), nil
}

// Info returns the session's metadata projection.
func (s *Service) Info(ctx context.Context, sessionID string) (SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	sess.Lock()
	defer sess.Unlock()

	return SessionInfo{
		SessionID:   sess.ID,
		Kind:        sess.Kind,
		FileName:    sess.FileName,
		VerifyIDs:   sess.VerifyIDs,
		RowCount:    len(sess.Table.Rows),
		IssueCount:  len(sess.Issues),
		EditedItems: len(Changes(sess.Baseline, sess.Table)),
		CanUndo:     sess.History.CanUndo(),
		CanRedo:     sess.History.CanRedo(),
		CreatedAt:   sess.CreatedAt,
		ValidatedAt: sess.ValidatedAt,
	}, nil
}

// EndSession destroys a session. Returns ErrSessionNotFound if absent.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if !s.sessions.Delete(sessionID) {
		return ErrSessionNotFound
	}
	return nil
}

// SaveDraft persists the session's current and baseline state under the
// given name. The live session is untouched.
func (s *Service) SaveDraft(ctx context.Context, sessionID, name string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.Lock()
	defer sess.Unlock()

	data, err := ExportCSV(sess.Table)
	if err != nil {
		return err
	}
	baseline, err := ExportCSV(sess.Baseline)
	if err != nil {
		return err
	}
	if name == "" {
		name = sess.FileName
	}

	return s.store.SaveDraft(ctx, Draft{
		ID:          sess.ID,
		Name:        name,
		Kind:        sess.Kind,
		FileName:    sess.FileName,
		VerifyIDs:   sess.VerifyIDs,
		CSV:         data,
		BaselineCSV: baseline,
		EditedItems: len(Changes(sess.Baseline, sess.Table)),
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   time.Now(),
	})
}

// LoadDraft reconstructs a live session from a persisted draft: the saved
// table goes back through the validator for a fresh annotated rendering,
// and the saved baseline is re-aligned by position so change tracking
// resumes. History is not restored.
func (s *Service) LoadDraft(ctx context.Context, draftID string) (*Session, error) {
	draft, err := s.store.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	result, err := s.validator.Validate(ctx, draft.Kind, draft.CSV, draft.VerifyIDs)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	table, issues, err := ParseAnnotated(result.HTML, draft.Kind, nil)
	if err != nil {
		return nil, err
	}
	table.Delimiter = DetectDelimiter(draft.CSV)

	baseline, err := ParseCSV(draft.BaselineCSV, draft.Kind)
	if err != nil {
		return nil, err
	}
	alignBaseline(baseline, table)

	sess := s.sessions.NewSession(draft.Kind, draft.FileName, table, issues, s.maxUndoDepth)
	sess.VerifyIDs = draft.VerifyIDs
	sess.Lock()
	sess.Baseline = baseline
	sess.Unlock()
	return sess, nil
}

// ListDrafts returns all persisted drafts.
func (s *Service) ListDrafts(ctx context.Context) ([]DraftInfo, error) {
	return s.store.ListDrafts(ctx)
}

// DeleteDraft removes a persisted draft.
func (s *Service) DeleteDraft(ctx context.Context, draftID string) error {
	ok, err := s.store.DeleteDraft(ctx, draftID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDraftNotFound
	}
	return nil
}

// renderLocked builds the View for a session whose lock is held.
func (s *Service) renderLocked(sess *Session) View {
	view := View{
		RowCount:    len(sess.Table.Rows),
		CanUndo:     sess.History.CanUndo(),
		CanRedo:     sess.History.CanRedo(),
		EditedItems: len(Changes(sess.Baseline, sess.Table)),
	}

	if sess.FilterIssue != "" {
		html, indices, err := RenderFiltered(sess.Table, sess.Issues, sess.Baseline, sess.FilterIssue)
		if err == nil {
			view.HTML = html
			view.Filtered = true
			view.IssueID = sess.FilterIssue
			view.RowIndices = indices
			view.RowCount = len(indices)
			return view
		}
		// The filter references an issue that vanished; fall back to the
		// full view.
		sess.FilterIssue = ""
	}

	view.HTML = RenderTable(sess.Table, sess.Issues, sess.Baseline)
	return view
}

// auditEdit records an applied command in the edit audit trail. Audit
// failures are logged, never surfaced: the edit itself already succeeded.
func (s *Service) auditEdit(ctx context.Context, sess *Session, cmd, inverse Command) {
	if s.store == nil {
		return
	}
	rec := EditRecord{
		SessionID: sess.ID,
		Action:    string(cmd.Kind),
		ItemID:    string(cmd.ItemID),
		RowID:     string(cmd.RowID),
		NewValue:  cmd.Value,
		ClientIP:  ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
	}
	if inverse.Kind == CmdSetItemValue {
		rec.OldValue = inverse.Value
	}
	if err := s.store.RecordEdit(ctx, rec); err != nil {
		slog.Warn("edit audit failed",
			"session_id", sess.ID,
			"action", cmd.Kind,
			"error", err,
		)
	}
}

// alignBaseline adopts the live table's identities into a freshly parsed
// baseline, matching rows by position. Rows added mid-table before the
// draft was saved may re-classify after a reload; like the undo log, exact
// positional history does not survive persistence.
func alignBaseline(baseline, table *Table) {
	n := len(baseline.Rows)
	if len(table.Rows) < n {
		n = len(table.Rows)
	}
	for i := 0; i < n; i++ {
		base, live := baseline.Rows[i], table.Rows[i]
		base.ID = live.ID
		for _, item := range base.Items {
			item.RowID = live.ID
		}
	}
}
