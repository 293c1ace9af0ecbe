package core

import "fmt"

// issues.go provides the issue-scoped view over a table: given an issue
// identifier, the subset of rows the validator implicated, in original
// document order.

// FilteredRows returns the rows of t whose identity is recorded against
// issueID, preserving table order, together with their positions in t.
// Returns ErrUnknownIssue if the identifier is absent from the index.
func (idx IssueIndex) FilteredRows(t *Table, issueID string) ([]*Row, []int, error) {
	entry, ok := idx[issueID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownIssue, issueID)
	}

	involved := make(map[RowID]bool, len(entry.RowIDs))
	for _, id := range entry.RowIDs {
		involved[id] = true
	}

	var rows []*Row
	var indices []int
	for i, row := range t.Rows {
		if involved[row.ID] {
			rows = append(rows, row)
			indices = append(indices, i)
		}
	}
	return rows, indices, nil
}

// IssueFor returns the issue metadata recorded under issueID.
func (idx IssueIndex) IssueFor(issueID string) (Issue, error) {
	entry, ok := idx[issueID]
	if !ok {
		return Issue{}, fmt.Errorf("%w: %s", ErrUnknownIssue, issueID)
	}
	return entry.Issue, nil
}

// Has reports whether the index knows the issue identifier.
func (idx IssueIndex) Has(issueID string) bool {
	_, ok := idx[issueID]
	return ok
}
