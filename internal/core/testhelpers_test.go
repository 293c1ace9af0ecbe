package core

// Shared fixtures for the core tests. buildTable constructs a small
// metadata table by hand; annotated documents for parser tests come from
// RenderTable, which the render tests pin against the structural contract.

func buildTable(kind TableKind, columns []string, rows [][]string) *Table {
	t := &Table{Kind: kind, Columns: columns, Delimiter: ','}
	for _, values := range rows {
		row := &Row{ID: NewRowID(), Origin: OriginExisting}
		for i, col := range columns {
			row.Items = append(row.Items, &Item{
				Column: col,
				RowID:  row.ID,
				Origin: OriginExisting,
				Values: SplitValues(col, values[i]),
			})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func metaTable() *Table {
	return buildTable(KindMeta, []string{"id", "title", "author"}, [][]string{
		{"doi:10.1/a omid:br/1", "First Title", "Doe, Jane; Roe, Rick"},
		{"doi:10.1/b", "Second Title", "Poe, Edgar"},
		{"doi:10.1/c", "Third Title", ""},
	})
}

func citsTable() *Table {
	return buildTable(KindCits, []string{"citing_id", "cited_id"}, [][]string{
		{"doi:10.1/a", "doi:10.1/b doi:10.1/c"},
		{"doi:10.1/b", "doi:10.1/c"},
	})
}

// attachIssue marks one item with an issue and registers it in the index.
func attachIssue(t *Table, idx IssueIndex, rowIdx int, column, issueID, message string, severity IssueSeverity) {
	row := t.Rows[rowIdx]
	item := row.Item(column)
	item.Issues = append(item.Issues, issueID)

	entry, ok := idx[issueID]
	if !ok {
		entry = &IssueEntry{Issue: Issue{ID: issueID, Severity: severity, Message: message}}
		idx[issueID] = entry
	}
	entry.addRow(row.ID)
}
