package core

import (
	"html"
	"strconv"
	"strings"
)

// render.go regenerates the annotated-view document from the in-memory
// table. The rendered view is a pure projection: it is never read back to
// recover state, but it round-trips through ParseAnnotated so the same
// structural contract serves both directions. Change-tracker classes
// (edited/added) are layered on for styling; the parser ignores them.

// RenderTable renders the full annotated view of t. Issue markers are
// re-emitted from the items' recorded issue identifiers using the metadata
// in idx. baseline may be nil, in which case nothing classifies as edited.
func RenderTable(t *Table, idx IssueIndex, baseline *Table) string {
	var b strings.Builder
	b.WriteString(`<table id="table-data" class="table-data">`)
	renderHeader(&b, t.Columns)
	b.WriteString("<tbody>")
	for i, row := range t.Rows {
		renderRow(&b, t, idx, baseline, row, i)
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// RenderFiltered renders only the rows implicated by issueID, reusing the
// full renderer restricted to that subset. Row numbers keep their original
// document positions.
func RenderFiltered(t *Table, idx IssueIndex, baseline *Table, issueID string) (string, []int, error) {
	rows, indices, err := idx.FilteredRows(t, issueID)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString(`<table id="table-data" class="table-data">`)
	renderHeader(&b, t.Columns)
	b.WriteString("<tbody>")
	for i, row := range rows {
		renderRow(&b, t, idx, baseline, row, indices[i])
	}
	b.WriteString("</tbody></table>")
	return b.String(), indices, nil
}

func renderHeader(b *strings.Builder, columns []string) {
	b.WriteString("<thead><tr><th>#</th>")
	for _, col := range columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(col))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead>")
}

func renderRow(b *strings.Builder, t *Table, idx IssueIndex, baseline *Table, row *Row, position int) {
	b.WriteString(`<tr id="row`)
	b.WriteString(strconv.Itoa(position))
	b.WriteString(`" data-row-id="`)
	b.WriteString(html.EscapeString(string(row.ID)))
	b.WriteString(`"`)
	if row.Origin != OriginExisting {
		b.WriteString(` data-origin="`)
		b.WriteString(string(row.Origin))
		b.WriteString(`"`)
	}
	if state := ClassifyRow(baseline, row); state != StateUnmodified {
		b.WriteString(` class="row-`)
		b.WriteString(string(state))
		b.WriteString(`"`)
	}
	b.WriteString(`><td class="row-num">`)
	b.WriteString(strconv.Itoa(position + 1))
	b.WriteString("</td>")

	for _, item := range row.Items {
		renderItem(b, idx, baseline, item)
	}
	b.WriteString("</tr>")
}

func renderItem(b *strings.Builder, idx IssueIndex, baseline *Table, item *Item) {
	b.WriteString(`<td><span class="item-container" id="`)
	b.WriteString(html.EscapeString(string(item.ID())))
	b.WriteString(`"`)
	if item.Origin != OriginExisting {
		b.WriteString(` data-origin="`)
		b.WriteString(string(item.Origin))
		b.WriteString(`"`)
	}
	// A cleared item has no values at all, which an empty text node cannot
	// express on re-parse.
	if len(item.Values) == 0 {
		b.WriteString(` data-empty="true"`)
	}
	b.WriteString(`><span class="item-data`)
	if state := ClassifyItem(baseline, item); state != StateUnmodified {
		b.WriteString(" ")
		b.WriteString(string(state))
	}
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(item.Joined()))
	b.WriteString("</span>")

	for _, issueID := range item.Issues {
		renderIssueMarker(b, idx, issueID)
	}
	b.WriteString("</span></td>")
}

// renderIssueMarker emits one issue icon. Markers are clickable in the
// editor: the hosting page binds their activation to the filtered-rows
// endpoint.
func renderIssueMarker(b *strings.Builder, idx IssueIndex, issueID string) {
	issue := Issue{ID: issueID, Severity: SeverityError}
	if entry, ok := idx[issueID]; ok {
		issue = entry.Issue
	}

	b.WriteString(`<span class="issue-icon severity-`)
	b.WriteString(string(issue.Severity))
	b.WriteString(`" id="`)
	b.WriteString(html.EscapeString(issue.ID))
	b.WriteString(`"`)
	if issue.Color != "" {
		b.WriteString(` data-color="`)
		b.WriteString(html.EscapeString(issue.Color))
		b.WriteString(`"`)
	}
	if issue.Message != "" {
		b.WriteString(` title="`)
		b.WriteString(html.EscapeString(issue.Message))
		b.WriteString(`"`)
	}
	b.WriteString("></span>")
}
