package core

import (
	"strings"

	"golang.org/x/net/html"
)

// parse.go converts an annotated rendering (the validator's HTML view of a
// table, with issue markers inline) into the in-memory Table model plus the
// issue index. The parser depends only on the structural contract:
//
//	table#table-data > thead > tr > th (first header cell is the row number)
//	table#table-data > tbody > tr (one per logical row)
//	  td (first cell is the row number)
//	  td > span.item-container > span.item-data        (one value)
//	                           > span.issue-icon ...   (zero or more markers)
//
// A multi-value cell carries one item-container per value. A lone container
// may instead hold the whole cell joined by the column's separator, which is
// how single-value columns always arrive.
//
// It is a pure transform and is called repeatedly: re-validation produces a
// fresh rendering which replaces the Table while preserving row and item
// identities where possible.

// ParseAnnotated parses an annotated rendering into (Table, IssueIndex).
//
// When prior is non-nil, row identities and origins are carried over so an
// in-flight history remains meaningful after re-validation: a row keeps its
// identity if the rendering names it explicitly (data-row-id) or, when the
// row count is unchanged, if it sits at the same position as a prior row.
// Rows that match neither way receive fresh identities; history entries
// referencing them degrade to no-ops.
func ParseAnnotated(doc string, kind TableKind, prior *Table) (*Table, IssueIndex, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, nil, parseErrorf("invalid document: %v", err)
	}

	tableNode := findTableData(root)
	if tableNode == nil {
		return nil, nil, parseErrorf("table with id %q not found", "table-data")
	}

	columns, err := parseHeader(tableNode)
	if err != nil {
		return nil, nil, err
	}

	t := &Table{Kind: kind, Columns: columns, Delimiter: ','}
	if prior != nil {
		t.Delimiter = prior.Delimiter
	}
	idx := make(IssueIndex)

	tbody := findChildElement(tableNode, "tbody")
	if tbody == nil {
		return nil, nil, parseErrorf("tbody not found")
	}

	// Positional identity matching is only sound while row counts agree;
	// after an insertion or removal every position past it would lie.
	if prior != nil && countRows(tbody) != len(prior.Rows) {
		prior = nil
	}

	rowNum := 0
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if !isElement(tr, "tr") {
			continue
		}
		row, err := parseRow(tr, columns, rowNum, prior, idx)
		if err != nil {
			return nil, nil, err
		}
		t.Rows = append(t.Rows, row)
		rowNum++
	}

	return t, idx, nil
}

// parseRow builds one Row from a tr element, resolving its identity against
// the rendering's own attributes or the prior table.
func parseRow(tr *html.Node, columns []string, position int, prior *Table, idx IssueIndex) (*Row, error) {
	row := &Row{Origin: OriginExisting}

	var priorRow *Row
	if prior != nil && position < len(prior.Rows) {
		priorRow = prior.Rows[position]
	}

	if id := attr(tr, "data-row-id"); id != "" {
		row.ID = RowID(id)
	} else if priorRow != nil {
		row.ID = priorRow.ID
	} else {
		row.ID = NewRowID()
	}
	if origin := attr(tr, "data-origin"); origin != "" {
		row.Origin = Origin(origin)
	} else if priorRow != nil && attr(tr, "data-row-id") == "" {
		row.Origin = priorRow.Origin
	}

	var cells []*html.Node
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if isElement(td, "td") {
			cells = append(cells, td)
		}
	}
	// First cell is the row number column.
	if len(cells) != len(columns)+1 {
		return nil, parseErrorf("row %d has %d cells, want %d", position, len(cells), len(columns)+1)
	}
	cells = cells[1:]

	for i, td := range cells {
		item, err := parseItem(td, columns[i], row, position, priorRow, idx)
		if err != nil {
			return nil, err
		}
		row.Items = append(row.Items, item)
	}

	return row, nil
}

// parseItem builds one Item from a td element and records its issue markers
// in the index.
func parseItem(td *html.Node, column string, row *Row, position int, priorRow *Row, idx IssueIndex) (*Item, error) {
	item := &Item{Column: column, RowID: row.ID, Origin: row.Origin}
	if priorRow != nil && row.Origin == OriginExisting {
		if pi := priorRow.Item(column); pi != nil {
			item.Origin = pi.Origin
		}
	}

	containers := findAllByClass(td, "item-container")
	if len(containers) == 0 {
		// Plain cell with no annotation structure: a single-value item.
		item.Values = SplitValues(column, collectText(td))
		return item, nil
	}

	if origin := attr(containers[0], "data-origin"); origin != "" {
		item.Origin = Origin(origin)
	}

	// A lone container holds the whole cell, separator-joined. Several
	// containers hold one value each.
	if len(containers) == 1 {
		c := containers[0]
		data := findByClass(c, "item-data")
		if data == nil {
			return nil, parseErrorf("row %d column %q: item container without data element", position, column)
		}
		if attr(c, "data-empty") != "true" {
			item.Values = SplitValues(column, collectText(data))
		}
		return item, parseMarkers(c, column, position, row, item, idx)
	}

	for _, c := range containers {
		data := findByClass(c, "item-data")
		if data == nil {
			return nil, parseErrorf("row %d column %q: item container without data element", position, column)
		}
		item.Values = append(item.Values, collectText(data))
		if err := parseMarkers(c, column, position, row, item, idx); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// parseMarkers records one container's issue markers on the item and in the
// index.
func parseMarkers(container *html.Node, column string, position int, row *Row, item *Item, idx IssueIndex) error {
	for marker := container.FirstChild; marker != nil; marker = marker.NextSibling {
		if !isElement(marker, "span") || !hasClass(marker, "issue-icon") {
			continue
		}
		issueID := attr(marker, "id")
		if issueID == "" {
			return parseErrorf("row %d column %q: issue marker without identifier", position, column)
		}
		item.Issues = append(item.Issues, issueID)

		entry, ok := idx[issueID]
		if !ok {
			severity := SeverityError
			if hasClass(marker, "severity-warning") {
				severity = SeverityWarning
			}
			entry = &IssueEntry{Issue: Issue{
				ID:       issueID,
				Severity: severity,
				Message:  attr(marker, "title"),
				Color:    attr(marker, "data-color"),
			}}
			idx[issueID] = entry
		}
		entry.addRow(row.ID)
	}
	return nil
}

// addRow appends a row to the entry, preserving document order without
// duplicates.
func (e *IssueEntry) addRow(id RowID) {
	for _, existing := range e.RowIDs {
		if existing == id {
			return
		}
	}
	e.RowIDs = append(e.RowIDs, id)
}

// parseHeader reads the column names from thead, skipping the leading row
// number header.
func parseHeader(tableNode *html.Node) ([]string, error) {
	thead := findChildElement(tableNode, "thead")
	if thead == nil {
		return nil, parseErrorf("thead not found")
	}
	tr := findChildElement(thead, "tr")
	if tr == nil {
		return nil, parseErrorf("header row not found")
	}

	var columns []string
	for th := tr.FirstChild; th != nil; th = th.NextSibling {
		if isElement(th, "th") {
			columns = append(columns, strings.TrimSpace(collectText(th)))
		}
	}
	if len(columns) < 2 {
		return nil, parseErrorf("header has %d columns, want at least 2", len(columns))
	}
	return columns[1:], nil
}

// findTableData locates the table#table-data element anywhere in the tree.
func findTableData(n *html.Node) *html.Node {
	if isElement(n, "table") && attr(n, "id") == "table-data" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTableData(c); found != nil {
			return found
		}
	}
	return nil
}

// findChildElement returns the first direct child element with the given tag.
func findChildElement(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tag) {
			return c
		}
	}
	return nil
}

// countRows counts the direct tr children of a tbody.
func countRows(tbody *html.Node) int {
	n := 0
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if isElement(tr, "tr") {
			n++
		}
	}
	return n
}

// findAllByClass returns every descendant element carrying the given class,
// in document order, without descending into matches.
func findAllByClass(n *html.Node, class string) []*html.Node {
	var found []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			found = append(found, c)
			continue
		}
		found = append(found, findAllByClass(c, class)...)
	}
	return found
}

// findByClass returns the first descendant element carrying the given class.
func findByClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// collectText concatenates all text node descendants of n.
func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
