// Package templates holds the server-rendered page and fragment components.
// The annotated table itself is produced by the core renderer and injected
// as a pre-escaped fragment; everything here is chrome around it.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps page content in the shared document shell.
func Layout(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/static/styles.css">
<script src="/static/app.js" defer></script>
</head>
<body>
<header class="site-header"><h1>Table Editor</h1></header>
<main class="content">`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}

// UploadPage renders the landing page with one upload form per table kind.
func UploadPage() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<section class="upload-section">
<h2>Upload a file for validation</h2>
<form id="upload-meta" class="upload-form" action="/api/upload" method="post" enctype="multipart/form-data">
<h3>Metadata</h3>
<input type="file" name="metadata_file" accept=".csv" required>
<label><input type="checkbox" name="verify_id_existence" value="true"> Verify identifier existence</label>
<button type="submit">Validate</button>
</form>
<form id="upload-cits" class="upload-form" action="/api/upload" method="post" enctype="multipart/form-data">
<h3>Citations</h3>
<input type="file" name="citations_file" accept=".csv" required>
<label><input type="checkbox" name="verify_id_existence" value="true"> Verify identifier existence</label>
<button type="submit">Validate</button>
</form>
<section class="drafts-section">
<h3>Saved drafts</h3>
<div id="draft-list" data-endpoint="/api/draft/list"></div>
</section>
</section>
`)
		return err
	})
}

// EditorPageData carries what the editor page needs at first render.
type EditorPageData struct {
	SessionID string
	Kind      string
	FileName  string
	TableHTML string // pre-escaped fragment from the core renderer
	CanUndo   bool
	CanRedo   bool
}

// EditorPage renders the editing surface around an already-rendered table.
func EditorPage(data EditorPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="editor" id="editor" data-session-id="%s" data-kind="%s">
<div class="editor-toolbar">
<span class="file-name">%s</span>
<button id="btn-undo" data-endpoint="/api/edit/undo"%s>Undo</button>
<button id="btn-redo" data-endpoint="/api/edit/redo"%s>Redo</button>
<button id="btn-clear-filter" data-endpoint="/api/edit/clear-filter" hidden>Show all rows</button>
<button id="btn-revalidate" data-endpoint="/api/edit/revalidate">Re-validate</button>
<button id="btn-save-draft" data-endpoint="/api/draft/save">Save draft</button>
<a id="btn-export" href="/api/export/%s" download>Export CSV</a>
</div>
<div id="table-container">`,
			templ.EscapeString(data.SessionID),
			templ.EscapeString(data.Kind),
			templ.EscapeString(data.FileName),
			disabledAttr(!data.CanUndo),
			disabledAttr(!data.CanRedo),
			templ.EscapeString(data.SessionID),
		); err != nil {
			return err
		}
		if err := templ.Raw(data.TableHTML).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</div>\n</section>\n")
		return err
	})
}

// ErrorAlert renders an inline error fragment with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert">
<p class="alert-message">%s</p>`, templ.EscapeString(message)); err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `
<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `
<p class="alert-code">Code: %s</p>
</div>
`, templ.EscapeString(code))
		return err
	})
}

func disabledAttr(disabled bool) string {
	if disabled {
		return " disabled"
	}
	return ""
}
