// Package docs renders a data dictionary for a schema as Markdown or HTML.
package docs

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joshmarlow/data-schema/pkg/schema"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders the fields of ds as a table in position order
func Markdown(ds *schema.DataSchema) string {
	var b strings.Builder

	title := ds.DisplayName
	if title == "" {
		title = ds.Name
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))
	fmt.Fprintf(&b, "Schema `%s`", ds.Name)
	if ds.ModelContentType != nil {
		fmt.Fprintf(&b, " for model `%s`", ds.ModelContentType)
	}
	b.WriteString(".\n\n")

	if len(ds.Fields) == 0 {
		b.WriteString("No fields.\n")
		return b.String()
	}

	b.WriteString("| Key | Type | Position | Unique | Format |\n")
	b.WriteString("| --- | --- | ---: | ---: | --- |\n")
	for _, f := range ds.SortedFields() {
		format := ""
		if f.FieldFormat != nil && *f.FieldFormat != "" {
			format = "`" + escape(*f.FieldFormat) + "`"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
			escape(f.FieldKey), f.FieldType, optional(f.FieldPosition), optional(f.UniquenessOrder), format)
	}
	return b.String()
}

// HTML renders the Markdown data dictionary of ds as a standalone HTML page
func HTML(ds *schema.DataSchema) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(ds)), &body); err != nil {
		return nil, fmt.Errorf("failed to render docs for %q: %w", ds.Name, err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(ds.Name))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func optional(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// escape keeps cell text from splitting table columns
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
