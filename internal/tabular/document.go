package tabular

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/ragsearch/internal/models"
)

// Document files load as two-column tables: a position column and a text column.
const (
	ColumnPage      = "page"
	ColumnParagraph = "paragraph"
	ColumnText      = "text"
)

// loadPDF makes one row per non-blank page.
func loadPDF(content []byte, opts Options) (*Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	t := documentTable(opts.Name, ColumnPage)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			t.Rows = append(t.Rows, models.Record{ColumnPage: int64(i), ColumnText: text})
		}
	}
	return t, nil
}

// loadPlain makes one row per blank-line separated paragraph.
func loadPlain(content []byte, opts Options) (*Table, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	t := documentTable(opts.Name, ColumnParagraph)
	n := 0
	for _, para := range strings.Split(s, "\n\n") {
		if para = strings.TrimSpace(para); para == "" {
			continue
		}
		n++
		t.Rows = append(t.Rows, models.Record{ColumnParagraph: int64(n), ColumnText: para})
	}
	return t, nil
}

func documentTable(name, position string) *Table {
	return &Table{
		Name:    name,
		Columns: []Column{{Name: position, Type: TypeInteger}, {Name: ColumnText, Type: TypeText}},
	}
}
