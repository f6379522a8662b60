package tabular

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/hyperjump/ragsearch/internal/models"
)

const (
	docxDefaultPath  = "word/document.xml"
	contentTypesPath = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// Paragraphs may carry attributes, e.g. <w:p w:rsidR="00AB">.
	docxParagraph = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	docxText      = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// The Override element lists PartName and ContentType in either order.
	docxPartFirst = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"`)
	docxTypeFirst = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainType) + `"[^>]+PartName="([^"]+)"`)
)

// loadDOCX makes one row per non-blank paragraph of a Word document.
func loadDOCX(content []byte, opts Options) (*Table, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX: not a zip: %w", err)
	}
	docPath := docxMainPath(zr)
	if docPath == "" {
		docPath = docxDefaultPath
	}
	body, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("open DOCX: %w", err)
	}

	t := documentTable(opts.Name, ColumnParagraph)
	n := 0
	for _, para := range docxParagraph.FindAllString(string(body), -1) {
		runs := docxText.FindAllStringSubmatch(para, -1)
		parts := make([]string, 0, len(runs))
		for _, r := range runs {
			parts = append(parts, r[1])
		}
		text := strings.TrimSpace(html.UnescapeString(strings.Join(parts, "")))
		if text == "" {
			continue
		}
		n++
		t.Rows = append(t.Rows, models.Record{ColumnParagraph: int64(n), ColumnText: text})
	}
	return t, nil
}

// docxMainPath reads the main document part name from [Content_Types].xml.
func docxMainPath(zr *zip.Reader) string {
	types, err := readZipFile(zr, contentTypesPath)
	if err != nil {
		return ""
	}
	for _, re := range []*regexp.Regexp{docxPartFirst, docxTypeFirst} {
		if m := re.FindSubmatch(types); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return ""
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
