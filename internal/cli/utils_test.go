package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/ragsearch/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:     "test query",
		QueryTime: 42,
		Total:     2,
		Metric:    "inner_product",
		Results: []*models.SearchResult{
			{ID: 3, Rank: 1, Score: 0.9, Metadata: models.Record{"title": "Dune", "year": int64(1965), "note": nil}},
			{ID: 7, Rank: 2, Score: 0.5},
		},
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "test query" || decoded.Total != 2 || len(decoded.Results) != 2 {
		t.Errorf("decoded=%+v", decoded)
	}
	if decoded.Results[1].Metadata != nil {
		t.Errorf("missing metadata should stay null, got %v", decoded.Results[1].Metadata)
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 2 results in 42ms (metric: inner_product)",
		"Rank: 1 | ID: 3 | Score: 0.9000",
		"  note: \n",
		"  title: Dune\n",
		"  year: 1965\n",
		"(no metadata)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "note:") > strings.Index(out, "title:") {
		t.Error("metadata keys should be sorted")
	}
}

func TestWriteSQLResult(t *testing.T) {
	resp := &models.SQLResponse{
		Query:   "q",
		SQL:     "SELECT city, pop FROM data",
		Columns: []string{"city", "pop"},
		Rows:    []models.Record{{"city": "Oslo", "pop": int64(700)}, {"city": "Bergen", "pop": nil}},
	}
	var buf bytes.Buffer
	if err := WriteSQLResult(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"SQL: SELECT city, pop FROM data", "city    pop", "Oslo    700", "2 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteSQLResult(&buf, resp, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SQLResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || decoded.SQL != resp.SQL {
		t.Errorf("json decode: %v %+v", err, decoded)
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "JSON": OutputJSON} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}
