package sqlquery

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/ragsearch/internal/database"
	"github.com/hyperjump/ragsearch/internal/llm"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/tabular"
)

// cannedGenerator returns out for every prompt and records the last prompt.
type cannedGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *cannedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

func TestCleanSQL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  SELECT 1;  ", "SELECT 1;"},
		{"```sql\nSELECT * FROM t;\n```", "SELECT * FROM t;"},
		{"```\nSELECT 2\n```\n", "SELECT 2"},
		{"```SELECT count(*) FROM t```", "SELECT count(*) FROM t"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanSQL(tt.in); got != tt.want {
			t.Errorf("CleanSQL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTranslator(t *testing.T) {
	gen := &cannedGenerator{out: "```sql\nSELECT name FROM data\n```"}
	sql, err := NewTranslator(gen).Translate(context.Background(), "list names")
	if err != nil {
		t.Fatal(err)
	}
	if sql != "SELECT name FROM data" {
		t.Errorf("sql=%q", sql)
	}
	if gen.prompt != "Translate the following natural language query to SQL:\nlist names" {
		t.Errorf("prompt=%q", gen.prompt)
	}

	if _, err := NewTranslator(&cannedGenerator{out: "  "}).Translate(context.Background(), "q"); !errors.Is(err, ErrEmptySQL) {
		t.Errorf("expected ErrEmptySQL, got %v", err)
	}
	_, err = NewTranslator(&cannedGenerator{err: errors.New("quota")}).Translate(context.Background(), "q")
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func newDB(t *testing.T) database.Querier {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	table := &tabular.Table{
		Columns: []tabular.Column{{Name: "city", Type: tabular.TypeText}, {Name: "pop", Type: tabular.TypeInteger}},
		Rows:    []models.Record{{"city": "Oslo", "pop": int64(700)}, {"city": "Bergen", "pop": int64(290)}},
	}
	if err := db.LoadTable(context.Background(), table, "data"); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestEngine_Ask(t *testing.T) {
	db := newDB(t)
	gen := &cannedGenerator{out: "SELECT city FROM data WHERE pop > 500"}
	e := NewEngine(NewTranslator(gen), db, WithTable("data"))

	resp, err := e.Ask(context.Background(), "big cities")
	if err != nil {
		t.Fatal(err)
	}
	if resp.SQL != gen.out || resp.Query != "big cities" {
		t.Errorf("resp=%+v", resp)
	}
	if len(resp.Rows) != 1 || resp.Rows[0]["city"] != "Oslo" {
		t.Errorf("rows=%v", resp.Rows)
	}
	if len(resp.Columns) != 1 || resp.Columns[0] != "city" {
		t.Errorf("columns=%v", resp.Columns)
	}

	cols, err := e.Schema(context.Background())
	if err != nil || len(cols) != 2 {
		t.Errorf("schema=%v err=%v", cols, err)
	}
}

func TestEngine_AskErrors(t *testing.T) {
	db := newDB(t)
	if _, err := NewEngine(NewTranslator(&cannedGenerator{}), db).Ask(context.Background(), " "); !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}

	// The mock model echoes the prompt, which is not valid SQL.
	_, err := NewEngine(NewTranslator(llm.Mock{}), db).Ask(context.Background(), "how many?")
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *QueryError, got %v", err)
	}
	if qe.SQL != "Mock response for prompt: Translate the following natural language query to SQL:\nhow many?" {
		t.Errorf("sql=%q", qe.SQL)
	}

	if _, err := NewEngine(NewTranslator(&cannedGenerator{}), db).Schema(context.Background()); err == nil {
		t.Error("expected error without a table")
	}
}
