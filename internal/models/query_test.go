package models

import (
	"errors"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name     string
		query    *SearchQuery
		wantErr  bool
		wantTopK int
	}{
		{"empty query", &SearchQuery{Query: ""}, true, 0},
		{"blank query", &SearchQuery{Query: "   "}, true, 0},
		{"valid query", &SearchQuery{Query: "hello", TopK: 3}, false, 3},
		{"missing top_k defaults", &SearchQuery{Query: "x"}, false, DefaultTopK},
		{"negative top_k defaults", &SearchQuery{Query: "x", TopK: -2}, false, DefaultTopK},
		{"caps top_k", &SearchQuery{Query: "x", TopK: 500}, false, MaxTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.TopK != tt.wantTopK {
				t.Errorf("TopK=%d, want %d", tt.query.TopK, tt.wantTopK)
			}
		})
	}
}

func TestSearchQuery_ValidateWithLimits(t *testing.T) {
	q := &SearchQuery{Query: "x"}
	if err := q.ValidateWithLimits(7, 20); err != nil || q.TopK != 7 {
		t.Errorf("default: TopK=%d err=%v", q.TopK, err)
	}
	q = &SearchQuery{Query: "x", TopK: 500}
	if err := q.ValidateWithLimits(7, 200); err != nil || q.TopK != 200 {
		t.Errorf("cap: TopK=%d err=%v", q.TopK, err)
	}
	q = &SearchQuery{Query: "x", TopK: 500}
	if err := q.ValidateWithLimits(0, 0); err != nil || q.TopK != 500 {
		t.Errorf("no cap: TopK=%d err=%v", q.TopK, err)
	}
	if err := (&SearchQuery{Query: " "}).ValidateWithLimits(1, 1); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSQLQuery_Validate(t *testing.T) {
	if err := (&SQLQuery{Query: "\t"}).Validate(); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if err := (&SQLQuery{Query: "how many rows?"}).Validate(); err != nil {
		t.Error(err)
	}
}

func TestRecord_Clone(t *testing.T) {
	r := Record{"name": "alice", "age": int64(30)}
	c := r.Clone()
	c["name"] = "bob"
	if r["name"] != "alice" {
		t.Error("Clone shares the underlying map")
	}
	if Record(nil).Clone() != nil {
		t.Error("nil clone should be nil")
	}
}
