// Package models defines core data structures for records, queries, and search results.
package models

// Record is the opaque field-value mapping stored alongside each embedding.
// Keys are column names; values are the typed cell values of the source row.
type Record map[string]any

// Clone returns a shallow copy of r. A nil record clones to nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
