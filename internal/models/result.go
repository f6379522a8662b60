package models

// SearchResult is a single ranked hit joined with its metadata.
// Metadata is nil when no record exists for the id.
type SearchResult struct {
	ID       int     `json:"id"`
	Score    float64 `json:"score"`
	Metadata Record  `json:"metadata"`
	Rank     int     `json:"rank"`
}

// SearchResponse is the response for a search request. Results keep the vector store ranking.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Metric    string          `json:"metric"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}

// SQLResponse is the response for a natural-language SQL request.
type SQLResponse struct {
	Query   string   `json:"query"`
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}
