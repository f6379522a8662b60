package vector

import (
	"fmt"
	"strings"
)

// Metric selects how the store scores a query against stored vectors.
type Metric string

const (
	// MetricInnerProduct ranks by dot product, highest first. With unit vectors this is cosine similarity.
	MetricInnerProduct Metric = "inner_product"
	// MetricL2 ranks by squared Euclidean distance, lowest first.
	MetricL2 Metric = "l2"
)

// ParseMetric maps a configuration string to a Metric.
// Accepted: "inner_product", "ip", "cosine", "dot" and "l2", "euclidean".
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inner_product", "ip", "cosine", "dot", "":
		return MetricInnerProduct, nil
	case "l2", "euclidean":
		return MetricL2, nil
	default:
		return "", &ConfigError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q (supported: inner_product, l2)", s)}
	}
}

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return m == MetricInnerProduct || m == MetricL2
}

// RequiresNormalization reports whether vectors must be unit length before insertion and search.
func (m Metric) RequiresNormalization() bool {
	return m == MetricInnerProduct
}

func (m Metric) String() string { return string(m) }

// score computes the raw metric value between a query and a stored vector.
func (m Metric) score(query, vec []float32) float64 {
	if m == MetricL2 {
		return SquaredL2(query, vec)
	}
	return InnerProduct(query, vec)
}

// better reports whether score a ranks ahead of score b.
func (m Metric) better(a, b float64) bool {
	if m == MetricL2 {
		return a < b
	}
	return a > b
}
