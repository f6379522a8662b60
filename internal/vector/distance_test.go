package vector

import (
	"errors"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	n, err := Normalize(v)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(n[0])-0.6) > 1e-6 || math.Abs(float64(n[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3,4])=%v", n)
	}
	if v[0] != 3 {
		t.Error("Normalize modified its input")
	}
	if !IsNormalized(n) {
		t.Error("result should be unit length")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := [][]float32{
		{1, 2, 3},
		{-0.5, 0.25, 8, 1e-3},
		{1e-6, 0},
		{7},
	}
	for _, v := range inputs {
		once, err := Normalize(v)
		if err != nil {
			t.Fatal(err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatal(err)
		}
		for i := range once {
			if math.Abs(float64(once[i]-twice[i])) > 1e-6 {
				t.Errorf("normalize twice differs at %d: %v vs %v", i, once, twice)
			}
		}
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	for _, v := range [][]float32{{0, 0, 0}, {}, nil} {
		if _, err := Normalize(v); !errors.Is(err, ErrZeroVector) {
			t.Errorf("Normalize(%v): expected ErrZeroVector, got %v", v, err)
		}
	}
}

func TestInnerProduct(t *testing.T) {
	if got := InnerProduct([]float32{1, 2, 3}, []float32{4, 5, 6}); got != 32 {
		t.Errorf("InnerProduct=%v, want 32", got)
	}
	if got := InnerProduct([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths should return 0, got %v", got)
	}
}

func TestSquaredL2(t *testing.T) {
	if got := SquaredL2([]float32{1, 1}, []float32{10, 10}); got != 162 {
		t.Errorf("SquaredL2=%v, want 162", got)
	}
	if got := SquaredL2([]float32{2, 2}, []float32{2, 2}); got != 0 {
		t.Errorf("SquaredL2 of equal vectors=%v", got)
	}
}

func TestParseMetric(t *testing.T) {
	cases := map[string]Metric{
		"inner_product": MetricInnerProduct,
		"IP":            MetricInnerProduct,
		" cosine ":      MetricInnerProduct,
		"l2":            MetricL2,
		"Euclidean":     MetricL2,
	}
	for in, want := range cases {
		got, err := ParseMetric(in)
		if err != nil || got != want {
			t.Errorf("ParseMetric(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseMetric("manhattan"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}
