package facematch

import (
	"fmt"
	"math"
)

// Supported distance metrics.
const (
	MetricEuclidean = "euclidean"
	MetricCosine    = "cosine"
)

// DistanceFunc compares two encodings. Smaller means more similar.
type DistanceFunc func(a, b []float32) float64

// EuclideanDistance computes the L2 distance between two encodings.
// Encodings of different length are never considered close.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance computes the cosine distance between two vectors
// Returns a value between 0 (identical) and 2 (opposite)
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	similarity = max(-1, min(1, similarity))

	return 1 - similarity
}

// Distance returns the distance function for a metric name.
func Distance(metric string) (DistanceFunc, error) {
	switch metric {
	case "", MetricEuclidean:
		return EuclideanDistance, nil
	case MetricCosine:
		return CosineDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", metric)
	}
}
