// Package facematch compares detected face encodings against the authorized roster.
package facematch

import (
	"math"

	"github.com/kozaktomas/facegate/internal/oracle"
	"github.com/kozaktomas/facegate/internal/roster"
)

// Result is the outcome of matching one detection against the roster.
type Result struct {
	BBox     []float64
	Identity *roster.Identity // closest identity, nil for an empty roster
	Distance float64
	Matched  bool // Distance is within tolerance
}

// Matcher finds the closest authorized identity for each detection.
type Matcher struct {
	identities []roster.Identity
	tolerance  float64
	distance   DistanceFunc
}

// NewMatcher creates a matcher for the given roster. The metric is
// "euclidean" (default) or "cosine".
func NewMatcher(identities []roster.Identity, tolerance float64, metric string) (*Matcher, error) {
	distance, err := Distance(metric)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		identities: identities,
		tolerance:  tolerance,
		distance:   distance,
	}, nil
}

// Match compares every detection against every identity and returns one
// result per detection, in the order the detections were given.
func (m *Matcher) Match(detections []oracle.Detection) []Result {
	results := make([]Result, 0, len(detections))
	for _, d := range detections {
		results = append(results, m.best(d))
	}
	return results
}

func (m *Matcher) best(d oracle.Detection) Result {
	result := Result{BBox: d.BBox, Distance: math.Inf(1)}
	for i := range m.identities {
		dist := m.distance(d.Encoding, m.identities[i].Encoding)
		if dist < result.Distance {
			result.Distance = dist
			result.Identity = &m.identities[i]
		}
	}
	result.Matched = result.Identity != nil && result.Distance <= m.tolerance
	return result
}

// Size returns the number of identities in the roster.
func (m *Matcher) Size() int {
	return len(m.identities)
}
