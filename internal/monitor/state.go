package monitor

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/facegate/internal/facematch"
)

// State is the per-frame state derived from recognition results.
type State string

const (
	StateNone         State = "" // no previous state
	StateNoFace       State = "no_face"
	StateAuthorized   State = "authorized"
	StateUnauthorized State = "unauthorized"
)

// Labels used as the alert reason.
const (
	LabelNoFace       = "No Face"
	LabelUnauthorized = "Unauthorized!"
)

// Decision is the derived state of one frame.
type Decision struct {
	State State
	Label string
	Name  string // matched identity, empty unless authorized
}

func noFace() Decision {
	return Decision{State: StateNoFace, Label: LabelNoFace}
}

func fromResult(r facematch.Result) Decision {
	if r.Matched && r.Identity != nil {
		return Decision{State: StateAuthorized, Label: r.Identity.Label(), Name: r.Identity.Name}
	}
	return Decision{State: StateUnauthorized, Label: LabelUnauthorized}
}

// Classify derives the frame state from the LAST result only. Earlier faces
// in the same frame are ignored.
func Classify(results []facematch.Result) Decision {
	if len(results) == 0 {
		return noFace()
	}
	return fromResult(results[len(results)-1])
}

// AggregateWorstCase derives the frame state from all faces: any unmatched
// face makes the frame unauthorized.
func AggregateWorstCase(results []facematch.Result) Decision {
	if len(results) == 0 {
		return noFace()
	}
	for _, r := range results {
		if !r.Matched {
			return Decision{State: StateUnauthorized, Label: LabelUnauthorized}
		}
	}
	return fromResult(results[len(results)-1])
}

// Policy selects how frames with several faces are classified.
type Policy string

const (
	PolicyLast  Policy = "last"
	PolicyWorst Policy = "worst"
)

// ParsePolicy validates a policy name. Empty means PolicyLast.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyLast:
		return PolicyLast, nil
	case PolicyWorst:
		return PolicyWorst, nil
	default:
		return "", fmt.Errorf("unknown multi-face policy %q (want last or worst)", s)
	}
}

// Decide classifies results according to the policy.
func (p Policy) Decide(results []facematch.Result) Decision {
	if p == PolicyWorst {
		return AggregateWorstCase(results)
	}
	return Classify(results)
}
