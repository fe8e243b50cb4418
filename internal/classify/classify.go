// Package classify wraps the external image classifier: loading the hosted
// model, turning an image into label/confidence predictions, and applying
// the configured label policies to produce a verdict.
package classify

import (
	"errors"
	"math"

	"cleannav/internal/config"
)

var ErrNoPredictions = errors.New("classify: model returned no predictions")

type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Best returns the prediction with the highest confidence. Ties resolve to
// the first maximal prediction in input order.
func Best(preds []Prediction) (Prediction, bool) {
	if len(preds) == 0 {
		return Prediction{}, false
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	return best, true
}

// Verdict is the outcome of classifying one task photo. For accepted labels
// Score is the commit score; for fix labels it is only the provisional
// display value and the real commit score is fixed at confirmation time.
type Verdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Accepted   bool    `json:"accepted"`
	Score      int     `json:"score"`
}

// PolicyTable is the label->scoring policy mapping from config. Labels not
// in the table route to the fix flow.
type PolicyTable struct {
	accept          map[string]int // label -> max score, 0 = uncapped
	fixCommitScore  int
	fixDisplayScore int
}

func NewPolicyTable(sc config.Scoring) PolicyTable {
	accept := map[string]int{}
	for _, row := range sc.Labels {
		if row.Outcome == "accept" {
			accept[row.Label] = row.MaxScore
		}
	}
	return PolicyTable{
		accept:          accept,
		fixCommitScore:  sc.FixCommitScore,
		fixDisplayScore: sc.FixDisplayScore,
	}
}

// FixCommitScore is the score committed when the cleaner confirms a fix,
// regardless of any earlier provisional value.
func (pt PolicyTable) FixCommitScore() int {
	return pt.fixCommitScore
}

// Evaluate picks the best prediction and applies its label policy.
// Accepted labels score round(confidence*100), capped at the policy's max
// when one is set.
func (pt PolicyTable) Evaluate(preds []Prediction) (Verdict, error) {
	best, ok := Best(preds)
	if !ok {
		return Verdict{}, ErrNoPredictions
	}

	v := Verdict{Label: best.Label, Confidence: best.Confidence}
	maxScore, accepted := pt.accept[best.Label]
	if !accepted {
		v.Score = pt.fixDisplayScore
		return v, nil
	}

	v.Accepted = true
	v.Score = int(math.Round(best.Confidence * 100))
	if maxScore > 0 && v.Score > maxScore {
		v.Score = maxScore
	}
	return v, nil
}
