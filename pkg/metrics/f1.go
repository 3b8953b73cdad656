// Package metrics computes the F1 battery over matched PDP snapshots:
// per-category and pooled F1, SARF macro and hierarchical scores, and the
// canonical exact-match predicate.
package metrics

import (
	"fmt"
)

// F1Score holds precision, recall, and their harmonic mean
type F1Score struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
}

// ComputeF1 derives precision/recall/F1 from raw counts. The fully
// degenerate case tp=fp=fn=0 scores 1.0 across the board: nothing was
// expected and nothing was produced.
func ComputeF1(tp, fp, fn int) F1Score {
	score := F1Score{TP: tp, FP: fp, FN: fn}

	if tp == 0 && fp == 0 && fn == 0 {
		score.Precision = 1.0
		score.Recall = 1.0
		score.F1 = 1.0
		return score
	}

	if tp+fp > 0 {
		score.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		score.Recall = float64(tp) / float64(tp+fn)
	}
	if score.Precision+score.Recall > 0 {
		score.F1 = 2 * score.Precision * score.Recall / (score.Precision + score.Recall)
	}
	return score
}

// MicroF1 pools the counts of several scores into one
func MicroF1(scores ...F1Score) F1Score {
	var tp, fp, fn int
	for _, s := range scores {
		tp += s.TP
		fp += s.FP
		fn += s.FN
	}
	return ComputeF1(tp, fp, fn)
}

// FormatScore renders a score the way reports print it
func FormatScore(s F1Score) string {
	return fmt.Sprintf("P=%.4f R=%.4f F1=%.4f (tp=%d fp=%d fn=%d)", s.Precision, s.Recall, s.F1, s.TP, s.FP, s.FN)
}
