package metrics

import (
	"github.com/pdplab/pdplab-go/pkg/matching"
	"github.com/pdplab/pdplab-go/pkg/models"
)

// Evaluator scores candidate snapshots against references through a
// ReportCache, so a statement whose extraction and feedback have not
// changed is not rescored on repeat requests.
type Evaluator struct {
	matcher *matching.Matcher
	cache   *ReportCache
}

// NewEvaluator creates an evaluator with an empty cache. A nil matcher
// falls back to the default calibration.
func NewEvaluator(m *matching.Matcher) *Evaluator {
	if m == nil {
		m = matching.Default()
	}
	return &Evaluator{matcher: m, cache: NewReportCache()}
}

// EvaluateStatement scores candidate against reference, keyed by the
// statement and feedback they were derived from. The content hash covers
// both snapshots, so an edit to either side misses the cache.
func (e *Evaluator) EvaluateStatement(stmtID, feedbackID int64, candidate, reference models.PDP) (Report, error) {
	hash := ContentHash([2]models.PDP{candidate, reference})
	if report, ok := e.cache.Get(stmtID, feedbackID, hash); ok {
		return report, nil
	}
	report, err := Evaluate(candidate, reference, e.matcher)
	if err != nil {
		return Report{}, err
	}
	e.cache.Put(stmtID, feedbackID, hash, report)
	return report, nil
}

// Invalidate drops the cached reports for a statement and feedback pair
func (e *Evaluator) Invalidate(stmtID, feedbackID int64) {
	e.cache.Invalidate(stmtID, feedbackID)
}
