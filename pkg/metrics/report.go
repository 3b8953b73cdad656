package metrics

import (
	"github.com/pdplab/pdplab-go/pkg/matching"
	"github.com/pdplab/pdplab-go/pkg/models"
)

// Report is the full metric battery for one candidate PDP evaluated
// against a reference PDP.
type Report struct {
	People    F1Score `json:"people"`
	Events    F1Score `json:"events"`
	PairBonds F1Score `json:"pair_bonds"`
	Aggregate F1Score `json:"aggregate"`

	SARFMacro    map[Variable]float64        `json:"sarf_macro"`
	Hierarchical map[Variable]HierarchicalF1 `json:"hierarchical"`

	ExactMatch bool            `json:"exact_match"`
	IDMap      map[int64]int64 `json:"id_map"`
}

// Evaluate matches the candidate against the reference and derives every
// metric: per-category F1, pooled micro-F1, SARF macro-F1 over matched
// shift events, hierarchical detection/value/people F1, and the
// exact-match predicate.
func Evaluate(candidate, reference models.PDP, m *matching.Matcher) (Report, error) {
	if m == nil {
		m = matching.Default()
	}
	match := m.MatchPDPs(candidate, reference)

	people := ComputeF1(len(match.People.Pairs), len(match.People.CandidateOnly), len(match.People.ReferenceOnly))
	events := ComputeF1(len(match.Events.Pairs), len(match.Events.CandidateOnly), len(match.Events.ReferenceOnly))
	bonds := ComputeF1(len(match.PairBonds.Pairs), len(match.PairBonds.CandidateOnly), len(match.PairBonds.ReferenceOnly))

	exact, err := ExactMatch(candidate, reference)
	if err != nil {
		return Report{}, err
	}

	return Report{
		People:       people,
		Events:       events,
		PairBonds:    bonds,
		Aggregate:    MicroF1(people, events, bonds),
		SARFMacro:    SARFMacroF1(match.Events.Pairs),
		Hierarchical: HierarchicalAll(candidate.Events, reference.Events, match.People.IDMap),
		ExactMatch:   exact,
		IDMap:        match.IDMap,
	}, nil
}
