package matching

import (
	"github.com/pdplab/pdplab-go/pkg/models"
)

// BondPair is one matched candidate/reference pair bond
type BondPair struct {
	Candidate models.PairBond
	Reference models.PairBond
}

// BondsResult holds the pair-bond alignment
type BondsResult struct {
	Pairs         []BondPair
	CandidateOnly []models.PairBond
	ReferenceOnly []models.PairBond
}

// MatchPairBonds aligns candidate bonds with reference bonds by mapping
// each candidate's members through the id map and looking for a reference
// joining the same unordered pair. First match wins.
func (m *Matcher) MatchPairBonds(candidates, references []models.PairBond, idMap map[int64]int64) BondsResult {
	var result BondsResult
	consumed := make([]bool, len(references))

	for _, cand := range candidates {
		a := mapID(cand.PersonA, idMap)
		b := mapID(cand.PersonB, idMap)

		matched := -1
		for i, ref := range references {
			if consumed[i] {
				continue
			}
			if ref.SamePair(a, b) {
				matched = i
				break
			}
		}

		if matched == -1 {
			result.CandidateOnly = append(result.CandidateOnly, cand)
			continue
		}
		consumed[matched] = true
		result.Pairs = append(result.Pairs, BondPair{Candidate: cand, Reference: references[matched]})
	}

	for i, ref := range references {
		if !consumed[i] {
			result.ReferenceOnly = append(result.ReferenceOnly, ref)
		}
	}
	return result
}
