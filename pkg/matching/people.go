package matching

import (
	"strings"

	"github.com/pdplab/pdplab-go/pkg/models"
)

// PersonPair is one matched candidate/reference couple
type PersonPair struct {
	Candidate models.Person
	Reference models.Person
}

// PeopleResult holds the person alignment: matched pairs, the candidates
// with no admissible reference (false positives), the references no
// candidate claimed (false negatives), and the candidate-to-reference id
// map.
type PeopleResult struct {
	Pairs         []PersonPair
	CandidateOnly []models.Person
	ReferenceOnly []models.Person
	IDMap         map[int64]int64
}

// MatchPeople greedily aligns candidate people with reference people. Each
// candidate, in input order, claims the highest-scoring admissible
// reference not already consumed; admissibility requires name similarity
// at or above the calibrated threshold, compatible parents under the
// partial id map built so far, and non-conflicting genders.
func (m *Matcher) MatchPeople(candidates, references []models.Person) PeopleResult {
	result := PeopleResult{IDMap: make(map[int64]int64)}
	consumed := make([]bool, len(references))

	for _, cand := range candidates {
		bestIdx := -1
		bestScore := 0.0

		for i, ref := range references {
			if consumed[i] {
				continue
			}
			score := NameSimilarity(fullName(cand), fullName(ref))
			if score < m.cal.Matching.NameThreshold {
				continue
			}
			if !parentsCompatible(cand, ref, result.IDMap) {
				continue
			}
			if !gendersCompatible(cand, ref) {
				continue
			}
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		if bestIdx == -1 {
			result.CandidateOnly = append(result.CandidateOnly, cand)
			continue
		}
		consumed[bestIdx] = true
		result.Pairs = append(result.Pairs, PersonPair{Candidate: cand, Reference: references[bestIdx]})
		result.IDMap[cand.ID] = references[bestIdx].ID
	}

	for i, ref := range references {
		if !consumed[i] {
			result.ReferenceOnly = append(result.ReferenceOnly, ref)
		}
	}
	return result
}

func fullName(p models.Person) string {
	var parts []string
	if p.Name != nil && *p.Name != "" {
		parts = append(parts, *p.Name)
	}
	if p.LastName != nil && *p.LastName != "" {
		parts = append(parts, *p.LastName)
	}
	return strings.Join(parts, " ")
}

// parentsCompatible passes unless both sides name parents and the
// candidate's parents, mapped through the partial id map, differ from the
// reference's as a set
func parentsCompatible(cand, ref models.Person, idMap map[int64]int64) bool {
	if len(cand.Parents) == 0 || len(ref.Parents) == 0 {
		return true
	}
	return sameIDSet(mapIDSet(cand.Parents, idMap), idSet(ref.Parents))
}

// gendersCompatible passes unless both sides specify a known gender and
// they disagree
func gendersCompatible(cand, ref models.Person) bool {
	if cand.Gender == nil || ref.Gender == nil {
		return true
	}
	if *cand.Gender == models.GenderUnknown || *ref.Gender == models.GenderUnknown {
		return true
	}
	return *cand.Gender == *ref.Gender
}
