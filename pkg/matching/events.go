package matching

import (
	"github.com/pdplab/pdplab-go/pkg/models"
)

// EventPair is one matched candidate/reference event
type EventPair struct {
	Candidate models.Event
	Reference models.Event
}

// EventsResult holds the event alignment
type EventsResult struct {
	Pairs         []EventPair
	CandidateOnly []models.Event
	ReferenceOnly []models.Event
}

const (
	descriptionWeight = 0.8
	dateWeight        = 0.2
)

// MatchEvents greedily aligns candidate events with reference events of
// the same kind. A reference is admissible when the description
// similarity clears the calibrated floor, the dates fall within the
// certainty-derived tolerance, and the person links agree under the id
// map. Score is a weighted blend of description and date similarity;
// ties keep the first reference encountered.
func (m *Matcher) MatchEvents(candidates, references []models.Event, idMap map[int64]int64) EventsResult {
	var result EventsResult
	consumed := make([]bool, len(references))

	for _, cand := range candidates {
		bestIdx := -1
		bestScore := 0.0

		for i, ref := range references {
			if consumed[i] || ref.Kind != cand.Kind {
				continue
			}

			descSim := DescriptionSimilarity(stringOrEmpty(cand.Description), stringOrEmpty(ref.Description))
			if descSim < m.cal.Matching.DescriptionThreshold {
				continue
			}
			if !m.DatesWithinTolerance(cand.DateTime, ref.DateTime, cand.Certainty(), ref.Certainty()) {
				continue
			}
			if !linksEqual(cand, ref, idMap) {
				continue
			}

			dateSim := m.DateSimilarity(cand.DateTime, ref.DateTime, cand.Certainty(), ref.Certainty())
			score := descriptionWeight*descSim + dateWeight*dateSim
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
		result.Pairs = append(result.Pairs, EventPair{Candidate: cand, Reference: references[bestIdx]})
	}

	for i, ref := range references {
		if !consumed[i] {
			result.ReferenceOnly = append(result.ReferenceOnly, ref)
		}
	}
	return result
}

// linksEqual compares the person links of two events with the candidate
// side mapped through the id map: principal, spouse, and child must be
// equal, and the relationship target and triangle sets must match exactly
func linksEqual(cand, ref models.Event, idMap map[int64]int64) bool {
	if !idPtrEqual(mapIDPtr(cand.Person, idMap), ref.Person) {
		return false
	}
	if !idPtrEqual(mapIDPtr(cand.Spouse, idMap), ref.Spouse) {
		return false
	}
	if !idPtrEqual(mapIDPtr(cand.Child, idMap), ref.Child) {
		return false
	}
	if !sameIDSet(mapIDSet(cand.RelationshipTargets, idMap), idSet(ref.RelationshipTargets)) {
		return false
	}
	if !sameIDSet(mapIDSet(cand.RelationshipTriangles, idMap), idSet(ref.RelationshipTriangles)) {
		return false
	}
	return true
}

func idPtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
