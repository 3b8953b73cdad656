package matching

import (
	"github.com/pdplab/pdplab-go/pkg/config"
	"github.com/pdplab/pdplab-go/pkg/models"
)

// Matcher aligns PDP snapshots under one calibration
type Matcher struct {
	cal config.Calibration
}

// NewMatcher creates a matcher with the given calibration
func NewMatcher(cal config.Calibration) *Matcher {
	return &Matcher{cal: cal}
}

// Default returns a matcher with the shipped calibration
func Default() *Matcher {
	return NewMatcher(config.DefaultCalibration())
}

// PDPMatch is the full alignment of a candidate PDP against a reference
type PDPMatch struct {
	People    PeopleResult
	Events    EventsResult
	PairBonds BondsResult
	// IDMap maps candidate ids to reference ids for every matched person,
	// event, and pair bond
	IDMap map[int64]int64
}

// MatchPDPs aligns every category of the candidate against the reference.
// People are matched first; their id map drives the event and pair-bond
// link comparisons.
func (m *Matcher) MatchPDPs(candidate, reference models.PDP) PDPMatch {
	people := m.MatchPeople(candidate.People, reference.People)

	idMap := make(map[int64]int64, len(people.IDMap))
	for k, v := range people.IDMap {
		idMap[k] = v
	}

	events := m.MatchEvents(candidate.Events, reference.Events, people.IDMap)
	for _, pair := range events.Pairs {
		idMap[pair.Candidate.ID] = pair.Reference.ID
	}

	bonds := m.MatchPairBonds(candidate.PairBonds, reference.PairBonds, people.IDMap)
	for _, pair := range bonds.Pairs {
		idMap[pair.Candidate.ID] = pair.Reference.ID
	}

	return PDPMatch{People: people, Events: events, PairBonds: bonds, IDMap: idMap}
}

// mapID translates a candidate id through the id map, leaving unmapped ids
// as-is. Dangling ids therefore stay comparable instead of failing.
func mapID(id int64, idMap map[int64]int64) int64 {
	if mapped, ok := idMap[id]; ok {
		return mapped
	}
	return id
}

func mapIDPtr(id *int64, idMap map[int64]int64) *int64 {
	if id == nil {
		return nil
	}
	mapped := mapID(*id, idMap)
	return &mapped
}

func mapIDSet(ids []int64, idMap map[int64]int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[mapID(id, idMap)] = struct{}{}
	}
	return set
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sameIDSet(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
