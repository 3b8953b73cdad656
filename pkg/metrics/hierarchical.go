package metrics

import (
	"github.com/pdplab/pdplab-go/pkg/models"
)

// HierarchicalF1 decomposes one SARF variable's agreement into detection
// (was anything coded for this person and variable), value match (do the
// coded values overlap), and, for the relationship variable, people match
// (do the coded relationship targets overlap). PeopleMatch is nil for the
// other variables.
type HierarchicalF1 struct {
	Detection   F1Score  `json:"detection"`
	ValueMatch  F1Score  `json:"value_match"`
	PeopleMatch *F1Score `json:"people_match,omitempty"`
}

type detectionKey struct {
	person int64
}

// detection accumulates, per principal person, the values and
// relationship link sets one side coded for a variable
type detection struct {
	values    map[string]struct{}
	targets   map[int64]struct{}
	triangles map[int64]struct{}
}

// detect collects every (person, variable) detection on one side. The id
// map translates the candidate side into reference id space; the
// reference side passes nil.
func detect(events []models.Event, v Variable, idMap map[int64]int64) map[detectionKey]*detection {
	out := make(map[detectionKey]*detection)
	for _, e := range events {
		if e.Kind != models.EventShift || e.Person == nil {
			continue
		}
		value := Value(e, v)
		if value == NoneLabel {
			continue
		}

		person := *e.Person
		if idMap != nil {
			if mapped, ok := idMap[person]; ok {
				person = mapped
			}
		}

		key := detectionKey{person: person}
		d, ok := out[key]
		if !ok {
			d = &detection{
				values:    make(map[string]struct{}),
				targets:   make(map[int64]struct{}),
				triangles: make(map[int64]struct{}),
			}
			out[key] = d
		}
		d.values[value] = struct{}{}
		for _, t := range e.RelationshipTargets {
			if idMap != nil {
				if mapped, ok := idMap[t]; ok {
					t = mapped
				}
			}
			d.targets[t] = struct{}{}
		}
		for _, t := range e.RelationshipTriangles {
			if idMap != nil {
				if mapped, ok := idMap[t]; ok {
					t = mapped
				}
			}
			d.triangles[t] = struct{}{}
		}
	}
	return out
}

// HierarchicalSARF computes the hierarchical sub-metrics of one variable.
// The candidate side is mapped through idMap before keys are compared.
func HierarchicalSARF(candidate, reference []models.Event, v Variable, idMap map[int64]int64) HierarchicalF1 {
	candDetections := detect(candidate, v, idMap)
	refDetections := detect(reference, v, nil)

	var detTP, detFP, detFN int
	var valTP, valMiss int
	var pplTP, pplMiss int

	for key, cand := range candDetections {
		ref, ok := refDetections[key]
		if !ok {
			detFP++
			continue
		}
		detTP++

		if setsIntersect(cand.values, ref.values) {
			valTP++
		} else {
			valMiss++
		}

		if v == VarRelationship {
			if linkSetsAgree(cand, ref) {
				pplTP++
			} else {
				pplMiss++
			}
		}
	}
	for key := range refDetections {
		if _, ok := candDetections[key]; !ok {
			detFN++
		}
	}

	out := HierarchicalF1{
		Detection: ComputeF1(detTP, detFP, detFN),
		// Mismatches over the detected intersection count against both
		// precision and recall.
		ValueMatch: ComputeF1(valTP, valMiss, valMiss),
	}
	if v == VarRelationship {
		score := ComputeF1(pplTP, pplMiss, pplMiss)
		out.PeopleMatch = &score
	}
	return out
}

// HierarchicalAll computes the hierarchical sub-metrics of every variable
func HierarchicalAll(candidate, reference []models.Event, idMap map[int64]int64) map[Variable]HierarchicalF1 {
	out := make(map[Variable]HierarchicalF1, 4)
	for _, v := range Variables() {
		out[v] = HierarchicalSARF(candidate, reference, v, idMap)
	}
	return out
}

func setsIntersect(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// linkSetsAgree reports whether the two sides' relationship link sets
// overlap. Two sides that both coded no links at all agree vacuously.
func linkSetsAgree(a, b *detection) bool {
	if len(a.targets)+len(a.triangles) == 0 && len(b.targets)+len(b.triangles) == 0 {
		return true
	}
	return idSetsIntersect(a.targets, b.targets) || idSetsIntersect(a.triangles, b.triangles)
}

func idSetsIntersect(a, b map[int64]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
