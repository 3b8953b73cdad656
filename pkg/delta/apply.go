// Package delta applies per-statement deltas to a cumulative PDP and
// reconstructs the PDP state at any point in a discussion.
package delta

import (
	"github.com/pdplab/pdplab-go/pkg/models"
)

// Apply folds one set of deltas into a PDP and returns the new state.
// Neither input is mutated. Upserts overwrite only the fields that the
// delta item sets (non-nil pointers; non-nil lists replace wholesale);
// ids are namespaced per category, so a person and an event may share an
// id without colliding. Deletes run after the upserts and leave dangling
// references in other records untouched; downstream matching and layout
// tolerate them.
func Apply(pdp models.PDP, deltas models.Deltas) models.PDP {
	out := pdp.Clone()

	personIdx := make(map[int64]int, len(out.People))
	for i, p := range out.People {
		personIdx[p.ID] = i
	}
	eventIdx := make(map[int64]int, len(out.Events))
	for i, e := range out.Events {
		eventIdx[e.ID] = i
	}
	bondIdx := make(map[int64]int, len(out.PairBonds))
	for i, b := range out.PairBonds {
		bondIdx[b.ID] = i
	}

	for _, p := range deltas.People {
		if i, ok := personIdx[p.ID]; ok {
			mergePerson(&out.People[i], p)
		} else {
			personIdx[p.ID] = len(out.People)
			out.People = append(out.People, p.Clone())
		}
	}
	for _, e := range deltas.Events {
		if i, ok := eventIdx[e.ID]; ok {
			mergeEvent(&out.Events[i], e)
		} else {
			eventIdx[e.ID] = len(out.Events)
			out.Events = append(out.Events, e.Clone())
		}
	}
	for _, b := range deltas.PairBonds {
		if i, ok := bondIdx[b.ID]; ok {
			mergeBond(&out.PairBonds[i], b)
		} else {
			bondIdx[b.ID] = len(out.PairBonds)
			out.PairBonds = append(out.PairBonds, b.Clone())
		}
	}

	if len(deltas.Delete) > 0 {
		doomed := make(map[int64]struct{}, len(deltas.Delete))
		for _, id := range deltas.Delete {
			doomed[id] = struct{}{}
		}
		out.People = filterPeople(out.People, doomed)
		out.Events = filterEvents(out.Events, doomed)
		out.PairBonds = filterBonds(out.PairBonds, doomed)
	}

	return out
}

func mergePerson(dst *models.Person, src models.Person) {
	if src.Name != nil {
		dst.Name = models.Ptr(*src.Name)
	}
	if src.LastName != nil {
		dst.LastName = models.Ptr(*src.LastName)
	}
	if src.Gender != nil {
		dst.Gender = models.Ptr(*src.Gender)
	}
	if src.Parents != nil {
		dst.Parents = append([]int64(nil), src.Parents...)
	}
	if src.Confidence != nil {
		dst.Confidence = models.Ptr(*src.Confidence)
	}
}

func mergeEvent(dst *models.Event, src models.Event) {
	dst.Kind = src.Kind
	if src.Description != nil {
		dst.Description = models.Ptr(*src.Description)
	}
	if src.DateTime != nil {
		dst.DateTime = models.Ptr(*src.DateTime)
	}
	if src.DateCertainty != nil {
		dst.DateCertainty = models.Ptr(*src.DateCertainty)
	}
	if src.Person != nil {
		dst.Person = models.Ptr(*src.Person)
	}
	if src.Spouse != nil {
		dst.Spouse = models.Ptr(*src.Spouse)
	}
	if src.Child != nil {
		dst.Child = models.Ptr(*src.Child)
	}
	if src.RelationshipTargets != nil {
		dst.RelationshipTargets = append([]int64(nil), src.RelationshipTargets...)
	}
	if src.RelationshipTriangles != nil {
		dst.RelationshipTriangles = append([]int64(nil), src.RelationshipTriangles...)
	}
	if src.Symptom != nil {
		dst.Symptom = models.Ptr(*src.Symptom)
	}
	if src.Anxiety != nil {
		dst.Anxiety = models.Ptr(*src.Anxiety)
	}
	if src.Functioning != nil {
		dst.Functioning = models.Ptr(*src.Functioning)
	}
	if src.Relationship != nil {
		dst.Relationship = models.Ptr(*src.Relationship)
	}
}

func mergeBond(dst *models.PairBond, src models.PairBond) {
	dst.PersonA = src.PersonA
	dst.PersonB = src.PersonB
	if src.Married != nil {
		dst.Married = models.Ptr(*src.Married)
	}
	if src.Separated != nil {
		dst.Separated = models.Ptr(*src.Separated)
	}
	if src.Divorced != nil {
		dst.Divorced = models.Ptr(*src.Divorced)
	}
}

func filterPeople(people []models.Person, doomed map[int64]struct{}) []models.Person {
	out := people[:0]
	for _, p := range people {
		if _, ok := doomed[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func filterEvents(events []models.Event, doomed map[int64]struct{}) []models.Event {
	out := events[:0]
	for _, e := range events {
		if _, ok := doomed[e.ID]; !ok {
			out = append(out, e)
		}
	}
	return out
}

func filterBonds(bonds []models.PairBond, doomed map[int64]struct{}) []models.PairBond {
	out := bonds[:0]
	for _, b := range bonds {
		if _, ok := doomed[b.ID]; !ok {
			out = append(out, b)
		}
	}
	return out
}
