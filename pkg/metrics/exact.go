package metrics

import (
	"encoding/json"
	"sort"

	"github.com/pdplab/pdplab-go/pkg/models"
)

// CanonicalizePDP rewrites a PDP into a normal form in which two
// semantically equal PDPs serialize identically: people are sorted by
// (name, last_name), events by (kind, description, dateTime), ids are
// renumbered sequentially from 1 within each category, links are remapped
// accordingly, pair bond members are ordered low-to-high, and confidences
// are dropped. The function is idempotent.
func CanonicalizePDP(p models.PDP) models.PDP {
	out := p.Clone()

	sort.SliceStable(out.People, func(i, j int) bool {
		a, b := out.People[i], out.People[j]
		if av, bv := stringOrEmpty(a.Name), stringOrEmpty(b.Name); av != bv {
			return av < bv
		}
		if av, bv := stringOrEmpty(a.LastName), stringOrEmpty(b.LastName); av != bv {
			return av < bv
		}
		return a.ID < b.ID
	})
	personIDs := make(map[int64]int64, len(out.People))
	for i := range out.People {
		personIDs[out.People[i].ID] = int64(i + 1)
		out.People[i].ID = int64(i + 1)
		out.People[i].Confidence = nil
	}
	for i := range out.People {
		out.People[i].Parents = remapIDs(out.People[i].Parents, personIDs)
	}

	sort.SliceStable(out.Events, func(i, j int) bool {
		a, b := out.Events[i], out.Events[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if av, bv := stringOrEmpty(a.Description), stringOrEmpty(b.Description); av != bv {
			return av < bv
		}
		if av, bv := stringOrEmpty(a.DateTime), stringOrEmpty(b.DateTime); av != bv {
			return av < bv
		}
		return a.ID < b.ID
	})
	for i := range out.Events {
		e := &out.Events[i]
		e.ID = int64(i + 1)
		e.Person = remapIDPtr(e.Person, personIDs)
		e.Spouse = remapIDPtr(e.Spouse, personIDs)
		e.Child = remapIDPtr(e.Child, personIDs)
		e.RelationshipTargets = remapIDs(e.RelationshipTargets, personIDs)
		e.RelationshipTriangles = remapIDs(e.RelationshipTriangles, personIDs)
	}

	for i := range out.PairBonds {
		b := &out.PairBonds[i]
		b.PersonA = remapID(b.PersonA, personIDs)
		b.PersonB = remapID(b.PersonB, personIDs)
		if b.PersonB < b.PersonA {
			b.PersonA, b.PersonB = b.PersonB, b.PersonA
		}
	}
	sort.SliceStable(out.PairBonds, func(i, j int) bool {
		a, b := out.PairBonds[i], out.PairBonds[j]
		if a.PersonA != b.PersonA {
			return a.PersonA < b.PersonA
		}
		if a.PersonB != b.PersonB {
			return a.PersonB < b.PersonB
		}
		return a.ID < b.ID
	})
	for i := range out.PairBonds {
		out.PairBonds[i].ID = int64(i + 1)
	}

	return out
}

// ExactMatch reports whether two PDPs are equal after canonical
// normalization.
func ExactMatch(a, b models.PDP) (bool, error) {
	aJSON, err := json.Marshal(CanonicalizePDP(a))
	if err != nil {
		return false, err
	}
	bJSON, err := json.Marshal(CanonicalizePDP(b))
	if err != nil {
		return false, err
	}
	return string(aJSON) == string(bJSON), nil
}

func remapID(id int64, m map[int64]int64) int64 {
	if mapped, ok := m[id]; ok {
		return mapped
	}
	// Dangling references keep their original id.
	return id
}

func remapIDPtr(id *int64, m map[int64]int64) *int64 {
	if id == nil {
		return nil
	}
	mapped := remapID(*id, m)
	return &mapped
}

func remapIDs(ids []int64, m map[int64]int64) []int64 {
	if ids == nil {
		return nil
	}
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = remapID(id, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
