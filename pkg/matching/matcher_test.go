package matching

import (
	"testing"

	"github.com/pdplab/pdplab-go/pkg/models"
)

func person(id int64, name string) models.Person {
	return models.Person{ID: id, Name: models.Ptr(name)}
}

func TestMatchPeople(t *testing.T) {
	m := Default()

	t.Run("Title prefix difference still matches", func(t *testing.T) {
		result := m.MatchPeople(
			[]models.Person{person(-1, "Aunt Carol")},
			[]models.Person{person(-2, "Carol")},
		)
		if len(result.Pairs) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(result.Pairs))
		}
		if result.IDMap[-1] != -2 {
			t.Errorf("Expected id map {-1:-2}, got %v", result.IDMap)
		}
	})

	t.Run("Dissimilar names do not match", func(t *testing.T) {
		result := m.MatchPeople(
			[]models.Person{person(-1, "Alice")},
			[]models.Person{person(-2, "Zbigniew")},
		)
		if len(result.Pairs) != 0 {
			t.Error("Expected no match for dissimilar names")
		}
		if len(result.CandidateOnly) != 1 || len(result.ReferenceOnly) != 1 {
			t.Error("Unmatched people should land in the FP/FN buckets")
		}
	})

	t.Run("Conflicting gender blocks a name match", func(t *testing.T) {
		cand := person(-1, "Sam")
		cand.Gender = models.Ptr(models.GenderMale)
		ref := person(-2, "Sam")
		ref.Gender = models.Ptr(models.GenderFemale)

		result := m.MatchPeople([]models.Person{cand}, []models.Person{ref})
		if len(result.Pairs) != 0 {
			t.Error("Expected gender conflict to block the match")
		}
	})

	t.Run("Unknown gender passes the compatibility check", func(t *testing.T) {
		cand := person(-1, "Sam")
		cand.Gender = models.Ptr(models.GenderUnknown)
		ref := person(-2, "Sam")
		ref.Gender = models.Ptr(models.GenderFemale)

		result := m.MatchPeople([]models.Person{cand}, []models.Person{ref})
		if len(result.Pairs) != 1 {
			t.Error("Unknown gender should not block the match")
		}
	})

	t.Run("Parent sets must agree under the partial id map", func(t *testing.T) {
		candParentA := person(-1, "Ann")
		candParentB := person(-2, "Bob")
		candChild := person(-3, "Kim")
		candChild.Parents = []int64{-1, -2}

		refParentA := person(-10, "Ann")
		refParentB := person(-20, "Bob")
		refChild := person(-30, "Kim")
		refChild.Parents = []int64{-10, -20}

		result := m.MatchPeople(
			[]models.Person{candParentA, candParentB, candChild},
			[]models.Person{refParentA, refParentB, refChild},
		)
		if len(result.Pairs) != 3 {
			t.Fatalf("Expected 3 matches, got %d", len(result.Pairs))
		}
		if result.IDMap[-3] != -30 {
			t.Errorf("Expected child mapped to -30, got %v", result.IDMap)
		}
	})

	t.Run("Disagreeing parents block a same-name match", func(t *testing.T) {
		candParent := person(-1, "Ann")
		candChild := person(-2, "Kim")
		candChild.Parents = []int64{-1}

		refOther := person(-10, "Zelda")
		refChild := person(-20, "Kim")
		refChild.Parents = []int64{-10}

		result := m.MatchPeople(
			[]models.Person{candParent, candChild},
			[]models.Person{refOther, refChild},
		)
		for _, pair := range result.Pairs {
			if pair.Candidate.ID == -2 {
				t.Error("Child with unmapped disagreeing parents should not match")
			}
		}
	})

	t.Run("Each reference is consumed at most once", func(t *testing.T) {
		result := m.MatchPeople(
			[]models.Person{person(-1, "Ann"), person(-2, "Ann")},
			[]models.Person{person(-10, "Ann")},
		)
		if len(result.Pairs) != 1 {
			t.Errorf("Expected exactly 1 match, got %d", len(result.Pairs))
		}
		if len(result.CandidateOnly) != 1 {
			t.Errorf("Expected 1 leftover candidate, got %d", len(result.CandidateOnly))
		}
	})
}

func TestMatchEvents(t *testing.T) {
	m := Default()

	shiftEvent := func(id int64, desc string, person int64) models.Event {
		return models.Event{
			ID:          id,
			Kind:        models.EventShift,
			Description: models.Ptr(desc),
			Person:      models.Ptr(person),
		}
	}

	t.Run("Same kind with close description and mapped links matches", func(t *testing.T) {
		idMap := map[int64]int64{-1: -10}
		result := m.MatchEvents(
			[]models.Event{shiftEvent(-2, "Quit his job", -1)},
			[]models.Event{shiftEvent(-20, "quit his job", -10)},
			idMap,
		)
		if len(result.Pairs) != 1 {
			t.Fatalf("Expected 1 match, got %d candidates-only=%d", len(result.Pairs), len(result.CandidateOnly))
		}
	})

	t.Run("Different kinds never match", func(t *testing.T) {
		cand := models.Event{ID: -1, Kind: models.EventBirth, Description: models.Ptr("Born")}
		ref := models.Event{ID: -2, Kind: models.EventDeath, Description: models.Ptr("Born")}
		result := m.MatchEvents([]models.Event{cand}, []models.Event{ref}, nil)
		if len(result.Pairs) != 0 {
			t.Error("Expected kind mismatch to block the match")
		}
	})

	t.Run("Low description similarity blocks the match", func(t *testing.T) {
		idMap := map[int64]int64{-1: -10}
		result := m.MatchEvents(
			[]models.Event{shiftEvent(-2, "abcdefghij", -1)},
			[]models.Event{shiftEvent(-20, "abc", -10)},
			idMap,
		)
		if len(result.Pairs) != 0 {
			t.Error("Expected description gate to block the match")
		}
	})

	t.Run("Disagreeing person links block the match", func(t *testing.T) {
		idMap := map[int64]int64{-1: -10, -3: -30}
		result := m.MatchEvents(
			[]models.Event{shiftEvent(-2, "Quit his job", -1)},
			[]models.Event{shiftEvent(-20, "Quit his job", -30)},
			idMap,
		)
		if len(result.Pairs) != 0 {
			t.Error("Expected link disagreement to block the match")
		}
	})

	t.Run("Relationship target sets compare through the id map", func(t *testing.T) {
		cand := models.Event{
			ID: -2, Kind: models.EventShift,
			Description:         models.Ptr("Argument"),
			RelationshipTargets: []int64{-1, -3},
		}
		ref := models.Event{
			ID: -20, Kind: models.EventShift,
			Description:         models.Ptr("Argument"),
			RelationshipTargets: []int64{-10, -30},
		}
		idMap := map[int64]int64{-1: -10, -3: -30}
		result := m.MatchEvents([]models.Event{cand}, []models.Event{ref}, idMap)
		if len(result.Pairs) != 1 {
			t.Error("Expected mapped target sets to be equal")
		}
	})
}

func TestDateGating(t *testing.T) {
	m := Default()

	date := func(s string) *string { return &s }

	tests := []struct {
		name     string
		d1, d2   *string
		c1, c2   models.DateCertainty
		expected bool
	}{
		{"certain 7 days matches", date("2024-01-01"), date("2024-01-08"), models.DateCertain, models.DateCertain, true},
		{"certain 8 days does not", date("2024-01-01"), date("2024-01-09"), models.DateCertain, models.DateCertain, false},
		{"approximate 270 days matches", date("2024-01-01"), date("2024-09-27"), models.DateApproximate, models.DateCertain, true},
		{"approximate 271 days does not", date("2024-01-01"), date("2024-09-28"), models.DateApproximate, models.DateCertain, false},
		{"approximate 214 days matches", date("2024-06-01"), date("2025-01-01"), models.DateApproximate, models.DateCertain, true},
		{"approximate 731 days does not", date("2023-01-01"), date("2025-01-01"), models.DateApproximate, models.DateCertain, false},
		{"unknown certainty matches anything", date("2000-01-01"), date("2030-01-01"), models.DateUnknown, models.DateCertain, true},
		{"absent dates match anything", nil, date("2030-01-01"), models.DateCertain, models.DateCertain, true},
		{"unparseable dates match anything", date("next summer"), date("2030-01-01"), models.DateCertain, models.DateCertain, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := m.DatesWithinTolerance(test.d1, test.d2, test.c1, test.c2)
			if got != test.expected {
				t.Errorf("Expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestMatchPairBonds(t *testing.T) {
	m := Default()

	t.Run("Unordered mapped pair equality", func(t *testing.T) {
		idMap := map[int64]int64{-1: -10, -2: -20}
		result := m.MatchPairBonds(
			[]models.PairBond{{ID: -3, PersonA: -1, PersonB: -2}},
			[]models.PairBond{{ID: -30, PersonA: -20, PersonB: -10}},
			idMap,
		)
		if len(result.Pairs) != 1 {
			t.Error("Expected reversed pair to match")
		}
	})

	t.Run("Unmapped members fall back to raw ids", func(t *testing.T) {
		result := m.MatchPairBonds(
			[]models.PairBond{{ID: -3, PersonA: 5, PersonB: 6}},
			[]models.PairBond{{ID: -30, PersonA: 5, PersonB: 6}},
			nil,
		)
		if len(result.Pairs) != 1 {
			t.Error("Expected raw-id pair to match")
		}
	})

	t.Run("No reference with the mapped pair", func(t *testing.T) {
		idMap := map[int64]int64{-1: -10}
		result := m.MatchPairBonds(
			[]models.PairBond{{ID: -3, PersonA: -1, PersonB: -2}},
			[]models.PairBond{{ID: -30, PersonA: -10, PersonB: -99}},
			idMap,
		)
		if len(result.Pairs) != 0 {
			t.Error("Expected no match")
		}
	})
}

func TestMatchPDPs(t *testing.T) {
	m := Default()

	ai := models.PDP{
		People: []models.Person{person(-1, "John")},
		Events: []models.Event{{
			ID: -2, Kind: models.EventBonded,
			Description: models.Ptr("Dinner"),
			DateTime:    models.Ptr("2024-01-01"),
			Person:      models.Ptr(int64(-1)),
		}},
	}
	gt := models.PDP{
		People: []models.Person{person(-10, "John")},
		Events: []models.Event{{
			ID: -20, Kind: models.EventBonded,
			Description: models.Ptr("Dinner"),
			DateTime:    models.Ptr("2024-01-01"),
			Person:      models.Ptr(int64(-10)),
		}},
	}

	match := m.MatchPDPs(ai, gt)
	if len(match.People.Pairs) != 1 || len(match.Events.Pairs) != 1 {
		t.Fatalf("Expected full match, got people=%d events=%d", len(match.People.Pairs), len(match.Events.Pairs))
	}
	if match.IDMap[-1] != -10 || match.IDMap[-2] != -20 {
		t.Errorf("Expected id map {-1:-10, -2:-20}, got %v", match.IDMap)
	}
}
