package metrics

import (
	"testing"

	"github.com/pdplab/pdplab-go/pkg/matching"
	"github.com/pdplab/pdplab-go/pkg/models"
)

func TestComputeF1(t *testing.T) {
	t.Run("vacuous perfect", func(t *testing.T) {
		score := ComputeF1(0, 0, 0)
		if score.Precision != 1.0 || score.Recall != 1.0 || score.F1 != 1.0 {
			t.Errorf("Expected perfect score for empty counts, got %+v", score)
		}
	})

	t.Run("standard counts", func(t *testing.T) {
		score := ComputeF1(2, 1, 1)
		if score.Precision != 2.0/3.0 {
			t.Errorf("Expected precision 2/3, got %f", score.Precision)
		}
		if score.Recall != 2.0/3.0 {
			t.Errorf("Expected recall 2/3, got %f", score.Recall)
		}
	})

	t.Run("all false positives", func(t *testing.T) {
		score := ComputeF1(0, 3, 0)
		if score.Precision != 0 || score.F1 != 0 {
			t.Errorf("Expected zero precision and F1, got %+v", score)
		}
	})

	t.Run("micro pools counts", func(t *testing.T) {
		a := ComputeF1(1, 1, 0)
		b := ComputeF1(1, 0, 1)
		micro := MicroF1(a, b)
		if micro.TP != 2 || micro.FP != 1 || micro.FN != 1 {
			t.Errorf("Expected pooled counts 2/1/1, got %d/%d/%d", micro.TP, micro.FP, micro.FN)
		}
		if micro.Precision != 2.0/3.0 {
			t.Errorf("Expected pooled precision 2/3, got %f", micro.Precision)
		}
	})
}

func TestMacroF1(t *testing.T) {
	t.Run("identical sequences", func(t *testing.T) {
		got := MacroF1([]string{"up", "down", "none"}, []string{"up", "down", "none"})
		if got != 1.0 {
			t.Errorf("Expected macro F1 1.0, got %f", got)
		}
	})

	t.Run("disjoint labels", func(t *testing.T) {
		got := MacroF1([]string{"up", "up"}, []string{"down", "down"})
		if got != 0.0 {
			t.Errorf("Expected macro F1 0.0, got %f", got)
		}
	})

	t.Run("empty sequences", func(t *testing.T) {
		got := MacroF1(nil, nil)
		if got != 0.0 {
			t.Errorf("Expected 0.0 for empty sequences, got %f", got)
		}
	})
}

func shiftEvent(id, person int64, symptom models.Shift) models.Event {
	return models.Event{
		ID:      id,
		Kind:    models.EventShift,
		Person:  models.Ptr(person),
		Symptom: models.Ptr(symptom),
	}
}

func TestHierarchicalSARF(t *testing.T) {
	idMap := map[int64]int64{-1: -10, -2: -20}

	t.Run("detection and value agree", func(t *testing.T) {
		cand := []models.Event{shiftEvent(-5, -1, models.ShiftUp)}
		ref := []models.Event{shiftEvent(-50, -10, models.ShiftUp)}
		h := HierarchicalSARF(cand, ref, VarSymptom, idMap)
		if h.Detection.F1 != 1.0 {
			t.Errorf("Expected detection F1 1.0, got %f", h.Detection.F1)
		}
		if h.ValueMatch.F1 != 1.0 {
			t.Errorf("Expected value F1 1.0, got %f", h.ValueMatch.F1)
		}
		if h.PeopleMatch != nil {
			t.Error("Expected no people-match score for symptom")
		}
	})

	t.Run("detected but value mismatch", func(t *testing.T) {
		cand := []models.Event{shiftEvent(-5, -1, models.ShiftUp)}
		ref := []models.Event{shiftEvent(-50, -10, models.ShiftDown)}
		h := HierarchicalSARF(cand, ref, VarSymptom, idMap)
		if h.Detection.F1 != 1.0 {
			t.Errorf("Expected detection F1 1.0, got %f", h.Detection.F1)
		}
		if h.ValueMatch.F1 != 0.0 {
			t.Errorf("Expected value F1 0.0 on mismatch, got %f", h.ValueMatch.F1)
		}
		if h.ValueMatch.FP != 1 || h.ValueMatch.FN != 1 {
			t.Errorf("Expected mismatch to count as FP and FN, got %d/%d", h.ValueMatch.FP, h.ValueMatch.FN)
		}
	})

	t.Run("missed detection", func(t *testing.T) {
		ref := []models.Event{shiftEvent(-50, -10, models.ShiftUp)}
		h := HierarchicalSARF(nil, ref, VarSymptom, idMap)
		if h.Detection.FN != 1 || h.Detection.F1 != 0.0 {
			t.Errorf("Expected one FN and zero F1, got %+v", h.Detection)
		}
	})

	t.Run("relationship people match", func(t *testing.T) {
		cand := []models.Event{{
			ID:                  -5,
			Kind:                models.EventShift,
			Person:              models.Ptr(int64(-1)),
			Relationship:        models.Ptr(models.RelationshipConflict),
			RelationshipTargets: []int64{-2},
		}}
		ref := []models.Event{{
			ID:                  -50,
			Kind:                models.EventShift,
			Person:              models.Ptr(int64(-10)),
			Relationship:        models.Ptr(models.RelationshipConflict),
			RelationshipTargets: []int64{-20},
		}}
		h := HierarchicalSARF(cand, ref, VarRelationship, idMap)
		if h.PeopleMatch == nil {
			t.Fatal("Expected a people-match score for relationship")
		}
		if h.PeopleMatch.F1 != 1.0 {
			t.Errorf("Expected people F1 1.0 through id map, got %f", h.PeopleMatch.F1)
		}
	})

	t.Run("relationship people mismatch", func(t *testing.T) {
		cand := []models.Event{{
			ID:                  -5,
			Kind:                models.EventShift,
			Person:              models.Ptr(int64(-1)),
			Relationship:        models.Ptr(models.RelationshipConflict),
			RelationshipTargets: []int64{-1},
		}}
		ref := []models.Event{{
			ID:                  -50,
			Kind:                models.EventShift,
			Person:              models.Ptr(int64(-10)),
			Relationship:        models.Ptr(models.RelationshipConflict),
			RelationshipTargets: []int64{-20},
		}}
		h := HierarchicalSARF(cand, ref, VarRelationship, idMap)
		if h.PeopleMatch == nil || h.PeopleMatch.F1 != 0.0 {
			t.Errorf("Expected people F1 0.0, got %+v", h.PeopleMatch)
		}
	})
}

func TestCanonicalizePDP(t *testing.T) {
	pdp := models.PDP{
		People: []models.Person{
			{ID: -3, Name: models.Ptr("Zoe"), Confidence: models.Ptr(0.9)},
			{ID: -7, Name: models.Ptr("Amy")},
		},
		Events: []models.Event{
			{ID: -4, Kind: models.EventBonded, Description: models.Ptr("Dinner"), Person: models.Ptr(int64(-3))},
		},
		PairBonds: []models.PairBond{
			{ID: -9, PersonA: -3, PersonB: -7},
		},
	}

	canon := CanonicalizePDP(pdp)

	t.Run("people sorted and renumbered", func(t *testing.T) {
		if len(canon.People) != 2 {
			t.Fatalf("Expected 2 people, got %d", len(canon.People))
		}
		if *canon.People[0].Name != "Amy" || canon.People[0].ID != 1 {
			t.Errorf("Expected Amy first with id 1, got %q id %d", *canon.People[0].Name, canon.People[0].ID)
		}
		if *canon.People[1].Name != "Zoe" || canon.People[1].ID != 2 {
			t.Errorf("Expected Zoe second with id 2, got %q id %d", *canon.People[1].Name, canon.People[1].ID)
		}
	})

	t.Run("confidence dropped", func(t *testing.T) {
		for _, p := range canon.People {
			if p.Confidence != nil {
				t.Errorf("Expected confidence stripped, got %v", *p.Confidence)
			}
		}
	})

	t.Run("links remapped", func(t *testing.T) {
		if canon.Events[0].Person == nil || *canon.Events[0].Person != 2 {
			t.Errorf("Expected event person remapped to 2, got %v", canon.Events[0].Person)
		}
		bond := canon.PairBonds[0]
		if bond.PersonA != 1 || bond.PersonB != 2 {
			t.Errorf("Expected bond members ordered 1,2, got %d,%d", bond.PersonA, bond.PersonB)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		again, err := ExactMatch(canon, CanonicalizePDP(canon))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !again {
			t.Error("Expected canonicalization to be idempotent")
		}
	})

	t.Run("original untouched", func(t *testing.T) {
		if pdp.People[0].ID != -3 || pdp.People[0].Confidence == nil {
			t.Error("Expected input PDP to be unmodified")
		}
	})
}

func TestEvaluatePerfectMatch(t *testing.T) {
	ai := models.PDP{
		People: []models.Person{{ID: -1, Name: models.Ptr("John")}},
		Events: []models.Event{{
			ID:          -2,
			Kind:        models.EventBonded,
			Description: models.Ptr("Dinner"),
			DateTime:    models.Ptr("2024-01-01"),
			Person:      models.Ptr(int64(-1)),
		}},
	}
	gt := models.PDP{
		People: []models.Person{{ID: -10, Name: models.Ptr("John")}},
		Events: []models.Event{{
			ID:          -20,
			Kind:        models.EventBonded,
			Description: models.Ptr("Dinner"),
			DateTime:    models.Ptr("2024-01-01"),
			Person:      models.Ptr(int64(-10)),
		}},
	}

	report, err := Evaluate(ai, gt, matching.Default())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.Aggregate.F1 != 1.0 {
		t.Errorf("Expected aggregate micro-F1 1.0, got %f", report.Aggregate.F1)
	}
	if !report.ExactMatch {
		t.Error("Expected exact match")
	}
	if report.IDMap[-1] != -10 || report.IDMap[-2] != -20 {
		t.Errorf("Expected id map {-1:-10, -2:-20}, got %v", report.IDMap)
	}
}

func TestEvaluatePartialMatch(t *testing.T) {
	ai := models.PDP{
		People: []models.Person{
			{ID: -1, Name: models.Ptr("John")},
			{ID: -2, Name: models.Ptr("Xavier")},
		},
	}
	gt := models.PDP{
		People: []models.Person{{ID: -10, Name: models.Ptr("John")}},
	}

	report, err := Evaluate(ai, gt, matching.Default())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.People.TP != 1 || report.People.FP != 1 || report.People.FN != 0 {
		t.Errorf("Expected 1/1/0, got %d/%d/%d", report.People.TP, report.People.FP, report.People.FN)
	}
	if report.ExactMatch {
		t.Error("Expected no exact match with extra person")
	}
}

func TestReportCache(t *testing.T) {
	cache := NewReportCache()
	report := Report{ExactMatch: true}
	hash := ContentHash(map[string]string{"k": "v"})
	if hash == "" {
		t.Fatal("Expected non-empty content hash")
	}

	cache.Put(1, 2, hash, report)

	t.Run("hit", func(t *testing.T) {
		got, ok := cache.Get(1, 2, hash)
		if !ok || !got.ExactMatch {
			t.Error("Expected cached report")
		}
	})

	t.Run("miss on different hash", func(t *testing.T) {
		if _, ok := cache.Get(1, 2, "other"); ok {
			t.Error("Expected miss for different content hash")
		}
	})

	t.Run("invalidate feedback", func(t *testing.T) {
		cache.Put(1, 2, hash, report)
		cache.Invalidate(1, 2)
		if _, ok := cache.Get(1, 2, hash); ok {
			t.Error("Expected entry invalidated")
		}
	})

	t.Run("invalidate statement", func(t *testing.T) {
		cache.Put(1, 2, hash, report)
		cache.Put(1, 3, hash, report)
		cache.InvalidateStatement(1)
		if _, ok := cache.Get(1, 2, hash); ok {
			t.Error("Expected all statement entries invalidated")
		}
		if _, ok := cache.Get(1, 3, hash); ok {
			t.Error("Expected all statement entries invalidated")
		}
	})
}

func TestEvaluatorReusesCachedReport(t *testing.T) {
	candidate := models.PDP{People: []models.Person{{ID: -1, Name: models.Ptr("John")}}}
	reference := models.PDP{People: []models.Person{{ID: -10, Name: models.Ptr("John")}}}

	ev := NewEvaluator(matching.Default())
	first, err := ev.EvaluateStatement(1, 2, candidate, reference)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Aggregate.F1 != 1.0 {
		t.Fatalf("Expected aggregate F1 1.0, got %f", first.Aggregate.F1)
	}

	// Plant a marker under the same key to prove the second call reads
	// the cache instead of rescoring
	marker := Report{IDMap: map[int64]int64{99: 99}}
	hash := ContentHash([2]models.PDP{candidate, reference})
	ev.cache.Put(1, 2, hash, marker)

	second, err := ev.EvaluateStatement(1, 2, candidate, reference)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.IDMap[99] != 99 {
		t.Error("Expected the cached report on an unchanged statement")
	}

	t.Run("edited content misses the cache", func(t *testing.T) {
		edited := models.PDP{People: []models.Person{{ID: -10, Name: models.Ptr("Johnny")}}}
		report, err := ev.EvaluateStatement(1, 2, candidate, edited)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if report.IDMap[99] == 99 {
			t.Error("Expected a fresh report after the reference changed")
		}
	})

	t.Run("invalidate forces a rescore", func(t *testing.T) {
		ev.Invalidate(1, 2)
		report, err := ev.EvaluateStatement(1, 2, candidate, reference)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if report.IDMap[99] == 99 {
			t.Error("Expected a fresh report after invalidation")
		}
	})
}
