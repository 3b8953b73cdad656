package delta

import (
	"reflect"
	"testing"

	"github.com/pdplab/pdplab-go/pkg/models"
)

func TestApply(t *testing.T) {
	t.Run("Empty deltas leave the PDP unchanged", func(t *testing.T) {
		pdp := models.PDP{
			People: []models.Person{{ID: 1, Name: models.Ptr("A")}},
			Events: []models.Event{{ID: 2, Kind: models.EventBirth}},
		}
		out := Apply(pdp, models.Deltas{})
		if !reflect.DeepEqual(pdp, out) {
			t.Errorf("Expected unchanged PDP, got %+v", out)
		}
	})

	t.Run("Inputs are not mutated", func(t *testing.T) {
		pdp := models.PDP{People: []models.Person{{ID: 1, Name: models.Ptr("A")}}}
		deltas := models.Deltas{People: []models.Person{{ID: 1, Name: models.Ptr("B")}}}
		out := Apply(pdp, deltas)

		if *pdp.People[0].Name != "A" {
			t.Error("Apply mutated the input PDP")
		}
		if *out.People[0].Name != "B" {
			t.Errorf("Expected overwritten name B, got %s", *out.People[0].Name)
		}
	})

	t.Run("Upsert overwrites only set fields", func(t *testing.T) {
		pdp := models.PDP{People: []models.Person{{
			ID:       1,
			Name:     models.Ptr("Carol"),
			LastName: models.Ptr("Smith"),
			Gender:   models.Ptr(models.GenderFemale),
			Parents:  []int64{10, 11},
		}}}
		deltas := models.Deltas{People: []models.Person{{ID: 1, Name: models.Ptr("Caroline")}}}
		out := Apply(pdp, deltas)

		p := out.People[0]
		if *p.Name != "Caroline" {
			t.Errorf("Expected name Caroline, got %s", *p.Name)
		}
		if p.LastName == nil || *p.LastName != "Smith" {
			t.Error("Unset last_name should preserve the existing value")
		}
		if p.Gender == nil || *p.Gender != models.GenderFemale {
			t.Error("Unset gender should preserve the existing value")
		}
		if !reflect.DeepEqual(p.Parents, []int64{10, 11}) {
			t.Errorf("Unset parents should preserve the existing value, got %v", p.Parents)
		}
	})

	t.Run("List fields replace wholesale when present", func(t *testing.T) {
		pdp := models.PDP{People: []models.Person{{ID: 1, Parents: []int64{10, 11}}}}
		deltas := models.Deltas{People: []models.Person{{ID: 1, Parents: []int64{12, 13}}}}
		out := Apply(pdp, deltas)
		if !reflect.DeepEqual(out.People[0].Parents, []int64{12, 13}) {
			t.Errorf("Expected parents [12 13], got %v", out.People[0].Parents)
		}
	})

	t.Run("Cross-category id collision is not an error", func(t *testing.T) {
		pdp := models.PDP{
			People: []models.Person{{ID: 1, Name: models.Ptr("A")}},
		}
		deltas := models.Deltas{Events: []models.Event{{ID: 1, Kind: models.EventBirth}}}
		out := Apply(pdp, deltas)
		if len(out.People) != 1 || len(out.Events) != 1 {
			t.Errorf("Expected person and event to coexist under id 1, got %+v", out)
		}
	})

	t.Run("Delete removes matching ids in every category", func(t *testing.T) {
		pdp := models.PDP{
			People:    []models.Person{{ID: 1}, {ID: 2}},
			Events:    []models.Event{{ID: 3, Kind: models.EventDeath}},
			PairBonds: []models.PairBond{{ID: 4, PersonA: 1, PersonB: 2}},
		}
		out := Apply(pdp, models.Deltas{Delete: []int64{1, 3, 4}})
		if len(out.People) != 1 || out.People[0].ID != 2 {
			t.Errorf("Expected only person 2, got %+v", out.People)
		}
		if len(out.Events) != 0 {
			t.Errorf("Expected no events, got %+v", out.Events)
		}
		if len(out.PairBonds) != 0 {
			t.Errorf("Expected no pair bonds, got %+v", out.PairBonds)
		}
	})

	t.Run("Delete applies to ids added by the same deltas", func(t *testing.T) {
		out := Apply(models.PDP{}, models.Deltas{
			People: []models.Person{{ID: -1, Name: models.Ptr("A")}},
			Delete: []int64{-1},
		})
		if len(out.People) != 0 {
			t.Errorf("Expected the added person to be deleted, got %+v", out.People)
		}
	})

	t.Run("Dangling references are retained", func(t *testing.T) {
		pdp := models.PDP{
			People: []models.Person{{ID: 1}},
			Events: []models.Event{{ID: 2, Kind: models.EventShift, Person: models.Ptr(int64(1))}},
		}
		out := Apply(pdp, models.Deltas{Delete: []int64{1}})
		if len(out.Events) != 1 {
			t.Fatal("Event should survive the deletion of its person")
		}
		if out.Events[0].Person == nil || *out.Events[0].Person != 1 {
			t.Error("Dangling person reference should be retained as-is")
		}
	})
}

func TestCumulative(t *testing.T) {
	deltas := func(d models.Deltas) *models.Deltas { return &d }

	t.Run("Folds strictly prior statements only", func(t *testing.T) {
		statements := []Statement{
			{Order: 0, ID: 10, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -1, Name: models.Ptr("A")}}})},
			{Order: 1, ID: 11, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -2, Name: models.Ptr("B")}}})},
			{Order: 2, ID: 12, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -3, Name: models.Ptr("C")}}})},
		}
		pdp := Cumulative(statements, 12)
		if len(pdp.People) != 2 {
			t.Errorf("Expected 2 people before statement 12, got %d", len(pdp.People))
		}
	})

	t.Run("Order ties resolved by id ascending", func(t *testing.T) {
		a := []Statement{
			{Order: 0, ID: 2, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -1, Name: models.Ptr("second")}}})},
			{Order: 0, ID: 1, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -1, Name: models.Ptr("first")}}})},
		}
		b := []Statement{a[1], a[0]}

		pa := Cumulative(a, 99)
		pb := Cumulative(b, 99)
		if !reflect.DeepEqual(pa, pb) {
			t.Error("Cumulative should be a function of the sorted sequence")
		}
		if *pa.People[0].Name != "second" {
			t.Errorf("Expected id-ascending application, got name %s", *pa.People[0].Name)
		}
	})

	t.Run("Delete of a prior add with dangling event reference", func(t *testing.T) {
		statements := []Statement{
			{Order: 0, ID: 1, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -1, Name: models.Ptr("A")}}})},
			{Order: 1, ID: 2, Deltas: deltas(models.Deltas{
				People: []models.Person{{ID: -2, Name: models.Ptr("B")}},
				Delete: []int64{-1},
			})},
			{Order: 2, ID: 3, Deltas: deltas(models.Deltas{
				Events: []models.Event{{ID: -3, Kind: models.EventShift, Person: models.Ptr(int64(-1))}},
			})},
		}
		pdp := Cumulative(statements, 99)

		if len(pdp.People) != 1 || *pdp.People[0].Name != "B" {
			t.Errorf("Expected only person B, got %+v", pdp.People)
		}
		if len(pdp.Events) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(pdp.Events))
		}
		if pdp.Events[0].Person == nil || *pdp.Events[0].Person != -1 {
			t.Error("Event should keep its dangling person reference")
		}
	})

	t.Run("Auditor override replaces the AI deltas for its statement", func(t *testing.T) {
		statements := []Statement{
			{Order: 0, ID: 1, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -1, Name: models.Ptr("AI")}}})},
		}
		overrides := map[OverrideKey]*models.Deltas{
			{StatementID: 1, AuditorID: 7}: deltas(models.Deltas{People: []models.Person{{ID: -1, Name: models.Ptr("Edited")}}}),
		}

		ai := Cumulative(statements, 99)
		if *ai.People[0].Name != "AI" {
			t.Error("AI mode should ignore overrides")
		}

		audited := Cumulative(statements, 99, WithAuditor(7, overrides))
		if *audited.People[0].Name != "Edited" {
			t.Error("Auditor mode should apply the override deltas")
		}

		other := Cumulative(statements, 99, WithAuditor(8, overrides))
		if *other.People[0].Name != "AI" {
			t.Error("Other auditors should fall back to the AI deltas")
		}
	})

	t.Run("Pending statements contribute nothing", func(t *testing.T) {
		statements := []Statement{
			{Order: 0, ID: 1, Deltas: nil},
			{Order: 1, ID: 2, Deltas: deltas(models.Deltas{People: []models.Person{{ID: -1}}})},
		}
		pdp := Cumulative(statements, 99)
		if len(pdp.People) != 1 {
			t.Errorf("Expected 1 person, got %d", len(pdp.People))
		}
	})
}
