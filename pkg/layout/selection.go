package layout

import "github.com/pdplab/pdplab-go/pkg/models"

// SelectionPerson is one member of a diagram selection: current position,
// whether the engine may move them, and their immediate relations.
type SelectionPerson struct {
	ID        int64
	Name      string
	Gender    models.Gender
	Center    Point
	IsMovable bool
	Partners  []int64
	ParentA   *int64
	ParentB   *int64
}

// SelectionResult is a movable person's new position
type SelectionResult struct {
	ID     int64 `json:"id"`
	Center Point `json:"center"`
}

// ArrangeSelection rebuilds the internal diagram from a selection, pins
// everyone who is not movable as a fixed constraint, runs the layout, and
// returns positions for the movable people only.
func (e *Engine) ArrangeSelection(diagram []SelectionPerson) []SelectionResult {
	var input Input
	fixed := make(map[int64]Point)

	// Synthesize pair-bond ids for partner and parent couples
	nextBond := int64(1)
	bondIDs := make(map[[2]int64]int64)
	bondFor := func(a, b int64) int64 {
		if b < a {
			a, b = b, a
		}
		key := [2]int64{a, b}
		if id, ok := bondIDs[key]; ok {
			return id
		}
		id := nextBond
		nextBond++
		bondIDs[key] = id
		input.PairBonds = append(input.PairBonds, PairBond{
			ID: id, PersonA: a, PersonB: b, Married: true,
		})
		return id
	}

	for _, p := range diagram {
		person := Person{ID: p.ID, Name: p.Name, Gender: p.Gender}
		if p.ParentA != nil && p.ParentB != nil {
			parents := bondFor(*p.ParentA, *p.ParentB)
			person.Parents = &parents
			input.ParentChild = append(input.ParentChild, ParentChild{
				ChildID: p.ID, PairBondID: parents,
			})
		}
		input.People = append(input.People, person)

		for _, partner := range p.Partners {
			bondFor(p.ID, partner)
		}

		if !p.IsMovable {
			fixed[p.ID] = p.Center
		}
	}

	result := e.Compute(input, &Constraints{Fixed: fixed})

	var out []SelectionResult
	for _, p := range diagram {
		if !p.IsMovable {
			continue
		}
		placement, ok := result.People[p.ID]
		if !ok {
			continue
		}
		out = append(out, SelectionResult{
			ID:     p.ID,
			Center: Point{X: placement.X, Y: placement.Y},
		})
	}
	return out
}
