package layout

import "sort"

// assignGenerations gives every person a row index. With fixed people the
// indices are inferred from the sorted unique fixed Y values; otherwise
// the top-most parents root generation 0 and descendants count up.
func (s *state) assignGenerations() {
	if s.hasFixed {
		s.seedFromFixed()
	} else {
		s.seedFromRoots()
	}
	s.propagateGenerations()
	s.normalizeGenerations()
}

// seedFromFixed sorts the unique fixed Y values ascending and maps each
// to an ordinal, so anchored rows keep their relative order across runs.
func (s *state) seedFromFixed() {
	var ys []float64
	seen := make(map[float64]struct{})
	for _, id := range s.personOrder {
		n := s.people[id]
		if !n.fixed {
			continue
		}
		if _, ok := seen[n.y]; !ok {
			seen[n.y] = struct{}{}
			ys = append(ys, n.y)
		}
	}
	sort.Float64s(ys)

	ordinal := make(map[float64]int, len(ys))
	for i, y := range ys {
		ordinal[y] = i
	}
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.fixed {
			n.generation = ordinal[n.y]
			n.hasGen = true
		}
	}
}

// seedFromRoots puts people who appear as a pair-bond partner and have no
// parents at generation 0.
func (s *state) seedFromRoots() {
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.Parents == nil && len(s.bondsOf[n.ID]) > 0 {
			n.generation = 0
			n.hasGen = true
		}
	}
}

// propagateGenerations spreads known generations to fixpoint: spouses
// share a row, children sit one row below their parents.
func (s *state) propagateGenerations() {
	setGen := func(n *node, gen int) bool {
		if n == nil || n.hasGen {
			return false
		}
		n.generation = gen
		n.hasGen = true
		return true
	}

	changed := true
	for changed {
		changed = false

		for _, bid := range s.bondOrder {
			b := s.bonds[bid]
			a, c := s.people[b.PersonA], s.people[b.PersonB]
			if a != nil && c != nil {
				if a.hasGen && setGen(c, a.generation) {
					changed = true
				}
				if c.hasGen && setGen(a, c.generation) {
					changed = true
				}
			}

			for _, childID := range s.childrenOf[bid] {
				child := s.people[childID]
				if child == nil {
					continue
				}
				if parent := firstWithGen(a, c); parent != nil && setGen(child, parent.generation+1) {
					changed = true
				}
				if child.hasGen {
					if setGen(a, child.generation-1) {
						changed = true
					}
					if setGen(c, child.generation-1) {
						changed = true
					}
				}
			}
		}

		for _, id := range s.personOrder {
			n := s.people[id]
			if n.Parents == nil {
				continue
			}
			b, ok := s.bonds[*n.Parents]
			if !ok {
				continue
			}
			a, c := s.people[b.PersonA], s.people[b.PersonB]
			if parent := firstWithGen(a, c); parent != nil && setGen(n, parent.generation+1) {
				changed = true
			}
			if n.hasGen {
				if setGen(a, n.generation-1) {
					changed = true
				}
				if setGen(c, n.generation-1) {
					changed = true
				}
			}
		}
	}
}

// normalizeGenerations shifts indices so the top row is 0 and gives the
// leftovers (people no relation reaches) row 0.
func (s *state) normalizeGenerations() {
	min := 0
	for _, id := range s.personOrder {
		if n := s.people[id]; n.hasGen && n.generation < min {
			min = n.generation
		}
	}
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.hasGen {
			n.generation -= min
		} else {
			n.generation = 0
			n.hasGen = true
		}
	}
}

func firstWithGen(nodes ...*node) *node {
	for _, n := range nodes {
		if n != nil && n.hasGen {
			return n
		}
	}
	return nil
}

// computeGenerationYs derives each row's Y. Fixed people anchor their
// row at the average of their Ys; unanchored rows interpolate between the
// nearest anchors or extrapolate by the generation gap.
func (s *state) computeGenerationYs() {
	maxGen := s.maxGeneration()

	anchorSum := make(map[int]float64)
	anchorCount := make(map[int]int)
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.fixed {
			anchorSum[n.generation] += n.y
			anchorCount[n.generation]++
		}
	}

	gap := s.e.cal.GenerationGap
	for gen := 0; gen <= maxGen; gen++ {
		if c := anchorCount[gen]; c > 0 {
			s.genY[gen] = anchorSum[gen] / float64(c)
			continue
		}
		below, belowOK := nearestAnchor(anchorCount, gen, -1, maxGen)
		above, aboveOK := nearestAnchor(anchorCount, gen, +1, maxGen)
		switch {
		case belowOK && aboveOK:
			yb := anchorSum[below] / float64(anchorCount[below])
			ya := anchorSum[above] / float64(anchorCount[above])
			frac := float64(gen-below) / float64(above-below)
			s.genY[gen] = yb + (ya-yb)*frac
		case belowOK:
			yb := anchorSum[below] / float64(anchorCount[below])
			s.genY[gen] = yb + float64(gen-below)*gap
		case aboveOK:
			ya := anchorSum[above] / float64(anchorCount[above])
			s.genY[gen] = ya - float64(above-gen)*gap
		default:
			s.genY[gen] = BaseY + float64(gen)*gap
		}
	}
}

// nearestAnchor scans from gen in the given direction for an anchored row
func nearestAnchor(anchorCount map[int]int, gen, dir, maxGen int) (int, bool) {
	for g := gen + dir; g >= 0 && g <= maxGen; g += dir {
		if anchorCount[g] > 0 {
			return g, true
		}
	}
	return 0, false
}
