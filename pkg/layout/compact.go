package layout

import "sort"

// compact pulls each generation as far left as its parents allow, then
// closes any slack between neighbors down to the required minimum.
func (s *state) compact() {
	maxGen := s.maxGeneration()
	for gen := 0; gen <= maxGen; gen++ {
		members := s.placedRow(gen)
		if len(members) == 0 {
			continue
		}

		minStartX := float64(BaseX)
		for _, n := range members {
			if left, ok := s.parentLeftEdge(n); ok && left > minStartX {
				minStartX = left
			}
		}

		// Leftward only: a row already left of minStartX stays put
		if shift := minStartX - members[0].x; shift < 0 {
			for _, n := range members {
				n.x += shift
			}
		}

		for i := 1; i < len(members); i++ {
			prev, cur := members[i-1], members[i]
			required := s.requiredGap(prev, cur)
			if gap := cur.x - prev.x; gap > required {
				excess := gap - required
				for j := i; j < len(members); j++ {
					members[j].x -= excess
				}
			}
		}
	}
}

// placedRow returns a generation's placed, unfixed, connected people
// sorted by X.
func (s *state) placedRow(gen int) []*node {
	var out []*node
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.generation == gen && n.placed && !n.fixed && !s.isUnconnected(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].x < out[j].x })
	return out
}

// parentLeftEdge is the left edge of a person's parents' pair bond
func (s *state) parentLeftEdge(n *node) (float64, bool) {
	if n.Parents == nil {
		return 0, false
	}
	b, ok := s.bonds[*n.Parents]
	if !ok {
		return 0, false
	}
	a := s.people[b.PersonA]
	c := s.people[b.PersonB]
	if a == nil || c == nil || !a.placed || !c.placed {
		return 0, false
	}
	if a.x < c.x {
		return a.x, true
	}
	return c.x, true
}

// requiredGap is the minimum distance between two row neighbors: couple
// spacing when they are partners, person spacing otherwise.
func (s *state) requiredGap(a, b *node) float64 {
	for _, bid := range s.bondsOf[a.ID] {
		bd := s.bonds[bid]
		if bd.PersonA == b.ID || bd.PersonB == b.ID {
			return s.e.coupleSpacing(bd)
		}
	}
	return s.e.spacing()
}

// canopy centers each couple over its unmarried children when the
// children have drifted outside the couple's span. The couple moves as a
// rigid unit, clamped so it does not collide with row neighbors.
func (s *state) canopy() {
	for _, bid := range s.bondOrder {
		b := s.bonds[bid]
		a := s.people[b.PersonA]
		c := s.people[b.PersonB]
		if a == nil || c == nil || !a.placed || !c.placed {
			continue
		}

		childMin, childMax, any := 0.0, 0.0, false
		for _, childID := range s.childrenOf[bid] {
			child := s.people[childID]
			if child == nil || !child.placed || len(s.bondsOf[childID]) > 0 {
				continue
			}
			if !any {
				childMin, childMax = child.x, child.x
				any = true
				continue
			}
			if child.x < childMin {
				childMin = child.x
			}
			if child.x > childMax {
				childMax = child.x
			}
		}
		if !any {
			continue
		}

		left, right := a, c
		if right.x < left.x {
			left, right = right, left
		}
		childMid := (childMin + childMax) / 2
		coupleMid := (left.x + right.x) / 2
		if childMid >= left.x && childMid <= right.x {
			continue
		}

		shift := childMid - coupleMid
		shift = s.clampShift(left, right, shift)
		left.x += shift
		right.x += shift
	}
}

// clampShift bounds a couple's rigid shift by its nearest row neighbors
func (s *state) clampShift(left, right *node, shift float64) float64 {
	spacing := s.e.spacing()
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.ID == left.ID || n.ID == right.ID {
			continue
		}
		if n.generation != left.generation || !n.placed {
			continue
		}
		if n.x < left.x {
			if min := n.x + spacing - left.x; shift < min {
				shift = min
			}
		}
		if n.x > right.x {
			if max := n.x - spacing - right.x; shift > max {
				shift = max
			}
		}
	}
	return shift
}
