package layout

import "sort"

// finalizeBonds derives each pair bond's geometry from the final partner
// positions: the bond line hangs below the lower partner by half a person
// plus the drop.
func (s *state) finalizeBonds() {
	for _, bid := range s.bondOrder {
		b := s.bonds[bid]
		a := s.people[b.PersonA]
		c := s.people[b.PersonB]
		if a == nil || c == nil || !a.placed || !c.placed {
			continue
		}

		x1, x2 := a.x, c.x
		if x2 < x1 {
			x1, x2 = x2, x1
		}
		y := a.y
		if c.y > y {
			y = c.y
		}
		b.geom = BondPlacement{
			X1:       x1,
			X2:       x2,
			CoupleX1: x1,
			CoupleX2: x2,
			Y:        y + s.e.cal.PersonSize/2 + s.e.bondDrop(),
		}
		b.placed = true
	}
}

// Label width per name character, in diagram units
const labelCharWidth = 7.0

// assignLabels picks each person's label side from the room around them
func (s *state) assignLabels() {
	maxGen := s.maxGeneration()
	for gen := 0; gen <= maxGen; gen++ {
		var row []*node
		for _, id := range s.personOrder {
			n := s.people[id]
			if n.generation == gen && n.placed {
				row = append(row, n)
			}
		}
		sort.SliceStable(row, func(i, j int) bool { return row[i].x < row[j].x })

		for i, n := range row {
			var leftGap, rightGap float64
			hasLeft, hasRight := i > 0, i < len(row)-1
			if hasLeft {
				leftGap = n.x - row[i-1].x
			}
			if hasRight {
				rightGap = row[i+1].x - n.x
			}
			n.labelPos = s.chooseLabel(n, leftGap, rightGap, hasLeft, hasRight)
		}
	}
}

func (s *state) chooseLabel(n *node, leftGap, rightGap float64, hasLeft, hasRight bool) LabelPosition {
	width := float64(len(n.Name)) * labelCharWidth
	size := s.e.cal.PersonSize
	spacing := s.e.spacing()

	if !hasRight || rightGap-size >= width {
		return LabelRight
	}
	tight := hasLeft && hasRight && leftGap <= 1.25*spacing && rightGap <= 1.25*spacing
	if n.Parents != nil && tight {
		return LabelAboveRight
	}
	if hasLeft && leftGap-size >= width {
		return LabelLeft
	}
	return LabelAboveRight
}
