package layout

import (
	"sort"

	"github.com/pdplab/pdplab-go/pkg/models"
)

// unit is one placeable block of a generation: a couple flanked by its
// unmarried siblings.
type unit struct {
	left    []*node
	coupleL *node
	coupleR *node
	right   []*node
	bond    *bond

	anchorX   float64
	hasAnchor bool
}

// deferredSpouse is an additional spouse of an already-placed person,
// positioned after the regular units.
type deferredSpouse struct {
	spouse  *node
	partner *node
	bond    *bond
}

func (s *state) position() {
	s.computeGenerationYs()
	maxGen := s.maxGeneration()
	for gen := 0; gen <= maxGen; gen++ {
		s.placeGeneration(gen)
	}
	s.placeUnconnected()
}

func (s *state) place(n *node, x, y float64) {
	n.x = x
	n.y = y
	n.placed = true
}

func (s *state) isUnconnected(n *node) bool {
	return n.Parents == nil && len(s.bondsOf[n.ID]) == 0
}

func (s *state) placeGeneration(gen int) {
	y := s.genY[gen]

	var members []*node
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.generation != gen || n.fixed || s.isUnconnected(n) {
			continue
		}
		members = append(members, n)
	}

	units, deferred := s.buildUnits(gen, members)
	sortUnits(units)

	cursor := BaseX
	for _, u := range units {
		cursor = s.placeUnit(u, cursor, y)
	}

	// Singletons go to the right end of the generation
	for _, n := range members {
		if !n.placed {
			if s.isDeferred(n, deferred) {
				continue
			}
			s.place(n, cursor, y)
			cursor += s.e.spacing()
		}
	}

	s.placeDeferredSpouses(gen, deferred)
}

// buildUnits forms couple units from the generation's pair bonds, in bond
// input order. A bond whose partner already belongs to a unit yields a
// deferred additional spouse instead.
func (s *state) buildUnits(gen int, members []*node) ([]*unit, []deferredSpouse) {
	inUnit := make(map[int64]bool)
	var units []*unit
	var deferred []deferredSpouse

	memberSet := make(map[int64]*node, len(members))
	for _, n := range members {
		memberSet[n.ID] = n
	}

	for _, bid := range s.bondOrder {
		b := s.bonds[bid]
		a := s.people[b.PersonA]
		c := s.people[b.PersonB]
		if a == nil || c == nil || a.generation != gen || c.generation != gen {
			continue
		}

		aFree := memberSet[a.ID] != nil && !inUnit[a.ID]
		cFree := memberSet[c.ID] != nil && !inUnit[c.ID]
		switch {
		case aFree && cFree:
			u := s.newCoupleUnit(a, c, b, gen, inUnit)
			units = append(units, u)
		case aFree && (inUnit[c.ID] || c.fixed):
			deferred = append(deferred, deferredSpouse{spouse: a, partner: c, bond: b})
			inUnit[a.ID] = true
		case cFree && (inUnit[a.ID] || a.fixed):
			deferred = append(deferred, deferredSpouse{spouse: c, partner: a, bond: b})
			inUnit[c.ID] = true
		}
	}
	return units, deferred
}

func (s *state) newCoupleUnit(a, c *node, b *bond, gen int, inUnit map[int64]bool) *unit {
	left, right := s.orderCouple(a, c)
	u := &unit{coupleL: left, coupleR: right, bond: b}
	inUnit[left.ID] = true
	inUnit[right.ID] = true

	u.left = s.unmarriedSiblings(left, gen, inUnit)
	u.right = s.unmarriedSiblings(right, gen, inUnit)

	sum, count := 0.0, 0
	for _, n := range []*node{left, right} {
		if mid, ok := s.parentMidX(n); ok {
			sum += mid
			count++
		}
	}
	if count > 0 {
		u.anchorX = sum / float64(count)
		u.hasAnchor = true
	}
	return u
}

// orderCouple decides which partner is drawn on the left: the one whose
// parents sit further left, falling back to male-left when the parents
// give no information.
func (s *state) orderCouple(a, c *node) (*node, *node) {
	midA, okA := s.parentMidX(a)
	midC, okC := s.parentMidX(c)
	if okA && okC && midA != midC {
		if midA < midC {
			return a, c
		}
		return c, a
	}
	if c.Gender == models.GenderMale && a.Gender != models.GenderMale {
		return c, a
	}
	return a, c
}

func (s *state) unmarriedSiblings(of *node, gen int, inUnit map[int64]bool) []*node {
	if of.Parents == nil {
		return nil
	}
	var out []*node
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.ID == of.ID || n.generation != gen || n.fixed || inUnit[n.ID] {
			continue
		}
		if n.Parents == nil || *n.Parents != *of.Parents {
			continue
		}
		if len(s.bondsOf[n.ID]) > 0 {
			continue
		}
		inUnit[n.ID] = true
		out = append(out, n)
	}
	return out
}

// parentMidX is the midpoint of a person's parents, when both are placed
func (s *state) parentMidX(n *node) (float64, bool) {
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
	return (a.x + c.x) / 2, true
}

// sortUnits orders units under their parents: ascending by parent anchor
// X, anchorless units last, ties kept in formation order.
func sortUnits(units []*unit) {
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.hasAnchor != b.hasAnchor {
			return a.hasAnchor
		}
		return a.hasAnchor && a.anchorX < b.anchorX
	})
}

func (s *state) placeUnit(u *unit, cursor, y float64) float64 {
	for _, sib := range u.left {
		s.place(sib, cursor, y)
		cursor += s.e.spacing()
	}
	s.place(u.coupleL, cursor, y)
	cursor += s.e.coupleSpacing(u.bond)
	s.place(u.coupleR, cursor, y)
	cursor += s.e.spacing()
	for _, sib := range u.right {
		s.place(sib, cursor, y)
		cursor += s.e.spacing()
	}
	// Gutter between units
	return cursor + s.e.spacing()/2
}

func (s *state) isDeferred(n *node, deferred []deferredSpouse) bool {
	for _, d := range deferred {
		if d.spouse.ID == n.ID {
			return true
		}
	}
	return false
}

// placeDeferredSpouses puts each additional spouse one couple-spacing
// from the shared partner, on the opposite side from the first spouse,
// falling back to the right end of the generation on collision.
func (s *state) placeDeferredSpouses(gen int, deferred []deferredSpouse) {
	for _, d := range deferred {
		if !d.partner.placed {
			continue
		}
		req := s.e.coupleSpacing(d.bond)
		desired := d.partner.x + req
		if first := s.firstSpouseOf(d.partner, d.spouse); first != nil && first.placed && first.x > d.partner.x {
			desired = d.partner.x - req
		}

		if s.collides(gen, desired, d.spouse.ID) {
			desired = s.rightEdge(gen) + s.e.spacing()
		}
		s.place(d.spouse, desired, s.genY[gen])
	}
}

func (s *state) firstSpouseOf(partner, excluding *node) *node {
	for _, bid := range s.bondsOf[partner.ID] {
		b := s.bonds[bid]
		otherID := b.PersonA
		if otherID == partner.ID {
			otherID = b.PersonB
		}
		if otherID == excluding.ID {
			continue
		}
		if other := s.people[otherID]; other != nil && other.placed {
			return other
		}
	}
	return nil
}

func (s *state) collides(gen int, x float64, excludeID int64) bool {
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.ID == excludeID || n.generation != gen || !n.placed {
			continue
		}
		if abs(n.x-x) < s.e.spacing() {
			return true
		}
	}
	return false
}

func (s *state) rightEdge(gen int) float64 {
	edge := BaseX
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.generation == gen && n.placed && n.x > edge {
			edge = n.x
		}
	}
	return edge
}

// placeUnconnected clusters people with no parents and no spouses to the
// right of the connected content, vertically centered.
func (s *state) placeUnconnected() {
	minY, maxY, maxX := 0.0, 0.0, 0.0
	any := false
	for _, id := range s.personOrder {
		n := s.people[id]
		if !n.placed {
			continue
		}
		if !any {
			minY, maxY, maxX = n.y, n.y, n.x
			any = true
			continue
		}
		if n.y < minY {
			minY = n.y
		}
		if n.y > maxY {
			maxY = n.y
		}
		if n.x > maxX {
			maxX = n.x
		}
	}

	x, y := BaseX, BaseY
	if any {
		x = maxX + 2*s.e.spacing()
		y = (minY + maxY) / 2
	}
	for _, id := range s.personOrder {
		n := s.people[id]
		if n.placed || !s.isUnconnected(n) {
			continue
		}
		s.place(n, x, y)
		x += s.e.spacing()
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
