// Package layout computes X/Y coordinates for a family diagram. The
// engine is deterministic given input ordering: people are processed in
// the order supplied, generation by generation.
package layout

import (
	"github.com/pdplab/pdplab-go/pkg/config"
	"github.com/pdplab/pdplab-go/pkg/models"
)

// Person is one diagram member. Parents, when set, is the id of the pair
// bond the person descends from.
type Person struct {
	ID      int64
	Name    string
	Gender  models.Gender
	Parents *int64
}

// PairBond is one couple in the diagram
type PairBond struct {
	ID        int64
	PersonA   int64
	PersonB   int64
	Married   bool
	Separated bool
	Divorced  bool
}

// ParentChild links a child to the pair bond it descends from
type ParentChild struct {
	ChildID    int64
	PairBondID int64
}

// Input is the diagram to lay out
type Input struct {
	People      []Person
	PairBonds   []PairBond
	ParentChild []ParentChild
}

// Point is a diagram coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Constraints pins people whose positions must be preserved exactly
type Constraints struct {
	Fixed map[int64]Point
}

// LabelPosition says where a person's name label is drawn
type LabelPosition string

const (
	LabelRight      LabelPosition = "right"
	LabelLeft       LabelPosition = "left"
	LabelAboveRight LabelPosition = "above-right"
)

// PersonPlacement is the computed position of one person
type PersonPlacement struct {
	X             float64       `json:"x"`
	Y             float64       `json:"y"`
	LabelPosition LabelPosition `json:"labelPosition"`
}

// BondPlacement is the computed geometry of one pair bond
type BondPlacement struct {
	X1       float64 `json:"x1"`
	X2       float64 `json:"x2"`
	CoupleX1 float64 `json:"coupleX1"`
	CoupleX2 float64 `json:"coupleX2"`
	Y        float64 `json:"y"`
}

// Result is the full layout
type Result struct {
	People    map[int64]PersonPlacement `json:"people"`
	PairBonds map[int64]BondPlacement   `json:"pairBonds"`
}

// Origin of the diagram. Generations grow downward from BaseY.
const (
	BaseX = 100.0
	BaseY = 100.0
)

// Engine lays diagrams out under one calibration
type Engine struct {
	cal config.LayoutCalibration
}

// NewEngine creates a layout engine with the given calibration
func NewEngine(cal config.LayoutCalibration) *Engine {
	return &Engine{cal: cal}
}

// Default returns an engine with the shipped calibration
func Default() *Engine {
	return NewEngine(config.DefaultCalibration().Layout)
}

func (e *Engine) spacing() float64 { return e.cal.PersonSpacing }

// coupleSpacing is the distance between the members of a couple
func (e *Engine) coupleSpacing(b *bond) float64 {
	if b.Divorced || b.Separated {
		return 1.5 * e.cal.PersonSpacing
	}
	return e.cal.PersonSpacing
}

func (e *Engine) bondDrop() float64 { return e.cal.PersonSize / 2.2 }

// Compute lays out the diagram. Fixed constraint positions are preserved
// exactly; when any person is fixed, the compaction and canopy passes are
// skipped so the anchors stay meaningful.
func (e *Engine) Compute(data Input, constraints *Constraints) Result {
	s := newState(e, data, constraints)
	s.assignGenerations()
	s.position()
	if !s.hasFixed {
		s.compact()
		s.canopy()
	}
	s.finalizeBonds()
	s.assignLabels()
	return s.result()
}

// node is the working record for one person
type node struct {
	Person
	generation int
	hasGen     bool
	x, y       float64
	placed     bool
	fixed      bool
	labelPos   LabelPosition
}

// bond is the working record for one pair bond
type bond struct {
	PairBond
	placed bool
	geom   BondPlacement
}

// state is the per-computation working set
type state struct {
	e *Engine

	people      map[int64]*node
	personOrder []int64
	bonds       map[int64]*bond
	bondOrder   []int64
	childrenOf  map[int64][]int64 // bond id to ordered child ids
	bondsOf     map[int64][]int64 // person id to bond ids

	hasFixed bool
	genY     map[int]float64
}

func newState(e *Engine, data Input, constraints *Constraints) *state {
	s := &state{
		e:          e,
		people:     make(map[int64]*node, len(data.People)),
		bonds:      make(map[int64]*bond, len(data.PairBonds)),
		childrenOf: make(map[int64][]int64),
		bondsOf:    make(map[int64][]int64),
		genY:       make(map[int]float64),
	}

	for _, p := range data.People {
		if _, ok := s.people[p.ID]; ok {
			continue
		}
		s.people[p.ID] = &node{Person: p}
		s.personOrder = append(s.personOrder, p.ID)
	}
	for _, b := range data.PairBonds {
		if _, ok := s.bonds[b.ID]; ok {
			continue
		}
		s.bonds[b.ID] = &bond{PairBond: b}
		s.bondOrder = append(s.bondOrder, b.ID)
		for _, pid := range []int64{b.PersonA, b.PersonB} {
			s.bondsOf[pid] = append(s.bondsOf[pid], b.ID)
		}
	}
	for _, pc := range data.ParentChild {
		s.childrenOf[pc.PairBondID] = append(s.childrenOf[pc.PairBondID], pc.ChildID)
		if child, ok := s.people[pc.ChildID]; ok && child.Parents == nil {
			bondID := pc.PairBondID
			child.Parents = &bondID
		}
	}

	if constraints != nil {
		for id, pt := range constraints.Fixed {
			n, ok := s.people[id]
			if !ok {
				continue
			}
			n.fixed = true
			n.placed = true
			n.x, n.y = pt.X, pt.Y
			s.hasFixed = true
		}
	}
	return s
}

func (s *state) maxGeneration() int {
	max := 0
	for _, id := range s.personOrder {
		if g := s.people[id].generation; g > max {
			max = g
		}
	}
	return max
}

func (s *state) result() Result {
	out := Result{
		People:    make(map[int64]PersonPlacement, len(s.people)),
		PairBonds: make(map[int64]BondPlacement, len(s.bonds)),
	}
	for id, n := range s.people {
		out.People[id] = PersonPlacement{X: n.x, Y: n.y, LabelPosition: n.label()}
	}
	for id, b := range s.bonds {
		if b.placed {
			out.PairBonds[id] = b.geom
		}
	}
	return out
}

// label is filled in by assignLabels via the node's labelPos field
func (n *node) label() LabelPosition {
	if n.labelPos == "" {
		return LabelRight
	}
	return n.labelPos
}
