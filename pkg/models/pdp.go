package models

// Person represents one individual in a family diagram.
// Negative ids are delta-local (not yet committed); positive ids are committed.
type Person struct {
	ID         int64    `json:"id"`
	Name       *string  `json:"name,omitempty"`
	LastName   *string  `json:"last_name,omitempty"`
	Gender     *Gender  `json:"gender,omitempty"`
	Parents    []int64  `json:"parents,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Event represents a dated occurrence linked to one or more people.
// The four SARF variables (symptom, anxiety, relationship, functioning) are
// only meaningful on shift events; metric computations ignore them elsewhere.
type Event struct {
	ID                    int64              `json:"id"`
	Kind                  EventKind          `json:"kind"`
	Description           *string            `json:"description,omitempty"`
	DateTime              *string            `json:"dateTime,omitempty"`
	DateCertainty         *DateCertainty     `json:"dateCertainty,omitempty"`
	Person                *int64             `json:"person,omitempty"`
	Spouse                *int64             `json:"spouse,omitempty"`
	Child                 *int64             `json:"child,omitempty"`
	RelationshipTargets   []int64            `json:"relationshipTargets,omitempty"`
	RelationshipTriangles []int64            `json:"relationshipTriangles,omitempty"`
	Symptom               *Shift             `json:"symptom,omitempty"`
	Anxiety               *Shift             `json:"anxiety,omitempty"`
	Functioning           *Shift             `json:"functioning,omitempty"`
	Relationship          *RelationshipShift `json:"relationship,omitempty"`
}

// Certainty returns the event's date certainty, defaulting to certain
func (e *Event) Certainty() DateCertainty {
	if e.DateCertainty == nil {
		return DateCertain
	}
	return *e.DateCertainty
}

// PairBond represents the unordered couple (PersonA, PersonB).
// PersonA and PersonB must differ.
type PairBond struct {
	ID        int64 `json:"id"`
	PersonA   int64 `json:"person_a"`
	PersonB   int64 `json:"person_b"`
	Married   *bool `json:"married,omitempty"`
	Separated *bool `json:"separated,omitempty"`
	Divorced  *bool `json:"divorced,omitempty"`
}

// SamePair reports whether the bond joins the given unordered pair
func (b *PairBond) SamePair(a, c int64) bool {
	return (b.PersonA == a && b.PersonB == c) || (b.PersonA == c && b.PersonB == a)
}

// PDP is the cumulative structured state extracted from a discussion.
// It is a transient derived value, recomputed from deltas and never stored.
type PDP struct {
	People    []Person   `json:"people"`
	Events    []Event    `json:"events"`
	PairBonds []PairBond `json:"pair_bonds"`
}

// Deltas is the transactional unit emitted once per subject statement:
// three additive lists plus the ids to remove after the upserts.
type Deltas struct {
	People    []Person   `json:"people,omitempty"`
	Events    []Event    `json:"events,omitempty"`
	PairBonds []PairBond `json:"pair_bonds,omitempty"`
	Delete    []int64    `json:"delete,omitempty"`
}

// IsProvisional reports whether the id follows the delta-local convention
func IsProvisional(id int64) bool {
	return id < 0
}

func cloneInt64s(s []int64) []int64 {
	if s == nil {
		return nil
	}
	out := make([]int64, len(s))
	copy(out, s)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of the person
func (p Person) Clone() Person {
	p.Name = clonePtr(p.Name)
	p.LastName = clonePtr(p.LastName)
	p.Gender = clonePtr(p.Gender)
	p.Parents = cloneInt64s(p.Parents)
	p.Confidence = clonePtr(p.Confidence)
	return p
}

// Clone returns a deep copy of the event
func (e Event) Clone() Event {
	e.Description = clonePtr(e.Description)
	e.DateTime = clonePtr(e.DateTime)
	e.DateCertainty = clonePtr(e.DateCertainty)
	e.Person = clonePtr(e.Person)
	e.Spouse = clonePtr(e.Spouse)
	e.Child = clonePtr(e.Child)
	e.RelationshipTargets = cloneInt64s(e.RelationshipTargets)
	e.RelationshipTriangles = cloneInt64s(e.RelationshipTriangles)
	e.Symptom = clonePtr(e.Symptom)
	e.Anxiety = clonePtr(e.Anxiety)
	e.Functioning = clonePtr(e.Functioning)
	e.Relationship = clonePtr(e.Relationship)
	return e
}

// Clone returns a deep copy of the pair bond
func (b PairBond) Clone() PairBond {
	b.Married = clonePtr(b.Married)
	b.Separated = clonePtr(b.Separated)
	b.Divorced = clonePtr(b.Divorced)
	return b
}

// Clone returns a deep copy of the PDP
func (p PDP) Clone() PDP {
	out := PDP{}
	if p.People != nil {
		out.People = make([]Person, len(p.People))
		for i, person := range p.People {
			out.People[i] = person.Clone()
		}
	}
	if p.Events != nil {
		out.Events = make([]Event, len(p.Events))
		for i, event := range p.Events {
			out.Events[i] = event.Clone()
		}
	}
	if p.PairBonds != nil {
		out.PairBonds = make([]PairBond, len(p.PairBonds))
		for i, bond := range p.PairBonds {
			out.PairBonds[i] = bond.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the deltas
func (d Deltas) Clone() Deltas {
	out := Deltas{Delete: cloneInt64s(d.Delete)}
	if d.People != nil {
		out.People = make([]Person, len(d.People))
		for i, person := range d.People {
			out.People[i] = person.Clone()
		}
	}
	if d.Events != nil {
		out.Events = make([]Event, len(d.Events))
		for i, event := range d.Events {
			out.Events[i] = event.Clone()
		}
	}
	if d.PairBonds != nil {
		out.PairBonds = make([]PairBond, len(d.PairBonds))
		for i, bond := range d.PairBonds {
			out.PairBonds[i] = bond.Clone()
		}
	}
	return out
}

// Empty reports whether the deltas carry no changes
func (d Deltas) Empty() bool {
	return len(d.People) == 0 && len(d.Events) == 0 && len(d.PairBonds) == 0 && len(d.Delete) == 0
}
