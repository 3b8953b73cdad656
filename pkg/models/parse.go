package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedDelta indicates input that cannot be coerced to the schema.
// It is raised at the parse boundary and never swallowed; callers decide
// whether to drop the statement or retry.
var ErrMalformedDelta = errors.New("malformed delta")

// ParseDeltas coerces a plain record into typed deltas. Unknown fields are
// ignored, missing optional fields default, and invalid enum strings or
// uncoercible values fail with an error wrapping ErrMalformedDelta.
func ParseDeltas(record map[string]any) (*Deltas, error) {
	liftLegacyParents(record)
	var d Deltas
	if err := coerce(record, &d); err != nil {
		return nil, err
	}
	for i := range d.People {
		normalizePerson(&d.People[i])
	}
	for i := range d.Events {
		normalizeEvent(&d.Events[i])
	}
	if err := validateDeltas(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseDeltasJSON coerces raw JSON into typed deltas
func ParseDeltasJSON(data []byte) (*Deltas, error) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDelta, err)
	}
	return ParseDeltas(record)
}

// ParsePDP coerces a plain record into a typed PDP
func ParsePDP(record map[string]any) (*PDP, error) {
	liftLegacyParents(record)
	var p PDP
	if err := coerce(record, &p); err != nil {
		return nil, err
	}
	for i := range p.People {
		normalizePerson(&p.People[i])
	}
	for i := range p.Events {
		normalizeEvent(&p.Events[i])
	}
	return &p, nil
}

// ToMap renders the deltas back to a plain record, the inverse of ParseDeltas
func (d *Deltas) ToMap() (map[string]any, error) {
	return toMap(d)
}

// ToMap renders the PDP back to a plain record, the inverse of ParsePDP
func (p *PDP) ToMap() (map[string]any, error) {
	return toMap(p)
}

// coerce round-trips a plain record through JSON into a typed value. The
// enum UnmarshalJSON hooks reject unknown strings along the way; extra keys
// in the record are dropped silently.
func coerce(record map[string]any, out any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDelta, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDelta, err)
	}
	return nil
}

func toMap(in any) (map[string]any, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to rebuild record: %w", err)
	}
	return record, nil
}

// liftLegacyParents rewrites the legacy parent_a/parent_b person fields
// into the parents list before coercion drops them as unknown keys. The
// record is normalized in place.
func liftLegacyParents(record map[string]any) {
	people, ok := record["people"].([]any)
	if !ok {
		return
	}
	for _, entry := range people {
		person, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		parents, _ := person["parents"].([]any)
		for _, key := range []string{"parent_a", "parent_b"} {
			if v, ok := person[key]; ok && v != nil {
				parents = append(parents, v)
			}
		}
		if len(parents) > 0 {
			person["parents"] = parents
		}
	}
}

// normalizePerson collapses an explicitly empty parents list to nil. An
// empty list and an absent field both mean "unchanged" when the delta is
// applied; keeping a single representation makes Apply's upsert rule simple.
func normalizePerson(p *Person) {
	if len(p.Parents) == 0 {
		p.Parents = nil
	}
}

func normalizeEvent(e *Event) {
	if len(e.RelationshipTargets) == 0 {
		e.RelationshipTargets = nil
	}
	if len(e.RelationshipTriangles) == 0 {
		e.RelationshipTriangles = nil
	}
}

func validateDeltas(d *Deltas) error {
	for i := range d.Events {
		if !d.Events[i].Kind.Valid() {
			return fmt.Errorf("%w: event %d has no kind", ErrMalformedDelta, d.Events[i].ID)
		}
	}
	for i := range d.PairBonds {
		if d.PairBonds[i].PersonA == d.PairBonds[i].PersonB {
			return fmt.Errorf("%w: pair bond %d joins a person to itself", ErrMalformedDelta, d.PairBonds[i].ID)
		}
	}
	for i := range d.People {
		for _, parent := range d.People[i].Parents {
			if parent == d.People[i].ID {
				return fmt.Errorf("%w: person %d lists itself as a parent", ErrMalformedDelta, d.People[i].ID)
			}
		}
	}
	return nil
}
