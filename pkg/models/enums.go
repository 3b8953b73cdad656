package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Gender represents a person's gender
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Valid reports whether the gender is a known value
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	}
	return false
}

// EventKind represents the type of a life event
type EventKind string

const (
	EventShift     EventKind = "shift"
	EventBirth     EventKind = "birth"
	EventAdopted   EventKind = "adopted"
	EventBonded    EventKind = "bonded"
	EventMarried   EventKind = "married"
	EventSeparated EventKind = "separated"
	EventDivorced  EventKind = "divorced"
	EventMoved     EventKind = "moved"
	EventDeath     EventKind = "death"
)

// Valid reports whether the event kind is a known value
func (k EventKind) Valid() bool {
	switch k {
	case EventShift, EventBirth, EventAdopted, EventBonded, EventMarried,
		EventSeparated, EventDivorced, EventMoved, EventDeath:
		return true
	}
	return false
}

// Shift represents the direction of a symptom, anxiety, or functioning change
type Shift string

const (
	ShiftUp   Shift = "up"
	ShiftDown Shift = "down"
	ShiftSame Shift = "same"
)

// Valid reports whether the shift is a known value
func (s Shift) Valid() bool {
	switch s {
	case ShiftUp, ShiftDown, ShiftSame:
		return true
	}
	return false
}

// RelationshipShift represents the relationship movement coded on a shift event
type RelationshipShift string

const (
	RelationshipConflict    RelationshipShift = "conflict"
	RelationshipDistance    RelationshipShift = "distance"
	RelationshipReciprocity RelationshipShift = "reciprocity"
	RelationshipChildFocus  RelationshipShift = "childfocus"
	RelationshipTriangle    RelationshipShift = "triangle"
)

// Valid reports whether the relationship shift is a known value
func (r RelationshipShift) Valid() bool {
	switch r {
	case RelationshipConflict, RelationshipDistance, RelationshipReciprocity,
		RelationshipChildFocus, RelationshipTriangle:
		return true
	}
	return false
}

// DateCertainty represents how confident the coder is in an event date
type DateCertainty string

const (
	DateCertain     DateCertainty = "certain"
	DateApproximate DateCertainty = "approximate"
	DateUnknown     DateCertainty = "unknown"
)

// Valid reports whether the date certainty is a known value
func (c DateCertainty) Valid() bool {
	switch c {
	case DateCertain, DateApproximate, DateUnknown:
		return true
	}
	return false
}

// RelationshipValues lists the relationship shift domain in a stable order
func RelationshipValues() []string {
	return []string{
		string(RelationshipConflict),
		string(RelationshipDistance),
		string(RelationshipReciprocity),
		string(RelationshipChildFocus),
		string(RelationshipTriangle),
	}
}

// ShiftValues lists the up/down/same domain in a stable order
func ShiftValues() []string {
	return []string{string(ShiftUp), string(ShiftDown), string(ShiftSame)}
}

func unmarshalEnum(data []byte, what string, valid func(string) bool) (string, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("%s must be a string: %w", what, err)
	}
	value := strings.ToLower(strings.TrimSpace(raw))
	if !valid(value) {
		return "", fmt.Errorf("unknown %s: %q", what, raw)
	}
	return value, nil
}

// UnmarshalJSON rejects unknown gender strings at parse time
func (g *Gender) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, "gender", func(s string) bool { return Gender(s).Valid() })
	if err != nil {
		return err
	}
	*g = Gender(v)
	return nil
}

// UnmarshalJSON rejects unknown event kinds at parse time
func (k *EventKind) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, "event kind", func(s string) bool { return EventKind(s).Valid() })
	if err != nil {
		return err
	}
	*k = EventKind(v)
	return nil
}

// UnmarshalJSON rejects unknown shift values at parse time
func (s *Shift) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, "shift", func(x string) bool { return Shift(x).Valid() })
	if err != nil {
		return err
	}
	*s = Shift(v)
	return nil
}

// UnmarshalJSON rejects unknown relationship shifts at parse time
func (r *RelationshipShift) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, "relationship shift", func(s string) bool { return RelationshipShift(s).Valid() })
	if err != nil {
		return err
	}
	*r = RelationshipShift(v)
	return nil
}

// UnmarshalJSON rejects unknown date certainty values at parse time
func (c *DateCertainty) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, "date certainty", func(s string) bool { return DateCertainty(s).Valid() })
	if err != nil {
		return err
	}
	*c = DateCertainty(v)
	return nil
}
