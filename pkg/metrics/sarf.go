package metrics

import (
	"sort"

	"github.com/pdplab/pdplab-go/pkg/matching"
	"github.com/pdplab/pdplab-go/pkg/models"
)

// Variable names one of the four per-event SARF variables
type Variable string

const (
	VarSymptom      Variable = "symptom"
	VarAnxiety      Variable = "anxiety"
	VarRelationship Variable = "relationship"
	VarFunctioning  Variable = "functioning"
)

// NoneLabel is the sentinel standing in for an absent SARF value
const NoneLabel = "none"

// Variables lists the SARF variables in report order
func Variables() []Variable {
	return []Variable{VarSymptom, VarAnxiety, VarRelationship, VarFunctioning}
}

// Value reads one SARF variable off an event, with absent values mapped
// to the none sentinel. Only shift events carry SARF semantics; callers
// filter on kind before reading.
func Value(e models.Event, v Variable) string {
	switch v {
	case VarSymptom:
		if e.Symptom != nil {
			return string(*e.Symptom)
		}
	case VarAnxiety:
		if e.Anxiety != nil {
			return string(*e.Anxiety)
		}
	case VarFunctioning:
		if e.Functioning != nil {
			return string(*e.Functioning)
		}
	case VarRelationship:
		if e.Relationship != nil {
			return string(*e.Relationship)
		}
	}
	return NoneLabel
}

// ValueDomain lists the rating categories of a variable, none excluded
func ValueDomain(v Variable) []string {
	if v == VarRelationship {
		return models.RelationshipValues()
	}
	return models.ShiftValues()
}

// LabelSequences builds the aligned candidate/reference label sequences
// for one variable over the matched shift-event pairs
func LabelSequences(pairs []matching.EventPair, v Variable) (candidate, reference []string) {
	for _, pair := range pairs {
		if pair.Candidate.Kind != models.EventShift {
			continue
		}
		candidate = append(candidate, Value(pair.Candidate, v))
		reference = append(reference, Value(pair.Reference, v))
	}
	return candidate, reference
}

// MacroF1 computes the macro-averaged per-class F1 of aligned label
// sequences. Classes are the labels observed on either side; a variable
// with no observations at all contributes 0.
func MacroF1(candidate, reference []string) float64 {
	if len(candidate) == 0 || len(candidate) != len(reference) {
		return 0
	}

	classSet := make(map[string]struct{})
	for _, l := range candidate {
		classSet[l] = struct{}{}
	}
	for _, l := range reference {
		classSet[l] = struct{}{}
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	var sum float64
	for _, class := range classes {
		var tp, fp, fn int
		for i := range candidate {
			pred := candidate[i] == class
			actual := reference[i] == class
			switch {
			case pred && actual:
				tp++
			case pred && !actual:
				fp++
			case !pred && actual:
				fn++
			}
		}
		sum += ComputeF1(tp, fp, fn).F1
	}
	return sum / float64(len(classes))
}

// SARFMacroF1 computes the macro F1 of every variable over the matched
// shift-event pairs
func SARFMacroF1(pairs []matching.EventPair) map[Variable]float64 {
	out := make(map[Variable]float64, 4)
	for _, v := range Variables() {
		candidate, reference := LabelSequences(pairs, v)
		out[v] = MacroF1(candidate, reference)
	}
	return out
}
