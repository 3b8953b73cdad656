package irr

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/pdplab/pdplab-go/pkg/delta"
	"github.com/pdplab/pdplab-go/pkg/matching"
	"github.com/pdplab/pdplab-go/pkg/metrics"
	"github.com/pdplab/pdplab-go/pkg/models"
)

// CoderDeltas is one coder's override delta for a statement
type CoderDeltas struct {
	CoderID int64
	Deltas  *models.Deltas
}

// PairIRR is the agreement battery for one unordered coder pair: the full
// F1 report from matching one coder's PDP against the other's, plus
// Cohen's kappa per SARF variable over the aligned value sequences of
// matched shift events. A kappa entry is nil when the statistic is
// undefined for that pair.
type PairIRR struct {
	CoderA int64                         `json:"coder_a"`
	CoderB int64                         `json:"coder_b"`
	Report metrics.Report                `json:"report"`
	Kappa  map[metrics.Variable]*float64 `json:"kappa"`
}

// Pairwise evaluates one coder pair, treating coder A as candidate and
// coder B as reference.
func Pairwise(a, b CoderDeltas, m *matching.Matcher) (PairIRR, error) {
	if m == nil {
		m = matching.Default()
	}

	pdpA := coderPDP(a)
	pdpB := coderPDP(b)

	report, err := metrics.Evaluate(pdpA, pdpB, m)
	if err != nil {
		return PairIRR{}, err
	}

	match := m.MatchPDPs(pdpA, pdpB)
	kappa := make(map[metrics.Variable]*float64, 4)
	for _, v := range metrics.Variables() {
		candidate, reference := metrics.LabelSequences(match.Events.Pairs, v)
		kappa[v] = CohenKappa(candidate, reference)
	}

	return PairIRR{CoderA: a.CoderID, CoderB: b.CoderID, Report: report, Kappa: kappa}, nil
}

// StatementIRR is the agreement summary for one statement across all of
// its coders. Averages exclude undefined pairwise values and are nil when
// none remain. Fleiss is populated only when three or more coders rated
// the statement.
type StatementIRR struct {
	Pairs       []PairIRR                     `json:"pairs"`
	AggregateF1 *float64                      `json:"aggregate_f1"`
	Kappa       map[metrics.Variable]*float64 `json:"kappa"`
	Fleiss      map[metrics.Variable]*float64 `json:"fleiss,omitempty"`
}

// ForStatement computes the pairwise battery for every unordered coder
// pair and the statement-level averages. Coders are processed in
// ascending id order so results are deterministic.
func ForStatement(coders []CoderDeltas, m *matching.Matcher) (StatementIRR, error) {
	if m == nil {
		m = matching.Default()
	}

	sorted := make([]CoderDeltas, len(coders))
	copy(sorted, coders)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CoderID < sorted[j].CoderID })

	out := StatementIRR{Kappa: make(map[metrics.Variable]*float64, 4)}
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			pair, err := Pairwise(sorted[i], sorted[j], m)
			if err != nil {
				return StatementIRR{}, err
			}
			out.Pairs = append(out.Pairs, pair)
		}
	}

	var f1s []float64
	kappas := make(map[metrics.Variable][]float64)
	for _, pair := range out.Pairs {
		f1s = append(f1s, pair.Report.Aggregate.F1)
		for v, k := range pair.Kappa {
			if k != nil {
				kappas[v] = append(kappas[v], *k)
			}
		}
	}
	out.AggregateF1 = meanOrNil(f1s)
	for _, v := range metrics.Variables() {
		out.Kappa[v] = meanOrNil(kappas[v])
	}

	if len(sorted) >= 3 {
		out.Fleiss = make(map[metrics.Variable]*float64, 4)
		for _, v := range metrics.Variables() {
			out.Fleiss[v] = FleissKappa(fleissMatrix(sorted, m, v))
		}
	}

	return out, nil
}

// PairMean is one coder pair's metrics collapsed across the statements of
// a discussion.
type PairMean struct {
	CoderA      int64                         `json:"coder_a"`
	CoderB      int64                         `json:"coder_b"`
	AggregateF1 *float64                      `json:"aggregate_f1"`
	Kappa       map[metrics.Variable]*float64 `json:"kappa"`
}

// DiscussionIRR averages the pair means rather than the raw pairwise
// values, so a pair that coded many statements does not dominate.
type DiscussionIRR struct {
	PairMeans   []PairMean                    `json:"pair_means"`
	AggregateF1 *float64                      `json:"aggregate_f1"`
	Kappa       map[metrics.Variable]*float64 `json:"kappa"`
}

// ForDiscussion computes discussion-level IRR from per-statement coder
// deltas: each coder pair's per-statement metrics are collapsed into a
// mean first, then the pair means are averaged.
func ForDiscussion(statements [][]CoderDeltas, m *matching.Matcher) (DiscussionIRR, error) {
	if m == nil {
		m = matching.Default()
	}

	type pairKey struct{ a, b int64 }
	f1sByPair := make(map[pairKey][]float64)
	kappasByPair := make(map[pairKey]map[metrics.Variable][]float64)

	for _, coders := range statements {
		stmt, err := ForStatement(coders, m)
		if err != nil {
			return DiscussionIRR{}, err
		}
		for _, pair := range stmt.Pairs {
			key := pairKey{pair.CoderA, pair.CoderB}
			f1sByPair[key] = append(f1sByPair[key], pair.Report.Aggregate.F1)
			if kappasByPair[key] == nil {
				kappasByPair[key] = make(map[metrics.Variable][]float64)
			}
			for v, k := range pair.Kappa {
				if k != nil {
					kappasByPair[key][v] = append(kappasByPair[key][v], *k)
				}
			}
		}
	}

	keys := make([]pairKey, 0, len(f1sByPair))
	for key := range f1sByPair {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	out := DiscussionIRR{Kappa: make(map[metrics.Variable]*float64, 4)}
	var f1Means []float64
	kappaMeans := make(map[metrics.Variable][]float64)
	for _, key := range keys {
		mean := PairMean{
			CoderA:      key.a,
			CoderB:      key.b,
			AggregateF1: meanOrNil(f1sByPair[key]),
			Kappa:       make(map[metrics.Variable]*float64, 4),
		}
		if mean.AggregateF1 != nil {
			f1Means = append(f1Means, *mean.AggregateF1)
		}
		for _, v := range metrics.Variables() {
			mean.Kappa[v] = meanOrNil(kappasByPair[key][v])
			if mean.Kappa[v] != nil {
				kappaMeans[v] = append(kappaMeans[v], *mean.Kappa[v])
			}
		}
		out.PairMeans = append(out.PairMeans, mean)
	}

	out.AggregateF1 = meanOrNil(f1Means)
	for _, v := range metrics.Variables() {
		out.Kappa[v] = meanOrNil(kappaMeans[v])
	}
	return out, nil
}

func coderPDP(c CoderDeltas) models.PDP {
	if c.Deltas == nil {
		return models.PDP{}
	}
	return delta.Apply(models.PDP{}, *c.Deltas)
}

func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil
	}
	return &mean
}
