package irr

import (
	"sort"

	"github.com/pdplab/pdplab-go/pkg/matching"
	"github.com/pdplab/pdplab-go/pkg/metrics"
	"github.com/pdplab/pdplab-go/pkg/models"
)

// eventRef identifies one coder's shift event
type eventRef struct {
	coder int
	event int64
}

// fleissMatrix builds a Fleiss ratings matrix for one SARF variable. The
// items are equivalence classes of shift events linked by pairwise
// matching across coders; the categories are the variable's value domain
// plus "none". Every coder contributes one rating per item, "none" when
// no event of theirs belongs to the class. An event that matched no
// other coder's is an existence disagreement, not a rating, and forms
// no item.
func fleissMatrix(coders []CoderDeltas, m *matching.Matcher, v metrics.Variable) [][]int {
	pdps := make([]models.PDP, len(coders))
	for i, c := range coders {
		pdps[i] = coderPDP(c)
	}

	// Union matched shift events across every coder pair
	parent := make(map[eventRef]eventRef)
	var find func(r eventRef) eventRef
	find = func(r eventRef) eventRef {
		p, ok := parent[r]
		if !ok {
			parent[r] = r
			return r
		}
		if p == r {
			return r
		}
		root := find(p)
		parent[r] = root
		return root
	}
	union := func(a, b eventRef) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	values := make(map[eventRef]string)
	for i, pdp := range pdps {
		for _, e := range pdp.Events {
			if e.Kind != models.EventShift {
				continue
			}
			ref := eventRef{coder: i, event: e.ID}
			find(ref)
			values[ref] = metrics.Value(e, v)
		}
	}

	for i := 0; i < len(pdps); i++ {
		for j := i + 1; j < len(pdps); j++ {
			match := m.MatchPDPs(pdps[i], pdps[j])
			for _, pair := range match.Events.Pairs {
				if pair.Candidate.Kind != models.EventShift {
					continue
				}
				union(eventRef{coder: i, event: pair.Candidate.ID},
					eventRef{coder: j, event: pair.Reference.ID})
			}
		}
	}

	// Collapse classes into per-coder ratings
	classes := make(map[eventRef]map[int]string)
	for ref, value := range values {
		root := find(ref)
		if classes[root] == nil {
			classes[root] = make(map[int]string)
		}
		if _, ok := classes[root][ref.coder]; !ok {
			classes[root][ref.coder] = value
		}
	}

	categories := append(metrics.ValueDomain(v), metrics.NoneLabel)
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		index[c] = i
	}

	// Only classes rated by at least two coders become items
	roots := make([]eventRef, 0, len(classes))
	for root, raters := range classes {
		if len(raters) < 2 {
			continue
		}
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].coder != roots[j].coder {
			return roots[i].coder < roots[j].coder
		}
		return roots[i].event < roots[j].event
	})

	matrix := make([][]int, 0, len(roots))
	for _, root := range roots {
		row := make([]int, len(categories))
		for coder := 0; coder < len(coders); coder++ {
			value, ok := classes[root][coder]
			if !ok {
				value = metrics.NoneLabel
			}
			col, known := index[value]
			if !known {
				col = index[metrics.NoneLabel]
			}
			row[col]++
		}
		matrix = append(matrix, row)
	}
	return matrix
}
