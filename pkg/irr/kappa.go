package irr

// CohenKappa computes Cohen's kappa for two aligned label sequences.
// Returns nil when the statistic is undefined: fewer than two
// observations, mismatched lengths, or a single label across both raters.
func CohenKappa(a, b []string) *float64 {
	if len(a) != len(b) || len(a) < 2 {
		return nil
	}

	labels := make(map[string]struct{})
	for _, l := range a {
		labels[l] = struct{}{}
	}
	for _, l := range b {
		labels[l] = struct{}{}
	}
	if len(labels) < 2 {
		return nil
	}

	n := float64(len(a))
	agree := 0
	countA := make(map[string]int)
	countB := make(map[string]int)
	for i := range a {
		if a[i] == b[i] {
			agree++
		}
		countA[a[i]]++
		countB[b[i]]++
	}

	po := float64(agree) / n
	pe := 0.0
	for l := range labels {
		pe += (float64(countA[l]) / n) * (float64(countB[l]) / n)
	}
	if pe >= 1.0 {
		return nil
	}

	k := (po - pe) / (1.0 - pe)
	return &k
}

// FleissKappa computes Fleiss' kappa from a ratings matrix: one row per
// item, one column per category, each cell the number of raters who
// assigned that category. Every row must sum to the same rater count.
// A single-item matrix pins the marginals to the item itself, so there
// the chance term is the uniform expectation over the categories instead:
// unanimous raters score 1.0, a majority with dissent lands in (0, 1),
// and raters who all picked different categories are undefined. The
// statistic is also undefined, and nil returned, for an empty matrix,
// fewer than two raters, inconsistent row sums, or degenerate marginals.
func FleissKappa(counts [][]int) *float64 {
	if len(counts) == 0 {
		return nil
	}

	raters := 0
	for _, row := range counts {
		sum := 0
		for _, c := range row {
			sum += c
		}
		if raters == 0 {
			raters = sum
		} else if sum != raters {
			return nil
		}
	}
	if raters < 2 {
		return nil
	}

	items := float64(len(counts))
	n := float64(raters)
	categories := len(counts[0])

	// Per-item agreement and category marginals
	pBar := 0.0
	marginals := make([]float64, categories)
	for _, row := range counts {
		pi := 0.0
		for j, c := range row {
			pi += float64(c) * float64(c-1)
			marginals[j] += float64(c)
		}
		pBar += pi / (n * (n - 1))
	}
	pBar /= items

	if pBar == 1.0 {
		one := 1.0
		return &one
	}
	if len(counts) == 1 {
		// One item carries no chance information in its marginals.
		// Score against the uniform expectation; with zero observed
		// agreement nothing remains to correct.
		if pBar == 0 {
			return nil
		}
		pe := 1.0 / float64(categories)
		k := (pBar - pe) / (1.0 - pe)
		return &k
	}

	peBar := 0.0
	for _, m := range marginals {
		p := m / (items * n)
		peBar += p * p
	}
	if peBar >= 1.0 {
		return nil
	}

	k := (pBar - peBar) / (1.0 - peBar)
	return &k
}
