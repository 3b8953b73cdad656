package delta

import (
	"sort"

	"github.com/pdplab/pdplab-go/pkg/models"
)

// Statement pairs one discussion statement's ordering key with the deltas
// the extractor produced for it. Deltas is nil while extraction is pending.
type Statement struct {
	Order  int
	ID     int64
	Deltas *models.Deltas
}

// OverrideKey identifies one auditor's override for one statement
type OverrideKey struct {
	StatementID int64
	AuditorID   int64
}

type options struct {
	audited   bool
	auditorID int64
	overrides map[OverrideKey]*models.Deltas
}

// Option adjusts how Cumulative resolves each statement's deltas
type Option func(*options)

// WithAuditor makes Cumulative prefer the named auditor's override deltas
// where one exists for a statement, falling back to the AI deltas
// otherwise. Without this option (AI mode) overrides are ignored entirely.
func WithAuditor(auditorID int64, overrides map[OverrideKey]*models.Deltas) Option {
	return func(o *options) {
		o.audited = true
		o.auditorID = auditorID
		o.overrides = overrides
	}
}

// Cumulative folds Apply over the statements sorted by (order, id)
// ascending, starting from an empty PDP and stopping strictly before the
// statement with id upTo. It is a pure function of the sorted sequence;
// statements whose deltas are still absent contribute nothing.
func Cumulative(statements []Statement, upTo int64, opts ...Option) models.PDP {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ordered := make([]Statement, len(statements))
	copy(ordered, statements)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].ID < ordered[j].ID
	})

	var pdp models.PDP
	for _, stmt := range ordered {
		if stmt.ID == upTo {
			break
		}
		deltas := stmt.Deltas
		if o.audited {
			if override, ok := o.overrides[OverrideKey{StatementID: stmt.ID, AuditorID: o.auditorID}]; ok {
				deltas = override
			}
		}
		if deltas == nil {
			continue
		}
		pdp = Apply(pdp, *deltas)
	}
	return pdp
}
