// Package extractor turns a single discussion statement into PDP deltas.
package extractor

import (
	"context"

	"github.com/pdplab/pdplab-go/pkg/models"
)

// Utterance is one prior statement of the discussion, in order
type Utterance struct {
	Speaker models.SpeakerType `json:"speaker"`
	Text    string             `json:"text"`
}

// Request carries everything the extractor may condition on: the speaker,
// the discussion so far, the cumulative model built from the prior
// statements, and the new utterance itself.
type Request struct {
	SpeakerName string
	History     []Utterance
	Current     models.PDP
	Text        string
}

// Extractor produces the deltas implied by one new statement. A nil result
// with a nil error is not allowed; extractors that find nothing return
// empty deltas.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*models.Deltas, error)
}
