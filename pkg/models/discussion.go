package models

import (
	"time"

	"github.com/google/uuid"
)

// SpeakerType says who uttered a statement
type SpeakerType string

const (
	SpeakerSubject SpeakerType = "subject"
	SpeakerExpert  SpeakerType = "expert"
)

// Valid reports whether the speaker type is a known value
func (s SpeakerType) Valid() bool {
	return s == SpeakerSubject || s == SpeakerExpert
}

// Discussion is one recorded conversation with a subject
type Discussion struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	SpeakerName string    `json:"speaker_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewDiscussion creates a discussion with a fresh external reference
func NewDiscussion(title, speakerName string) *Discussion {
	now := time.Now()
	return &Discussion{
		ExternalID:  uuid.New().String(),
		Title:       title,
		SpeakerName: speakerName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Statement is one utterance in a discussion. Deltas is nil until the
// extractor has produced (or a human has supplied) an extraction.
type Statement struct {
	ID           int64       `json:"id"`
	DiscussionID int64       `json:"discussion_id"`
	Order        int         `json:"order"`
	SpeakerType  SpeakerType `json:"speaker_type"`
	Text         string      `json:"text"`
	Extracting   bool        `json:"extracting"`
	Deltas       *Deltas     `json:"pdp_deltas,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Feedback is one auditor's override of a statement's extraction.
// Approved feedback doubles as ground truth.
type Feedback struct {
	ID               int64     `json:"id"`
	StatementID      int64     `json:"statement_id"`
	AuditorID        int64     `json:"auditor_id"`
	EditedExtraction *Deltas   `json:"edited_extraction,omitempty"`
	Approved         bool      `json:"approved"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GroundTruthRecord is one row of the ground truth export: an approved
// override together with the statement it corrects and its context.
type GroundTruthRecord struct {
	StatementID       int64   `json:"statement_id"`
	FeedbackID        int64   `json:"feedback_id"`
	AuditorID         int64   `json:"auditor_id"`
	StatementText     string  `json:"statement_text"`
	SpeakerName       string  `json:"speaker_name"`
	DiscussionContext string  `json:"discussion_context"`
	AIExtraction      *Deltas `json:"ai_extraction"`
	GTExtraction      *Deltas `json:"gt_extraction"`
	Comment           string  `json:"comment"`
}
