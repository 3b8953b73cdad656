package store

import "github.com/pdplab/pdplab-go/pkg/models"

// Store is the persistence contract for discussions, statements, and
// auditor feedback.
type Store interface {
	// Discussion operations
	SaveDiscussion(discussion *models.Discussion) error
	GetDiscussion(id int64) (*models.Discussion, error)
	ListDiscussions() ([]*models.Discussion, error)
	DeleteDiscussion(id int64) error

	// Statement operations
	SaveStatement(statement *models.Statement) error
	GetStatement(id int64) (*models.Statement, error)
	ListStatementsByDiscussion(discussionID int64) ([]*models.Statement, error)
	SetStatementDeltas(id int64, deltas *models.Deltas) error
	NextPendingStatement() (*models.Statement, error)

	// Feedback operations
	SaveFeedback(feedback *models.Feedback) error
	GetFeedback(id int64) (*models.Feedback, error)
	ListFeedbackByStatement(statementID int64) ([]*models.Feedback, error)

	// ExportGroundTruth returns one record per approved override
	ExportGroundTruth() ([]models.GroundTruthRecord, error)

	Close() error
}
