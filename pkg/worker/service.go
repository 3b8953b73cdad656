// Package worker drives extraction of pending statements on a schedule.
package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/pdplab/pdplab-go/pkg/delta"
	"github.com/pdplab/pdplab-go/pkg/extractor"
	"github.com/pdplab/pdplab-go/pkg/logging"
	"github.com/pdplab/pdplab-go/pkg/models"
	"github.com/pdplab/pdplab-go/pkg/store"
)

// Service picks up pending subject statements and runs extraction on them
type Service struct {
	store     store.Store
	extractor extractor.Extractor
	batchSize int
	cron      *cron.Cron
	logger    *logging.Logger
}

// NewService creates a new extraction worker
func NewService(st store.Store, ex extractor.Extractor, batchSize int) *Service {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Service{
		store:     st,
		extractor: ex,
		batchSize: batchSize,
		cron:      cron.New(),
		logger:    logging.GetLogger(),
	}
}

// Start schedules the worker loop with the given cron expression
func (s *Service) Start(schedule string) error {
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.cron.Schedule(parsed, cron.FuncJob(func() {
		s.RunBatch(context.Background())
	}))
	s.cron.Start()
	s.logger.Info("Extraction worker started",
		logging.Component("worker"),
		logging.String("schedule", schedule),
		logging.Int("batch_size", s.batchSize))
	return nil
}

// Stop stops the worker loop
func (s *Service) Stop() {
	s.cron.Stop()
	s.logger.Info("Extraction worker stopped", logging.Component("worker"))
}

// RunBatch extracts up to batchSize pending statements. It stops early when
// the queue drains or a statement fails.
func (s *Service) RunBatch(ctx context.Context) {
	for i := 0; i < s.batchSize; i++ {
		processed, err := s.ExtractNextStatement(ctx)
		if err != nil {
			s.logger.Error("Extraction batch aborted", err, logging.Component("worker"))
			return
		}
		if !processed {
			return
		}
	}
}

// ExtractNextStatement selects the oldest pending subject statement, runs
// the extractor with the discussion context built from the prior
// statements, and commits the resulting deltas. It returns false when no
// statement is pending. Extraction failures are logged and leave the
// statement's deltas absent, so a later run can retry it.
func (s *Service) ExtractNextStatement(ctx context.Context) (bool, error) {
	stmt, err := s.store.NextPendingStatement()
	if err != nil {
		return false, fmt.Errorf("select pending statement: %w", err)
	}
	if stmt == nil {
		return false, nil
	}

	discussion, err := s.store.GetDiscussion(stmt.DiscussionID)
	if err != nil {
		return false, fmt.Errorf("load discussion %d: %w", stmt.DiscussionID, err)
	}

	req, err := s.buildRequest(discussion, stmt)
	if err != nil {
		return false, err
	}

	deltas, err := s.extractor.Extract(ctx, req)
	if err != nil {
		s.logger.Error("Extraction failed", err,
			logging.Component("worker"),
			logging.Int64("statement_id", stmt.ID),
			logging.Int64("discussion_id", stmt.DiscussionID))
		return false, nil
	}

	if err := s.store.SetStatementDeltas(stmt.ID, deltas); err != nil {
		return false, fmt.Errorf("commit deltas for statement %d: %w", stmt.ID, err)
	}

	s.logger.Info("Statement extracted",
		logging.Component("worker"),
		logging.Int64("statement_id", stmt.ID),
		logging.Int("people", len(deltas.People)),
		logging.Int("events", len(deltas.Events)),
		logging.Int("pair_bonds", len(deltas.PairBonds)))
	return true, nil
}

// buildRequest assembles the extractor input: the prior statements in
// order and the cumulative model they produce.
func (s *Service) buildRequest(discussion *models.Discussion, stmt *models.Statement) (extractor.Request, error) {
	all, err := s.store.ListStatementsByDiscussion(stmt.DiscussionID)
	if err != nil {
		return extractor.Request{}, fmt.Errorf("load discussion statements: %w", err)
	}

	var history []extractor.Utterance
	folded := make([]delta.Statement, 0, len(all))
	for _, prior := range all {
		folded = append(folded, delta.Statement{Order: prior.Order, ID: prior.ID, Deltas: prior.Deltas})
		if prior.Order < stmt.Order || (prior.Order == stmt.Order && prior.ID < stmt.ID) {
			history = append(history, extractor.Utterance{Speaker: prior.SpeakerType, Text: prior.Text})
		}
	}

	return extractor.Request{
		SpeakerName: discussion.SpeakerName,
		History:     history,
		Current:     delta.Cumulative(folded, stmt.ID),
		Text:        stmt.Text,
	}, nil
}
