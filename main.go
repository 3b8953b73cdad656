// pdplab command line interface.
// Evaluates AI extractions against auditor ground truth, computes
// inter-rater reliability, and exports approved ground-truth records.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdplab/pdplab-go/pkg/config"
	"github.com/pdplab/pdplab-go/pkg/delta"
	"github.com/pdplab/pdplab-go/pkg/irr"
	"github.com/pdplab/pdplab-go/pkg/logging"
	"github.com/pdplab/pdplab-go/pkg/matching"
	"github.com/pdplab/pdplab-go/pkg/metrics"
	"github.com/pdplab/pdplab-go/pkg/models"
	"github.com/pdplab/pdplab-go/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	var cmdErr error
	switch os.Args[1] {
	case "evaluate":
		cmdErr = runEvaluate(cfg, os.Args[2:])
	case "irr":
		cmdErr = runIRR(cfg, os.Args[2:])
	case "export":
		cmdErr = runExport(cfg, os.Args[2:])
	case "help", "--help", "-h":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, cmdErr.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  %[1]s evaluate -statement <id> -auditor <id> [-db <path>] [-pretty]
  %[1]s irr (-statement <id> | -discussion <id>) [-db <path>] [-pretty]
  %[1]s export [-db <path>] [-out <file>] [-pretty]

Flags common to all commands:
  -db      SQLite database path (default $DATABASE_PATH)
  -pretty  Pretty-print the JSON output
`, filepath.Base(os.Args[0]))
}

func openStore(cfg *config.Config, dbPath string) (store.Store, error) {
	if dbPath == "" {
		dbPath = cfg.DatabasePath
	}
	return store.NewSQLiteStore(dbPath)
}

func newMatcher(cfg *config.Config) (*matching.Matcher, error) {
	calibration, err := config.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		return nil, fmt.Errorf("load calibration: %w", err)
	}
	return matching.NewMatcher(calibration), nil
}

// runEvaluate compares one statement's AI extraction against one auditor's
// edited extraction, both applied on top of the shared prior model.
func runEvaluate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	dbPath := fs.String("db", "", "SQLite database path")
	statementID := fs.Int64("statement", 0, "Statement id to evaluate")
	auditorID := fs.Int64("auditor", 0, "Auditor whose feedback is the reference")
	pretty := fs.Bool("pretty", false, "Pretty-print the JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *statementID == 0 {
		return fmt.Errorf("evaluate: -statement is required")
	}

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	stmt, err := st.GetStatement(*statementID)
	if err != nil {
		return err
	}
	if stmt.Deltas == nil {
		return fmt.Errorf("statement %d has no extraction yet", stmt.ID)
	}

	feedback, err := feedbackForAuditor(st, stmt.ID, *auditorID)
	if err != nil {
		return err
	}
	if feedback.EditedExtraction == nil {
		return fmt.Errorf("feedback %d has no edited extraction", feedback.ID)
	}

	prior, err := priorModel(st, stmt)
	if err != nil {
		return err
	}
	candidate := delta.Apply(prior, *stmt.Deltas)
	reference := delta.Apply(prior, *feedback.EditedExtraction)

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}
	report, err := metrics.NewEvaluator(matcher).EvaluateStatement(stmt.ID, feedback.ID, candidate, reference)
	if err != nil {
		return err
	}
	return emit(os.Stdout, report, *pretty)
}

// runIRR computes inter-rater reliability over the auditors of one
// statement, or over every audited statement of a discussion.
func runIRR(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("irr", flag.ExitOnError)
	dbPath := fs.String("db", "", "SQLite database path")
	statementID := fs.Int64("statement", 0, "Statement id")
	discussionID := fs.Int64("discussion", 0, "Discussion id")
	pretty := fs.Bool("pretty", false, "Pretty-print the JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*statementID == 0) == (*discussionID == 0) {
		return fmt.Errorf("irr: exactly one of -statement or -discussion is required")
	}

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	matcher, err := newMatcher(cfg)
	if err != nil {
		return err
	}

	if *statementID != 0 {
		coders, err := coderDeltas(st, *statementID)
		if err != nil {
			return err
		}
		result, err := irr.ForStatement(coders, matcher)
		if err != nil {
			return err
		}
		return emit(os.Stdout, result, *pretty)
	}

	statements, err := st.ListStatementsByDiscussion(*discussionID)
	if err != nil {
		return err
	}
	var perStatement [][]irr.CoderDeltas
	for _, stmt := range statements {
		coders, err := coderDeltas(st, stmt.ID)
		if err != nil {
			return err
		}
		if len(coders) >= 2 {
			perStatement = append(perStatement, coders)
		}
	}
	result, err := irr.ForDiscussion(perStatement, matcher)
	if err != nil {
		return err
	}
	return emit(os.Stdout, result, *pretty)
}

// runExport writes the approved ground-truth records as a JSON array.
func runExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", "", "SQLite database path")
	outPath := fs.String("out", "", "Output file (default stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print the JSON output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ExportGroundTruth()
	if err != nil {
		return err
	}
	if records == nil {
		records = []models.GroundTruthRecord{}
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return emit(out, records, *pretty)
}

func feedbackForAuditor(st store.Store, statementID, auditorID int64) (*models.Feedback, error) {
	feedbacks, err := st.ListFeedbackByStatement(statementID)
	if err != nil {
		return nil, err
	}
	if auditorID == 0 && len(feedbacks) == 1 {
		return feedbacks[0], nil
	}
	for _, fb := range feedbacks {
		if fb.AuditorID == auditorID {
			return fb, nil
		}
	}
	return nil, fmt.Errorf("no feedback from auditor %d for statement %d", auditorID, statementID)
}

// priorModel folds the AI deltas of the statements strictly before stmt.
func priorModel(st store.Store, stmt *models.Statement) (models.PDP, error) {
	all, err := st.ListStatementsByDiscussion(stmt.DiscussionID)
	if err != nil {
		return models.PDP{}, err
	}
	folded := make([]delta.Statement, 0, len(all))
	for _, prior := range all {
		folded = append(folded, delta.Statement{Order: prior.Order, ID: prior.ID, Deltas: prior.Deltas})
	}
	return delta.Cumulative(folded, stmt.ID), nil
}

func coderDeltas(st store.Store, statementID int64) ([]irr.CoderDeltas, error) {
	feedbacks, err := st.ListFeedbackByStatement(statementID)
	if err != nil {
		return nil, err
	}
	var coders []irr.CoderDeltas
	for _, fb := range feedbacks {
		if fb.EditedExtraction == nil {
			continue
		}
		coders = append(coders, irr.CoderDeltas{CoderID: fb.AuditorID, Deltas: fb.EditedExtraction})
	}
	return coders, nil
}

func emit(out *os.File, v any, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
