package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pdplab/pdplab-go/pkg/models"
)

// SQLiteStore provides SQLite-based persistence for discussions,
// statements, and feedback
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based storage instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Open database with connection pooling parameters
	// Format: file:path?param=value
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by SQLite anyway, keep the pool small
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// In-memory databases report "delete" or "memory" mode, which is
	// acceptable for testing
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return nil, fmt.Errorf("failed to check journal mode: %w", err)
	}
	if journalMode != "wal" && journalMode != "delete" && journalMode != "memory" {
		return nil, fmt.Errorf("unexpected journal mode: got %s", journalMode)
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryOnBusy retries a database operation if it fails due to SQLITE_BUSY.
// This provides an additional safety net on top of the busy_timeout pragma.
func (s *SQLiteStore) retryOnBusy(operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") {
			// Exponential backoff: 10ms, 20ms, 40ms, 80ms, 160ms
			backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
			time.Sleep(backoff)
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}

// initSchema creates the database schema if it doesn't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS discussions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		speaker_name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS statements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		discussion_id INTEGER NOT NULL,
		order_num INTEGER NOT NULL,
		speaker_type TEXT NOT NULL,
		text TEXT NOT NULL,
		extracting INTEGER NOT NULL DEFAULT 0,
		pdp_deltas TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (discussion_id) REFERENCES discussions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_statements_discussion_id ON statements(discussion_id);
	CREATE INDEX IF NOT EXISTS idx_statements_pending ON statements(extracting, created_at);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		statement_id INTEGER NOT NULL,
		auditor_id INTEGER NOT NULL,
		edited_extraction TEXT,
		approved INTEGER NOT NULL DEFAULT 0,
		comment TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (statement_id) REFERENCES statements(id),
		UNIQUE(statement_id, auditor_id)
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_statement_id ON feedback(statement_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_approved ON feedback(approved);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveDiscussion inserts or updates a discussion. New discussions get
// their generated id written back.
func (s *SQLiteStore) SaveDiscussion(discussion *models.Discussion) error {
	discussion.UpdatedAt = time.Now()
	if discussion.CreatedAt.IsZero() {
		discussion.CreatedAt = discussion.UpdatedAt
	}

	if discussion.ID == 0 {
		query := `
			INSERT INTO discussions (external_id, title, speaker_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`
		result, err := s.db.Exec(query,
			discussion.ExternalID,
			discussion.Title,
			discussion.SpeakerName,
			discussion.CreatedAt,
			discussion.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save discussion: %w", err)
		}
		discussion.ID, err = result.LastInsertId()
		return err
	}

	query := `
		INSERT OR REPLACE INTO discussions (id, external_id, title, speaker_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		discussion.ID,
		discussion.ExternalID,
		discussion.Title,
		discussion.SpeakerName,
		discussion.CreatedAt,
		discussion.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save discussion: %w", err)
	}
	return nil
}

// GetDiscussion retrieves a discussion by ID
func (s *SQLiteStore) GetDiscussion(id int64) (*models.Discussion, error) {
	query := `SELECT id, external_id, title, speaker_name, created_at, updated_at FROM discussions WHERE id = ?`

	var d models.Discussion
	err := s.db.QueryRow(query, id).Scan(&d.ID, &d.ExternalID, &d.Title, &d.SpeakerName, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("discussion not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discussion: %w", err)
	}
	return &d, nil
}

// ListDiscussions lists all discussions, newest first
func (s *SQLiteStore) ListDiscussions() ([]*models.Discussion, error) {
	query := `SELECT id, external_id, title, speaker_name, created_at, updated_at FROM discussions ORDER BY created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list discussions: %w", err)
	}
	defer rows.Close()

	discussions := make([]*models.Discussion, 0)
	for rows.Next() {
		var d models.Discussion
		if err := rows.Scan(&d.ID, &d.ExternalID, &d.Title, &d.SpeakerName, &d.CreatedAt, &d.UpdatedAt); err != nil {
			continue
		}
		discussions = append(discussions, &d)
	}
	return discussions, nil
}

// DeleteDiscussion deletes a discussion and its statements and feedback
func (s *SQLiteStore) DeleteDiscussion(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM feedback WHERE statement_id IN (SELECT id FROM statements WHERE discussion_id = ?)`, id); err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM statements WHERE discussion_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete statements: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM discussions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete discussion: %w", err)
	}
	return tx.Commit()
}

// SaveStatement inserts or updates a statement
func (s *SQLiteStore) SaveStatement(statement *models.Statement) error {
	statement.UpdatedAt = time.Now()
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = statement.UpdatedAt
	}

	deltas, err := marshalDeltas(statement.Deltas)
	if err != nil {
		return err
	}

	if statement.ID == 0 {
		query := `
			INSERT INTO statements (discussion_id, order_num, speaker_type, text, extracting, pdp_deltas, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		var result sql.Result
		err = s.retryOnBusy(func() error {
			var execErr error
			result, execErr = s.db.Exec(query,
				statement.DiscussionID,
				statement.Order,
				statement.SpeakerType,
				statement.Text,
				boolToInt(statement.Extracting),
				deltas,
				statement.CreatedAt,
				statement.UpdatedAt,
			)
			return execErr
		}, 5)
		if err != nil {
			return fmt.Errorf("failed to save statement: %w", err)
		}
		statement.ID, err = result.LastInsertId()
		return err
	}

	query := `
		INSERT OR REPLACE INTO statements (id, discussion_id, order_num, speaker_type, text, extracting, pdp_deltas, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	err = s.retryOnBusy(func() error {
		_, execErr := s.db.Exec(query,
			statement.ID,
			statement.DiscussionID,
			statement.Order,
			statement.SpeakerType,
			statement.Text,
			boolToInt(statement.Extracting),
			deltas,
			statement.CreatedAt,
			statement.UpdatedAt,
		)
		return execErr
	}, 5)
	if err != nil {
		return fmt.Errorf("failed to save statement: %w", err)
	}
	return nil
}

// GetStatement retrieves a statement by ID
func (s *SQLiteStore) GetStatement(id int64) (*models.Statement, error) {
	query := `
		SELECT id, discussion_id, order_num, speaker_type, text, extracting, pdp_deltas, created_at, updated_at
		FROM statements WHERE id = ?
	`
	st, err := scanStatement(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("statement not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}
	return st, nil
}

// ListStatementsByDiscussion lists a discussion's statements in
// reconstruction order: order ascending, id ascending on ties.
func (s *SQLiteStore) ListStatementsByDiscussion(discussionID int64) ([]*models.Statement, error) {
	query := `
		SELECT id, discussion_id, order_num, speaker_type, text, extracting, pdp_deltas, created_at, updated_at
		FROM statements WHERE discussion_id = ? ORDER BY order_num ASC, id ASC
	`
	rows, err := s.db.Query(query, discussionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	statements := make([]*models.Statement, 0)
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			continue
		}
		statements = append(statements, st)
	}
	return statements, nil
}

// SetStatementDeltas writes a statement's extraction in one step
func (s *SQLiteStore) SetStatementDeltas(id int64, deltas *models.Deltas) error {
	data, err := marshalDeltas(deltas)
	if err != nil {
		return err
	}

	query := `UPDATE statements SET pdp_deltas = ?, updated_at = ? WHERE id = ?`
	var result sql.Result
	err = s.retryOnBusy(func() error {
		var execErr error
		result, execErr = s.db.Exec(query, data, time.Now(), id)
		return execErr
	}, 5)
	if err != nil {
		return fmt.Errorf("failed to set statement deltas: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("statement not found: %d", id)
	}
	return nil
}

// NextPendingStatement returns the oldest Subject statement that is
// flagged for extraction and has no extraction yet, or nil when none is
// pending. The delta-absent predicate makes retries idempotent.
func (s *SQLiteStore) NextPendingStatement() (*models.Statement, error) {
	query := `
		SELECT id, discussion_id, order_num, speaker_type, text, extracting, pdp_deltas, created_at, updated_at
		FROM statements
		WHERE speaker_type = ? AND extracting = 1 AND pdp_deltas IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`
	st, err := scanStatement(s.db.QueryRow(query, models.SpeakerSubject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select pending statement: %w", err)
	}
	return st, nil
}

// SaveFeedback inserts or updates an auditor's override
func (s *SQLiteStore) SaveFeedback(feedback *models.Feedback) error {
	feedback.UpdatedAt = time.Now()
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = feedback.UpdatedAt
	}

	extraction, err := marshalDeltas(feedback.EditedExtraction)
	if err != nil {
		return err
	}

	if feedback.ID == 0 {
		query := `
			INSERT INTO feedback (statement_id, auditor_id, edited_extraction, approved, comment, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		result, err := s.db.Exec(query,
			feedback.StatementID,
			feedback.AuditorID,
			extraction,
			boolToInt(feedback.Approved),
			feedback.Comment,
			feedback.CreatedAt,
			feedback.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save feedback: %w", err)
		}
		feedback.ID, err = result.LastInsertId()
		return err
	}

	query := `
		INSERT OR REPLACE INTO feedback (id, statement_id, auditor_id, edited_extraction, approved, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		feedback.ID,
		feedback.StatementID,
		feedback.AuditorID,
		extraction,
		boolToInt(feedback.Approved),
		feedback.Comment,
		feedback.CreatedAt,
		feedback.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// GetFeedback retrieves one feedback record by ID
func (s *SQLiteStore) GetFeedback(id int64) (*models.Feedback, error) {
	query := `
		SELECT id, statement_id, auditor_id, edited_extraction, approved, comment, created_at, updated_at
		FROM feedback WHERE id = ?
	`
	f, err := scanFeedback(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("feedback not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return f, nil
}

// ListFeedbackByStatement lists a statement's overrides, oldest first
func (s *SQLiteStore) ListFeedbackByStatement(statementID int64) ([]*models.Feedback, error) {
	query := `
		SELECT id, statement_id, auditor_id, edited_extraction, approved, comment, created_at, updated_at
		FROM feedback WHERE statement_id = ? ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.Query(query, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	feedback := make([]*models.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			continue
		}
		feedback = append(feedback, f)
	}
	return feedback, nil
}

// ExportGroundTruth builds one record per approved override: the
// auditor's extraction, the AI extraction it corrects, and the prior
// statements of the discussion as context.
func (s *SQLiteStore) ExportGroundTruth() ([]models.GroundTruthRecord, error) {
	query := `
		SELECT f.id, f.auditor_id, f.edited_extraction, f.comment,
		       s.id, s.discussion_id, s.order_num, s.text, s.pdp_deltas,
		       d.speaker_name
		FROM feedback f
		JOIN statements s ON s.id = f.statement_id
		JOIN discussions d ON d.id = s.discussion_id
		WHERE f.approved = 1
		ORDER BY s.discussion_id ASC, s.order_num ASC, s.id ASC, f.id ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ground truth: %w", err)
	}
	defer rows.Close()

	type exportRow struct {
		record       models.GroundTruthRecord
		discussionID int64
		order        int
		statementID  int64
	}

	var collected []exportRow
	for rows.Next() {
		var row exportRow
		var gtJSON, aiJSON sql.NullString
		if err := rows.Scan(
			&row.record.FeedbackID,
			&row.record.AuditorID,
			&gtJSON,
			&row.record.Comment,
			&row.record.StatementID,
			&row.discussionID,
			&row.order,
			&row.record.StatementText,
			&aiJSON,
			&row.record.SpeakerName,
		); err != nil {
			continue
		}
		row.statementID = row.record.StatementID
		if row.record.GTExtraction, err = unmarshalDeltas(gtJSON); err != nil {
			continue
		}
		if row.record.AIExtraction, err = unmarshalDeltas(aiJSON); err != nil {
			continue
		}
		collected = append(collected, row)
	}

	// Context is the discussion's prior statements, in order
	records := make([]models.GroundTruthRecord, 0, len(collected))
	for _, row := range collected {
		context, err := s.discussionContext(row.discussionID, row.order, row.statementID)
		if err != nil {
			return nil, err
		}
		row.record.DiscussionContext = context
		records = append(records, row.record)
	}
	return records, nil
}

// discussionContext joins the text of every statement strictly before the
// given one.
func (s *SQLiteStore) discussionContext(discussionID int64, order int, statementID int64) (string, error) {
	statements, err := s.ListStatementsByDiscussion(discussionID)
	if err != nil {
		return "", err
	}

	sort.SliceStable(statements, func(i, j int) bool {
		if statements[i].Order != statements[j].Order {
			return statements[i].Order < statements[j].Order
		}
		return statements[i].ID < statements[j].ID
	})

	var parts []string
	for _, st := range statements {
		if st.Order > order || (st.Order == order && st.ID >= statementID) {
			break
		}
		parts = append(parts, st.Text)
	}
	return strings.Join(parts, "\n"), nil
}

// scanner lets row and rows scanning share one code path
type scanner interface {
	Scan(dest ...any) error
}

func scanStatement(row scanner) (*models.Statement, error) {
	var st models.Statement
	var extracting int
	var deltas sql.NullString
	err := row.Scan(
		&st.ID,
		&st.DiscussionID,
		&st.Order,
		&st.SpeakerType,
		&st.Text,
		&extracting,
		&deltas,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.Extracting = extracting != 0
	if st.Deltas, err = unmarshalDeltas(deltas); err != nil {
		return nil, err
	}
	return &st, nil
}

func scanFeedback(row scanner) (*models.Feedback, error) {
	var f models.Feedback
	var approved int
	var extraction sql.NullString
	err := row.Scan(
		&f.ID,
		&f.StatementID,
		&f.AuditorID,
		&extraction,
		&approved,
		&f.Comment,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Approved = approved != 0
	if f.EditedExtraction, err = unmarshalDeltas(extraction); err != nil {
		return nil, err
	}
	return &f, nil
}

func marshalDeltas(d *models.Deltas) (any, error) {
	if d == nil {
		return nil, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deltas: %w", err)
	}
	return string(data), nil
}

func unmarshalDeltas(data sql.NullString) (*models.Deltas, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var d models.Deltas
	if err := json.Unmarshal([]byte(data.String), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deltas: %w", err)
	}
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
