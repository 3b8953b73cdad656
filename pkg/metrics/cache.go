package metrics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

type cacheKey struct {
	StatementID int64
	FeedbackID  int64
	ContentHash string
}

// ReportCache memoizes evaluation reports keyed by statement, feedback,
// and a hash of the evaluated content. Safe for concurrent use.
type ReportCache struct {
	mu      sync.Mutex
	reports map[cacheKey]Report
}

// NewReportCache creates an empty cache
func NewReportCache() *ReportCache {
	return &ReportCache{reports: make(map[cacheKey]Report)}
}

// ContentHash returns a stable hex digest of any JSON-serializable value,
// suitable as the content component of a cache key.
func ContentHash(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached report for the key, if present
func (c *ReportCache) Get(stmtID, feedbackID int64, contentHash string) (Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[cacheKey{stmtID, feedbackID, contentHash}]
	return r, ok
}

// Put stores a report under the key
func (c *ReportCache) Put(stmtID, feedbackID int64, contentHash string, r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[cacheKey{stmtID, feedbackID, contentHash}] = r
}

// Invalidate drops every entry for the given statement and feedback.
// Callers must invalidate whenever the underlying feedback changes.
func (c *ReportCache) Invalidate(stmtID, feedbackID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.reports {
		if key.StatementID == stmtID && key.FeedbackID == feedbackID {
			delete(c.reports, key)
		}
	}
}

// InvalidateStatement drops every entry for the statement regardless of
// feedback id
func (c *ReportCache) InvalidateStatement(stmtID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.reports {
		if key.StatementID == stmtID {
			delete(c.reports, key)
		}
	}
}
