// internal/knowledge/overlay/database.go
package overlay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"expo-chat-workers/internal/common/metrics"
	"expo-chat-workers/internal/knowledge/tree"
)

const activeOverlayQuery = `SELECT overlay FROM knowledge_overlays WHERE is_active = TRUE ORDER BY updated_at DESC LIMIT 1`

// DatabaseLoader reads the single active overlay row from postgres and
// memoizes it in a single cache slot. There is at most one active row at a
// time (the admin write path deactivates the others), so the slot is keyed
// only by its expiry timestamp. A missing or unreadable row is cached too,
// with a shorter TTL, so an unconfigured overlay doesn't hammer the store.
type DatabaseLoader struct {
	db          *sql.DB
	ttl         time.Duration
	negativeTTL time.Duration

	mu          sync.RWMutex
	cached      tree.Tree
	unavailable bool
	expiresAt   time.Time
}

func NewDatabaseLoader(db *sql.DB, ttl, negativeTTL time.Duration) *DatabaseLoader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if negativeTTL <= 0 {
		negativeTTL = 1 * time.Minute
	}
	return &DatabaseLoader{
		db:          db,
		ttl:         ttl,
		negativeTTL: negativeTTL,
	}
}

func (l *DatabaseLoader) Source() string { return SourceDatabase }

func (l *DatabaseLoader) Load(ctx context.Context) (tree.Tree, error) {
	l.mu.RLock()
	if !l.expiresAt.IsZero() && time.Now().Before(l.expiresAt) {
		cached, unavailable := l.cached, l.unavailable
		l.mu.RUnlock()
		metrics.KnowledgeCacheLookups.WithLabelValues("hit").Inc()
		if unavailable {
			return nil, ErrNotAvailable
		}
		return cached, nil
	}
	l.mu.RUnlock()
	metrics.KnowledgeCacheLookups.WithLabelValues("miss").Inc()

	overlayTree, err := l.fetch(ctx)
	if err != nil {
		l.store(nil, true, l.negativeTTL)
		return nil, err
	}

	l.store(overlayTree, false, l.ttl)
	return overlayTree, nil
}

// Invalidate drops the cache slot. The activate-overlay worker calls this
// after writing a new active row so the next build sees it immediately.
func (l *DatabaseLoader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.unavailable = false
	l.expiresAt = time.Time{}
	l.mu.Unlock()
}

func (l *DatabaseLoader) fetch(ctx context.Context) (tree.Tree, error) {
	var raw []byte
	err := l.db.QueryRowContext(ctx, activeOverlayQuery).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query active overlay: %v", ErrNotAvailable, err)
	}

	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse overlay document: %v", ErrNotAvailable, err)
	}
	overlayTree, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: overlay document is not an object", ErrNotAvailable)
	}
	return overlayTree, nil
}

func (l *DatabaseLoader) store(t tree.Tree, unavailable bool, ttl time.Duration) {
	l.mu.Lock()
	l.cached = t
	l.unavailable = unavailable
	l.expiresAt = time.Now().Add(ttl)
	l.mu.Unlock()
}
