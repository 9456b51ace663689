// Package repository persists stance classifications in SQLite so repeated
// requests with the same belief don't re-classify the same articles.
package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/lensnews/lensnet/pkg/domain"
)

//go:embed schema.sql
var schemaFS embed.FS

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StanceCache stores stance results keyed by a hash of the belief text and
// the normalized article URL
type StanceCache struct {
	db *sqlx.DB
}

// stanceRow is the database row shape
type stanceRow struct {
	Stance     string  `db:"stance"`
	Confidence float64 `db:"confidence"`
	Evidence   string  `db:"evidence"`
	Method     string  `db:"method"`
}

// NewStanceCache opens the database, applies SQLite pragmas and creates the
// schema
func NewStanceCache(ctx context.Context, cfg Config) (*StanceCache, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:lensnet.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// optimize SQLite settings
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	// initialize schema
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return nil, fmt.Errorf("execute schema: %w", err)
	}

	return &StanceCache{db: db}, nil
}

// Get retrieves a cached stance result, reporting whether it was found
func (c *StanceCache) Get(ctx context.Context, belief, articleURL string) (domain.StanceResult, bool, error) {
	var row stanceRow
	err := c.db.GetContext(ctx, &row,
		"SELECT stance, confidence, evidence, method FROM stance_cache WHERE belief_hash = ? AND url_key = ?",
		beliefHash(belief), urlKey(articleURL))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StanceResult{}, false, nil
	}
	if err != nil {
		return domain.StanceResult{}, false, fmt.Errorf("get stance: %w", err)
	}

	var evidence []string
	if err := json.Unmarshal([]byte(row.Evidence), &evidence); err != nil {
		return domain.StanceResult{}, false, fmt.Errorf("parse evidence: %w", err)
	}
	return domain.StanceResult{
		Stance:     domain.Stance(row.Stance),
		Confidence: row.Confidence,
		Evidence:   evidence,
		Method:     row.Method,
	}, true, nil
}

// Set stores a stance result, retrying on SQLite lock errors
func (c *StanceCache) Set(ctx context.Context, belief, articleURL string, result domain.StanceResult) error {
	evidence, err := json.Marshal(result.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	if result.Evidence == nil {
		evidence = []byte("[]")
	}

	query := `
		INSERT INTO stance_cache (belief_hash, url_key, stance, confidence, evidence, method)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(belief_hash, url_key) DO UPDATE SET
		    stance = excluded.stance,
		    confidence = excluded.confidence,
		    evidence = excluded.evidence,
		    method = excluded.method,
		    created_at = datetime('now')
	`

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		_, err := c.db.ExecContext(ctx, query,
			beliefHash(belief), urlKey(articleURL),
			string(result.Stance), result.Confidence, string(evidence), result.Method)
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("set stance: %w", err)}
		}
		return nil
	})
}

// Purge removes cache entries older than the given age
func (c *StanceCache) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM stance_cache WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d seconds", int(maxAge.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("purge stance cache: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge stance cache: %w", err)
	}
	return deleted, nil
}

// Ping verifies the database connection
func (c *StanceCache) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection
func (c *StanceCache) Close() error {
	return c.db.Close()
}

// beliefHash normalizes and hashes the belief text so the key stays short
// and whitespace/case variants share entries
func beliefHash(belief string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(belief)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// urlKey strips scheme, www and query noise so URL variants share entries
func urlKey(articleURL string) string {
	key := strings.ToLower(strings.TrimSpace(articleURL))
	key = strings.TrimPrefix(key, "https://")
	key = strings.TrimPrefix(key, "http://")
	key = strings.TrimPrefix(key, "www.")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return strings.TrimSuffix(key, "/")
}

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string {
	return e.err.Error()
}

func (e *criticalError) Unwrap() error {
	return e.err
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
