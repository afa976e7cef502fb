// Package engine executes console queries against a database adapter and
// returns their results as Arrow-backed tables. It also serves completion
// candidates from the adapter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlpad/pkg/adapter"
	"github.com/leapstack-labs/sqlpad/pkg/completion"
	"github.com/leapstack-labs/sqlpad/pkg/result"
)

// ErrNotConnected is returned by operations on a closed engine.
var ErrNotConnected = adapter.ErrNotConnected

// Config holds engine configuration.
type Config struct {
	// Adapter selects and configures the database backend.
	Adapter adapter.Config
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Allocator backs result records (optional, uses the Go allocator if nil)
	Allocator memory.Allocator
}

// Engine runs queries for one console session.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	closed      bool
	dbMu        sync.Mutex

	alloc     memory.Allocator
	logger    *slog.Logger
	completer *completion.Engine

	historyMu sync.Mutex
	history   []string
}

// New creates an engine with a lazy database connection. The adapter is
// connected on first use.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	alloc := cfg.Allocator
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}

	e := &Engine{
		dbConfig: cfg.Adapter,
		alloc:    alloc,
		logger:   logger,
	}
	e.completer = completion.NewEngine(e.Suggest, logger)
	return e
}

// NewWithAdapter creates an engine over an already connected adapter.
func NewWithAdapter(db adapter.Adapter, cfg Config) *Engine {
	e := New(cfg)
	e.db = db
	e.dbConfig.Type = db.Name()
	e.dbConnected = true
	return e
}

// ensureConnected lazily connects to the database.
func (e *Engine) ensureConnected(ctx context.Context) (adapter.Adapter, error) {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.closed {
		return nil, ErrNotConnected
	}
	if e.dbConnected {
		return e.db, nil
	}

	e.logger.Debug("connecting to database", "backend", e.dbConfig.Type)

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	e.db = db
	e.dbConnected = true
	e.logger.Debug("database connected", "backend", db.Name())
	return db, nil
}

// Connect opens the database connection now instead of on first use.
func (e *Engine) Connect(ctx context.Context) error {
	_, err := e.ensureConnected(ctx)
	return err
}

// Backend returns the configured backend name.
func (e *Engine) Backend() string {
	return e.dbConfig.Type
}

// Close releases the database connection. Later calls fail with
// ErrNotConnected.
func (e *Engine) Close() error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	e.logger.Debug("closing engine")
	e.closed = true
	if !e.dbConnected {
		return nil
	}
	e.dbConnected = false
	return e.db.Close()
}

// Query runs sqlStr and materializes every returned row into an Arrow
// record. The caller must Release the table. Query errors are returned
// unwrapped so the console can show the database's own message.
func (e *Engine) Query(ctx context.Context, sqlStr string) (*result.ArrowTable, error) {
	db, err := e.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}

	queryID := uuid.NewString()
	logger := e.logger.With(slog.String("query_id", queryID))
	logger.Debug("executing query", slog.String("sql", sqlStr))
	e.record(sqlStr)

	start := time.Now()
	rows, err := db.Query(ctx, sqlStr)
	if err != nil {
		logger.Debug("query failed", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	rec, err := buildRecord(rows, e.alloc, logger)
	if err != nil {
		logger.Debug("query failed", slog.String("error", err.Error()))
		return nil, err
	}
	defer rec.Release()

	logger.Debug("query finished",
		slog.Int64("rows", rec.NumRows()),
		slog.Duration("duration", time.Since(start)))
	return result.FromRecord(rec), nil
}

// Exec runs a statement that returns no rows.
func (e *Engine) Exec(ctx context.Context, sqlStr string) error {
	db, err := e.ensureConnected(ctx)
	if err != nil {
		return err
	}
	e.record(sqlStr)
	return db.Exec(ctx, sqlStr)
}

// Tables lists the tables and views of the connected database.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	db, err := e.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	return db.Tables(ctx)
}

// Describe returns the columns of table.
func (e *Engine) Describe(ctx context.Context, table string) ([]adapter.Column, error) {
	db, err := e.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	return db.Describe(ctx, table)
}

// Import loads the file at path into a table. An empty table name is
// derived from the file name. The table name used is returned.
func (e *Engine) Import(ctx context.Context, path, table string) (string, error) {
	db, err := e.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	if table == "" {
		table = adapter.TableNameFromPath(path)
	}
	if table == "" {
		return "", errors.New("cannot derive a table name from " + path)
	}

	e.logger.Debug("importing file", "path", path, "table", table)
	if err := db.Import(ctx, table, path); err != nil {
		return "", err
	}
	return table, nil
}

// Suggest fetches raw completion candidates for a line prefix. It
// satisfies completion.Fetcher.
func (e *Engine) Suggest(ctx context.Context, prefix string) ([]completion.Suggestion, error) {
	db, err := e.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	return db.Suggest(ctx, prefix)
}

// Completer returns the session's completion engine.
func (e *Engine) Completer() *completion.Engine {
	return e.completer
}

// History returns the statements executed in this session, oldest first.
func (e *Engine) History() []string {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()
	return append([]string(nil), e.history...)
}

func (e *Engine) record(sqlStr string) {
	e.historyMu.Lock()
	e.history = append(e.history, sqlStr)
	e.historyMu.Unlock()
}
