// Package orm is the public data-access surface: a connection manager owning
// one pool at a time, and table gateways offering CRUD against any table the
// pool's catalog reports.
package orm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jadedragon942/dorm/logging"
	"github.com/jadedragon942/dorm/schema"
	"github.com/jadedragon942/dorm/schema/parser/infoschema"
	"github.com/jadedragon942/dorm/storage"
)

const (
	DefaultMaxConns       = 10
	DefaultIdleTimeout    = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
)

// Pool is one generation of the live connection pool.
type Pool struct {
	ID       uuid.UUID
	DB       *storage.DB
	Dialect  storage.Dialect
	OpenedAt time.Time

	// last ListTables result, used as the table allow-list
	tables atomic.Pointer[[]string]
}

// Tables returns the last table listing, or nil if none was taken.
func (p *Pool) Tables() []string {
	t := p.tables.Load()
	if t == nil {
		return nil
	}
	return *t
}

func (p *Pool) setTables(tables []string) {
	cp := make([]string, len(tables))
	copy(cp, tables)
	p.tables.Store(&cp)
}

// Manager owns at most one live pool. Operations hold the read side of mu
// for their whole duration; Connect and Disconnect take the write side, so
// a pool is never closed under an in-flight operation.
type Manager struct {
	mu   sync.RWMutex
	pool *Pool

	engine         string
	poolOpts       storage.PoolOptions
	connectTimeout time.Duration
	screenValues   bool
	now            func() time.Time
	logger         *zap.Logger
}

// NewManager returns a manager that connects with the named dialect by
// default.
func NewManager(engine string, poolOpts storage.PoolOptions, logger *zap.Logger) *Manager {
	if poolOpts.MaxConns <= 0 {
		poolOpts.MaxConns = DefaultMaxConns
	}
	if poolOpts.IdleTimeout <= 0 {
		poolOpts.IdleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		engine:         engine,
		poolOpts:       poolOpts,
		connectTimeout: DefaultConnectTimeout,
		now:            time.Now,
		logger:         logging.OrNop(logger).Named("orm"),
	}
}

func (m *Manager) WithConnectTimeout(d time.Duration) *Manager {
	if d > 0 {
		m.connectTimeout = d
	}
	return m
}

// WithValueScreening turns on libinjection screening of string payload
// values in Create and Update.
func (m *Manager) WithValueScreening(on bool) *Manager {
	m.screenValues = on
	return m
}

// WithClock replaces the clock used for created_at and updated_at.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Manager) Engine() string { return m.engine }

// Connect opens a pool with the default dialect.
func (m *Manager) Connect(ctx context.Context, descriptor string) (*Pool, error) {
	return m.ConnectEngine(ctx, m.engine, descriptor)
}

// ConnectEngine closes any live pool, then opens and pings a new one using
// the named dialect. On failure no pool is live.
func (m *Manager) ConnectEngine(ctx context.Context, engine, descriptor string) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		old := m.pool
		m.pool = nil
		if err := old.DB.Close(); err != nil {
			m.logger.Warn("Failed to close previous pool",
				zap.String("pool_id", old.ID.String()),
				zap.String("error", logging.SanitizeError(err)))
		} else {
			m.logger.Info("Closed previous pool", zap.String("pool_id", old.ID.String()))
		}
	}

	d, err := storage.Lookup(engine)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Engine: engine, Err: err}
	}

	db, err := d.Open(ctx, descriptor, m.poolOpts)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Engine: engine, Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		m.logger.Warn("Database unreachable",
			zap.String("engine", engine),
			zap.String("descriptor", logging.SanitizeConnectionString(descriptor)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, &ConnectionError{Op: "connect", Engine: engine, Err: err}
	}

	pool := &Pool{
		ID:       uuid.New(),
		DB:       db,
		Dialect:  d,
		OpenedAt: m.now(),
	}
	m.pool = pool

	m.logger.Info("Opened pool",
		zap.String("pool_id", pool.ID.String()),
		zap.String("engine", engine),
		zap.String("descriptor", logging.SanitizeConnectionString(descriptor)),
		zap.Int("max_conns", m.poolOpts.MaxConns),
		zap.Duration("idle_timeout", m.poolOpts.IdleTimeout))

	return pool, nil
}

// Disconnect closes the live pool. It is a no-op when none is live.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool == nil {
		return nil
	}
	old := m.pool
	m.pool = nil

	if err := old.DB.Close(); err != nil {
		return &ConnectionError{Op: "disconnect", Engine: old.Dialect.Name(), Err: err}
	}
	m.logger.Info("Closed pool", zap.String("pool_id", old.ID.String()))
	return nil
}

// CurrentPool returns the live pool, or nil.
func (m *Manager) CurrentPool() *Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

// acquire returns the live pool with the read lock held. The caller must
// call release.
func (m *Manager) acquire() (pool *Pool, release func(), err error) {
	m.mu.RLock()
	if m.pool == nil {
		m.mu.RUnlock()
		return nil, nil, ErrNotConnected
	}
	return m.pool, m.mu.RUnlock, nil
}

// ListTables reads the base tables of the default schema and records them
// as the live pool's table allow-list.
func (m *Manager) ListTables(ctx context.Context) ([]string, error) {
	pool, release, err := m.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return m.listTables(ctx, pool)
}

func (m *Manager) listTables(ctx context.Context, pool *Pool) ([]string, error) {
	tables, err := infoschema.ListTables(ctx, pool.DB, pool.Dialect)
	if err != nil {
		return nil, &QueryError{Op: "listTables", Err: err}
	}
	pool.setTables(tables)
	return tables, nil
}

// tablesFor returns the allow-list, listing tables once if none was taken.
func (m *Manager) tablesFor(ctx context.Context, pool *Pool) ([]string, error) {
	if t := pool.tables.Load(); t != nil {
		return *t, nil
	}
	return m.listTables(ctx, pool)
}

// DescribeTable reads the live column list of name. Unknown tables yield an
// empty slice.
func (m *Manager) DescribeTable(ctx context.Context, name string) ([]schema.ColumnData, error) {
	pool, release, err := m.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	cols, err := infoschema.DescribeTable(ctx, pool.DB, pool.Dialect, name)
	if err != nil {
		return nil, &QueryError{Op: "describeTable", Table: name, Err: err}
	}
	return cols, nil
}

// Snapshot lists every table with its columns and refreshes the allow-list.
func (m *Manager) Snapshot(ctx context.Context) (*schema.Schema, error) {
	pool, release, err := m.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	s, err := infoschema.Snapshot(ctx, pool.DB, pool.Dialect)
	if err != nil {
		return nil, &QueryError{Op: "snapshot", Err: err}
	}
	pool.setTables(s.TableNames())
	return s, nil
}

// Models lists the tables and returns one gateway per table.
func (m *Manager) Models(ctx context.Context) (map[string]*Model, error) {
	tables, err := m.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	models := make(map[string]*Model, len(tables))
	for _, name := range tables {
		models[name] = m.Model(name)
	}
	return models, nil
}

// Model returns a gateway for one table. The table is checked against the
// allow-list when an operation runs.
func (m *Manager) Model(table string) *Model {
	return &Model{Table: table, mgr: m}
}

// Close disconnects, logging rather than returning a close failure.
func (m *Manager) Close() {
	if err := m.Disconnect(context.Background()); err != nil {
		m.logger.Warn("Failed to close pool", zap.String("error", err.Error()))
	}
}
