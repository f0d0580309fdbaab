package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jadedragon942/dorm/logging"
	"github.com/jadedragon942/dorm/object"
	"github.com/jadedragon942/dorm/query"
	"github.com/jadedragon942/dorm/schema/parser/infoschema"
	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storage/common"
)

// Model is the CRUD gateway for one table. Its column list is read from the
// catalog on first use and kept until the pool is replaced, so a column
// added while the same pool is live is not seen.
type Model struct {
	Table string

	mgr     *Manager
	columns atomic.Pointer[columnCache]
}

type columnCache struct {
	poolID  uuid.UUID
	columns []string
}

// Columns returns the cached column names, filling the cache if needed.
func (md *Model) Columns(ctx context.Context) ([]string, error) {
	pool, release, err := md.mgr.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	cols, err := md.knownColumns(ctx, pool)
	if err != nil {
		return nil, &QueryError{Op: "describeTable", Table: md.Table, Err: err}
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// knownColumns may race with another first use; both fetch and the last
// store wins.
func (md *Model) knownColumns(ctx context.Context, pool *Pool) ([]string, error) {
	if c := md.columns.Load(); c != nil && c.poolID == pool.ID {
		return c.columns, nil
	}
	described, err := infoschema.DescribeTable(ctx, pool.DB, pool.Dialect, md.Table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(described))
	for i, c := range described {
		names[i] = c.Name
	}
	md.columns.Store(&columnCache{poolID: pool.ID, columns: names})
	return names, nil
}

// prepare runs the steps shared by every operation: fill the column cache and
// build a query builder over the table allow-list.
func (md *Model) prepare(ctx context.Context, pool *Pool) (*query.Builder, []string, error) {
	cols, err := md.knownColumns(ctx, pool)
	if err != nil {
		return nil, nil, err
	}
	tables, err := md.mgr.tablesFor(ctx, pool)
	if err != nil {
		return nil, nil, err
	}
	b := query.NewBuilder(pool.Dialect, tables)
	b.Now = md.mgr.now
	return b, cols, nil
}

func (md *Model) FindAll(ctx context.Context) ([]*object.Object, error) {
	const op = "findAll"
	pool, release, err := md.mgr.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	b, _, err := md.prepare(ctx, pool)
	if err != nil {
		return nil, md.fail(op, err)
	}
	stmt, err := b.SelectAll(md.Table)
	if err != nil {
		return nil, md.fail(op, err)
	}
	rows, err := md.query(ctx, pool.DB, op, stmt.SQL, stmt.Args)
	if err != nil {
		return nil, md.fail(op, err)
	}
	objs, err := common.ScanAll(rows, md.Table)
	if err != nil {
		return nil, md.fail(op, err)
	}
	return objs, nil
}

// FindByID returns the row with the given id, or nil when there is none.
func (md *Model) FindByID(ctx context.Context, id any) (*object.Object, error) {
	const op = "findById"
	pool, release, err := md.mgr.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	b, _, err := md.prepare(ctx, pool)
	if err != nil {
		return nil, md.fail(op, err)
	}
	obj, err := md.selectByID(ctx, pool.DB, b, id)
	if err != nil {
		return nil, md.fail(op, err)
	}
	return obj, nil
}

// Create inserts rec and returns the stored row, including columns the
// database filled in.
func (md *Model) Create(ctx context.Context, rec *object.Object) (*object.Object, error) {
	const op = "create"
	pool, release, err := md.mgr.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := md.screen(rec); err != nil {
		return nil, md.fail(op, err)
	}
	b, cols, err := md.prepare(ctx, pool)
	if err != nil {
		return nil, md.fail(op, err)
	}
	stmt, err := b.Insert(md.Table, rec, cols)
	if err != nil {
		return nil, md.fail(op, err)
	}

	if pool.Dialect.Returning() != storage.ReturnNone {
		obj, err := md.queryOne(ctx, pool.DB, op, stmt)
		if err != nil {
			return nil, md.fail(op, err)
		}
		return obj, nil
	}

	var obj *object.Object
	err = md.inTx(ctx, pool, func(tx *sql.Tx) error {
		id, err := md.insertReturningID(ctx, tx, pool.Dialect, stmt)
		if err != nil {
			return err
		}
		obj, err = md.selectByID(ctx, tx, b, id)
		return err
	})
	if err != nil {
		return nil, md.fail(op, err)
	}
	return obj, nil
}

// Update writes rec to the row with the given id and returns the updated
// row, or nil without writing when there is no such row. A record with no
// writable columns fails with query.ErrEmptyRecord only when the row exists.
func (md *Model) Update(ctx context.Context, id any, rec *object.Object) (*object.Object, error) {
	const op = "update"
	pool, release, err := md.mgr.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := md.screen(rec); err != nil {
		return nil, md.fail(op, err)
	}
	b, cols, err := md.prepare(ctx, pool)
	if err != nil {
		return nil, md.fail(op, err)
	}
	stmt, err := b.Update(md.Table, id, rec, cols)
	if errors.Is(err, query.ErrEmptyRecord) {
		// nothing to write: a missing row is still absent
		existing, findErr := md.selectByID(ctx, pool.DB, b, id)
		if findErr != nil {
			return nil, md.fail(op, findErr)
		}
		if existing == nil {
			return nil, nil
		}
	}
	if err != nil {
		return nil, md.fail(op, err)
	}

	if pool.Dialect.Returning() != storage.ReturnNone {
		obj, err := md.queryOne(ctx, pool.DB, op, stmt)
		if err != nil {
			return nil, md.fail(op, err)
		}
		return obj, nil
	}

	var obj *object.Object
	err = md.inTx(ctx, pool, func(tx *sql.Tx) error {
		existing, err := md.selectByID(ctx, tx, b, id)
		if err != nil || existing == nil {
			return err
		}
		if _, err := md.exec(ctx, tx, op, stmt.SQL, stmt.Args); err != nil {
			return err
		}
		obj, err = md.selectByID(ctx, tx, b, id)
		return err
	})
	if err != nil {
		return nil, md.fail(op, err)
	}
	return obj, nil
}

// Delete removes the row with the given id and returns its prior values, or
// nil when there is no such row.
func (md *Model) Delete(ctx context.Context, id any) (*object.Object, error) {
	const op = "delete"
	pool, release, err := md.mgr.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	b, _, err := md.prepare(ctx, pool)
	if err != nil {
		return nil, md.fail(op, err)
	}
	stmt, err := b.Delete(md.Table, id)
	if err != nil {
		return nil, md.fail(op, err)
	}

	if pool.Dialect.Returning() != storage.ReturnNone {
		obj, err := md.queryOne(ctx, pool.DB, op, stmt)
		if err != nil {
			return nil, md.fail(op, err)
		}
		return obj, nil
	}

	var prior *object.Object
	err = md.inTx(ctx, pool, func(tx *sql.Tx) error {
		var err error
		prior, err = md.selectByID(ctx, tx, b, id)
		if err != nil || prior == nil {
			return err
		}
		_, err = md.exec(ctx, tx, op, stmt.SQL, stmt.Args)
		return err
	})
	if err != nil {
		return nil, md.fail(op, err)
	}
	return prior, nil
}

func (md *Model) selectByID(ctx context.Context, q common.Querier, b *query.Builder, id any) (*object.Object, error) {
	stmt, err := b.SelectByID(md.Table, id)
	if err != nil {
		return nil, err
	}
	rows, err := md.query(ctx, q, "findById", stmt.SQL, stmt.Args)
	if err != nil {
		return nil, err
	}
	return common.ScanOne(rows, md.Table)
}

func (md *Model) queryOne(ctx context.Context, q common.Querier, op string, stmt query.Statement) (*object.Object, error) {
	rows, err := md.query(ctx, q, op, stmt.SQL, stmt.Args)
	if err != nil {
		return nil, err
	}
	return common.ScanOne(rows, md.Table)
}

// insertReturningID runs an insert on a dialect without row return and
// reports the generated id.
func (md *Model) insertReturningID(ctx context.Context, tx *sql.Tx, d storage.Dialect, stmt query.Statement) (any, error) {
	if ri, ok := d.(storage.ReturningInto); ok && stmt.ReturnsID {
		var id string
		args := append(stmt.Args, ri.IDOut(&id))
		if _, err := md.exec(ctx, tx, "create", stmt.SQL, args); err != nil {
			return nil, err
		}
		return id, nil
	}

	res, err := md.exec(ctx, tx, "create", stmt.SQL, stmt.Args)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read generated id: %w", err)
	}
	return id, nil
}

func (md *Model) inTx(ctx context.Context, pool *Pool, fn func(tx *sql.Tx) error) error {
	tx, err := pool.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			md.mgr.logger.Warn("Rollback failed",
				zap.String("table", md.Table),
				zap.String("error", logging.SanitizeError(rbErr)))
		}
		return err
	}
	return tx.Commit()
}

func (md *Model) query(ctx context.Context, q common.Querier, op, sqlText string, args []any) (*sql.Rows, error) {
	md.logStatement(op, sqlText, args)
	return q.QueryContext(ctx, sqlText, args...)
}

func (md *Model) exec(ctx context.Context, q common.Querier, op, sqlText string, args []any) (sql.Result, error) {
	md.logStatement(op, sqlText, args)
	return q.ExecContext(ctx, sqlText, args...)
}

func (md *Model) logStatement(op, sqlText string, args []any) {
	md.mgr.logger.Debug("Executing statement",
		zap.String("table", md.Table),
		zap.String("op", op),
		zap.String("sql", logging.SanitizeQuery(sqlText)),
		zap.Int("args", len(args)))
}

// screen rejects string values that libinjection flags, when enabled.
func (md *Model) screen(rec *object.Object) error {
	if !md.mgr.screenValues || rec == nil {
		return nil
	}
	for _, key := range rec.Keys() {
		s, ok := rec.Fields[key].(string)
		if !ok {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(s); isSQLi {
			md.mgr.logger.Warn("Rejected suspicious value",
				zap.String("table", md.Table),
				zap.String("column", key),
				zap.String("fingerprint", string(fingerprint)))
			return fmt.Errorf("%w: column %q", ErrSuspiciousValue, key)
		}
	}
	return nil
}

func (md *Model) fail(op string, err error) error {
	return &QueryError{Op: op, Table: md.Table, Err: err}
}
