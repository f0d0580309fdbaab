package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadedragon942/dorm/object"
	"github.com/jadedragon942/dorm/orm"
	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storagetest"
)

func TestDialect(t *testing.T) {
	d, err := storage.Lookup("sqlite")
	require.NoError(t, err)

	assert.Equal(t, "?", d.Placeholder(7))
	assert.Equal(t, `"users"`, d.QuoteIdentifier("users"))
	assert.Equal(t, storage.ReturnRow, d.Returning())
	assert.Equal(t, "DEFAULT VALUES", d.DefaultValues())

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", d.Timestamp(ts))
}

func TestOpenAddsBusyTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.db")
	db, err := New().Open(context.Background(), "sqlite://"+path, storage.PoolOptions{MaxConns: 3})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.PingContext(context.Background()))
	var timeout int
	require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
}

func TestMemoryDatabaseIsSharedAcrossPool(t *testing.T) {
	ctx := context.Background()
	mgr := orm.NewManager("sqlite", storage.PoolOptions{MaxConns: 4}, nil)
	defer mgr.Close()

	pool, err := mgr.Connect(ctx, ":memory:")
	require.NoError(t, err)
	_, err = pool.DB.ExecContext(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)`)
	require.NoError(t, err)

	held, err := pool.DB.Conn(ctx)
	require.NoError(t, err)
	defer held.Close()

	rec := object.New()
	rec.SetField("email", "a@b.com")
	users := mgr.Model("users")
	created, err := users.Create(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", created.Fields["email"])

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	var n int
	require.NoError(t, held.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMemoryDatabasesAreIsolated(t *testing.T) {
	ctx := context.Background()
	first, err := New().Open(ctx, ":memory:", storage.PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	defer first.Close()
	second, err := New().Open(ctx, "sqlite://:memory:", storage.PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	defer second.Close()

	_, err = first.ExecContext(ctx, `CREATE TABLE only_here (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, second.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE name = 'only_here'`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSQLiteModels(t *testing.T) {
	storagetest.ModelTest(t, storagetest.Fixture{
		Engine:     "sqlite",
		Descriptor: filepath.Join(t.TempDir(), "models.db"),
		CreateUsers: `CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		DropUsers: `DROP TABLE IF EXISTS users`,
		AddColumn: `ALTER TABLE users ADD COLUMN nickname TEXT`,
	})
}
