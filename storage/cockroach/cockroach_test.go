package cockroach

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storagetest"
)

func TestDialect(t *testing.T) {
	d, err := storage.Lookup("cockroach")
	require.NoError(t, err)

	assert.Equal(t, "$3", d.Placeholder(3))
	assert.Equal(t, `"users"`, d.QuoteIdentifier("users"))
	assert.Equal(t, storage.ReturnRow, d.Returning())
	assert.IsType(t, time.Time{}, d.Timestamp(time.Now()))
}

func TestOpenRejectsMalformedDescriptor(t *testing.T) {
	_, err := New().Open(context.Background(), "postgres://host:notaport/db", storage.PoolOptions{})
	assert.Error(t, err)
}

func TestCockroachDBModels(t *testing.T) {
	connStr := os.Getenv("COCKROACH_TEST_URL")
	if connStr == "" {
		t.Skip("COCKROACH_TEST_URL not set, skipping CockroachDB tests")
	}

	storagetest.ModelTest(t, storagetest.Fixture{
		Engine:     "cockroach",
		Descriptor: connStr,
		CreateUsers: `CREATE TABLE users (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			email STRING NOT NULL UNIQUE,
			password STRING,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)`,
		DropUsers: `DROP TABLE IF EXISTS users`,
		AddColumn: `ALTER TABLE users ADD COLUMN nickname STRING`,
	})
}
