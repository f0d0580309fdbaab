package oracle

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadedragon942/dorm/storage"
	"github.com/jadedragon942/dorm/storagetest"
)

func TestDialect(t *testing.T) {
	d, err := storage.Lookup("oracle")
	require.NoError(t, err)

	assert.Equal(t, ":2", d.Placeholder(2))
	assert.Equal(t, `"USERS"`, d.QuoteIdentifier("USERS"))
	assert.Equal(t, "CREATED_AT", d.NormalizeIdentifier("created_at"))
	assert.Equal(t, storage.ReturnNone, d.Returning())
	assert.Empty(t, d.DefaultValues())

	ri, ok := d.(storage.ReturningInto)
	require.True(t, ok)
	var id string
	out, ok := ri.IDOut(&id).(sql.Out)
	require.True(t, ok)
	assert.Same(t, &id, out.Dest)
}

func TestOracleModels(t *testing.T) {
	connStr := os.Getenv("ORACLE_TEST_URL")
	if connStr == "" {
		t.Skip("ORACLE_TEST_URL not set, skipping Oracle tests")
	}

	storagetest.ModelTest(t, storagetest.Fixture{
		Engine:     "oracle",
		Descriptor: connStr,
		CreateUsers: `CREATE TABLE users (
			id NUMBER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			email VARCHAR2(255) NOT NULL UNIQUE,
			password VARCHAR2(255),
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		)`,
		DropUsers: `BEGIN EXECUTE IMMEDIATE 'DROP TABLE users'; EXCEPTION WHEN OTHERS THEN NULL; END;`,
		AddColumn: `ALTER TABLE users ADD nickname VARCHAR2(64)`,
	})
}
