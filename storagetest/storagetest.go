// Package storagetest holds the conformance suite every dialect runs against
// a live database, plus container helpers for it.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/jadedragon942/dorm/object"
	"github.com/jadedragon942/dorm/orm"
	"github.com/jadedragon942/dorm/query"
	"github.com/jadedragon942/dorm/storage"
)

// Fixture describes how to run the suite on one engine. CreateUsers must
// create users(id, email, password, created_at, updated_at) with a generated
// integer id and a unique email.
type Fixture struct {
	Engine      string
	Descriptor  string
	CreateUsers string
	DropUsers   string
	// AddColumn adds a nickname column to users.
	AddColumn string
}

const missingID = int64(987654321)

// ModelTest runs the gateway scenario against f.
func ModelTest(t *testing.T, f Fixture) {
	ctx := context.Background()

	mgr := orm.NewManager(f.Engine, storage.PoolOptions{MaxConns: 4}, zaptest.NewLogger(t))
	pool, err := mgr.Connect(ctx, f.Descriptor)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer mgr.Close()

	if _, err := pool.DB.ExecContext(ctx, f.DropUsers); err != nil {
		t.Fatalf("failed to drop users: %v", err)
	}
	if _, err := pool.DB.ExecContext(ctx, f.CreateUsers); err != nil {
		t.Fatalf("failed to create users: %v", err)
	}
	defer func() {
		if p := mgr.CurrentPool(); p != nil {
			p.DB.ExecContext(context.Background(), f.DropUsers)
		}
	}()

	d := pool.Dialect
	col := d.NormalizeIdentifier
	table := col("users")

	t.Run("DescribeTables", func(t *testing.T) {
		tables, err := mgr.ListTables(ctx)
		if err != nil {
			t.Fatalf("failed to list tables: %v", err)
		}
		found := false
		for _, name := range tables {
			cols, err := mgr.DescribeTable(ctx, name)
			if err != nil {
				t.Fatalf("failed to describe %s: %v", name, err)
			}
			if len(cols) == 0 {
				t.Errorf("expected columns for listed table %s", name)
			}
			if name == table {
				found = true
				if len(cols) != 5 {
					t.Errorf("expected 5 columns on users, got %d: %v", len(cols), cols)
				}
			}
		}
		if !found {
			t.Fatalf("users missing from %v", tables)
		}

		cols, err := mgr.DescribeTable(ctx, col("no_such_table"))
		if err != nil || len(cols) != 0 {
			t.Errorf("expected empty description for unknown table, got %v, %v", cols, err)
		}
	})

	models, err := mgr.Models(ctx)
	if err != nil {
		t.Fatalf("failed to build models: %v", err)
	}
	users, ok := models[table]
	if !ok {
		t.Fatalf("no model for %s", table)
	}

	t.Run("Scenario", func(t *testing.T) {
		rec := object.New()
		rec.SetField(col("email"), "a@b.com")
		rec.SetField(col("password"), "p")

		created, err := users.Create(ctx, rec)
		if err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		id, ok := created.GetField(col("id"))
		if !ok || id == nil {
			t.Fatalf("expected generated id, got %v", created.Fields)
		}
		if v, _ := created.GetField(col("created_at")); v == nil {
			t.Errorf("expected created_at to be populated, got %v", created.Fields)
		}

		found, err := users.FindByID(ctx, id)
		if err != nil || found == nil {
			t.Fatalf("failed to find created row: %v, %v", found, err)
		}
		assertString(t, found, col("email"), "a@b.com")
		assertString(t, found, col("password"), "p")

		all, err := users.FindAll(ctx)
		if err != nil {
			t.Fatalf("failed to find all: %v", err)
		}
		if !containsID(all, col("id"), id) {
			t.Errorf("findAll does not include id %v", id)
		}

		patch := object.New()
		patch.SetField(col("email"), "c@d.com")
		updated, err := users.Update(ctx, id, patch)
		if err != nil || updated == nil {
			t.Fatalf("failed to update: %v, %v", updated, err)
		}
		assertString(t, updated, col("email"), "c@d.com")
		assertString(t, updated, col("password"), "p")
		if v, _ := updated.GetField(col("updated_at")); v == nil {
			t.Errorf("expected updated_at to be populated, got %v", updated.Fields)
		}

		deleted, err := users.Delete(ctx, id)
		if err != nil || deleted == nil {
			t.Fatalf("failed to delete: %v, %v", deleted, err)
		}
		assertString(t, deleted, col("email"), "c@d.com")

		again, err := users.Delete(ctx, id)
		if err != nil || again != nil {
			t.Errorf("second delete should be absent, got %v, %v", again, err)
		}
		gone, err := users.FindByID(ctx, id)
		if err != nil || gone != nil {
			t.Errorf("deleted row still found: %v, %v", gone, err)
		}
	})

	t.Run("UpdateMissingRow", func(t *testing.T) {
		before, err := users.FindAll(ctx)
		if err != nil {
			t.Fatalf("failed to find all: %v", err)
		}

		patch := object.New()
		patch.SetField(col("email"), "ghost@b.com")
		updated, err := users.Update(ctx, missingID, patch)
		if err != nil || updated != nil {
			t.Fatalf("update of missing row should be absent, got %v, %v", updated, err)
		}

		after, err := users.FindAll(ctx)
		if err != nil {
			t.Fatalf("failed to find all: %v", err)
		}
		if len(after) != len(before) {
			t.Errorf("update of missing row changed row count: %d -> %d", len(before), len(after))
		}
		for name, empty := range map[string]*object.Object{
			"empty": object.New(),
			"id only": func() *object.Object {
				o := object.New()
				o.SetField(col("id"), missingID)
				return o
			}(),
		} {
			if v, err := users.Update(ctx, missingID, empty); err != nil || v != nil {
				t.Errorf("%s update of missing row should be absent, got %v, %v", name, v, err)
			}
		}
		if v, err := users.FindByID(ctx, missingID); err != nil || v != nil {
			t.Errorf("expected no row %d, got %v, %v", missingID, v, err)
		}
	})

	t.Run("Rejections", func(t *testing.T) {
		bad := object.New()
		bad.SetField(col("email"), "x@y.com")
		bad.SetField("no_such_column", 1)
		_, err := users.Create(ctx, bad)
		assertQueryError(t, err, query.ErrUnknownColumn)

		_, err = mgr.Model(col("no_such_table")).FindAll(ctx)
		assertQueryError(t, err, query.ErrUnknownTable)

		rec := object.New()
		rec.SetField(col("email"), "dup@b.com")
		if _, err := users.Create(ctx, rec); err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		_, err = users.Create(ctx, rec)
		var qe *orm.QueryError
		if !errors.As(err, &qe) {
			t.Errorf("expected QueryError for duplicate email, got %v", err)
		}
	})

	t.Run("ConcurrentCreates", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec := object.New()
				rec.SetField(col("email"), fmt.Sprintf("user%d@b.com", i))
				if _, err := users.Create(ctx, rec); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent create failed: %v", err)
		}
	})

	t.Run("StaleColumnCache", func(t *testing.T) {
		if _, err := users.Columns(ctx); err != nil {
			t.Fatalf("failed to load columns: %v", err)
		}
		if _, err := mgr.CurrentPool().DB.ExecContext(ctx, f.AddColumn); err != nil {
			t.Fatalf("failed to add column: %v", err)
		}

		rec := object.New()
		rec.SetField(col("email"), "nick@b.com")
		rec.SetField(col("nickname"), "nick")

		_, err := users.Create(ctx, rec)
		assertQueryError(t, err, query.ErrUnknownColumn)

		fresh := mgr.Model(table)
		created, err := fresh.Create(ctx, rec)
		if err != nil {
			t.Fatalf("fresh model should see new column: %v", err)
		}
		assertString(t, created, col("nickname"), "nick")
	})

	t.Run("ReconnectRefreshesCache", func(t *testing.T) {
		if _, err := mgr.Connect(ctx, f.Descriptor); err != nil {
			t.Fatalf("failed to reconnect: %v", err)
		}
		rec := object.New()
		rec.SetField(col("email"), "after@b.com")
		rec.SetField(col("nickname"), "later")
		if _, err := users.Create(ctx, rec); err != nil {
			t.Fatalf("old model should refresh after reconnect: %v", err)
		}
	})

	t.Run("ReconnectWhileBusy", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 64)
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 5; j++ {
					if _, err := users.FindAll(ctx); err != nil {
						errs <- err
					}
				}
			}()
		}
		for i := 0; i < 2; i++ {
			if _, err := mgr.Connect(ctx, f.Descriptor); err != nil {
				t.Fatalf("failed to reconnect: %v", err)
			}
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("operation failed across reconnect: %v", err)
		}
	})

	t.Run("Disconnected", func(t *testing.T) {
		if _, err := mgr.CurrentPool().DB.ExecContext(ctx, f.DropUsers); err != nil {
			t.Fatalf("failed to drop users: %v", err)
		}
		if err := mgr.Disconnect(ctx); err != nil {
			t.Fatalf("failed to disconnect: %v", err)
		}
		if err := mgr.Disconnect(ctx); err != nil {
			t.Errorf("second disconnect should be a no-op, got %v", err)
		}
		if mgr.CurrentPool() != nil {
			t.Errorf("expected no pool after disconnect")
		}

		rec := object.New()
		rec.SetField(col("email"), "z@b.com")
		checks := map[string]error{}
		_, checks["findAll"] = users.FindAll(ctx)
		_, checks["findById"] = users.FindByID(ctx, 1)
		_, checks["create"] = users.Create(ctx, rec)
		_, checks["update"] = users.Update(ctx, 1, rec)
		_, checks["delete"] = users.Delete(ctx, 1)
		_, checks["columns"] = users.Columns(ctx)
		_, checks["listTables"] = mgr.ListTables(ctx)
		_, checks["describeTable"] = mgr.DescribeTable(ctx, table)
		for op, err := range checks {
			if !errors.Is(err, orm.ErrNotConnected) {
				t.Errorf("%s: expected ErrNotConnected, got %v", op, err)
			}
		}
	})
}

func assertString(t *testing.T, obj *object.Object, field, want string) {
	t.Helper()
	got, ok := obj.GetString(field)
	if !ok || got != want {
		t.Errorf("expected %s = %q, got %v", field, want, obj.Fields[field])
	}
}

func assertQueryError(t *testing.T, err, target error) {
	t.Helper()
	var qe *orm.QueryError
	if !errors.As(err, &qe) {
		t.Errorf("expected QueryError, got %v", err)
		return
	}
	if !errors.Is(err, target) {
		t.Errorf("expected %v, got %v", target, err)
	}
}

func containsID(objs []*object.Object, idCol string, id any) bool {
	want := fmt.Sprint(id)
	for _, o := range objs {
		if v, ok := o.GetField(idCol); ok && fmt.Sprint(v) == want {
			return true
		}
	}
	return false
}
