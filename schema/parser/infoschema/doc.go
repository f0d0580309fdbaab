// Package infoschema reads table and column metadata from a live database's
// system catalog.
//
// The catalog queries come from the storage.Dialect: INFORMATION_SCHEMA views
// for PostgreSQL, CockroachDB, YugabyteDB, MySQL, TiDB and SQL Server,
// sqlite_master and pragma_table_info for SQLite, and user_tables with
// all_tab_columns for Oracle.
//
// Every call re-reads the catalog. Nothing is cached here.
//
// Usage:
//
//	db, err := dialect.Open(ctx, descriptor, storage.PoolOptions{MaxConns: 10})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	parser := infoschema.NewParser(db, dialect)
//	tables, err := parser.ListTables(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, name := range tables {
//		columns, err := parser.DescribeTable(ctx, name)
//		...
//	}
package infoschema
