package storage

import (
	"testing"

	"github.com/go-sql-driver/mysql"

	"pdfquery/internal/config"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	// idempotent
	if err := Migrate(db, "sqlite"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM session_values`).Scan(&count); err != nil {
		t.Fatalf("query session_values: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}
}

func TestOpenUnknownDatabase(t *testing.T) {
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{}}
	if _, err := Open("sqlite3", cfg); err == nil {
		t.Fatalf("expected error for missing database config")
	}
	cfg.Databases["oracle"] = config.DatabaseConfig{DSN: "x"}
	if _, err := Open("oracle", cfg); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	q := `UPDATE t SET a = ? WHERE b = ? AND c = ?`
	if got := Rebind("sqlite3", q); got != q {
		t.Fatalf("sqlite query changed: %s", got)
	}
	want := `UPDATE t SET a = $1 WHERE b = $2 AND c = $3`
	if got := Rebind("postgres", q); got != want {
		t.Fatalf("rebind mismatch: want %s got %s", want, got)
	}
}

func TestMySQLDSNReportsFoundRows(t *testing.T) {
	dsn, err := mysqlDSN("pdfq:secret@tcp(db:3306)/sessions?parseTime=true")
	if err != nil {
		t.Fatalf("rewrite dsn: %v", err)
	}
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("parse rewritten dsn: %v", err)
	}
	if !parsed.ClientFoundRows {
		t.Fatalf("expected clientFoundRows in %s", dsn)
	}
	if parsed.User != "pdfq" || parsed.Addr != "db:3306" || parsed.DBName != "sessions" || !parsed.ParseTime {
		t.Fatalf("dsn fields lost: %s", dsn)
	}

	if _, err := mysqlDSN("not a dsn"); err == nil {
		t.Fatalf("expected error for malformed dsn")
	}
}
