package database

import (
	"strings"
	"testing"
	"time"
)

func TestMigrations_Ordered(t *testing.T) {
	files, err := Migrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"migrations/001_create_provider_audit_log.sql",
		"migrations/002_create_categoria_empresa.sql",
	}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, files[i])
		}
	}
}

func TestConfig_ConnString(t *testing.T) {
	cfg := Config{
		Host: "localhost", Port: 5432, Database: "sri", User: "postgres", Password: "secret",
		SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 2, ConnMaxLifetime: 30 * time.Minute,
	}

	conn := cfg.ConnString()
	for _, part := range []string{"host=localhost", "port=5432", "dbname=sri", "pool_max_conns=10", "pool_max_conn_lifetime=30m0s"} {
		if !strings.Contains(conn, part) {
			t.Errorf("expected %q in %q", part, conn)
		}
	}
}
