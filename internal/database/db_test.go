package database

import (
	"context"
	"io/fs"
	"strings"
	"testing"
)

func TestConnect_Validation(t *testing.T) {
	if _, err := Connect(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}

	if _, err := Connect(context.Background(), "invalid-dsn"); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}

func TestMigrationURL(t *testing.T) {
	tests := map[string]struct {
		dsn     string
		want    string
		wantErr bool
	}{
		"postgres scheme":   {dsn: "postgres://crm:secret@db:5432/crm?sslmode=disable", want: "pgx5://crm:secret@db:5432/crm?sslmode=disable"},
		"postgresql scheme": {dsn: "postgresql://db/crm", want: "pgx5://db/crm"},
		"already pgx5":      {dsn: "pgx5://db/crm", want: "pgx5://db/crm"},
		"empty":             {dsn: " ", wantErr: true},
		"mysql":             {dsn: "mysql://db/crm", wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := migrationURL(tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatalf("expected at least one migration")
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("migration %s has no down file", version)
		}
	}
}

func TestInitialMigrationDeclaresLeadTrigger(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(data)
	for _, want := range []string{"pg_notify('lead_changes'", "CHECK (balance >= 0)", "leads_user_company_key"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected initial migration to contain %q", want)
		}
	}
}
