package postgres

import "testing"

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@localhost:5432/quiz?sslmode=disable", "pgx5://u:p@localhost:5432/quiz?sslmode=disable"},
		{"postgresql://localhost/quiz", "pgx5://localhost/quiz"},
		{"pgx5://localhost/quiz", "pgx5://localhost/quiz"},
	}

	for _, tt := range tests {
		if got := migrationURL(tt.dsn); got != tt.want {
			t.Errorf("migrationURL(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{"migrations/000001_init.up.sql", "migrations/000001_init.down.sql"} {
		b, err := migrationsFS.ReadFile(name)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if len(b) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
