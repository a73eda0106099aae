package seed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/sourcing/internal/db"
	"github.com/Simplici0/sourcing/internal/migrations"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "seed-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	database := openDB(t)

	cfg := Config{
		AdminEmail:    "admin@sourcing.test",
		AdminPassword: "12345",
		AirChannel:    "air-sensitive",
		DomesticFee:   3,
	}

	for i := 0; i < 5; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 2 {
				t.Fatalf("expected 2 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE email = ?`, "admin@sourcing.test", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE id = 1 AND air_channel = ?`, "air-sensitive", 1)

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, "admin@sourcing.test").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("12345")); err != nil {
		t.Fatalf("expected admin hash to match password: %v", err)
	}
}

func TestRun_SkipsAdminWithoutCredentials(t *testing.T) {
	database := openDB(t)

	stats, err := Run(database, Config{})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 1 {
		t.Fatalf("expected only the settings insert, got %d", stats.Inserts)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM users`, nil, 0)
	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE air_channel = ?`, "air-general", 1)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}

func TestRunUpgradesLegacyAdminHash(t *testing.T) {
	database := openDB(t)

	sum := sha256.Sum256([]byte("12345"))
	if _, err := database.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, "admin@sourcing.test", hex.EncodeToString(sum[:])); err != nil {
		t.Fatalf("insert legacy admin: %v", err)
	}

	stats, err := Run(database, Config{AdminEmail: "admin@sourcing.test", AdminPassword: "12345"})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Updates != 1 || stats.Inserts != 1 {
		t.Fatalf("expected 1 update and 1 insert (settings), got %+v", stats)
	}

	var hash string
	if err := database.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, "admin@sourcing.test").Scan(&hash); err != nil {
		t.Fatalf("query admin hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("12345")); err != nil {
		t.Fatalf("expected upgraded bcrypt hash: %v", err)
	}

	stats, err = Run(database, Config{AdminEmail: "admin@sourcing.test", AdminPassword: "12345"})
	if err != nil {
		t.Fatalf("rerun seed: %v", err)
	}
	if stats.Updates != 0 || stats.Inserts != 0 {
		t.Fatalf("expected a no-op rerun, got %+v", stats)
	}
}
