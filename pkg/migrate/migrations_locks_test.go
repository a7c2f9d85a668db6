package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNightLockMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_night_locks.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS night_locks",
		"CREATE UNIQUE INDEX IF NOT EXISTS night_locks_listing_night_key ON night_locks (listing_id, night)",
		"DROP TABLE IF EXISTS night_locks",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("night lock migration missing %q", check)
		}
	}
}

func TestSlotLockMigrationEnforcesCapacity(t *testing.T) {
	content := readMigration(t, "*_create_slot_locks.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS slot_locks",
		"CHECK (occupant_count >= 0)",
		"CHECK (capacity = 0 OR occupant_count <= capacity)",
		"slot_locks_listing_slot_key ON slot_locks (listing_id, slot_date, slot_time)",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("slot lock migration missing %q", check)
		}
	}
}

func TestBookingsMigrationFreezesTotals(t *testing.T) {
	content := readMigration(t, "*_create_bookings.sql")

	checks := []string{
		"CHECK (subtotal_cents <= raw_subtotal_cents)",
		"CHECK (total_cents = subtotal_cents + service_fee_cents)",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("bookings migration missing %q", check)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
