package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/nutricoach/coach-core/internal/coach/model"
)

// Store is the sqlite-backed entity gateway. Search functions return
// (nil, nil) on no match; create functions tolerate benign duplicate-row
// races by re-querying on a uniqueness violation rather than failing the
// turn.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS foods (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        name TEXT NOT NULL,
        serving_size REAL NOT NULL,
        serving_unit TEXT NOT NULL,
        calories REAL NOT NULL,
        protein REAL NOT NULL DEFAULT 0,
        carbs REAL NOT NULL DEFAULT 0,
        fat REAL NOT NULL DEFAULT 0,
        default_variant_id TEXT,
        user_owned INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL,
        UNIQUE(user_id, name COLLATE NOCASE)
    );

    CREATE TABLE IF NOT EXISTS food_variants (
        id TEXT PRIMARY KEY,
        food_id TEXT NOT NULL,
        name TEXT NOT NULL,
        serving_size REAL NOT NULL,
        serving_unit TEXT NOT NULL,
        calories REAL NOT NULL,
        protein REAL NOT NULL DEFAULT 0,
        carbs REAL NOT NULL DEFAULT 0,
        fat REAL NOT NULL DEFAULT 0,
        UNIQUE(food_id, serving_unit COLLATE NOCASE),
        FOREIGN KEY (food_id) REFERENCES foods(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS diary_entries (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        food_id TEXT NOT NULL,
        variant_id TEXT,
        meal_type TEXT NOT NULL,
        quantity REAL NOT NULL,
        unit TEXT NOT NULL,
        entry_date TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        FOREIGN KEY (food_id) REFERENCES foods(id)
    );

    CREATE TABLE IF NOT EXISTS exercises (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        name TEXT NOT NULL,
        calories_per_hour REAL NOT NULL,
        user_owned INTEGER NOT NULL DEFAULT 0,
        UNIQUE(user_id, name COLLATE NOCASE)
    );

    CREATE TABLE IF NOT EXISTS exercise_entries (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        exercise_id TEXT NOT NULL,
        duration_minutes REAL NOT NULL,
        calories_burned REAL NOT NULL,
        entry_date TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        FOREIGN KEY (exercise_id) REFERENCES exercises(id)
    );

    CREATE TABLE IF NOT EXISTS check_ins (
        user_id TEXT NOT NULL,
        day TEXT NOT NULL,
        weight REAL,
        neck REAL,
        waist REAL,
        hips REAL,
        steps REAL,
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (user_id, day)
    );

    CREATE TABLE IF NOT EXISTS custom_categories (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        name TEXT NOT NULL,
        frequency TEXT NOT NULL,
        type TEXT NOT NULL,
        UNIQUE(user_id, name COLLATE NOCASE)
    );

    CREATE TABLE IF NOT EXISTS custom_measurements (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        category_id TEXT NOT NULL,
        value REAL NOT NULL,
        unit TEXT,
        entry_date TEXT NOT NULL,
        recorded_at DATETIME NOT NULL,
        FOREIGN KEY (category_id) REFERENCES custom_categories(id)
    );

    CREATE TABLE IF NOT EXISTS water_entries (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        milliliters REAL NOT NULL,
        entry_date TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_diary_entries_user_date ON diary_entries(user_id, entry_date);
    CREATE INDEX IF NOT EXISTS idx_exercise_entries_user_date ON exercise_entries(user_id, entry_date);
    CREATE INDEX IF NOT EXISTS idx_custom_measurements_user_date ON custom_measurements(user_id, entry_date);
    CREATE INDEX IF NOT EXISTS idx_water_entries_user_date ON water_entries(user_id, entry_date);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// isUniqueViolation detects the benign duplicate-row race two devices can
// produce when they create the same food/variant/category concurrently.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ model.EntityGateway = (*Store)(nil)
