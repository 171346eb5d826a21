package food

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"nutri/internal/food/models"
	id "nutri/pkg/domain"
	"nutri/pkg/platform/sentinel"
)

// sqliteTimeLayout keeps timestamps sortable as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore persists foods in a SQLite database opened by
// internal/platform/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	names models.NamePolicy
}

// NewSQLite constructs a SQLite-backed food store.
func NewSQLite(db *sql.DB, opts ...Option) *SQLiteStore {
	o := buildOptions(opts)
	return &SQLiteStore{db: db, names: o.names}
}

func (s *SQLiteStore) FindByID(ctx context.Context, foodID id.FoodID) (*models.Food, error) {
	f, err := scanOne(func() (row, error) {
		return scanSQLite(s.db.QueryRowContext(ctx,
			`SELECT `+foodColumns+` FROM foods WHERE id = ?`, foodID.String()))
	})
	if err != nil {
		return nil, fmt.Errorf("finding food by id: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) FindByName(ctx context.Context, name string) (*models.Food, error) {
	f, err := scanOne(func() (row, error) {
		return scanSQLite(s.db.QueryRowContext(ctx,
			`SELECT `+foodColumns+` FROM foods WHERE name_key = ?`, s.names.Key(name)))
	})
	if err != nil {
		return nil, fmt.Errorf("finding food by name: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) FindAll(ctx context.Context) ([]models.Food, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+foodColumns+` FROM foods ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing foods: %w", err)
	}
	defer rows.Close()

	foods := make([]models.Food, 0)
	for rows.Next() {
		r, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning food: %w", err)
		}
		f, err := r.toModel()
		if err != nil {
			return nil, err
		}
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating foods: %w", err)
	}
	return foods, nil
}

func (s *SQLiteStore) Save(ctx context.Context, f models.Food) (models.Food, error) {
	m := f.Macros()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO foods (id, name, name_key, calories, protein, carbs, fat, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID().String(), f.Name(), s.names.Key(f.Name()),
		m.Calories, m.Protein, m.Carbs, m.Fat,
		formatSQLiteTime(f.CreatedAt()), formatSQLiteTime(f.UpdatedAt()),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return models.Food{}, fmt.Errorf("saving food: %w", sentinel.ErrAlreadyUsed)
		}
		return models.Food{}, fmt.Errorf("saving food: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) Update(ctx context.Context, f models.Food) (models.Food, error) {
	m := f.Macros()
	res, err := s.db.ExecContext(ctx,
		`UPDATE foods
		 SET name = ?, name_key = ?, calories = ?, protein = ?, carbs = ?, fat = ?, updated_at = ?
		 WHERE id = ?`,
		f.Name(), s.names.Key(f.Name()),
		m.Calories, m.Protein, m.Carbs, m.Fat,
		formatSQLiteTime(f.UpdatedAt()), f.ID().String(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return models.Food{}, fmt.Errorf("updating food: %w", sentinel.ErrAlreadyUsed)
		}
		return models.Food{}, fmt.Errorf("updating food: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return models.Food{}, fmt.Errorf("updating food: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, foodID id.FoodID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM foods WHERE id = ?`, foodID.String())
	if err != nil {
		return fmt.Errorf("deleting food: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("deleting food: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanSQLite(sc scanner) (row, error) {
	var (
		r                    row
		createdAt, updatedAt string
	)
	err := sc.Scan(&r.id, &r.name,
		&r.macros.Calories, &r.macros.Protein, &r.macros.Carbs, &r.macros.Fat,
		&createdAt, &updatedAt)
	if err != nil {
		return row{}, err
	}
	if r.createdAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return row{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.updatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return row{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return r, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func isSQLiteUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqErr.Error(), "UNIQUE")
	}
	return false
}
