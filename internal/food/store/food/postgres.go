package food

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"nutri/internal/food/models"
	id "nutri/pkg/domain"
	"nutri/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists foods in PostgreSQL. The schema is owned by the
// migrations in internal/platform/postgres.
type PostgresStore struct {
	db    *sql.DB
	names models.NamePolicy
}

// NewPostgres constructs a PostgreSQL-backed food store.
func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	o := buildOptions(opts)
	return &PostgresStore{db: db, names: o.names}
}

func (s *PostgresStore) FindByID(ctx context.Context, foodID id.FoodID) (*models.Food, error) {
	f, err := scanOne(func() (row, error) {
		return scanPostgres(s.db.QueryRowContext(ctx,
			`SELECT `+foodColumns+` FROM foods WHERE id = $1`, foodID.String()))
	})
	if err != nil {
		return nil, fmt.Errorf("find food by id: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Food, error) {
	f, err := scanOne(func() (row, error) {
		return scanPostgres(s.db.QueryRowContext(ctx,
			`SELECT `+foodColumns+` FROM foods WHERE name_key = $1`, s.names.Key(name)))
	})
	if err != nil {
		return nil, fmt.Errorf("find food by name: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]models.Food, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+foodColumns+` FROM foods ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	foods := make([]models.Food, 0)
	for rows.Next() {
		r, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		f, err := r.toModel()
		if err != nil {
			return nil, err
		}
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foods: %w", err)
	}
	return foods, nil
}

func (s *PostgresStore) Save(ctx context.Context, f models.Food) (models.Food, error) {
	m := f.Macros()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foods (id, name, name_key, calories, protein, carbs, fat, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, f.ID().String(), f.Name(), s.names.Key(f.Name()),
		m.Calories, m.Protein, m.Carbs, m.Fat, f.CreatedAt(), f.UpdatedAt())
	if err != nil {
		if isPgUniqueViolation(err) {
			return models.Food{}, fmt.Errorf("save food: %w", sentinel.ErrAlreadyUsed)
		}
		return models.Food{}, fmt.Errorf("save food: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) Update(ctx context.Context, f models.Food) (models.Food, error) {
	m := f.Macros()
	res, err := s.db.ExecContext(ctx, `
		UPDATE foods
		SET name = $2, name_key = $3, calories = $4, protein = $5, carbs = $6, fat = $7, updated_at = $8
		WHERE id = $1
	`, f.ID().String(), f.Name(), s.names.Key(f.Name()),
		m.Calories, m.Protein, m.Carbs, m.Fat, f.UpdatedAt())
	if err != nil {
		if isPgUniqueViolation(err) {
			return models.Food{}, fmt.Errorf("update food: %w", sentinel.ErrAlreadyUsed)
		}
		return models.Food{}, fmt.Errorf("update food: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return models.Food{}, fmt.Errorf("update food: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) Delete(ctx context.Context, foodID id.FoodID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM foods WHERE id = $1`, foodID.String())
	if err != nil {
		return fmt.Errorf("delete food: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete food: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanPostgres(sc scanner) (row, error) {
	var r row
	err := sc.Scan(&r.id, &r.name,
		&r.macros.Calories, &r.macros.Protein, &r.macros.Carbs, &r.macros.Fat,
		&r.createdAt, &r.updatedAt)
	return r, err
}

func isPgUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
