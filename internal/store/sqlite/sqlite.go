package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"carbonlens/internal/model"
	"carbonlens/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) UpsertObservations(ctx context.Context, observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO series_observations (
			variable, period_type, period, value, ingested_at
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(variable, period_type, period)
		DO UPDATE SET
			value = excluded.value,
			ingested_at = excluded.ingested_at
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range observations {
		observation := observations[i]
		var value any
		if observation.Value != nil {
			value = *observation.Value
		}
		_, err = stmt.ExecContext(
			ctx,
			observation.Variable,
			periodType(observation.Period),
			observation.Period.String(),
			value,
			now,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *Store) ListObservations(ctx context.Context, variable string) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT period, value
		FROM series_observations
		WHERE variable = ?
		ORDER BY period
	`, variable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	observations := make([]model.Observation, 0)
	for rows.Next() {
		var periodText string
		var value sql.NullFloat64
		if err := rows.Scan(&periodText, &value); err != nil {
			return nil, err
		}
		period, err := model.ParsePeriod(periodText)
		if err != nil {
			return nil, fmt.Errorf("sqlite: stored period %q: %w", periodText, err)
		}
		observation := model.Observation{Variable: variable, Period: period}
		if value.Valid {
			observation.Value = model.Float(value.Float64)
		}
		observations = append(observations, observation)
	}
	return observations, rows.Err()
}

func (s *Store) ListVariables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT variable FROM series_observations ORDER BY variable
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variables := make([]string, 0)
	for rows.Next() {
		var variable string
		if err := rows.Scan(&variable); err != nil {
			return nil, err
		}
		variables = append(variables, variable)
	}
	return variables, rows.Err()
}

func (s *Store) UpsertResult(ctx context.Context, record store.ResultRecord) error {
	computedAt := record.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_results (model, frequency, computed_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(model, frequency)
		DO UPDATE SET
			computed_at = excluded.computed_at,
			payload = excluded.payload
	`, record.Model, string(record.Frequency), computedAt.UTC(), string(record.Payload))
	return err
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS series_observations (
			variable TEXT NOT NULL,
			period_type TEXT NOT NULL,
			period TEXT NOT NULL,
			value REAL,
			ingested_at TEXT NOT NULL,
			PRIMARY KEY (variable, period_type, period)
		);`,
		`CREATE TABLE IF NOT EXISTS model_results (
			model TEXT NOT NULL,
			frequency TEXT NOT NULL,
			computed_at TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (model, frequency)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}

func periodType(p model.Period) string {
	if p.IsAnnual() {
		return "Y"
	}
	return "M"
}
