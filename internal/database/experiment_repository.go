// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/database/query"
	"github.com/tomtom215/marquee/internal/experiment"
)

var _ experiment.Repository = (*DB)(nil)

const experimentColumns = `CAST(id AS VARCHAR), name, description, status, traffic_allocation, created_at, updated_at`

const variantColumns = `CAST(id AS VARCHAR), CAST(experiment_id AS VARCHAR), name, weight, config, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExperiment(row rowScanner) (*experiment.Experiment, error) {
	var (
		exp    experiment.Experiment
		status string
	)
	if err := row.Scan(&exp.ID, &exp.Name, &exp.Description, &status, &exp.TrafficAllocation, &exp.CreatedAt, &exp.UpdatedAt); err != nil {
		return nil, err
	}
	exp.Status = experiment.Status(status)
	return &exp, nil
}

func scanVariant(row rowScanner) (*experiment.Variant, error) {
	var (
		v      experiment.Variant
		config sql.NullString
	)
	if err := row.Scan(&v.ID, &v.ExperimentID, &v.Name, &v.Weight, &config, &v.CreatedAt); err != nil {
		return nil, err
	}
	if config.Valid && config.String != "" {
		v.Config = json.RawMessage(config.String)
	}
	return &v, nil
}

// CreateExperiment implements experiment.Repository.
func (db *DB) CreateExperiment(ctx context.Context, exp *experiment.Experiment) (err error) {
	defer db.observe("create_experiment", time.Now(), &err)

	args := query.NewArgs()
	q := `INSERT INTO experiments (id, name, description, status, traffic_allocation, created_at, updated_at)
		VALUES (` + args.UUID(exp.ID) + `, ` + args.Add(exp.Name) + `, ` + args.Add(exp.Description) + `, ` +
		args.Add(string(exp.Status)) + `, ` + args.Add(exp.TrafficAllocation) + `, ` +
		args.Add(exp.CreatedAt.UTC()) + `, ` + args.Add(exp.UpdatedAt.UTC()) + `)`

	if _, err = db.conn.ExecContext(ctx, q, args.Values()...); err != nil {
		if isUniqueViolation(err) {
			return experiment.ErrConflict
		}
		return err
	}
	return nil
}

// GetExperiment implements experiment.Repository.
func (db *DB) GetExperiment(ctx context.Context, id uuid.UUID) (exp *experiment.Experiment, err error) {
	defer db.observe("get_experiment", time.Now(), &err)

	args := query.NewArgs()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE id = `+args.UUID(id), args.Values()...)
	exp, err = scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, experiment.ErrNotFound
	}
	return exp, err
}

// UpdateStatus implements experiment.Repository as a compare-and-set.
func (db *DB) UpdateStatus(ctx context.Context, id uuid.UUID, from, to experiment.Status, at time.Time) (err error) {
	defer db.observe("update_experiment_status", time.Now(), &err)

	args := query.NewArgs()
	q := `UPDATE experiments SET status = ` + args.Add(string(to)) + `, updated_at = ` + args.Add(at.UTC()) + `
		WHERE id = ` + args.UUID(id) + ` AND status = ` + args.Add(string(from))

	res, err := db.conn.ExecContext(ctx, q, args.Values()...)
	if err != nil {
		if isTransactionConflict(err) {
			return experiment.ErrInvalidTransition
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err = db.GetExperiment(ctx, id); err != nil {
		return err
	}
	return experiment.ErrInvalidTransition
}

// CreateVariant implements experiment.Repository. Variants keep their
// creation order through a position column.
func (db *DB) CreateVariant(ctx context.Context, v *experiment.Variant) (err error) {
	defer db.observe("create_variant", time.Now(), &err)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			rollbackQuietly(tx)
		}
	}()

	args := query.NewArgs()
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM experiments WHERE id = `+args.UUID(v.ExperimentID), args.Values()...).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return experiment.ErrNotFound
	}

	args = query.NewArgs()
	var position int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM experiment_variants WHERE experiment_id = `+args.UUID(v.ExperimentID),
		args.Values()...).Scan(&position)
	if err != nil {
		return err
	}

	var config interface{}
	if len(v.Config) > 0 {
		config = string(v.Config)
	}

	args = query.NewArgs()
	q := `INSERT INTO experiment_variants (id, experiment_id, name, weight, config, position, created_at)
		VALUES (` + args.UUID(v.ID) + `, ` + args.UUID(v.ExperimentID) + `, ` + args.Add(v.Name) + `, ` +
		args.Add(v.Weight) + `, ` + args.Add(config) + `, ` + args.Add(position) + `, ` + args.Add(v.CreatedAt.UTC()) + `)`
	if _, err = tx.ExecContext(ctx, q, args.Values()...); err != nil {
		if isUniqueViolation(err) {
			err = experiment.ErrConflict
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		if isUniqueViolation(err) || isTransactionConflict(err) {
			err = experiment.ErrConflict
		}
		return err
	}
	return nil
}

// GetVariant implements experiment.Repository.
func (db *DB) GetVariant(ctx context.Context, id uuid.UUID) (v *experiment.Variant, err error) {
	defer db.observe("get_variant", time.Now(), &err)

	args := query.NewArgs()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+variantColumns+` FROM experiment_variants WHERE id = `+args.UUID(id), args.Values()...)
	v, err = scanVariant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, experiment.ErrNotFound
	}
	return v, err
}

// ListVariants implements experiment.Repository.
func (db *DB) ListVariants(ctx context.Context, experimentID uuid.UUID) (out []experiment.Variant, err error) {
	defer db.observe("list_variants", time.Now(), &err)

	args := query.NewArgs()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+variantColumns+` FROM experiment_variants WHERE experiment_id = `+args.UUID(experimentID)+
			` ORDER BY position, id`, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// GetAssignment implements experiment.Repository.
func (db *DB) GetAssignment(ctx context.Context, experimentID, userID uuid.UUID) (a *experiment.Assignment, err error) {
	defer db.observe("get_assignment", time.Now(), &err)

	args := query.NewArgs()
	q := `SELECT CAST(experiment_id AS VARCHAR), CAST(user_id AS VARCHAR), CAST(variant_id AS VARCHAR), assigned_at
		FROM experiment_assignments
		WHERE experiment_id = ` + args.UUID(experimentID) + ` AND user_id = ` + args.UUID(userID)

	var out experiment.Assignment
	err = db.conn.QueryRowContext(ctx, q, args.Values()...).
		Scan(&out.ExperimentID, &out.UserID, &out.VariantID, &out.AssignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, experiment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InsertAssignment implements experiment.Repository with an insert-if-absent.
// A DuckDB write conflict means a concurrent insert won.
func (db *DB) InsertAssignment(ctx context.Context, a experiment.Assignment) (inserted bool, err error) {
	defer db.observe("insert_assignment", time.Now(), &err)

	args := query.NewArgs()
	q := `INSERT INTO experiment_assignments (experiment_id, user_id, variant_id, assigned_at)
		VALUES (` + args.UUID(a.ExperimentID) + `, ` + args.UUID(a.UserID) + `, ` + args.UUID(a.VariantID) + `, ` +
		args.Add(a.AssignedAt.UTC()) + `)
		ON CONFLICT (experiment_id, user_id) DO NOTHING`

	res, err := db.conn.ExecContext(ctx, q, args.Values()...)
	if err != nil {
		if isTransactionConflict(err) || isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AppendMetric implements experiment.Repository.
func (db *DB) AppendMetric(ctx context.Context, m experiment.Metric) (err error) {
	defer db.observe("append_metric", time.Now(), &err)

	args := query.NewArgs()
	q := `INSERT INTO experiment_metrics (experiment_id, variant_id, user_id, metric_name, metric_value, recorded_at)
		VALUES (` + args.UUID(m.ExperimentID) + `, ` + args.UUID(m.VariantID) + `, ` + args.UUID(m.UserID) + `, ` +
		args.Add(m.Name) + `, ` + args.Add(m.Value) + `, ` + args.Add(m.RecordedAt.UTC()) + `)`
	_, err = db.conn.ExecContext(ctx, q, args.Values()...)
	return err
}

// AggregateMetrics implements experiment.Repository.
func (db *DB) AggregateMetrics(ctx context.Context, experimentID uuid.UUID) (out map[uuid.UUID]experiment.MetricTotals, err error) {
	defer db.observe("aggregate_metrics", time.Now(), &err)

	args := query.NewArgs()
	expID := args.UUID(experimentID)
	exposure := args.Add(experiment.MetricExposure)
	conversion := args.Add(experiment.MetricConversion)
	q := `SELECT CAST(variant_id AS VARCHAR),
			COUNT(*) FILTER (WHERE metric_name = ` + exposure + `),
			COUNT(*) FILTER (WHERE metric_name = ` + conversion + `),
			COUNT(*) FILTER (WHERE metric_name <> ` + exposure + `),
			COALESCE(SUM(metric_value) FILTER (WHERE metric_name <> ` + exposure + `), 0)
		FROM experiment_metrics
		WHERE experiment_id = ` + expID + `
		GROUP BY variant_id`

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	out = make(map[uuid.UUID]experiment.MetricTotals)
	for rows.Next() {
		var (
			id uuid.UUID
			t  experiment.MetricTotals
		)
		if err := rows.Scan(&id, &t.Exposures, &t.Conversions, &t.OutcomeCount, &t.OutcomeSum); err != nil {
			return nil, err
		}
		out[id] = t
	}
	return out, rows.Err()
}
