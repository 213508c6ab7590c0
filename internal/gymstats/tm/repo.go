package tm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/gymstats/routines"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Create appends the ledger row and moves the exercise TM to its post value
// in one transaction.
func (r *Repo) Create(ctx context.Context, adj Adjustment) (_ *Adjustment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.tm.create")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(
		attribute.String("routine.id", adj.RoutineID),
		attribute.String("exercise.id", adj.ExerciseID),
	)

	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("rollback: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO tm_adjustment (
			id, routine_id, exercise_id, week_number, delta_kg, pre_tm_kg, post_tm_kg, reason, style, source, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		adj.ID, adj.RoutineID, adj.ExerciseID, adj.WeekNumber,
		adj.DeltaKg, adj.PreTMKg, adj.PostTMKg, adj.Reason,
		string(adj.Style), adj.Source, adj.CreatedAt,
	); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE routine_exercise
		SET program_tm_kg = $3, program_last_adjusted_week = $4
		WHERE routine_id = $1 AND exercise_id = $2
	`, adj.RoutineID, adj.ExerciseID, adj.PostTMKg, adj.WeekNumber)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		err = routines.ErrExerciseNotFound
		return nil, err
	}

	return &adj, nil
}

// List returns the ledger of the routine, newest first. An empty exerciseID
// lists every exercise.
func (r *Repo) List(ctx context.Context, routineID, exerciseID string) (_ []Adjustment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.tm.list")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", routineID))

	query := `
		SELECT id, routine_id, exercise_id, week_number, delta_kg, pre_tm_kg, post_tm_kg,
		       COALESCE(reason, ''), style, source, created_at
		FROM tm_adjustment
		WHERE routine_id = $1
	`
	args := []any{routineID}
	if exerciseID != "" {
		query += ` AND exercise_id = $2`
		args = append(args, exerciseID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	adjustments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Adjustment, error) {
		var (
			a     Adjustment
			style string
		)
		err := row.Scan(
			&a.ID, &a.RoutineID, &a.ExerciseID, &a.WeekNumber,
			&a.DeltaKg, &a.PreTMKg, &a.PostTMKg,
			&a.Reason, &style, &a.Source, &a.CreatedAt,
		)
		a.Style = program.Style(style)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect tm adjustments: %w", err)
	}
	return adjustments, nil
}
