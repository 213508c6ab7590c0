package routines

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymprogram/internal/gymstats/program"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
	"github.com/2beens/gymprogram/pkg"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Create stores a routine with its exercises. Routine authoring itself lives
// in another service, this is used to seed data.
func (r *Repo) Create(ctx context.Context, routine Routine) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.create")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if routine.ID == "" {
		routine.ID = uuid.NewString()
	}
	if routine.CreatedAt.IsZero() {
		routine.CreatedAt = time.Now().UTC()
	}
	if routine.ProgramStartWeek == 0 {
		routine.ProgramStartWeek = 1
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

	snapshot, err := marshalSnapshot(routine.ProgramSnapshot)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO routine (id, user_id, name, program_with_deloads, program_start_week, program_start_date, program_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		routine.ID, routine.UserID, routine.Name,
		routine.ProgramWithDeloads, routine.ProgramStartWeek, routine.ProgramStartDate,
		snapshot, routine.CreatedAt,
	); err != nil {
		return nil, err
	}

	for i := range routine.Exercises {
		ex := &routine.Exercises[i]
		if ex.ID == "" {
			ex.ID = uuid.NewString()
		}
		if ex.ProgressionScheme == "" {
			ex.ProgressionScheme = program.SchemeNone
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO routine_exercise (
				id, routine_id, exercise_id, exercise_name, position, progression_scheme,
				program_style, program_tm_kg, program_rounding_kg, program_last_adjusted_week
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			ex.ID, routine.ID, ex.ExerciseID, ex.ExerciseName, ex.Position, ex.ProgressionScheme,
			nullableStyle(ex.ProgramStyle), ex.ProgramTMKg, ex.ProgramRoundingKg, ex.ProgramLastAdjustedWeek,
		); err != nil {
			return nil, err
		}
	}

	return &routine, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.get")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", id))

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return nil, ErrRoutineNotFound
	}

	routine := &Routine{}
	var snapshot []byte
	err = r.db.QueryRow(ctx, `
		SELECT id, user_id, name, program_with_deloads, program_start_week, program_start_date, program_snapshot, created_at
		FROM routine
		WHERE id = $1
	`, id).Scan(
		&routine.ID, &routine.UserID, &routine.Name,
		&routine.ProgramWithDeloads, &routine.ProgramStartWeek, &routine.ProgramStartDate,
		&snapshot, &routine.CreatedAt,
	)
	if err != nil {
		if pkg.IsNoRowsError(err) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}

	if len(snapshot) > 0 {
		routine.ProgramSnapshot = &program.Snapshot{}
		if err := json.Unmarshal(snapshot, routine.ProgramSnapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot of routine %s: %w", id, err)
		}
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, exercise_id, exercise_name, position, progression_scheme,
		       program_style, program_tm_kg, program_rounding_kg, program_last_adjusted_week
		FROM routine_exercise
		WHERE routine_id = $1
		ORDER BY position, exercise_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routine.Exercises = make([]RoutineExercise, 0)
	for rows.Next() {
		var (
			ex    RoutineExercise
			style *string
		)
		if err := rows.Scan(
			&ex.ID, &ex.ExerciseID, &ex.ExerciseName, &ex.Position, &ex.ProgressionScheme,
			&style, &ex.ProgramTMKg, &ex.ProgramRoundingKg, &ex.ProgramLastAdjustedWeek,
		); err != nil {
			return nil, err
		}
		if style != nil {
			ex.ProgramStyle = program.Style(*style)
		}
		routine.Exercises = append(routine.Exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return routine, nil
}

// EnableProgram stores the program setup. The snapshot column is only
// written when it is still empty, a pinned snapshot is never replaced.
func (r *Repo) EnableProgram(ctx context.Context, id string, update ProgramUpdate) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.enableprogram")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", id))

	snapshot, err := marshalSnapshot(update.Snapshot)
	if err != nil {
		return err
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE routine
			SET program_with_deloads = $2,
			    program_start_week = $3,
			    program_start_date = $4,
			    program_snapshot = COALESCE(program_snapshot, $5)
			WHERE id = $1
		`, id, update.WithDeloads, update.StartWeek, update.StartDate, snapshot)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrRoutineNotFound
		}

		for _, ex := range update.Exercises {
			tag, err := tx.Exec(ctx, `
				UPDATE routine_exercise
				SET progression_scheme = $3,
				    program_style = $4,
				    program_tm_kg = $5,
				    program_rounding_kg = $6
				WHERE routine_id = $1 AND exercise_id = $2
			`, id, ex.ExerciseID, program.SchemeProgrammedRtF, string(ex.Style), ex.TMKg, nullablePositive(ex.RoundingKg))
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s", ErrExerciseNotFound, ex.ExerciseID)
			}
		}
		return nil
	})
	return err
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("routine.id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM routine WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoutineNotFound
	}
	return nil
}

func marshalSnapshot(s *program.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

func nullableStyle(s program.Style) *string {
	if s == "" {
		return nil
	}
	str := string(s)
	return &str
}

func nullablePositive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
