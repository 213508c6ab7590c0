package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

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

// Create stores a new in-progress session. The partial unique index on
// user_id keeps a user at one active session.
func (r *Repo) Create(ctx context.Context, s Session) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.create")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Status = StatusInProgress
	s.UpdatedAt = s.StartedAt

	_, err = r.db.Exec(ctx, `
		INSERT INTO workout_session (id, user_id, routine_id, status, program_week, is_deload_week, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.UserID, s.RoutineID, s.Status, s.ProgramWeek, s.IsDeloadWeek, s.StartedAt, s.UpdatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrActiveSessionExists
		}
		return nil, err
	}
	return &s, nil
}

const selectSession = `
	SELECT id, user_id, routine_id, status, program_week, is_deload_week, started_at, finished_at, updated_at
	FROM workout_session
`

func scanSession(row pgx.Row) (*Session, error) {
	s := &Session{}
	if err := row.Scan(
		&s.ID, &s.UserID, &s.RoutineID, &s.Status, &s.ProgramWeek,
		&s.IsDeloadWeek, &s.StartedAt, &s.FinishedAt, &s.UpdatedAt,
	); err != nil {
		if pkg.IsNoRowsError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.get")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("session.id", id))

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return nil, ErrSessionNotFound
	}
	return scanSession(r.db.QueryRow(ctx, selectSession+` WHERE id = $1`, id))
}

func (r *Repo) Active(ctx context.Context, userID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.active")
	defer tracing.EndSpanWithErrCheck(span, &err)

	return scanSession(r.db.QueryRow(ctx, selectSession+` WHERE user_id = $1 AND status = $2`, userID, StatusInProgress))
}

// Finish stores the set logs and completes the session, as long as it is
// still in progress.
func (r *Repo) Finish(ctx context.Context, id string, sets []SetLog, finishedAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.finish")
	defer tracing.EndSpanWithErrCheck(span, &err)
	span.SetAttributes(attribute.String("session.id", id), attribute.Int("sets", len(sets)))

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE workout_session
			SET status = $2, finished_at = $3, updated_at = $3
			WHERE id = $1 AND status = $4
		`, id, StatusCompleted, finishedAt, StatusInProgress)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrSessionNotActive
		}

		rows := make([][]any, 0, len(sets))
		for _, set := range sets {
			setID := set.ID
			if setID == "" {
				setID = uuid.NewString()
			}
			rows = append(rows, []any{
				setID, id, set.RoutineExerciseID, set.ExerciseID,
				set.SetNumber, set.Reps, set.WeightKg, set.IsAmrap,
			})
		}
		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"workout_set"},
			[]string{"id", "session_id", "routine_exercise_id", "exercise_id", "set_number", "reps", "weight_kg", "is_amrap"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("store set logs: %w", err)
		}
		return nil
	})
}

// AbortIdle aborts in-progress sessions not touched since idleSince. The
// update is conditioned on the status, running it twice is harmless.
func (r *Repo) AbortIdle(ctx context.Context, idleSince, now time.Time) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.abortidle")
	defer tracing.EndSpanWithErrCheck(span, &err)

	tag, err := r.db.Exec(ctx, `
		UPDATE workout_session
		SET status = $1, finished_at = $2, updated_at = $2
		WHERE status = $3 AND updated_at < $4
	`, StatusAborted, now, StatusInProgress, idleSince)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
