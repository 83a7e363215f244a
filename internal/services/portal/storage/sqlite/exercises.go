package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

const exerciseColumns = `id, type, title, description, allowed_minutes, passage, image_url,
recording_url, tasks_json, created_by, created_at, updated_by, updated_at`

// PutExercise inserts or replaces an exercise.
func (s *Store) PutExercise(ctx context.Context, exercise storage.Exercise) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(exercise.ID) == "" {
		return fmt.Errorf("exercise id is required")
	}
	tasks := string(exercise.TasksJSON)
	if tasks == "" {
		tasks = "[]"
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO exercises (`+exerciseColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    type = excluded.type,
    title = excluded.title,
    description = excluded.description,
    allowed_minutes = excluded.allowed_minutes,
    passage = excluded.passage,
    image_url = excluded.image_url,
    recording_url = excluded.recording_url,
    tasks_json = excluded.tasks_json,
    updated_by = excluded.updated_by,
    updated_at = excluded.updated_at`,
		exercise.ID, exercise.Type, exercise.Title, exercise.Description, exercise.AllowedMinutes,
		exercise.Passage, exercise.ImageURL, exercise.RecordingURL, tasks,
		exercise.CreatedBy, toMillis(exercise.CreatedAt), exercise.UpdatedBy, toMillis(exercise.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put exercise: %w", err)
	}
	return nil
}

// GetExercise returns an exercise by ID.
func (s *Store) GetExercise(ctx context.Context, id string) (storage.Exercise, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Exercise{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id)
	exercise, err := scanExercise(row)
	if err != nil {
		return storage.Exercise{}, notFound(err)
	}
	return exercise, nil
}

// DeleteExercise removes an exercise; answers cascade.
func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exercise: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListExercises returns exercises of one type ordered by creation time.
func (s *Store) ListExercises(ctx context.Context, query storage.ExerciseQuery) (storage.ExercisePage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ExercisePage{}, err
	}
	var (
		clauses []string
		params  []any
	)
	if query.Type != "" {
		clauses = append(clauses, "type = ?")
		params = append(params, query.Type)
	}
	if needle := strings.TrimSpace(query.TitleContains); needle != "" {
		clauses = append(clauses, "instr(lower(title), lower(?)) > 0")
		params = append(params, needle)
	}
	cond, err := query.Filter.SQL()
	if err != nil {
		return storage.ExercisePage{}, err
	}
	clauses = append(clauses, cond.Clause)
	params = append(params, cond.Params...)

	limit, limitParams := limitClause(query.Offset, query.Limit)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises`+where(clauses)+` ORDER BY created_at, id`+limit,
		append(params, limitParams...)...)
	if err != nil {
		return storage.ExercisePage{}, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []storage.Exercise
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return storage.ExercisePage{}, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}
	if err := rows.Err(); err != nil {
		return storage.ExercisePage{}, fmt.Errorf("iterate exercises: %w", err)
	}
	n, more, next := pageBounds(len(exercises), query.Offset, query.Limit)
	return storage.ExercisePage{Exercises: exercises[:n], HasMore: more, NextOffset: next}, nil
}

// CountExercises returns the number of exercises per type.
func (s *Store) CountExercises(ctx context.Context) (map[string]int, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT type, COUNT(*) FROM exercises GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count exercises: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func scanExercise(row scanner) (storage.Exercise, error) {
	var (
		e                    storage.Exercise
		tasks                string
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&e.ID, &e.Type, &e.Title, &e.Description, &e.AllowedMinutes, &e.Passage, &e.ImageURL,
		&e.RecordingURL, &tasks, &e.CreatedBy, &createdAt, &e.UpdatedBy, &updatedAt,
	); err != nil {
		return storage.Exercise{}, err
	}
	e.TasksJSON = []byte(tasks)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return e, nil
}
