package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

// PutAnswer inserts or replaces a draft answer.
func (s *Store) PutAnswer(ctx context.Context, answer storage.Answer) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO answers (principal_id, exercise_id, task_id, payload, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (principal_id, exercise_id, task_id) DO UPDATE SET
    payload = excluded.payload,
    updated_at = excluded.updated_at`,
		answer.PrincipalID, answer.ExerciseID, answer.TaskID, string(answer.Payload), toMillis(answer.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put answer: %w", err)
	}
	return nil
}

// GetAnswer returns one draft answer.
func (s *Store) GetAnswer(ctx context.Context, principalID, exerciseID, taskID string) (storage.Answer, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Answer{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT principal_id, exercise_id, task_id, payload, updated_at
FROM answers WHERE principal_id = ? AND exercise_id = ? AND task_id = ?`,
		principalID, exerciseID, taskID)
	answer, err := scanAnswer(row)
	if err != nil {
		return storage.Answer{}, notFound(err)
	}
	return answer, nil
}

// ListAnswers returns a principal's answers for one exercise ordered by task ID.
func (s *Store) ListAnswers(ctx context.Context, principalID, exerciseID string) ([]storage.Answer, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT principal_id, exercise_id, task_id, payload, updated_at
FROM answers WHERE principal_id = ? AND exercise_id = ? ORDER BY task_id`,
		principalID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	var out []storage.Answer
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, answer)
	}
	return out, rows.Err()
}

func scanAnswer(row scanner) (storage.Answer, error) {
	var (
		a         storage.Answer
		payload   string
		updatedAt int64
	)
	if err := row.Scan(&a.PrincipalID, &a.ExerciseID, &a.TaskID, &payload, &updatedAt); err != nil {
		return storage.Answer{}, err
	}
	a.Payload = []byte(payload)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

// AppendActivity records entry and keeps the newest keep entries.
func (s *Store) AppendActivity(ctx context.Context, entry storage.ActivityEntry, keep int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activity: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO activity_log (id, actor, message, created_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Actor, entry.Message, toMillis(entry.CreatedAt)); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	if keep > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM activity_log
WHERE seq NOT IN (SELECT seq FROM activity_log ORDER BY seq DESC LIMIT ?)`, keep); err != nil {
			return fmt.Errorf("trim activity: %w", err)
		}
	}
	return tx.Commit()
}

// ListActivity returns up to limit entries, newest first.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]storage.ActivityEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, actor, message, created_at FROM activity_log ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()
	var out []storage.ActivityEntry
	for rows.Next() {
		var (
			entry     storage.ActivityEntry
			createdAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// PutSessionRecord stores a session record.
func (s *Store) PutSessionRecord(ctx context.Context, record storage.SessionRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO session_records (id, principal_id, created_at, expires_at, ended_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    expires_at = excluded.expires_at,
    ended_at = excluded.ended_at`,
		record.ID, record.PrincipalID, toMillis(record.CreatedAt), toMillis(record.ExpiresAt), nullMillis(record.EndedAt))
	if err != nil {
		return fmt.Errorf("put session record: %w", err)
	}
	return nil
}

// EndSessionRecord stamps the end time of a session record.
func (s *Store) EndSessionRecord(ctx context.Context, id string, endedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE session_records SET ended_at = ? WHERE id = ?`, toMillis(endedAt), id)
	if err != nil {
		return fmt.Errorf("end session record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetSessionRecord returns a session record by ID.
func (s *Store) GetSessionRecord(ctx context.Context, id string) (storage.SessionRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SessionRecord{}, err
	}
	var (
		record               storage.SessionRecord
		createdAt, expiresAt int64
		endedAt              sql.NullInt64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, principal_id, created_at, expires_at, ended_at FROM session_records WHERE id = ?`, id).
		Scan(&record.ID, &record.PrincipalID, &createdAt, &expiresAt, &endedAt)
	if err != nil {
		return storage.SessionRecord{}, notFound(err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.ExpiresAt = fromMillis(expiresAt)
	record.EndedAt = timePtr(endedAt)
	return record, nil
}
