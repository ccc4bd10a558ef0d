package store

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	SaveScript(ctx context.Context, s *ScriptRecord) error
	ListScripts(ctx context.Context, limit int) ([]*ScriptRecord, error)
	CountScripts(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	ListSessionJobs(ctx context.Context, sessionID string) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	CompleteJob(ctx context.Context, id, clipID string) error
	FailSessionJobs(ctx context.Context, sessionID, errorMsg string) (int64, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// timeLayout is fixed width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) SaveScript(ctx context.Context, s *ScriptRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scripts (id, session_id, niche_id, niche_title, topic, tone, title, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.SessionID, s.NicheID, s.NicheTitle, s.Topic, s.Tone, s.Title, s.Body, s.CreatedAt.UTC().Format(timeLayout))
	return err
}

func (r *SQLiteRepository) ListScripts(ctx context.Context, limit int) ([]*ScriptRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, niche_id, niche_title, topic, tone, title, body, created_at
		FROM scripts ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []*ScriptRecord
	for rows.Next() {
		var s ScriptRecord
		var createdAt string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.NicheID, &s.NicheTitle, &s.Topic, &s.Tone, &s.Title, &s.Body, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		scripts = append(scripts, &s)
	}
	return scripts, rows.Err()
}

func (r *SQLiteRepository) CountScripts(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scripts").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, session_id, segment_index, prompt, clip_id, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, j.SessionID, j.SegmentIndex, j.Prompt, nullString(j.ClipID), nullString(j.Error),
		j.CreatedAt.UTC().Format(timeLayout), j.UpdatedAt.UTC().Format(timeLayout))
	return err
}

const jobColumns = `id, type, status, session_id, segment_index, prompt, clip_id, error, created_at, updated_at`

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs, err := r.scanJobs(rows)
	if err != nil || len(jobs) == 0 {
		return nil, err
	}
	return jobs[0], nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListSessionJobs(ctx context.Context, sessionID string) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE session_id = ? ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var clipID, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &j.SessionID, &j.SegmentIndex, &j.Prompt, &clipID, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.ClipID = clipID.String
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), now(), id)
	return err
}

func (r *SQLiteRepository) CompleteJob(ctx context.Context, id, clipID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'completed', clip_id = ?, error = NULL, updated_at = ? WHERE id = ?
	`, clipID, now(), id)
	return err
}

// FailSessionJobs fails the session's jobs that have not started.
func (r *SQLiteRepository) FailSessionJobs(ctx context.Context, sessionID, errorMsg string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'failed', error = ?, updated_at = ? WHERE session_id = ? AND status = 'pending'
	`, errorMsg, now(), sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
