package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"socialpulse/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Clients ---

func (s *PostgresStore) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, brand_context, industry, spreadsheet_id, last_analyzed_at, created_at, updated_at
		 FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.BrandContext, &c.Industry, &c.SpreadsheetID,
		&c.LastAnalyzedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, id uuid.UUID, patch ClientPatch) (*models.Client, error) {
	query := `UPDATE clients SET updated_at = NOW()`
	args := []any{id}
	argIdx := 2

	set := func(col string, v any) {
		query += fmt.Sprintf(", %s = $%d", col, argIdx)
		args = append(args, v)
		argIdx++
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.BrandContext != nil {
		set("brand_context", *patch.BrandContext)
	}
	if patch.Industry != nil {
		set("industry", *patch.Industry)
	}
	if patch.SpreadsheetID != nil {
		set("spreadsheet_id", *patch.SpreadsheetID)
	}
	if patch.LastAnalyzedAt != nil {
		set("last_analyzed_at", *patch.LastAnalyzedAt)
	}

	query += ` WHERE id = $1
		 RETURNING id, name, brand_context, industry, spreadsheet_id, last_analyzed_at, created_at, updated_at`

	var c models.Client
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Name, &c.BrandContext, &c.Industry, &c.SpreadsheetID,
		&c.LastAnalyzedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return &c, nil
}

// --- Users ---

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, client_id, username, password_hash, role, last_login_at, created_at, updated_at
		 FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.ClientID, &u.Username, &u.PasswordHash, &u.Role,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdateUserLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update user last login: %w", err)
	}
	return nil
}

// --- Dataset ---

func (s *PostgresStore) UpsertDataset(ctx context.Context, clientID uuid.UUID, posts []models.Post, comments []models.Comment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin dataset upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range posts {
		_, err := tx.Exec(ctx,
			`INSERT INTO posts (id, client_id, post_url, caption, likes_count, comments_count, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			 ON CONFLICT (client_id, post_url) DO UPDATE SET
			   caption = EXCLUDED.caption,
			   likes_count = EXCLUDED.likes_count,
			   comments_count = EXCLUDED.comments_count,
			   updated_at = NOW()`,
			uuid.New(), clientID, p.PostURL, p.Caption, p.LikesCount, p.CommentsCount)
		if err != nil {
			return fmt.Errorf("upsert post: %w", err)
		}
	}

	for _, c := range comments {
		_, err := tx.Exec(ctx,
			`INSERT INTO comments (id, client_id, post_url, comment_text, owner_username, created_at, ingested_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 ON CONFLICT (client_id, post_url, owner_username, comment_text) DO NOTHING`,
			uuid.New(), clientID, c.PostURL, c.CommentText, c.OwnerUsername, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert comment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit dataset upsert: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDataset(ctx context.Context, clientID uuid.UUID, since *time.Time) (*models.IngestedDataset, error) {
	ds := &models.IngestedDataset{
		ClientID: clientID.String(),
		Posts:    []models.Post{},
		Comments: []models.Comment{},
	}

	rows, err := s.pool.Query(ctx,
		`SELECT post_url, caption, likes_count, comments_count
		 FROM posts WHERE client_id = $1 ORDER BY created_at`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.PostURL, &p.Caption, &p.LikesCount, &p.CommentsCount); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		ds.Posts = append(ds.Posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	commentQuery := `SELECT post_url, comment_text, owner_username, created_at
		 FROM comments WHERE client_id = $1`
	args := []any{clientID}
	if since != nil {
		commentQuery += ` AND created_at > $2`
		args = append(args, *since)
	}
	commentQuery += ` ORDER BY created_at`

	crows, err := s.pool.Query(ctx, commentQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c models.Comment
		if err := crows.Scan(&c.PostURL, &c.CommentText, &c.OwnerUsername, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		ds.Comments = append(ds.Comments, c)
	}
	return ds, crows.Err()
}

// --- Insights ---

func (s *PostgresStore) UpsertInsight(ctx context.Context, insight *models.Insight) (*models.Insight, error) {
	var result models.Insight
	err := s.pool.QueryRow(ctx,
		`INSERT INTO insights (id, client_id, module, version, payload, errors, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 ON CONFLICT (client_id, module) DO UPDATE SET
		   version = EXCLUDED.version,
		   payload = EXCLUDED.payload,
		   errors = EXCLUDED.errors,
		   updated_at = NOW()
		 RETURNING id, client_id, module, version, payload, errors, created_at, updated_at`,
		insight.ID, insight.ClientID, insight.Module, insight.Version, insight.Payload, insight.Errors,
	).Scan(&result.ID, &result.ClientID, &result.Module, &result.Version,
		&result.Payload, &result.Errors, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert insight: %w", err)
	}
	return &result, nil
}

func (s *PostgresStore) GetInsight(ctx context.Context, clientID uuid.UUID, module string) (*models.Insight, error) {
	var i models.Insight
	err := s.pool.QueryRow(ctx,
		`SELECT id, client_id, module, version, payload, errors, created_at, updated_at
		 FROM insights WHERE client_id = $1 AND module = $2`, clientID, module,
	).Scan(&i.ID, &i.ClientID, &i.Module, &i.Version, &i.Payload, &i.Errors,
		&i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get insight: %w", err)
	}
	return &i, nil
}

func (s *PostgresStore) ListInsightModules(ctx context.Context, clientID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT module FROM insights WHERE client_id = $1 ORDER BY module`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list insight modules: %w", err)
	}
	defer rows.Close()

	modules := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan insight module: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, client_id, module, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.ClientID, job.Module, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID, clientID uuid.UUID) (*models.Job, error) {
	var j models.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, client_id, module, status, error_message, started_at, completed_at, created_at, updated_at
		 FROM jobs WHERE id = $1 AND client_id = $2`, id, clientID,
	).Scan(&j.ID, &j.ClientID, &j.Module, &j.Status, &j.ErrorMessage,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning},
	models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := &jobUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	valid := false
	for _, a := range validTransitions[currentStatus] {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid job status transition: %s -> %s", currentStatus, status)
	}

	now := time.Now().UTC()
	query := `UPDATE jobs SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.JobStatusRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}

	query += " WHERE id = $1"

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// --- Tasks ---

func (s *PostgresStore) CreateTasks(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin task insert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tasks {
		_, err := tx.Exec(ctx,
			`INSERT INTO tasks (id, client_id, title, description, status, source_module, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.ClientID, t.Title, t.Description, t.Status, t.SourceModule, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			if isDuplicateKeyError(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("create task: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit task insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, clientID uuid.UUID, status string) ([]*models.Task, error) {
	query := `SELECT id, client_id, title, description, status, source_module, created_at, updated_at
		 FROM tasks WHERE client_id = $1`
	args := []any{clientID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ClientID, &t.Title, &t.Description, &t.Status,
			&t.SourceModule, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, clientID uuid.UUID, status string) (*models.Task, error) {
	var t models.Task
	err := s.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND client_id = $2
		 RETURNING id, client_id, title, description, status, source_module, created_at, updated_at`,
		id, clientID, status,
	).Scan(&t.ID, &t.ClientID, &t.Title, &t.Description, &t.Status,
		&t.SourceModule, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return &t, nil
}

// CreateTaskNote inserts a note only when the task belongs to clientID;
// a task outside the tenant is indistinguishable from a missing one.
func (s *PostgresStore) CreateTaskNote(ctx context.Context, clientID uuid.UUID, note *models.TaskNote) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO task_notes (id, task_id, body, author, created_at)
		 SELECT $1, t.id, $3, $4, $5
		 FROM tasks t WHERE t.id = $2 AND t.client_id = $6`,
		note.ID, note.TaskID, note.Body, note.Author, note.CreatedAt, clientID)
	if err != nil {
		return fmt.Errorf("create task note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListTaskNotes(ctx context.Context, clientID uuid.UUID, taskID uuid.UUID) ([]*models.TaskNote, error) {
	var owned int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM tasks WHERE id = $1 AND client_id = $2`, taskID, clientID,
	).Scan(&owned)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check task ownership: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, body, author, created_at
		 FROM task_notes WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.TaskNote{}
	for rows.Next() {
		var n models.TaskNote
		if err := rows.Scan(&n.ID, &n.TaskID, &n.Body, &n.Author, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task note: %w", err)
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
