package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireloop/interview-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Set pool configuration
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Challenges ---

// CreateChallenge creates a new challenge record
func (r *PostgresRepository) CreateChallenge(ctx context.Context, ch *models.Challenge) error {
	query := `
		INSERT INTO challenges (id, organization_id, title, instructions, language, starter_code, time_limit, status, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		ch.ID,
		ch.OrganizationID,
		ch.Title,
		ch.Instructions,
		nullString(ch.Language),
		nullString(ch.StarterCode),
		ch.TimeLimit,
		string(ch.Status),
		ch.CreatedAt,
		nullString(ch.CreatedBy),
	)

	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	return nil
}

// GetChallenge retrieves a challenge by ID
func (r *PostgresRepository) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	query := `
		SELECT id, organization_id, title, instructions, language, starter_code, time_limit, status, created_at, created_by
		FROM challenges
		WHERE id = $1
	`

	var ch models.Challenge
	var statusStr string
	var language, starterCode, createdBy sql.NullString

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ch.ID,
		&ch.OrganizationID,
		&ch.Title,
		&ch.Instructions,
		&language,
		&starterCode,
		&ch.TimeLimit,
		&statusStr,
		&ch.CreatedAt,
		&createdBy,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	ch.Status = models.ChallengeStatus(statusStr)
	ch.Language = language.String
	ch.StarterCode = starterCode.String
	ch.CreatedBy = createdBy.String

	return &ch, nil
}

// ListChallenges returns challenges for an organization, newest first
func (r *PostgresRepository) ListChallenges(ctx context.Context, organizationID string, limit, offset int) ([]*models.Challenge, error) {
	query := `
		SELECT id, organization_id, title, instructions, language, starter_code, time_limit, status, created_at, created_by
		FROM challenges
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{organizationID}
	argNum := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit)
		argNum++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*models.Challenge

	for rows.Next() {
		var ch models.Challenge
		var statusStr string
		var language, starterCode, createdBy sql.NullString

		err := rows.Scan(
			&ch.ID,
			&ch.OrganizationID,
			&ch.Title,
			&ch.Instructions,
			&language,
			&starterCode,
			&ch.TimeLimit,
			&statusStr,
			&ch.CreatedAt,
			&createdBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}

		ch.Status = models.ChallengeStatus(statusStr)
		ch.Language = language.String
		ch.StarterCode = starterCode.String
		ch.CreatedBy = createdBy.String

		challenges = append(challenges, &ch)
	}

	return challenges, rows.Err()
}

// --- Candidates ---

// CreateCandidate creates a new candidate record
func (r *PostgresRepository) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	query := `
		INSERT INTO candidates (id, challenge_id, name, email, phone, position, token, created_at, invited_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.ChallengeID,
		c.Name,
		c.Email,
		nullString(c.Phone),
		nullString(c.Position),
		c.Token,
		c.CreatedAt,
		nullString(c.InvitedBy),
	)

	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}

	return nil
}

// GetCandidate retrieves a candidate by ID
func (r *PostgresRepository) GetCandidate(ctx context.Context, id string) (*models.Candidate, error) {
	return r.getCandidate(ctx, "id", id)
}

// GetCandidateByToken retrieves a candidate by invite token
func (r *PostgresRepository) GetCandidateByToken(ctx context.Context, token string) (*models.Candidate, error) {
	return r.getCandidate(ctx, "token", token)
}

func (r *PostgresRepository) getCandidate(ctx context.Context, field, value string) (*models.Candidate, error) {
	query := fmt.Sprintf(`
		SELECT id, challenge_id, name, email, phone, position, token, created_at, invited_by
		FROM candidates
		WHERE %s = $1
	`, field)

	var c models.Candidate
	var phone, position, invitedBy sql.NullString

	err := r.pool.QueryRow(ctx, query, value).Scan(
		&c.ID,
		&c.ChallengeID,
		&c.Name,
		&c.Email,
		&phone,
		&position,
		&c.Token,
		&c.CreatedAt,
		&invitedBy,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	c.Phone = phone.String
	c.Position = position.String
	c.InvitedBy = invitedBy.String

	return &c, nil
}

// --- Submissions ---

const submissionColumns = `id, candidate_id, challenge_id, content, status, reviewer_id, created_at, updated_at, started_at, submitted_at, reviewed_at, total_time_spent`

// CreateSubmission creates a new submission record
func (r *PostgresRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.CandidateID,
		s.ChallengeID,
		s.Content,
		string(s.Status),
		nullString(s.ReviewerID),
		s.CreatedAt,
		s.UpdatedAt,
		nullTime(s.StartedAt),
		nullTime(s.SubmittedAt),
		nullTime(s.ReviewedAt),
		s.TotalTimeSpent,
	)

	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	var statusStr string
	var reviewerID sql.NullString
	var startedAt, submittedAt, reviewedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.CandidateID,
		&s.ChallengeID,
		&s.Content,
		&statusStr,
		&reviewerID,
		&s.CreatedAt,
		&s.UpdatedAt,
		&startedAt,
		&submittedAt,
		&reviewedAt,
		&s.TotalTimeSpent,
	)
	if err != nil {
		return nil, err
	}

	s.Status = models.SubmissionStatus(statusStr)
	s.ReviewerID = reviewerID.String

	if startedAt.Valid {
		s.StartedAt = &startedAt.Time
	}
	if submittedAt.Valid {
		s.SubmittedAt = &submittedAt.Time
	}
	if reviewedAt.Valid {
		s.ReviewedAt = &reviewedAt.Time
	}

	return &s, nil
}

// GetSubmission retrieves a submission by ID
func (r *PostgresRepository) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	s, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return s, nil
}

// GetSubmissionByCandidate retrieves the candidate's submission
func (r *PostgresRepository) GetSubmissionByCandidate(ctx context.Context, candidateID string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE candidate_id = $1 ORDER BY created_at DESC LIMIT 1`

	s, err := scanSubmission(r.pool.QueryRow(ctx, query, candidateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission by candidate: %w", err)
	}

	return s, nil
}

// UpdateSubmission updates an existing submission
func (r *PostgresRepository) UpdateSubmission(ctx context.Context, s *models.Submission) error {
	query := `
		UPDATE submissions
		SET content = $2, status = $3, reviewer_id = $4, updated_at = $5, started_at = $6, submitted_at = $7, reviewed_at = $8, total_time_spent = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Content,
		string(s.Status),
		nullString(s.ReviewerID),
		s.UpdatedAt,
		nullTime(s.StartedAt),
		nullTime(s.SubmittedAt),
		nullTime(s.ReviewedAt),
		s.TotalTimeSpent,
	)

	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("submission not found: %s", s.ID)
	}

	return nil
}

// ListSubmissions returns submissions matching filters, newest first
func (r *PostgresRepository) ListSubmissions(ctx context.Context, filters models.SubmissionFilters) ([]*models.Submission, error) {
	query := `
		SELECT s.id, s.candidate_id, s.challenge_id, s.content, s.status, s.reviewer_id, s.created_at, s.updated_at, s.started_at, s.submitted_at, s.reviewed_at, s.total_time_spent
		FROM submissions s
		JOIN challenges c ON c.id = s.challenge_id
		WHERE 1=1
	`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.OrganizationID != "" {
		query += fmt.Sprintf(" AND c.organization_id = $%d", argNum)
		args = append(args, filters.OrganizationID)
		argNum++
	}

	if filters.ChallengeID != "" {
		query += fmt.Sprintf(" AND s.challenge_id = $%d", argNum)
		args = append(args, filters.ChallengeID)
		argNum++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND s.status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	query += " ORDER BY s.created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*models.Submission

	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

// GetOverdueSubmissions returns in-progress submissions whose challenge time
// limit has elapsed (candidates who ran out the clock without submitting)
func (r *PostgresRepository) GetOverdueSubmissions(ctx context.Context) ([]*models.Submission, error) {
	query := `
		SELECT s.id, s.candidate_id, s.challenge_id, s.content, s.status, s.reviewer_id, s.created_at, s.updated_at, s.started_at, s.submitted_at, s.reviewed_at, s.total_time_spent
		FROM submissions s
		JOIN challenges c ON c.id = s.challenge_id
		WHERE s.status = 'IN_PROGRESS'
		  AND c.time_limit > 0
		  AND s.started_at IS NOT NULL
		  AND s.started_at + make_interval(mins => c.time_limit) < NOW()
		ORDER BY s.started_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get overdue submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*models.Submission

	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

// --- Timeline ---

// AppendEvents inserts a batch of events for a submission. The unique
// (submission_id, seq) index plus ON CONFLICT DO NOTHING makes retried
// flushes duplicate-free.
func (r *PostgresRepository) AppendEvents(ctx context.Context, submissionID string, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO submission_events (submission_id, seq, kind, timestamp, cursor_start, cursor_end, content, window_focus)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (submission_id, seq) DO NOTHING
	`

	for _, ev := range events {
		_, err := tx.Exec(ctx, query,
			submissionID,
			ev.Seq,
			string(ev.Kind),
			ev.Timestamp,
			nullIntPtr(ev.CursorStart),
			nullIntPtr(ev.CursorEnd),
			nullStringPtr(ev.Content),
			ev.WindowFocus,
		)
		if err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}

	return nil
}

// ListEvents returns the submission's timeline in timestamp order,
// ties broken by capture sequence
func (r *PostgresRepository) ListEvents(ctx context.Context, submissionID string) ([]models.Event, error) {
	query := `
		SELECT seq, kind, timestamp, cursor_start, cursor_end, content, window_focus
		FROM submission_events
		WHERE submission_id = $1
		ORDER BY timestamp ASC, seq ASC
	`

	rows, err := r.pool.Query(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event

	for rows.Next() {
		var ev models.Event
		var kindStr string
		var cursorStart, cursorEnd sql.NullInt64
		var content sql.NullString

		err := rows.Scan(
			&ev.Seq,
			&kindStr,
			&ev.Timestamp,
			&cursorStart,
			&cursorEnd,
			&content,
			&ev.WindowFocus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev.Kind = models.EventKind(kindStr)

		if cursorStart.Valid {
			v := int(cursorStart.Int64)
			ev.CursorStart = &v
		}
		if cursorEnd.Valid {
			v := int(cursorEnd.Int64)
			ev.CursorEnd = &v
		}
		if content.Valid {
			ev.Content = &content.String
		}

		events = append(events, ev)
	}

	return events, rows.Err()
}

// --- Comments ---

// CreateComment creates a new comment record
func (r *PostgresRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (id, submission_id, author_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.SubmissionID,
		c.AuthorID,
		c.Content,
		c.CreatedAt,
		c.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetComment retrieves a comment by ID
func (r *PostgresRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	query := `
		SELECT id, submission_id, author_id, content, created_at, updated_at
		FROM comments
		WHERE id = $1
	`

	var c models.Comment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.SubmissionID,
		&c.AuthorID,
		&c.Content,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &c, nil
}

// ListComments returns comments for a submission in creation order
func (r *PostgresRepository) ListComments(ctx context.Context, submissionID string) ([]*models.Comment, error) {
	query := `
		SELECT id, submission_id, author_id, content, created_at, updated_at
		FROM comments
		WHERE submission_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment

	for rows.Next() {
		var c models.Comment
		err := rows.Scan(
			&c.ID,
			&c.SubmissionID,
			&c.AuthorID,
			&c.Content,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}

// UpdateComment updates a comment's content
func (r *PostgresRepository) UpdateComment(ctx context.Context, c *models.Comment) error {
	query := `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, c.ID, c.Content, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("comment not found: %s", c.ID)
	}

	return nil
}

// DeleteComment deletes a comment by ID
func (r *PostgresRepository) DeleteComment(ctx context.Context, id string) error {
	query := `DELETE FROM comments WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("comment not found: %s", id)
	}

	return nil
}

// --- API Clients ---

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, organization_id, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.OrganizationID,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&client.Permissions,
		&client.Metadata,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	_, err := r.pool.Exec(ctx, query, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
