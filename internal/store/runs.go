package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	// RunStatusReview marks runs that failed on input or configuration
	// problems a human has to fix before retrying.
	RunStatusReview RunStatus = "review"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the run ledger.
type Run struct {
	ID              string
	Subreddit       string
	StoryID         string
	Title           string
	Status          RunStatus
	ErrorMessage    string
	OutputPath      string
	LogPath         string
	CaptionCount    int
	DurationSeconds float64
	StartedAt       time.Time
	FinishedAt      *time.Time
}

// Elapsed reports wall time for finished runs and zero otherwise.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunResult carries the fields recorded when a run ends.
type RunResult struct {
	Status          RunStatus
	StoryID         string
	Title           string
	ErrorMessage    string
	OutputPath      string
	CaptionCount    int
	DurationSeconds float64
}

const runColumns = "id, subreddit, story_id, title, status, error_message, output_path, log_path, caption_count, duration_seconds, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run                                     Run
		subreddit, storyID, title, errorMessage sql.NullString
		outputPath, logPath, finishedRaw        sql.NullString
		status, startedRaw                      string
	)
	if err := scanner.Scan(
		&run.ID,
		&subreddit,
		&storyID,
		&title,
		&status,
		&errorMessage,
		&outputPath,
		&logPath,
		&run.CaptionCount,
		&run.DurationSeconds,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Run{}, err
	}
	run.Subreddit = subreddit.String
	run.StoryID = storyID.String
	run.Title = title.String
	run.Status = RunStatus(status)
	run.ErrorMessage = errorMessage.String
	run.OutputPath = outputPath.String
	run.LogPath = logPath.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

// BeginRun records a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, id, subreddit, logPath string) (Run, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(id) == "" {
		return Run{}, errors.New("run id is required")
	}
	now := s.timestamp()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, subreddit, status, log_path, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, nullableString(subreddit), string(RunStatusRunning), nullableString(logPath), now,
	); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	started, _ := parseTimeString(now)
	return Run{
		ID:        id,
		Subreddit: subreddit,
		Status:    RunStatusRunning,
		LogPath:   logPath,
		StartedAt: started,
	}, nil
}

// FinishRun stores the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id string, result RunResult) error {
	ctx = ensureContext(ctx)
	status := result.Status
	if status == "" {
		status = RunStatusSucceeded
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET
            status = ?, story_id = COALESCE(?, story_id), title = COALESCE(?, title),
            error_message = ?, output_path = ?, caption_count = ?, duration_seconds = ?,
            finished_at = ?
         WHERE id = ?`,
		string(status),
		nullableString(result.StoryID),
		nullableString(result.Title),
		nullableString(result.ErrorMessage),
		nullableString(result.OutputPath),
		result.CaptionCount,
		result.DurationSeconds,
		s.timestamp(),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun fetches a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunStats returns a count of runs grouped by status.
func (s *Store) RunStats(ctx context.Context) (map[RunStatus]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[RunStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[RunStatus(status)] = count
	}
	return stats, rows.Err()
}

// MarkAbandoned flips runs still marked running to failed. It is used at
// startup after a crash left rows behind.
func (s *Store) MarkAbandoned(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		string(RunStatusFailed), "run interrupted", s.timestamp(), string(RunStatusRunning))
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
