package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avi3tal/emflow/internal/domain"
)

// PostgresStore is the production store. Every call borrows its own
// connection from the pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	opts options
}

// ConnectPostgres establishes a connection pool to the database
func ConnectPostgres(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresStore(pool, opts...), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	return &PostgresStore{pool: pool, opts: newOptions(opts)}
}

// Pool exposes the pool so other components (checkpoints) can share it.
func (p *PostgresStore) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *PostgresStore) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// EnsureSchema creates em_data and its indexes.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertRecords writes rows in one batch.
func (p *PostgresStore) InsertRecords(ctx context.Context, records []domain.Record) (int, error) {
	marks := make([]string, recordColumnCount)
	for i := range marks {
		marks[i] = p.Placeholder(i + 1)
	}
	query := `INSERT INTO em_data (` + recordColumns + `) VALUES (` + strings.Join(marks, ", ") + `)`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query, recordArgs(rec)...)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to insert records: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(records), nil
}

func (p *PostgresStore) FindPendingDates(ctx context.Context, userID string) ([]string, error) {
	return p.queryDates(ctx,
		`SELECT DISTINCT em_date FROM em_data
		 WHERE user_id = $1 AND is_em_submitted = FALSE AND is_working_day = TRUE AND em_date <= $2
		 ORDER BY em_date ASC`,
		userID, p.opts.today(),
	)
}

func (p *PostgresStore) FindPendingDatesForProjects(ctx context.Context, userID string, projectIDs []string) ([]string, error) {
	if len(projectIDs) == 0 {
		return []string{}, nil
	}
	return p.queryDates(ctx,
		`SELECT DISTINCT em_date FROM em_data
		 WHERE user_id = $1 AND is_em_submitted = FALSE AND is_working_day = TRUE AND em_date <= $2
		 AND project_id = ANY($3)
		 ORDER BY em_date ASC`,
		userID, p.opts.today(), projectIDs,
	)
}

func (p *PostgresStore) queryDates(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending dates: %w", err)
	}
	days, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("failed to scan dates: %w", err)
	}

	dates := make([]string, 0, len(days))
	for _, d := range days {
		dates = append(dates, domain.FormatDate(d))
	}
	return dates, nil
}

func (p *PostgresStore) FindAssignedProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT DISTINCT project_id, project_name, project_code, client_name
		 FROM em_data WHERE user_id = $1 AND is_project_assigned = TRUE
		 ORDER BY project_name ASC, project_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var pr domain.Project
		if err := rows.Scan(&pr.ID, &pr.Name, &pr.Code, &pr.ClientName); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, pr)
	}
	return projects, rows.Err()
}

func (p *PostgresStore) FindLatestProjectSnapshot(ctx context.Context, userID, projectID string) (*domain.ProjectSnapshot, error) {
	var (
		snap                            domain.ProjectSnapshot
		billingType                     *string
		billableDesc, nonbillableDesc   *string
		inchargeName, meterName         *string
		upwork, spent, billable, nonbil *int32
		qa                              *bool
	)
	err := p.pool.QueryRow(ctx,
		`SELECT user_role, client_name, project_id, project_name, project_code, task_type,
		        billing_type, upwork_hours, time_spend_hours, billable_hours, billable_description,
		        nonbillable_hours, nonbillable_description, qa_required, task_incharge_name, meter_name
		 FROM em_data WHERE user_id = $1 AND project_id = $2
		 ORDER BY em_date DESC, em_id DESC LIMIT 1`,
		userID, projectID,
	).Scan(&snap.UserRole, &snap.ClientName, &snap.ProjectID, &snap.ProjectName, &snap.ProjectCode, &snap.TaskType,
		&billingType, &upwork, &spent, &billable, &billableDesc,
		&nonbil, &nonbillableDesc, &qa, &inchargeName, &meterName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project snapshot: %w", err)
	}

	snap.BillingType = deref(billingType)
	snap.UpworkHours = int(deref(upwork))
	snap.TimeSpendHours = int(deref(spent))
	snap.BillableHours = int(deref(billable))
	snap.BillableDescription = deref(billableDesc)
	snap.NonbillableHours = int(deref(nonbil))
	snap.NonbillableDescription = deref(nonbillableDesc)
	snap.QARequired = deref(qa)
	snap.TaskInchargeName = deref(inchargeName)
	snap.MeterName = deref(meterName)
	return &snap, nil
}

func deref[V any](v *V) V {
	var zero V
	if v == nil {
		return zero
	}
	return *v
}

func (p *PostgresStore) CheckProjectAssigned(ctx context.Context, userID, projectID string) (bool, error) {
	var ok bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM em_data WHERE user_id = $1 AND project_id = $2 AND is_project_assigned = TRUE)`,
		userID, projectID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return ok, nil
}

func (p *PostgresStore) CheckAlreadySubmitted(ctx context.Context, userID, date, projectID string) (bool, error) {
	var ok bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM em_data
		 WHERE user_id = $1 AND em_date = $2 AND project_id = $3 AND is_em_submitted = TRUE)`,
		userID, date, projectID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check submission: %w", err)
	}
	return ok, nil
}

func (p *PostgresStore) ApplySubmissions(ctx context.Context, stmts []Statement) ([]int64, error) {
	if len(stmts) == 0 {
		return nil, ErrEmptyBatch
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	affected := make([]int64, len(stmts))
	for i, st := range stmts {
		tag, err := tx.Exec(ctx, st.Query, st.Args...)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		affected[i] = tag.RowsAffected()
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return affected, nil
}
