package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/avi3tal/emflow/internal/domain"
)

// SQLiteStore is the embedded store used for local runs and tests.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return &SQLiteStore{db: db, opts: newOptions(opts)}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Placeholder(int) string {
	return "?"
}

// EnsureSchema creates em_data and its indexes.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// InsertRecords writes rows in one transaction.
func (s *SQLiteStore) InsertRecords(ctx context.Context, records []domain.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO em_data (` + recordColumns + `) VALUES (` +
		strings.TrimSuffix(strings.Repeat("?, ", recordColumnCount), ", ") + `)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(records), nil
}

func (s *SQLiteStore) FindPendingDates(ctx context.Context, userID string) ([]string, error) {
	return s.queryDates(ctx,
		`SELECT DISTINCT em_date FROM em_data
		 WHERE user_id = ? AND is_em_submitted = 0 AND is_working_day = 1 AND em_date <= ?
		 ORDER BY em_date ASC`,
		userID, s.opts.today(),
	)
}

func (s *SQLiteStore) FindPendingDatesForProjects(ctx context.Context, userID string, projectIDs []string) ([]string, error) {
	if len(projectIDs) == 0 {
		return []string{}, nil
	}
	args := []any{userID, s.opts.today()}
	for _, id := range projectIDs {
		args = append(args, id)
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(projectIDs)), ",")
	return s.queryDates(ctx,
		`SELECT DISTINCT em_date FROM em_data
		 WHERE user_id = ? AND is_em_submitted = 0 AND is_working_day = 1 AND em_date <= ?
		 AND project_id IN (`+marks+`)
		 ORDER BY em_date ASC`,
		args...,
	)
}

func (s *SQLiteStore) queryDates(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *SQLiteStore) FindAssignedProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT project_id, project_name, project_code, client_name
		 FROM em_data WHERE user_id = ? AND is_project_assigned = 1
		 ORDER BY project_name ASC, project_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.ClientName); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) FindLatestProjectSnapshot(ctx context.Context, userID, projectID string) (*domain.ProjectSnapshot, error) {
	var (
		snap                           domain.ProjectSnapshot
		billableDesc, nonbillableDesc  sql.NullString
		inchargeName, meterName        sql.NullString
		upwork, spent, billable, nonbl sql.NullInt64
		billingType                    sql.NullString
		qa                             sql.NullBool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_role, client_name, project_id, project_name, project_code, task_type,
		        billing_type, upwork_hours, time_spend_hours, billable_hours, billable_description,
		        nonbillable_hours, nonbillable_description, qa_required, task_incharge_name, meter_name
		 FROM em_data WHERE user_id = ? AND project_id = ?
		 ORDER BY em_date DESC, em_id DESC LIMIT 1`,
		userID, projectID,
	).Scan(&snap.UserRole, &snap.ClientName, &snap.ProjectID, &snap.ProjectName, &snap.ProjectCode, &snap.TaskType,
		&billingType, &upwork, &spent, &billable, &billableDesc,
		&nonbl, &nonbillableDesc, &qa, &inchargeName, &meterName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project snapshot: %w", err)
	}

	snap.BillingType = billingType.String
	snap.UpworkHours = int(upwork.Int64)
	snap.TimeSpendHours = int(spent.Int64)
	snap.BillableHours = int(billable.Int64)
	snap.BillableDescription = billableDesc.String
	snap.NonbillableHours = int(nonbl.Int64)
	snap.NonbillableDescription = nonbillableDesc.String
	snap.QARequired = qa.Bool
	snap.TaskInchargeName = inchargeName.String
	snap.MeterName = meterName.String
	return &snap, nil
}

func (s *SQLiteStore) CheckProjectAssigned(ctx context.Context, userID, projectID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM em_data WHERE user_id = ? AND project_id = ? AND is_project_assigned = 1`,
		userID, projectID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) CheckAlreadySubmitted(ctx context.Context, userID, date, projectID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM em_data
		 WHERE user_id = ? AND em_date = ? AND project_id = ? AND is_em_submitted = 1`,
		userID, date, projectID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check submission: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ApplySubmissions(ctx context.Context, stmts []Statement) ([]int64, error) {
	if len(stmts) == 0 {
		return nil, ErrEmptyBatch
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	affected := make([]int64, len(stmts))
	for i, st := range stmts {
		res, err := tx.ExecContext(ctx, st.Query, st.Args...)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		if affected[i], err = res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return affected, nil
}
