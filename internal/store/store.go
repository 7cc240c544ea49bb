// Package store implements the timesheet data store on Postgres and SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avi3tal/emflow/internal/domain"
)

// ErrEmptyBatch is returned when ApplySubmissions is called without statements.
var ErrEmptyBatch = errors.New("no statements to apply")

// Statement is one parameterized write executed by ApplySubmissions.
type Statement struct {
	Query string
	Args  []any
}

// Repository is the data store contract the workflow depends on.
type Repository interface {
	// FindPendingDates lists unsubmitted working days up to today, ascending.
	FindPendingDates(ctx context.Context, userID string) ([]string, error)
	// FindAssignedProjects lists the distinct projects assigned to the user, by name.
	FindAssignedProjects(ctx context.Context, userID string) ([]domain.Project, error)
	// FindPendingDatesForProjects is FindPendingDates restricted to projectIDs.
	FindPendingDatesForProjects(ctx context.Context, userID string, projectIDs []string) ([]string, error)
	// FindLatestProjectSnapshot returns the most recent row for the project, or nil.
	FindLatestProjectSnapshot(ctx context.Context, userID, projectID string) (*domain.ProjectSnapshot, error)
	CheckProjectAssigned(ctx context.Context, userID, projectID string) (bool, error)
	CheckAlreadySubmitted(ctx context.Context, userID, date, projectID string) (bool, error)
	// ApplySubmissions runs every statement in one transaction and returns the
	// rows affected by each. Any error rolls the whole batch back.
	ApplySubmissions(ctx context.Context, stmts []Statement) ([]int64, error)
	// Placeholder returns the n-th (1-based) bind marker of the dialect.
	Placeholder(n int) string
	Ping(ctx context.Context) error
	Close() error
}

// Migrator prepares a store for use.
type Migrator interface {
	EnsureSchema(ctx context.Context) error
	InsertRecords(ctx context.Context, records []domain.Record) (int, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock fixes the notion of "today" used to hide future rows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) today() string {
	return domain.FormatDate(o.now())
}

// LoadRecords decodes a YAML (or JSON) list of em_data rows.
func LoadRecords(r io.Reader) ([]domain.Record, error) {
	var records []domain.Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for i, rec := range records {
		if rec.UserID == "" || rec.ProjectID == "" {
			return nil, fmt.Errorf("record %d: user_id and project_id are required", i)
		}
		if _, err := domain.ParseDate(rec.Date); err != nil {
			return nil, fmt.Errorf("record %d: invalid em_date %q", i, rec.Date)
		}
		records[i] = rec.WithDefaults()
	}
	return records, nil
}
