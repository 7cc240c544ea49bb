package timesheet

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/domain"
	"github.com/avi3tal/emflow/internal/store"
)

var today = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return today }

func emRow(user, date, project string, submitted bool) domain.Record {
	return domain.Record{
		UserID:      user,
		UserName:    "User " + user,
		UserRole:    "Engineer",
		Date:        date,
		Submitted:   submitted,
		ClientID:    "C1",
		ClientName:  "Acme",
		ProjectID:   project,
		ProjectName: "Project " + project,
		ProjectCode: "CODE-" + project,
		Assigned:    true,
		TaskType:    "Development",
		BillingType: "Hourly",
		WorkingDay:  true,
	}
}

func seed() []domain.Record {
	var records []domain.Record
	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		records = append(records, emRow("U1", d, "P1", false), emRow("U1", d, "P2", false))
	}
	return append(records,
		emRow("U1", "2024-01-05", "P1", true),
		emRow("U1", "2024-02-01", "P1", false),
		emRow("U2", "2024-01-02", "P1", true),
		emRow("U2", "2024-03-01", "P1", false),
	)
}

func newRepo(t *testing.T) *store.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	repo, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "em.db"), store.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.EnsureSchema(ctx))
	_, err = repo.InsertRecords(ctx, seed())
	require.NoError(t, err)
	return repo
}

// keywordClassifier stands in for the model: "fill" means fill_pending.
var keywordClassifier = classifier.Func(func(_ context.Context, q string) (classifier.Intent, error) {
	if strings.Contains(strings.ToLower(q), "fill") {
		return classifier.FillPending, nil
	}
	return classifier.CheckPending, nil
})

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSteps(t *testing.T) (*Steps, *store.SQLiteStore) {
	t.Helper()
	repo := newRepo(t)
	return NewSteps(repo, keywordClassifier, quietLogger(), clock), repo
}

func newController(t *testing.T, opts ...Option) (*Controller, *store.SQLiteStore) {
	t.Helper()
	repo := newRepo(t)
	opts = append([]Option{WithClock(clock), WithLogger(quietLogger())}, opts...)
	c, err := NewController(repo, keywordClassifier, opts...)
	require.NoError(t, err)
	return c, repo
}
