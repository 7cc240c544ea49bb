package timesheet

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmissionQuery(t *testing.T) {
	t.Parallel()

	q := SubmissionQuery(func(n int) string { return "$" + strconv.Itoa(n) })
	require.True(t, strings.HasPrefix(q, "UPDATE em_data SET is_em_submitted = $1, task_type = $2,"))
	require.Contains(t, q, "updated_at = CURRENT_TIMESTAMP")
	require.True(t, strings.HasSuffix(q, "WHERE user_id = $16 AND em_date = $17 AND project_id = $18 AND is_em_submitted = $19"))

	q = SubmissionQuery(func(int) string { return "?" })
	require.Equal(t, len(SubmissionParams{}.Args()), strings.Count(q, "?"))
}

func TestGenerateSubmissions(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Date: "2024-01-01", ProjectID: "P1", Hours: 7.5, TimeSpendHours: 7.5, BillableHours: 7.5, UpworkHours: 2.75},
		{Date: "2024-01-02", ProjectID: "P2", Hours: 8, TimeSpendHours: 8, BillableHours: 6, NonbillableHours: 2, TaskType: "QA", BillingType: "Fixed"},
	}
	queries, params := GenerateSubmissions("U1", entries, func(int) string { return "?" })
	require.Len(t, queries, len(entries))
	require.Len(t, params, len(entries))

	first := params[0]
	require.Equal(t, "Development", first.TaskType)
	require.Equal(t, "Hourly", first.BillingType)
	require.Equal(t, 7, first.TimeSpendHours)
	require.Equal(t, 30, first.TimeSpendMinutes)
	require.Equal(t, 2, first.UpworkHours)
	require.True(t, first.Submitted)
	require.False(t, first.WasSubmitted)

	args := params[1].Args()
	require.Len(t, args, 19)
	require.Equal(t, true, args[0])
	require.Equal(t, "QA", args[1])
	require.Equal(t, 6, args[4])
	require.Equal(t, 2, args[7])
	require.Equal(t, "Fixed", args[13])
	require.Equal(t, []any{"U1", "2024-01-02", "P2", false}, args[15:])
}
