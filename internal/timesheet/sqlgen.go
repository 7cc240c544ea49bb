package timesheet

import (
	"fmt"
	"strings"
)

const defaultTaskType = "Development"

var (
	submissionSet   = []string{"is_em_submitted", "task_type", "time_spend_hours", "time_spend_minutes", "billable_hours", "billable_minutes", "billable_description", "nonbillable_hours", "nonbillable_minutes", "nonbillable_description", "qa_required", "task_incharge_name", "meter_name", "billing_type", "upwork_hours"}
	submissionWhere = []string{"user_id", "em_date", "project_id", "is_em_submitted"}
)

// SubmissionQuery renders the per-entry update with the store's bind markers.
// It only matches rows that are still unsubmitted, so a row already submitted
// by someone else is left untouched.
func SubmissionQuery(placeholder func(int) string) string {
	var b strings.Builder
	b.WriteString("UPDATE em_data SET ")
	n := 0
	for _, col := range submissionSet {
		n++
		fmt.Fprintf(&b, "%s = %s, ", col, placeholder(n))
	}
	b.WriteString("updated_at = CURRENT_TIMESTAMP WHERE ")
	for i, col := range submissionWhere {
		n++
		if i > 0 {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s = %s", col, placeholder(n))
	}
	return b.String()
}

// SubmissionParams are the values bound to one SubmissionQuery, in bind order.
type SubmissionParams struct {
	Submitted              bool   `json:"is_em_submitted"`
	TaskType               string `json:"task_type"`
	TimeSpendHours         int    `json:"time_spend_hours"`
	TimeSpendMinutes       int    `json:"time_spend_minutes"`
	BillableHours          int    `json:"billable_hours"`
	BillableMinutes        int    `json:"billable_minutes"`
	BillableDescription    string `json:"billable_description"`
	NonbillableHours       int    `json:"nonbillable_hours"`
	NonbillableMinutes     int    `json:"nonbillable_minutes"`
	NonbillableDescription string `json:"nonbillable_description"`
	QARequired             bool   `json:"qa_required"`
	TaskInchargeName       string `json:"task_incharge_name"`
	MeterName              string `json:"meter_name"`
	BillingType            string `json:"billing_type"`
	UpworkHours            int    `json:"upwork_hours"`

	UserID       string `json:"user_id"`
	Date         string `json:"em_date"`
	ProjectID    string `json:"project_id"`
	WasSubmitted bool   `json:"match_submitted"`
}

// Args returns the bind values in placeholder order.
func (p SubmissionParams) Args() []any {
	return []any{
		p.Submitted,
		p.TaskType,
		p.TimeSpendHours,
		p.TimeSpendMinutes,
		p.BillableHours,
		p.BillableMinutes,
		p.BillableDescription,
		p.NonbillableHours,
		p.NonbillableMinutes,
		p.NonbillableDescription,
		p.QARequired,
		p.TaskInchargeName,
		p.MeterName,
		p.BillingType,
		p.UpworkHours,
		p.UserID,
		p.Date,
		p.ProjectID,
		p.WasSubmitted,
	}
}

// Hours reassembles the decimal hour values bound by p, keyed by column.
func (p SubmissionParams) Hours() []float64 {
	return []float64{
		float64(p.TimeSpendHours) + float64(p.TimeSpendMinutes)/60,
		float64(p.BillableHours) + float64(p.BillableMinutes)/60,
		float64(p.NonbillableHours) + float64(p.NonbillableMinutes)/60,
	}
}

// NewSubmissionParams derives the bind values for one summary entry.
func NewSubmissionParams(userID string, e Entry) SubmissionParams {
	p := SubmissionParams{
		Submitted:              true,
		TaskType:               e.TaskType,
		BillableDescription:    e.BillableDescription,
		NonbillableDescription: e.NonbillableDescription,
		QARequired:             e.QARequired,
		TaskInchargeName:       e.TaskInchargeName,
		MeterName:              e.MeterName,
		BillingType:            e.BillingType,
		UserID:                 userID,
		Date:                   e.Date,
		ProjectID:              e.ProjectID,
		WasSubmitted:           false,
	}
	if p.TaskType == "" {
		p.TaskType = defaultTaskType
	}
	if p.BillingType == "" {
		p.BillingType = defaultBillingType
	}
	p.TimeSpendHours, p.TimeSpendMinutes = splitHours(e.TimeSpendHours)
	p.BillableHours, p.BillableMinutes = splitHours(e.BillableHours)
	p.NonbillableHours, p.NonbillableMinutes = splitHours(e.NonbillableHours)
	p.UpworkHours, _ = splitHours(e.UpworkHours)
	return p
}

// GenerateSubmissions builds one statement and parameter set per entry, index aligned.
func GenerateSubmissions(userID string, entries []Entry, placeholder func(int) string) ([]string, []SubmissionParams) {
	query := SubmissionQuery(placeholder)
	queries := make([]string, len(entries))
	params := make([]SubmissionParams, len(entries))
	for i, e := range entries {
		queries[i] = query
		params[i] = NewSubmissionParams(userID, e)
	}
	return queries, params
}
