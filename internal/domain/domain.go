// Package domain holds the timesheet records shared by the store and the workflow.
package domain

import "time"

// DateLayout is the wire and storage format of EM dates.
const DateLayout = "2006-01-02"

// Project is one project a user may log time against.
type Project struct {
	ID         string `json:"project_id"`
	Name       string `json:"project_name"`
	Code       string `json:"project_code"`
	ClientName string `json:"client_name"`
}

// ProjectSnapshot is the most recent metadata recorded for a user on a project.
// It pre-fills the entry form.
type ProjectSnapshot struct {
	UserRole               string `json:"user_role"`
	ClientName             string `json:"client_name"`
	ProjectID              string `json:"project_id"`
	ProjectName            string `json:"project_name"`
	ProjectCode            string `json:"project_code"`
	TaskType               string `json:"task_type"`
	BillingType            string `json:"billing_type"`
	UpworkHours            int    `json:"upwork_hours"`
	TimeSpendHours         int    `json:"time_spend_hours"`
	BillableHours          int    `json:"billable_hours"`
	BillableDescription    string `json:"billable_description"`
	NonbillableHours       int    `json:"nonbillable_hours"`
	NonbillableDescription string `json:"nonbillable_description"`
	QARequired             bool   `json:"qa_required"`
	TaskInchargeName       string `json:"task_incharge_name"`
	MeterName              string `json:"meter_name"`
}

// Record is a full em_data row. It is used to seed stores.
type Record struct {
	UserID    string `json:"user_id" yaml:"user_id"`
	UserName  string `json:"user_name" yaml:"user_name"`
	UserEmail string `json:"user_email" yaml:"user_email"`
	UserRole  string `json:"user_role" yaml:"user_role"`

	Date      string `json:"em_date" yaml:"em_date"`
	Submitted bool   `json:"is_em_submitted" yaml:"is_em_submitted"`

	ClientID    string `json:"client_id" yaml:"client_id"`
	ClientName  string `json:"client_name" yaml:"client_name"`
	ProjectID   string `json:"project_id" yaml:"project_id"`
	ProjectName string `json:"project_name" yaml:"project_name"`
	ProjectCode string `json:"project_code" yaml:"project_code"`
	Assigned    bool   `json:"is_project_assigned" yaml:"is_project_assigned"`

	TaskFor  string `json:"task_for" yaml:"task_for"`
	TaskType string `json:"task_type" yaml:"task_type"`

	BillingType            string `json:"billing_type" yaml:"billing_type"`
	UpworkHours            int    `json:"upwork_hours" yaml:"upwork_hours"`
	UpworkMinutes          int    `json:"upwork_minutes" yaml:"upwork_minutes"`
	TimeSpendHours         int    `json:"time_spend_hours" yaml:"time_spend_hours"`
	TimeSpendMinutes       int    `json:"time_spend_minutes" yaml:"time_spend_minutes"`
	BillableHours          int    `json:"billable_hours" yaml:"billable_hours"`
	BillableMinutes        int    `json:"billable_minutes" yaml:"billable_minutes"`
	BillableDescription    string `json:"billable_description" yaml:"billable_description"`
	NonbillableHours       int    `json:"nonbillable_hours" yaml:"nonbillable_hours"`
	NonbillableMinutes     int    `json:"nonbillable_minutes" yaml:"nonbillable_minutes"`
	NonbillableDescription string `json:"nonbillable_description" yaml:"nonbillable_description"`

	QARequired       bool   `json:"qa_required" yaml:"qa_required"`
	QAApproved       bool   `json:"qa_approved" yaml:"qa_approved"`
	TaskInchargeID   string `json:"task_incharge_id" yaml:"task_incharge_id"`
	TaskInchargeName string `json:"task_incharge_name" yaml:"task_incharge_name"`
	MeterID          string `json:"meter_id" yaml:"meter_id"`
	MeterName        string `json:"meter_name" yaml:"meter_name"`

	WorkingDay bool `json:"is_working_day" yaml:"is_working_day"`
	Holiday    bool `json:"is_holiday" yaml:"is_holiday"`
}

// WithDefaults fills the column defaults of em_data.
func (r Record) WithDefaults() Record {
	if r.TaskFor == "" {
		r.TaskFor = "Self"
	}
	if r.BillingType == "" {
		r.BillingType = "Hourly"
	}
	if r.TaskType == "" {
		r.TaskType = "Development"
	}
	return r
}

// ParseDate parses an EM date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as an EM date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
