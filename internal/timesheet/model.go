package timesheet

import (
	"encoding/json"
	"fmt"

	"github.com/avi3tal/emflow/internal/domain"
)

// Stage marks the last completed step of a thread.
type Stage string

const (
	StageIntentDetected      Stage = "intent_detected"
	StageFetchedPendingDates Stage = "fetched_pending_dates"
	StageProjectsSelected    Stage = "projects_selected"
	StageDatesSelected       Stage = "dates_selected"
	StageFormReady           Stage = "form_ready"
	StageAwaitingApproval    Stage = "awaiting_approval"
	StageApproved            Stage = "approved"
	StageSQLGenerated        Stage = "sql_generated"
	StageSQLValidated        Stage = "sql_validated"
	StageExecutionCompleted  Stage = "execution_completed"
	StageExecutionFailed     Stage = "execution_failed"
	StageCompleted           Stage = "completed"
	StageFailed              Stage = "failed"
)

var knownStages = map[Stage]bool{
	"":                       true,
	StageIntentDetected:      true,
	StageFetchedPendingDates: true,
	StageProjectsSelected:    true,
	StageDatesSelected:       true,
	StageFormReady:           true,
	StageAwaitingApproval:    true,
	StageApproved:            true,
	StageSQLGenerated:        true,
	StageSQLValidated:        true,
	StageExecutionCompleted:  true,
	StageExecutionFailed:     true,
	StageCompleted:           true,
	StageFailed:              true,
}

// Interrupt kinds, one per suspension point. They double as response statuses.
const (
	KindSelectProjects = "select_projects"
	KindSelectDates    = "awaiting_date_selection"
	KindCollectEntries = "collect_all_em_details"
	KindApproval       = "awaiting_approval"
)

// DateSelectionMode tells how the selected dates expand into work.
type DateSelectionMode string

const (
	ModeRanges DateSelectionMode = "ranges"
	ModeDates  DateSelectionMode = "dates"
)

// DateRange is an inclusive span of days chosen by the user.
type DateRange struct {
	RangeID   string `json:"range_id,omitempty"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// DateList accepts either a JSON list of dates or a single date string.
type DateList []string

func (l *DateList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = DateList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("selected_dates must be a date or a list of dates: %w", err)
	}
	*l = many
	return nil
}

// DateSelection answers the date selection question.
type DateSelection struct {
	Mode   DateSelectionMode `json:"date_selection_mode" validate:"required,oneof=ranges dates"`
	Ranges []DateRange       `json:"selected_ranges,omitempty" validate:"required_if=Mode ranges,dive"`
	Dates  DateList          `json:"selected_dates,omitempty" validate:"required_if=Mode dates,dive,datetime=2006-01-02"`
}

// FormEntry is one pre-filled (project x date-or-range) row of the entry form.
type FormEntry struct {
	RangeID   string `json:"range_id,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Date      string `json:"date,omitempty"`
	domain.ProjectSnapshot
}

// EntryInput is one row of the filled-in form as sent back by the user.
// In ranges mode StartDate and EndDate expand to one entry per day.
type EntryInput struct {
	RangeID                string   `json:"range_id,omitempty"`
	StartDate              string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate                string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Date                   string   `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ProjectID              string   `json:"project_id" validate:"required"`
	Hours                  float64  `json:"hours"`
	TaskType               string   `json:"task_type,omitempty"`
	Description            string   `json:"description,omitempty"`
	BillingType            string   `json:"billing_type,omitempty"`
	UpworkHours            float64  `json:"upwork_hours,omitempty"`
	TimeSpendHours         *float64 `json:"time_spend_hours,omitempty"`
	BillableHours          *float64 `json:"billable_hours,omitempty"`
	BillableDescription    string   `json:"billable_description,omitempty"`
	NonbillableHours       float64  `json:"nonbillable_hours,omitempty"`
	NonbillableDescription string   `json:"nonbillable_description,omitempty"`
	QARequired             bool     `json:"qa_required,omitempty"`
	TaskInchargeName       string   `json:"task_incharge_name,omitempty"`
	MeterName              string   `json:"meter_name,omitempty"`
}

// Entry is one expanded per-day row of the EM summary.
type Entry struct {
	Date                   string  `json:"date" validate:"required,datetime=2006-01-02"`
	ProjectID              string  `json:"project_id" validate:"required"`
	ProjectName            string  `json:"project_name"`
	ProjectCode            string  `json:"project_code"`
	ClientName             string  `json:"client_name"`
	Hours                  float64 `json:"hours"`
	TaskType               string  `json:"task_type"`
	Description            string  `json:"description"`
	BillingType            string  `json:"billing_type"`
	UpworkHours            float64 `json:"upwork_hours"`
	TimeSpendHours         float64 `json:"time_spend_hours"`
	BillableHours          float64 `json:"billable_hours"`
	BillableDescription    string  `json:"billable_description"`
	NonbillableHours       float64 `json:"nonbillable_hours"`
	NonbillableDescription string  `json:"nonbillable_description"`
	QARequired             bool    `json:"qa_required"`
	TaskInchargeName       string  `json:"task_incharge_name"`
	MeterName              string  `json:"meter_name"`
}

// ApprovalAction is the user's decision on the summary.
type ApprovalAction string

const (
	ActionApprove ApprovalAction = "approve"
	ActionEdit    ApprovalAction = "edit"
	ActionCancel  ApprovalAction = "cancel"
)

// ApprovalDecision answers the approval question. A non-empty Summary replaces the
// one under review.
type ApprovalDecision struct {
	Action  ApprovalAction `json:"action" validate:"required,oneof=approve edit cancel"`
	Summary []Entry        `json:"em_summary,omitempty" validate:"omitempty,dive"`
}

// ExecutionResult is the outcome of the submission transaction.
type ExecutionResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	InsertedCount int      `json:"inserted_count"`
	Errors        []string `json:"errors,omitempty"`
}

// Interrupt payloads exposed at each suspension point.
type (
	ProjectSelectionPrompt struct {
		AvailableProjects []domain.Project `json:"available_projects"`
	}

	DateSelectionPrompt struct {
		PendingDates     []string `json:"pending_dates"`
		SelectedProjects []string `json:"selected_projects"`
	}

	EntryCollectionPrompt struct {
		FormData          []FormEntry       `json:"form_data"`
		DateSelectionMode DateSelectionMode `json:"date_selection_mode"`
	}

	ApprovalPrompt struct {
		Summary          []Entry  `json:"em_summary"`
		TotalEntries     int      `json:"total_entries"`
		ValidationPassed bool     `json:"validation_passed"`
		ValidationErrors []string `json:"validation_errors"`
	}
)
