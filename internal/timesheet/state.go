package timesheet

import (
	"errors"
	"fmt"

	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/domain"
)

// WorkflowState is the record threaded through every step of one user's request.
// It is checkpointed at every step boundary.
type WorkflowState struct {
	UserID string            `json:"user_id"`
	Query  string            `json:"query,omitempty"`
	Intent classifier.Intent `json:"intent,omitempty"`
	Stage  Stage             `json:"stage,omitempty"`

	PendingDates      []string         `json:"pending_dates,omitempty"`
	AvailableProjects []domain.Project `json:"available_projects,omitempty"`
	SelectedProjects  []string         `json:"selected_projects,omitempty"`

	DateSelectionMode DateSelectionMode `json:"date_selection_mode,omitempty"`
	SelectedRanges    []DateRange       `json:"selected_ranges,omitempty"`
	SelectedDates     []string          `json:"selected_dates,omitempty"`

	FormData         []FormEntry    `json:"form_data,omitempty"`
	EMSummary        []Entry        `json:"em_summary,omitempty"`
	SummaryErrors    []string       `json:"validation_errors,omitempty"`
	ApprovalAction   ApprovalAction `json:"approval_action,omitempty"`
	ValidationPassed bool           `json:"validation_passed"`

	SQLQueries          []string           `json:"sql_queries,omitempty"`
	SQLParams           []SubmissionParams `json:"sql_params,omitempty"`
	SQLValidationErrors []string           `json:"sql_validation_errors,omitempty"`

	ExecutionResult *ExecutionResult `json:"execution_result,omitempty"`
	InsertedCount   int              `json:"inserted_count"`
	FinalMessage    string           `json:"final_message,omitempty"`
}

// Validate checks the invariants that must hold at every step boundary.
func (s WorkflowState) Validate() error {
	var errs []error
	if s.UserID == "" {
		errs = append(errs, errors.New("user_id is required"))
	}
	if s.Intent != "" && !s.Intent.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownIntent, s.Intent))
	}
	if !knownStages[s.Stage] {
		errs = append(errs, fmt.Errorf("unknown stage %q", s.Stage))
	}
	switch s.DateSelectionMode {
	case "", ModeRanges, ModeDates:
	default:
		errs = append(errs, fmt.Errorf("unknown date selection mode %q", s.DateSelectionMode))
	}
	if len(s.SQLQueries) != len(s.SQLParams) {
		errs = append(errs, fmt.Errorf("sql_queries (%d) and sql_params (%d) are not paired", len(s.SQLQueries), len(s.SQLParams)))
	}
	if len(s.SQLQueries) > 0 && len(s.SQLQueries) != len(s.EMSummary) {
		errs = append(errs, fmt.Errorf("%d statements generated for %d summary entries", len(s.SQLQueries), len(s.EMSummary)))
	}
	switch s.ApprovalAction {
	case "", ActionApprove, ActionEdit, ActionCancel:
	default:
		errs = append(errs, fmt.Errorf("unknown approval action %q", s.ApprovalAction))
	}
	return errors.Join(errs...)
}

// Merge takes other as the new state. The intent, once detected, and the
// thread owner never change.
func (s WorkflowState) Merge(other WorkflowState) WorkflowState {
	merged := other
	if s.Intent != "" {
		merged.Intent = s.Intent
	}
	if s.UserID != "" {
		merged.UserID = s.UserID
	}
	return merged
}
