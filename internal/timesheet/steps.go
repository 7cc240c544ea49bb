package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/domain"
	"github.com/avi3tal/emflow/internal/store"
	"github.com/avi3tal/emflow/pkg/types"
)

// Step names. They are the node ids of the workflow graph.
const (
	NodeIntentDetection      = "intent_detection"
	NodeFetchPendingDates    = "fetch_pending_dates"
	NodeFetchUserProjects    = "fetch_user_projects"
	NodePrepareDateSelection = "prepare_date_selection"
	NodeGenerateForm         = "generate_form_for_range"
	NodeGenerateSummary      = "generate_summary"
	NodeGenerateSQL          = "generate_sql_query"
	NodeValidateSQL          = "validate_sql_query"
	NodeExecuteSQL           = "execute_sql_query"
	NodeFinalResponse        = "generate_final_response"
)

type (
	cfg      = types.Config[WorkflowState]
	response = types.NodeResponse[WorkflowState]
)

// Steps holds the collaborators every step function needs.
type Steps struct {
	repo            store.Repository
	classifier      classifier.Classifier
	validate        *validator.Validate
	now             func() time.Time
	logger          *slog.Logger
	gateConcurrency int
}

// NewSteps wires the step functions to a store and a classifier.
func NewSteps(repo store.Repository, cls classifier.Classifier, logger *slog.Logger, now func() time.Time) *Steps {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Steps{
		repo:            repo,
		classifier:      cls,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		now:             now,
		logger:          logger,
		gateConcurrency: 4,
	}
}

func invalidAnswer(step string, err error) error {
	return fmt.Errorf("%s: %w: %v", step, types.ErrInvalidResume, err)
}

func (st *Steps) detectIntent(ctx context.Context, s WorkflowState, _ cfg) (response, error) {
	query := strings.TrimSpace(s.Query)
	if query == "" {
		return response{}, ErrEmptyQuery
	}
	intent, err := st.classifier.Classify(ctx, query)
	if err != nil {
		return response{}, fmt.Errorf("intent classification failed: %w", err)
	}
	st.logger.InfoContext(ctx, "intent detected", "user_id", s.UserID, "intent", intent)

	s.Intent = intent
	s.Stage = StageIntentDetected
	return types.Completed(s), nil
}

// routeIntent picks the branch taken after intent detection.
func (st *Steps) routeIntent(_ context.Context, s WorkflowState, _ cfg) (string, error) {
	switch s.Intent {
	case classifier.CheckPending, classifier.FillPending:
		return string(s.Intent), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s.Intent)
	}
}

func (st *Steps) fetchPendingDates(ctx context.Context, s WorkflowState, _ cfg) (response, error) {
	dates, err := st.repo.FindPendingDates(ctx, s.UserID)
	if err != nil {
		return response{}, err
	}
	st.logger.InfoContext(ctx, "fetched pending dates", "user_id", s.UserID, "count", len(dates))

	s.PendingDates = dates
	s.Stage = StageFetchedPendingDates
	if len(dates) == 0 {
		s.FinalMessage = "No pending EM dates."
	} else {
		s.FinalMessage = fmt.Sprintf("You have %d pending EM date(s).", len(dates))
	}
	return types.Completed(s), nil
}

func (st *Steps) fetchUserProjects(ctx context.Context, s WorkflowState, c cfg) (response, error) {
	projects, err := st.repo.FindAssignedProjects(ctx, s.UserID)
	if err != nil {
		return response{}, err
	}
	s.AvailableProjects = projects

	var selected []string
	ok, err := c.ResumeValue(0, &selected)
	if err != nil {
		return response{}, err
	}
	if !ok {
		st.logger.InfoContext(ctx, "awaiting project selection", "user_id", s.UserID, "count", len(projects))
		return types.Suspend(s, KindSelectProjects,
			"Please select the projects you want to fill EM for",
			ProjectSelectionPrompt{AvailableProjects: projects}), nil
	}

	selected = compact(selected)
	if len(selected) == 0 {
		return response{}, invalidAnswer(NodeFetchUserProjects, fmt.Errorf("no projects selected"))
	}
	for _, id := range selected {
		if !slices.ContainsFunc(projects, func(p domain.Project) bool { return p.ID == id }) {
			return response{}, invalidAnswer(NodeFetchUserProjects, fmt.Errorf("project %q is not assigned to user", id))
		}
	}
	st.logger.InfoContext(ctx, "projects selected", "user_id", s.UserID, "projects", selected)

	s.SelectedProjects = selected
	s.Stage = StageProjectsSelected
	return types.Completed(s), nil
}

func (st *Steps) prepareDateSelection(ctx context.Context, s WorkflowState, c cfg) (response, error) {
	dates, err := st.repo.FindPendingDatesForProjects(ctx, s.UserID, s.SelectedProjects)
	if err != nil {
		return response{}, err
	}
	s.PendingDates = dates

	var selection DateSelection
	ok, err := c.ResumeValue(0, &selection)
	if err != nil {
		return response{}, err
	}
	if !ok {
		return types.Suspend(s, KindSelectDates,
			"Select dates or create date ranges",
			DateSelectionPrompt{PendingDates: dates, SelectedProjects: s.SelectedProjects}), nil
	}
	if err := st.validate.Struct(selection); err != nil {
		return response{}, invalidAnswer(NodePrepareDateSelection, err)
	}
	st.logger.InfoContext(ctx, "dates selected", "user_id", s.UserID, "mode", selection.Mode,
		"ranges", len(selection.Ranges), "dates", len(selection.Dates))

	s.DateSelectionMode = selection.Mode
	s.SelectedRanges = nil
	s.SelectedDates = nil
	if selection.Mode == ModeRanges {
		s.SelectedRanges = selection.Ranges
	} else {
		s.SelectedDates = selection.Dates
	}
	s.Stage = StageDatesSelected
	return types.Completed(s), nil
}

func (st *Steps) generateForm(ctx context.Context, s WorkflowState, _ cfg) (response, error) {
	snapshots := make(map[string]*domain.ProjectSnapshot, len(s.SelectedProjects))
	for _, id := range s.SelectedProjects {
		snap, err := st.repo.FindLatestProjectSnapshot(ctx, s.UserID, id)
		if err != nil {
			return response{}, err
		}
		if snap == nil {
			st.logger.WarnContext(ctx, "no record for project, skipping", "user_id", s.UserID, "project_id", id)
		}
		snapshots[id] = snap
	}

	var form []FormEntry
	add := func(base FormEntry) {
		for _, id := range s.SelectedProjects {
			if snap := snapshots[id]; snap != nil {
				entry := base
				entry.ProjectSnapshot = *snap
				form = append(form, entry)
			}
		}
	}
	if s.DateSelectionMode == ModeRanges {
		for _, r := range s.SelectedRanges {
			add(FormEntry{RangeID: r.RangeID, StartDate: r.StartDate, EndDate: r.EndDate})
		}
	} else {
		for _, d := range s.SelectedDates {
			add(FormEntry{Date: d})
		}
	}
	st.logger.InfoContext(ctx, "generated form", "user_id", s.UserID, "count", len(form))

	s.FormData = form
	s.Stage = StageFormReady
	return types.Completed(s), nil
}

// generateSummary suspends twice: once for the filled-in form, then for the
// approval of the expanded summary. Edits and failed validations ask again.
func (st *Steps) generateSummary(ctx context.Context, s WorkflowState, c cfg) (response, error) {
	var inputs []EntryInput
	ok, err := c.ResumeValue(0, &inputs)
	if err != nil {
		return response{}, err
	}
	if !ok {
		return types.Suspend(s, KindCollectEntries,
			"Fill EM details for all selected ranges/dates",
			EntryCollectionPrompt{FormData: s.FormData, DateSelectionMode: s.DateSelectionMode}), nil
	}
	if len(inputs) == 0 {
		return response{}, invalidAnswer(NodeGenerateSummary, fmt.Errorf("no entries submitted"))
	}
	for _, in := range inputs {
		if err := st.validate.Struct(in); err != nil {
			return response{}, invalidAnswer(NodeGenerateSummary, err)
		}
	}

	summary, err := st.expand(ctx, s, inputs)
	if err != nil {
		return response{}, err
	}
	problems := ValidateSummary(summary)

	for i := 1; ; i++ {
		var decision ApprovalDecision
		ok, err := c.ResumeValue(i, &decision)
		if err != nil {
			return response{}, err
		}
		if !ok {
			s.EMSummary = summary
			s.SummaryErrors = problems
			s.ValidationPassed = len(problems) == 0
			s.Stage = StageAwaitingApproval
			message := "Review and approve EM entries"
			if len(problems) > 0 {
				message = "Please fix validation errors"
			}
			return types.Suspend(s, KindApproval, message, ApprovalPrompt{
				Summary:          summary,
				TotalEntries:     len(summary),
				ValidationPassed: len(problems) == 0,
				ValidationErrors: append([]string{}, problems...),
			}), nil
		}
		if err := st.validate.Struct(decision); err != nil {
			return response{}, invalidAnswer(NodeGenerateSummary, err)
		}
		if len(decision.Summary) > 0 {
			summary = normalize(decision.Summary)
			problems = ValidateSummary(summary)
		}

		if decision.Action == ActionEdit {
			continue
		}
		if decision.Action == ActionApprove && len(problems) > 0 {
			st.logger.InfoContext(ctx, "approval rejected by validation", "user_id", s.UserID, "count", len(problems))
			continue
		}

		st.logger.InfoContext(ctx, "summary decided", "user_id", s.UserID, "action", decision.Action, "count", len(summary))
		s.EMSummary = summary
		s.SummaryErrors = problems
		s.ValidationPassed = len(problems) == 0
		s.ApprovalAction = decision.Action
		s.Stage = StageApproved
		return types.Completed(s), nil
	}
}

// expand turns form rows into per-day entries, re-reading the project display
// fields from the store.
func (st *Steps) expand(ctx context.Context, s WorkflowState, inputs []EntryInput) ([]Entry, error) {
	infos := map[string]*domain.ProjectSnapshot{}
	var entries []Entry
	for i, in := range inputs {
		info, seen := infos[in.ProjectID]
		if !seen {
			var err error
			if info, err = st.repo.FindLatestProjectSnapshot(ctx, s.UserID, in.ProjectID); err != nil {
				return nil, err
			}
			infos[in.ProjectID] = info
		}

		if s.DateSelectionMode == ModeRanges && in.StartDate != "" && in.EndDate != "" {
			days, err := ExpandRange(in.StartDate, in.EndDate)
			if err != nil {
				return nil, invalidAnswer(NodeGenerateSummary, err)
			}
			if len(days) == 0 {
				st.logger.WarnContext(ctx, "reversed date range yields no entries", "user_id", s.UserID,
					"project_id", in.ProjectID, "start_date", in.StartDate, "end_date", in.EndDate)
			}
			for _, d := range days {
				entries = append(entries, toEntry(in, d, info))
			}
			continue
		}
		if in.Date == "" {
			return nil, invalidAnswer(NodeGenerateSummary, fmt.Errorf("entry %d has no date", i))
		}
		entries = append(entries, toEntry(in, in.Date, info))
	}
	st.logger.InfoContext(ctx, "expanded entries", "user_id", s.UserID, "count", len(entries))
	return entries, nil
}

func (st *Steps) generateSQL(ctx context.Context, s WorkflowState, _ cfg) (response, error) {
	s.SQLQueries, s.SQLParams = nil, nil
	if s.ApprovalAction != ActionCancel {
		s.SQLQueries, s.SQLParams = GenerateSubmissions(s.UserID, s.EMSummary, st.repo.Placeholder)
	}
	st.logger.InfoContext(ctx, "generated statements", "user_id", s.UserID, "count", len(s.SQLQueries))

	s.Stage = StageSQLGenerated
	return types.Completed(s), nil
}

func (st *Steps) validateSQL(ctx context.Context, s WorkflowState, _ cfg) (response, error) {
	s.Stage = StageSQLValidated
	if s.ApprovalAction == ActionCancel {
		s.ValidationPassed = false
		s.SQLValidationErrors = nil
		return types.Completed(s), nil
	}

	found := StaticGate(s.SQLQueries, s.SQLParams)
	dynamic, err := StoreGate(ctx, st.repo, st.now(), s.SQLParams, st.gateConcurrency)
	if err != nil {
		return response{}, err
	}
	for _, msg := range dynamic {
		if !slices.Contains(found, msg) {
			found = append(found, msg)
		}
	}

	s.SQLValidationErrors = found
	s.ValidationPassed = len(found) == 0
	if s.ValidationPassed {
		st.logger.InfoContext(ctx, "validation passed", "user_id", s.UserID)
	} else {
		st.logger.WarnContext(ctx, "validation failed", "user_id", s.UserID, "errors", found)
	}
	return types.Completed(s), nil
}

func (st *Steps) executeSQL(ctx context.Context, s WorkflowState, _ cfg) (response, error) {
	switch {
	case s.ApprovalAction == ActionCancel:
		s.ExecutionResult = &ExecutionResult{Message: "Submission cancelled by user"}
		s.Stage = StageExecutionFailed
		return types.Completed(s), nil
	case !s.ValidationPassed:
		st.logger.ErrorContext(ctx, "validation failed, skipping execution", "user_id", s.UserID)
		s.ExecutionResult = &ExecutionResult{Message: "Validation failed", Errors: s.SQLValidationErrors}
		s.Stage = StageExecutionFailed
		return types.Completed(s), nil
	}

	if len(s.SQLQueries) == 0 {
		st.logger.InfoContext(ctx, "nothing to submit", "user_id", s.UserID)
		s.ExecutionResult = &ExecutionResult{Success: true, Message: "No EM entries to submit"}
		s.InsertedCount = 0
		s.Stage = StageExecutionCompleted
		return types.Completed(s), nil
	}

	stmts := make([]store.Statement, len(s.SQLQueries))
	for i, q := range s.SQLQueries {
		stmts[i] = store.Statement{Query: q, Args: s.SQLParams[i].Args()}
	}
	affected, err := st.repo.ApplySubmissions(ctx, stmts)
	if err != nil {
		st.logger.ErrorContext(ctx, "transaction rolled back", "user_id", s.UserID, "error", err)
		s.ExecutionResult = &ExecutionResult{Message: fmt.Sprintf("Database error: %v", err)}
		s.InsertedCount = 0
		s.Stage = StageExecutionFailed
		return types.Completed(s), nil
	}

	inserted := 0
	for _, n := range affected {
		if n > 0 {
			inserted++
		}
	}
	st.logger.InfoContext(ctx, "submitted entries", "user_id", s.UserID, "count", inserted, "statements", len(stmts))
	s.ExecutionResult = &ExecutionResult{
		Success:       true,
		Message:       fmt.Sprintf("Successfully submitted %d EM entries", inserted),
		InsertedCount: inserted,
	}
	s.InsertedCount = inserted
	s.Stage = StageExecutionCompleted
	return types.Completed(s), nil
}

func (st *Steps) finalResponse(ctx context.Context, s WorkflowState, _ cfg) (response, error) {
	result := s.ExecutionResult
	if result != nil && result.Success {
		s.FinalMessage = fmt.Sprintf("Success! %d EM entries submitted successfully.", s.InsertedCount)
		s.Stage = StageCompleted
	} else {
		reason := "Unknown error"
		if result != nil && result.Message != "" {
			reason = result.Message
			if len(result.Errors) > 0 {
				reason += ": " + strings.Join(result.Errors, "; ")
			}
		}
		s.FinalMessage = "Failed to submit EM entries. Error: " + reason
		s.Stage = StageFailed
	}
	st.logger.InfoContext(ctx, "final response", "user_id", s.UserID, "message", s.FinalMessage)
	return types.Completed(s), nil
}

func normalize(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.BillingType == "" {
			e.BillingType = defaultBillingType
		}
		out[i] = e
	}
	return out
}

// compact trims, drops empty ids and removes duplicates, keeping order.
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
