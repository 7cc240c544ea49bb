package timesheet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avi3tal/emflow/internal/classifier"
)

func TestWorkflowStateMerge(t *testing.T) {
	t.Parallel()

	current := WorkflowState{UserID: "U1", Intent: classifier.FillPending, Stage: StageIntentDetected}
	next := current.Merge(WorkflowState{UserID: "U2", Intent: classifier.CheckPending, Stage: StageProjectsSelected, SelectedProjects: []string{"P1"}})
	require.Equal(t, "U1", next.UserID)
	require.Equal(t, classifier.FillPending, next.Intent)
	require.Equal(t, StageProjectsSelected, next.Stage)
	require.Equal(t, []string{"P1"}, next.SelectedProjects)

	fresh := WorkflowState{UserID: "U1"}.Merge(WorkflowState{UserID: "U1", Intent: classifier.CheckPending})
	require.Equal(t, classifier.CheckPending, fresh.Intent)
}

func TestWorkflowStateValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, WorkflowState{UserID: "U1"}.Validate())
	require.Error(t, WorkflowState{}.Validate())

	err := WorkflowState{UserID: "U1", Intent: "bogus"}.Validate()
	require.ErrorIs(t, err, ErrUnknownIntent)

	require.Error(t, WorkflowState{UserID: "U1", Stage: "somewhere"}.Validate())
	require.Error(t, WorkflowState{UserID: "U1", DateSelectionMode: "weeks"}.Validate())
	require.Error(t, WorkflowState{UserID: "U1", ApprovalAction: "maybe"}.Validate())

	unpaired := WorkflowState{UserID: "U1", SQLQueries: []string{"UPDATE"}, EMSummary: []Entry{{}}}
	require.Error(t, unpaired.Validate())

	paired := WorkflowState{UserID: "U1", SQLQueries: []string{"UPDATE"}, SQLParams: []SubmissionParams{{}}, EMSummary: []Entry{{}}}
	require.NoError(t, paired.Validate())
}

func TestDateListAcceptsSingleString(t *testing.T) {
	t.Parallel()

	var sel DateSelection
	require.NoError(t, json.Unmarshal([]byte(`{"date_selection_mode":"dates","selected_dates":"2024-01-02"}`), &sel))
	require.Equal(t, DateList{"2024-01-02"}, sel.Dates)

	require.NoError(t, json.Unmarshal([]byte(`{"date_selection_mode":"dates","selected_dates":["2024-01-02","2024-01-03"]}`), &sel))
	require.Equal(t, DateList{"2024-01-02", "2024-01-03"}, sel.Dates)

	require.Error(t, json.Unmarshal([]byte(`{"selected_dates":42}`), &sel))
}

func TestResumePayloadAnswer(t *testing.T) {
	t.Parallel()

	kind, value, err := ResumePayload{SelectedProjects: []string{"P1"}}.answer()
	require.NoError(t, err)
	require.Equal(t, KindSelectProjects, kind)
	require.Equal(t, []string{"P1"}, value)

	kind, _, err = ResumePayload{Approval: &ApprovalDecision{Action: ActionApprove}}.answer()
	require.NoError(t, err)
	require.Equal(t, KindApproval, kind)

	_, _, err = ResumePayload{}.answer()
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = ResumePayload{SelectedProjects: []string{"P1"}, DateSelection: &DateSelection{}}.answer()
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.True(t, IsInputError(err))
}
