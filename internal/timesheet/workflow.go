package timesheet

import (
	"fmt"

	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/graph"
	"github.com/avi3tal/emflow/pkg/agents"
	"github.com/avi3tal/emflow/pkg/workflow"
)

// GraphID is the stable checkpoint namespace of the EM workflow.
const GraphID = "em-workflow"

// BuildWorkflow assembles the fixed step graph:
//
//	intent_detection -> check_pending -> fetch_pending_dates -> END
//	                 -> fill_pending  -> fetch_user_projects -> prepare_date_selection
//	                    -> generate_form_for_range -> generate_summary -> generate_sql_query
//	                    -> validate_sql_query -> execute_sql_query -> generate_final_response -> END
func BuildWorkflow(st *Steps) (*workflow.Builder[WorkflowState], error) {
	wf := workflow.NewBuilder[WorkflowState]("em", graph.WithGraphID(GraphID))

	intent := agents.NewSimpleAgent(NodeIntentDetection, st.detectIntent, nil)
	pending := agents.NewSimpleAgent(NodeFetchPendingDates, st.fetchPendingDates, nil)
	projects := agents.NewSuspendingAgent(NodeFetchUserProjects, st.fetchUserProjects)
	dates := agents.NewSuspendingAgent(NodePrepareDateSelection, st.prepareDateSelection)
	form := agents.NewSimpleAgent(NodeGenerateForm, st.generateForm, nil)
	summary := agents.NewSuspendingAgent(NodeGenerateSummary, st.generateSummary)
	sqlgen := agents.NewSimpleAgent(NodeGenerateSQL, st.generateSQL, nil)
	gate := agents.NewSimpleAgent(NodeValidateSQL, st.validateSQL, nil)
	execute := agents.NewSimpleAgent(NodeExecuteSQL, st.executeSQL, nil)
	final := agents.NewSimpleAgent(NodeFinalResponse, st.finalResponse, nil)

	err := wf.AddAgent(intent).
		AsEntryPoint().
		OnCondition(st.routeIntent, map[string]workflow.Agent[WorkflowState]{
			string(classifier.CheckPending): pending,
			string(classifier.FillPending):  projects,
		}).
		Err()
	if err != nil {
		return nil, fmt.Errorf("failed to build intent routing: %w", err)
	}

	if err := wf.From(pending).End(); err != nil {
		return nil, fmt.Errorf("failed to build check_pending branch: %w", err)
	}

	err = wf.From(projects).
		Then(dates).
		Then(form).
		Then(summary).
		Then(sqlgen).
		Then(gate).
		Then(execute).
		Then(final).
		End()
	if err != nil {
		return nil, fmt.Errorf("failed to build fill_pending branch: %w", err)
	}
	return wf, nil
}
