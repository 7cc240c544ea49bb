package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/domain"
	"github.com/avi3tal/emflow/internal/store"
	"github.com/avi3tal/emflow/internal/timesheet"
)

const demoUser = "demo"

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk a scripted fill_pending thread against a throwaway SQLite store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := os.MkdirTemp("", "emflow-demo-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		return runDemo(cmd.Context(), cmd.OutOrStdout(), dir, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// demoRecords leaves the three weekdays before today pending on two projects.
func demoRecords(today time.Time) []domain.Record {
	var records []domain.Record
	day := today
	for n := 0; n < 3; {
		day = day.AddDate(0, 0, -1)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		n++
		for _, p := range []struct{ id, name string }{{"P1", "Portal"}, {"P2", "Billing"}} {
			records = append(records, domain.Record{
				UserID:      demoUser,
				UserName:    "Demo User",
				UserRole:    "Engineer",
				Date:        domain.FormatDate(day),
				ClientName:  "Acme",
				ProjectID:   p.id,
				ProjectName: p.name,
				ProjectCode: strings.ToUpper(p.name[:3]),
				Assigned:    true,
				TaskType:    "Development",
				WorkingDay:  true,
			})
		}
	}
	return records
}

func runDemo(ctx context.Context, w io.Writer, dir string, today time.Time) error {
	clock := func() time.Time { return today }
	repo, err := store.OpenSQLite(ctx, filepath.Join(dir, "demo.db"), store.WithClock(clock))
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if _, err := repo.InsertRecords(ctx, demoRecords(today)); err != nil {
		return err
	}

	ctrl, err := timesheet.NewController(repo, classifier.Static(classifier.FillPending),
		timesheet.WithClock(clock),
		timesheet.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return err
	}

	res, err := ctrl.Start(ctx, demoUser, "fill my pending EM")
	if err != nil {
		return err
	}
	printTurn(w, res)

	projects, err := decodeData[timesheet.ProjectSelectionPrompt](res)
	if err != nil {
		return err
	}
	selected := make([]string, len(projects.AvailableProjects))
	for i, p := range projects.AvailableProjects {
		selected[i] = p.ID
	}
	if res, err = ctrl.Resume(ctx, demoUser, timesheet.ResumePayload{SelectedProjects: selected}); err != nil {
		return err
	}
	printTurn(w, res)

	dates, err := decodeData[timesheet.DateSelectionPrompt](res)
	if err != nil {
		return err
	}
	if len(dates.PendingDates) == 0 {
		return fmt.Errorf("demo store has no pending dates")
	}
	res, err = ctrl.Resume(ctx, demoUser, timesheet.ResumePayload{DateSelection: &timesheet.DateSelection{
		Mode:  timesheet.ModeDates,
		Dates: timesheet.DateList{dates.PendingDates[0]},
	}})
	if err != nil {
		return err
	}
	printTurn(w, res)

	form, err := decodeData[timesheet.EntryCollectionPrompt](res)
	if err != nil {
		return err
	}
	perDate := map[string]int{}
	for _, row := range form.FormData {
		perDate[row.Date]++
	}
	entries := make([]timesheet.EntryInput, 0, len(form.FormData))
	for _, row := range form.FormData {
		entries = append(entries, timesheet.EntryInput{
			Date:        row.Date,
			ProjectID:   row.ProjectID,
			Hours:       timesheet.MaxDailyHours / float64(perDate[row.Date]),
			TaskType:    "Development",
			Description: "Demo work on " + row.ProjectName,
		})
	}
	if res, err = ctrl.Resume(ctx, demoUser, timesheet.ResumePayload{EMDetails: entries}); err != nil {
		return err
	}
	printTurn(w, res)

	if res, err = ctrl.Resume(ctx, demoUser, timesheet.ResumePayload{Approval: &timesheet.ApprovalDecision{Action: timesheet.ActionApprove}}); err != nil {
		return err
	}
	printTurn(w, res)

	if res.Status != "completed" {
		return fmt.Errorf("demo ended with status %s: %s", res.Status, res.Message)
	}
	return nil
}

func printTurn(w io.Writer, res *timesheet.StepResult) {
	fmt.Fprintf(w, "[%s] %s\n", res.Status, res.Message)
	if !res.Suspended() {
		return
	}
	data, err := json.MarshalIndent(res.Data, "  ", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(w, "  %s\n", data)
}

// decodeData converts an interrupt payload into its prompt type.
func decodeData[P any](res *timesheet.StepResult) (P, error) {
	var out P
	raw, err := json.Marshal(res.Data)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unexpected %s payload: %w", res.Status, err)
	}
	return out, nil
}
