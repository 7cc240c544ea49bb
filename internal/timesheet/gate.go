package timesheet

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avi3tal/emflow/internal/domain"
	"github.com/avi3tal/emflow/internal/store"
)

// AllowedTaskTypes is the closed set of task types a submission may carry.
var AllowedTaskTypes = []string{"Development", "Design", "HR", "QA", "Testing", "Meeting", "Review", "Other"}

var (
	verbPattern      = regexp.MustCompile(`(?i)^\s*(UPDATE|INSERT)\b`)
	keywordPattern   = regexp.MustCompile(`(?i)\b(DROP|DELETE|TRUNCATE|ALTER|CREATE|EXEC|EXECUTE|UNION)\b`)
	procedurePattern = regexp.MustCompile(`(?i)\b(xp|sp)_`)
	commentMarkers   = []string{"--", "/*", "*/"}
)

// problems collects distinct messages in first-seen order.
type problems struct {
	seen map[string]bool
	list []string
}

func (p *problems) add(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.seen == nil {
		p.seen = map[string]bool{}
	}
	if p.seen[msg] {
		return
	}
	p.seen[msg] = true
	p.list = append(p.list, msg)
}

// StaticGate checks statement shapes and bound values without touching the store.
func StaticGate(queries []string, params []SubmissionParams) []string {
	var found problems
	if len(queries) != len(params) {
		found.add("Statement count %d does not match parameter count %d", len(queries), len(params))
	}

	for _, q := range queries {
		if !verbPattern.MatchString(q) {
			found.add("Statement must begin with UPDATE or INSERT")
		}
		for _, m := range keywordPattern.FindAllString(q, -1) {
			found.add("Dangerous SQL keyword detected: %s", strings.ToUpper(m))
		}
		for _, marker := range commentMarkers {
			if strings.Contains(q, marker) {
				found.add("Dangerous SQL keyword detected: %s", marker)
			}
		}
		for _, m := range procedurePattern.FindAllString(q, -1) {
			found.add("Dangerous SQL keyword detected: %s", strings.ToLower(m))
		}
	}

	for i, p := range params {
		for _, h := range p.Hours() {
			if math.IsNaN(h) || h < 0 || h > MaxDailyHours {
				found.add("Invalid hours for entry %d: %s", i, formatHours(h))
			}
		}
		if _, err := domain.ParseDate(p.Date); err != nil {
			found.add("Invalid date format: %s", p.Date)
		}
		if !slices.Contains(AllowedTaskTypes, p.TaskType) {
			found.add("Invalid task type: %s", p.TaskType)
		}
	}
	return found.list
}

// StoreGate re-checks every entry against the store: the project is still
// assigned, the date is not in the future and nothing was submitted yet.
// Date checks are skipped for malformed dates, which StaticGate reports.
// Entries are checked concurrently; messages keep entry order.
func StoreGate(ctx context.Context, repo store.Repository, now time.Time, params []SubmissionParams, concurrency int) ([]string, error) {
	today, _ := domain.ParseDate(domain.FormatDate(now))
	perEntry := make([][]string, len(params))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, p := range params {
		g.Go(func() error {
			var msgs []string
			assigned, err := repo.CheckProjectAssigned(ctx, p.UserID, p.ProjectID)
			if err != nil {
				return err
			}
			if !assigned {
				msgs = append(msgs, fmt.Sprintf("Project %s not assigned to user", p.ProjectID))
			}
			d, err := domain.ParseDate(p.Date)
			if err != nil {
				perEntry[i] = msgs
				return nil
			}
			if d.After(today) {
				msgs = append(msgs, fmt.Sprintf("Cannot submit EM for future date: %s", p.Date))
			}
			submitted, err := repo.CheckAlreadySubmitted(ctx, p.UserID, p.Date, p.ProjectID)
			if err != nil {
				return err
			}
			if submitted {
				msgs = append(msgs, fmt.Sprintf("EM already submitted for %s, %s", p.Date, p.ProjectID))
			}
			perEntry[i] = msgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("store validation failed: %w", err)
	}

	var found problems
	for _, msgs := range perEntry {
		for _, m := range msgs {
			found.add("%s", m)
		}
	}
	return found.list, nil
}
