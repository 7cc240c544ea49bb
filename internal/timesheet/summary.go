package timesheet

import (
	"fmt"
	"math"
	"strconv"

	"github.com/avi3tal/emflow/internal/domain"
)

// MaxDailyHours is both the per-entry cap and the required per-date total.
const MaxDailyHours = 8

const defaultBillingType = "Hourly"

// ExpandRange lists every day from start to end inclusive. A reversed range
// yields no days.
func ExpandRange(start, end string) ([]string, error) {
	from, err := domain.ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", start, err)
	}
	to, err := domain.ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: %w", end, err)
	}
	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, domain.FormatDate(d))
	}
	return days, nil
}

// toEntry builds a summary entry for one day, filling the defaults the form leaves out.
func toEntry(in EntryInput, date string, info *domain.ProjectSnapshot) Entry {
	e := Entry{
		Date:                   date,
		ProjectID:              in.ProjectID,
		Hours:                  in.Hours,
		TaskType:               in.TaskType,
		Description:            in.Description,
		BillingType:            in.BillingType,
		UpworkHours:            in.UpworkHours,
		TimeSpendHours:         in.Hours,
		BillableHours:          in.Hours,
		BillableDescription:    in.BillableDescription,
		NonbillableHours:       in.NonbillableHours,
		NonbillableDescription: in.NonbillableDescription,
		QARequired:             in.QARequired,
		TaskInchargeName:       in.TaskInchargeName,
		MeterName:              in.MeterName,
	}
	if e.BillingType == "" {
		e.BillingType = defaultBillingType
	}
	if in.TimeSpendHours != nil {
		e.TimeSpendHours = *in.TimeSpendHours
	}
	if in.BillableHours != nil {
		e.BillableHours = *in.BillableHours
	}
	if info != nil {
		e.ProjectName = info.ProjectName
		e.ProjectCode = info.ProjectCode
		e.ClientName = info.ClientName
	}
	return e
}

// ValidateSummary applies the per-date business rules and returns every
// violation, in order of first appearance of each date.
func ValidateSummary(entries []Entry) []string {
	var (
		order  []string
		byDate = map[string][]Entry{}
	)
	for _, e := range entries {
		if _, ok := byDate[e.Date]; !ok {
			order = append(order, e.Date)
		}
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	var problems []string
	for _, date := range order {
		group := byDate[date]

		var total float64
		for _, e := range group {
			total += e.Hours
		}
		if toMinutes(total) != MaxDailyHours*60 {
			problems = append(problems, fmt.Sprintf("Total hours for %s must equal %d (got %sh)", date, MaxDailyHours, formatHours(total)))
		}

		for _, e := range group {
			if e.Hours > MaxDailyHours {
				problems = append(problems, fmt.Sprintf("Hours for %s on %s cannot exceed %d hours", displayName(e), date, MaxDailyHours))
			}
		}

		seen := make(map[string]bool, len(group))
		for _, e := range group {
			if seen[e.ProjectID] {
				problems = append(problems, fmt.Sprintf("Duplicate project entries found for %s", date))
				break
			}
			seen[e.ProjectID] = true
		}
	}
	return problems
}

func displayName(e Entry) string {
	if e.ProjectName != "" {
		return e.ProjectName
	}
	return e.ProjectID
}

func toMinutes(hours float64) int {
	return int(math.Round(hours * 60))
}

// splitHours turns decimal hours into whole hours and minutes: 7.5 is 7h 30m.
func splitHours(hours float64) (int, int) {
	minutes := toMinutes(hours)
	return minutes / 60, minutes % 60
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}
