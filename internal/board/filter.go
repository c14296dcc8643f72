package board

import (
	"sort"
	"strings"
	"time"

	"github.com/TWRT/buildtrack/internal/models"
)

// Matches reports whether t passes every non-empty clause of c.
func Matches(t models.Task, c models.Criteria) bool {
	if c.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(c.Search)) {
		return false
	}
	if c.ProjectID != "" && t.Project.ID != c.ProjectID {
		return false
	}
	if c.Status != "" && t.Status != c.Status {
		return false
	}
	if c.Priority != "" && t.Priority != c.Priority {
		return false
	}
	if c.Category != "" && t.Category != c.Category {
		return false
	}
	if c.AssigneeID != "" && !t.HasAssignee(c.AssigneeID) {
		return false
	}
	return true
}

// Filter keeps the tasks matching c in their original order.
func Filter(tasks []models.Task, c models.Criteria) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, c) {
			out = append(out, t)
		}
	}
	return out
}

// Sort returns a stably sorted copy of tasks. An unknown or empty sort field
// keeps the input order.
func Sort(tasks []models.Task, cfg models.SortConfig) []models.Task {
	out := append([]models.Task(nil), tasks...)
	cmp := comparator(cfg.By)
	if cmp == nil {
		return out
	}
	desc := cfg.Order == models.SortDesc
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Visible is what a list view shows: filtered, then sorted.
func Visible(tasks []models.Task, c models.Criteria, cfg models.SortConfig) []models.Task {
	return Sort(Filter(tasks, c), cfg)
}

func comparator(field models.SortField) func(a, b models.Task) int {
	switch field {
	case models.SortByName:
		return func(a, b models.Task) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case models.SortByPriority:
		return func(a, b models.Task) int { return a.Priority.Rank() - b.Priority.Rank() }
	case models.SortByStatus:
		return func(a, b models.Task) int { return a.Status.Rank() - b.Status.Rank() }
	case models.SortByStartDate:
		return func(a, b models.Task) int { return compareDates(a.StartDate, b.StartDate) }
	case models.SortByEndDate:
		return func(a, b models.Task) int { return compareDates(a.EndDate, b.EndDate) }
	case models.SortByPercentageComplete:
		return func(a, b models.Task) int { return a.PercentageComplete - b.PercentageComplete }
	}
	return nil
}

// A missing date sorts as the Unix epoch.
func compareDates(a, b *time.Time) int {
	return dateOrEpoch(a).Compare(dateOrEpoch(b))
}

func dateOrEpoch(t *time.Time) time.Time {
	if t == nil {
		return time.Unix(0, 0)
	}
	return *t
}
