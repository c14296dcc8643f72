package board

import (
	"math"
	"time"

	"github.com/TWRT/buildtrack/internal/models"
)

// Summarize aggregates tasks into the analytics counters. A task is overdue
// when its end date is before now and it is neither completed nor cancelled.
func Summarize(tasks []models.Task, now time.Time) models.Analytics {
	var a models.Analytics
	var completionDays float64
	var timed int

	for _, t := range tasks {
		a.TotalTasks++
		switch t.Status {
		case models.StatusCompleted:
			a.CompletedTasks++
			if t.StartDate != nil && t.CompletedAt != nil {
				completionDays += t.CompletedAt.Sub(*t.StartDate).Hours() / 24
				timed++
			}
		case models.StatusInProgress:
			a.InProgressTasks++
		case models.StatusNotStarted:
			a.NotStartedTasks++
		case models.StatusOnHold:
			a.OnHoldTasks++
		case models.StatusCancelled:
			a.CancelledTasks++
		}
		if t.EndDate != nil && t.EndDate.Before(now) &&
			t.Status != models.StatusCompleted && t.Status != models.StatusCancelled {
			a.OverdueTasks++
		}
	}

	if a.TotalTasks > 0 {
		a.CompletionRate = round2(float64(a.CompletedTasks) / float64(a.TotalTasks) * 100)
	}
	if timed > 0 {
		a.AverageCompletionTime = round2(completionDays / float64(timed))
	}
	return a
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
