package models

// Analytics is the aggregate returned by GET /tasks/analytics.
// AverageCompletionTime is measured in days.
type Analytics struct {
	TotalTasks            int     `json:"totalTasks"`
	CompletedTasks        int     `json:"completedTasks"`
	InProgressTasks       int     `json:"inProgressTasks"`
	NotStartedTasks       int     `json:"notStartedTasks"`
	OnHoldTasks           int     `json:"onHoldTasks"`
	CancelledTasks        int     `json:"cancelledTasks"`
	OverdueTasks          int     `json:"overdueTasks"`
	CompletionRate        float64 `json:"completionRate"`
	AverageCompletionTime float64 `json:"averageCompletionTime"`
}
