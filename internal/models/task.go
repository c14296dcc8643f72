package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status in board column order.
var Statuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusOnHold,
	StatusCompleted,
	StatusCancelled,
}

func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of s in Statuses, or -1 for an unknown status.
func (s Status) Rank() int {
	for i, status := range Statuses {
		if status == s {
			return i
		}
	}
	return -1
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", &ValidationError{
			Fields:  []string{"status"},
			Message: fmt.Sprintf("invalid status %q", s),
		}
	}
	return status, nil
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	return p.Rank() >= 0
}

// Rank orders priorities low < medium < high < critical.
func (p Priority) Rank() int {
	for i, priority := range Priorities {
		if priority == p {
			return i
		}
	}
	return -1
}

type Category string

const (
	CategoryConstruction Category = "construction"
	CategoryInspection   Category = "inspection"
	CategoryProcurement  Category = "procurement"
	CategoryPlanning     Category = "planning"
	CategorySafety       Category = "safety"
	CategoryOther        Category = "other"
)

var Categories = []Category{
	CategoryConstruction,
	CategoryInspection,
	CategoryProcurement,
	CategoryPlanning,
	CategorySafety,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, category := range Categories {
		if category == c {
			return true
		}
	}
	return false
}

type AssigneeRole string

const (
	RoleLead       AssigneeRole = "lead"
	RoleWorker     AssigneeRole = "worker"
	RoleInspector  AssigneeRole = "inspector"
	RoleSupervisor AssigneeRole = "supervisor"
)

var AssigneeRoles = []AssigneeRole{RoleLead, RoleWorker, RoleInspector, RoleSupervisor}

func (r AssigneeRole) Valid() bool {
	for _, role := range AssigneeRoles {
		if role == r {
			return true
		}
	}
	return false
}

// ProjectRef is a reference to a project. The API sends either the bare id or
// a populated object, so both decode into the same value.
type ProjectRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (p *ProjectRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*p = ProjectRef{ID: id}
		return nil
	}
	type plain ProjectRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse project reference: %w", err)
	}
	*p = ProjectRef(v)
	return nil
}

// UserRef behaves like ProjectRef for assignee users.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (u *UserRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*u = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse user reference: %w", err)
	}
	*u = UserRef(v)
	return nil
}

type Assignee struct {
	User UserRef      `json:"user"`
	Role AssigneeRole `json:"role"`
}

type ChecklistItem struct {
	Item      string `json:"item"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID                 string          `json:"_id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Status             Status          `json:"status"`
	Priority           Priority        `json:"priority"`
	Category           Category        `json:"category"`
	StartDate          *time.Time      `json:"startDate,omitempty"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
	PercentageComplete int             `json:"percentageComplete"`
	EstimatedHours     float64         `json:"estimatedHours"`
	Project            ProjectRef      `json:"project"`
	Assignees          []Assignee      `json:"assignees"`
	Checklist          []ChecklistItem `json:"checklist"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Clone returns a copy of t that shares no slices or time pointers with it.
func (t Task) Clone() Task {
	c := t
	if t.Assignees != nil {
		c.Assignees = append([]Assignee(nil), t.Assignees...)
	}
	if t.Checklist != nil {
		c.Checklist = append([]ChecklistItem(nil), t.Checklist...)
	}
	c.StartDate = cloneTime(t.StartDate)
	c.EndDate = cloneTime(t.EndDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return c
}

// HasAssignee reports whether userID appears anywhere in the assignee list.
func (t Task) HasAssignee(userID string) bool {
	for _, a := range t.Assignees {
		if a.User.ID == userID {
			return true
		}
	}
	return false
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
