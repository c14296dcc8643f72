package models

import (
	"strings"
	"time"
)

// TaskDraft is the body of create and update requests.
type TaskDraft struct {
	Name               string          `json:"name" yaml:"name"`
	Description        string          `json:"description" yaml:"description"`
	Status             Status          `json:"status,omitempty" yaml:"status"`
	Priority           Priority        `json:"priority" yaml:"priority"`
	Category           Category        `json:"category" yaml:"category"`
	StartDate          *time.Time      `json:"startDate,omitempty" yaml:"startDate"`
	EndDate            *time.Time      `json:"endDate,omitempty" yaml:"endDate"`
	PercentageComplete int             `json:"percentageComplete" yaml:"percentageComplete"`
	EstimatedHours     float64         `json:"estimatedHours" yaml:"estimatedHours"`
	Project            string          `json:"project" yaml:"project"`
	Assignees          []DraftAssignee `json:"assignees,omitempty" yaml:"assignees"`
	Checklist          []ChecklistItem `json:"checklist,omitempty" yaml:"checklist"`
}

type DraftAssignee struct {
	User string       `json:"user" yaml:"user"`
	Role AssigneeRole `json:"role" yaml:"role"`
}

// MissingFields lists the required fields that are absent, always in the
// order name, description, startDate, endDate, category, priority, project.
func (d TaskDraft) MissingFields() []string {
	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.Description == "" {
		missing = append(missing, "description")
	}
	if d.StartDate == nil {
		missing = append(missing, "startDate")
	}
	if d.EndDate == nil {
		missing = append(missing, "endDate")
	}
	if d.Category == "" {
		missing = append(missing, "category")
	}
	if d.Priority == "" {
		missing = append(missing, "priority")
	}
	if d.Project == "" {
		missing = append(missing, "project")
	}
	return missing
}

// Validate returns a *ValidationError when required fields are missing or an
// enum field holds an unknown value.
func (d TaskDraft) Validate() error {
	if missing := d.MissingFields(); len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	var invalid []string
	if !d.Category.Valid() {
		invalid = append(invalid, "category")
	}
	if !d.Priority.Valid() {
		invalid = append(invalid, "priority")
	}
	if d.Status != "" && !d.Status.Valid() {
		invalid = append(invalid, "status")
	}
	for _, a := range d.Assignees {
		if a.User == "" || !a.Role.Valid() {
			invalid = append(invalid, "assignees")
			break
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Fields: invalid, Message: "invalid fields: " + strings.Join(invalid, ", ")}
	}
	return nil
}

// DraftFromTask builds the full replacement body for an existing task.
func DraftFromTask(t Task) TaskDraft {
	d := TaskDraft{
		Name:               t.Name,
		Description:        t.Description,
		Status:             t.Status,
		Priority:           t.Priority,
		Category:           t.Category,
		StartDate:          cloneTime(t.StartDate),
		EndDate:            cloneTime(t.EndDate),
		PercentageComplete: t.PercentageComplete,
		EstimatedHours:     t.EstimatedHours,
		Project:            t.Project.ID,
	}
	for _, a := range t.Assignees {
		d.Assignees = append(d.Assignees, DraftAssignee{User: a.User.ID, Role: a.Role})
	}
	if t.Checklist != nil {
		d.Checklist = append([]ChecklistItem(nil), t.Checklist...)
	}
	return d
}
