package models

import "net/url"

// Criteria holds the active filters of a view. An empty field does not
// constrain the result.
type Criteria struct {
	Search     string   `json:"search,omitempty"`
	ProjectID  string   `json:"project,omitempty"`
	Status     Status   `json:"status,omitempty"`
	Priority   Priority `json:"priority,omitempty"`
	Category   Category `json:"category,omitempty"`
	AssigneeID string   `json:"assignee,omitempty"`
}

func (c Criteria) IsEmpty() bool {
	return c == Criteria{}
}

// Clear returns the zero criteria.
func (c Criteria) Clear() Criteria {
	return Criteria{}
}

// Query encodes the criteria as the query parameters accepted by GET /tasks.
func (c Criteria) Query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("search", c.Search)
	set("project", c.ProjectID)
	set("status", string(c.Status))
	set("priority", string(c.Priority))
	set("category", string(c.Category))
	set("assignee", c.AssigneeID)
	return q
}

func CriteriaFromQuery(q url.Values) Criteria {
	return Criteria{
		Search:     q.Get("search"),
		ProjectID:  q.Get("project"),
		Status:     Status(q.Get("status")),
		Priority:   Priority(q.Get("priority")),
		Category:   Category(q.Get("category")),
		AssigneeID: q.Get("assignee"),
	}
}

type SortField string

const (
	SortByName               SortField = "name"
	SortByPriority           SortField = "priority"
	SortByStatus             SortField = "status"
	SortByStartDate          SortField = "startDate"
	SortByEndDate            SortField = "endDate"
	SortByPercentageComplete SortField = "percentageComplete"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type SortConfig struct {
	By    SortField `json:"sortBy,omitempty"`
	Order SortOrder `json:"sortOrder,omitempty"`
}

func (s SortConfig) Query(q url.Values) {
	if s.By != "" {
		q.Set("sortBy", string(s.By))
	}
	if s.Order != "" {
		q.Set("sortOrder", string(s.Order))
	}
}

func SortConfigFromQuery(q url.Values) SortConfig {
	return SortConfig{
		By:    SortField(q.Get("sortBy")),
		Order: SortOrder(q.Get("sortOrder")),
	}
}
