package board

import "github.com/TWRT/buildtrack/internal/models"

type Column struct {
	Status models.Status
	Tasks  []models.Task
}

// Columns is the kanban view, one column per known status in rank order.
type Columns []Column

// Group partitions tasks by status. Tasks with an unrecognized status do not
// appear in any column; compare Total with the input length to detect them.
func Group(tasks []models.Task) Columns {
	cols := make(Columns, len(models.Statuses))
	for i, s := range models.Statuses {
		cols[i] = Column{Status: s}
	}
	for _, t := range tasks {
		if r := t.Status.Rank(); r >= 0 {
			cols[r].Tasks = append(cols[r].Tasks, t)
		}
	}
	return cols
}

func (c Columns) Total() int {
	n := 0
	for _, col := range c {
		n += len(col.Tasks)
	}
	return n
}

func (c Columns) Column(s models.Status) (Column, bool) {
	for _, col := range c {
		if col.Status == s {
			return col, true
		}
	}
	return Column{}, false
}
