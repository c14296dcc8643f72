// Package seed loads users and tasks from a YAML fixture into the
// reference server's database.
package seed

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/TWRT/buildtrack/internal/models"
	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Users []models.User      `yaml:"users"`
	Tasks []models.TaskDraft `yaml:"tasks"`
}

// Target is the subset of service.TaskService the loader writes through.
type Target interface {
	SaveUser(user models.User) error
	CreateTask(draft models.TaskDraft) (*models.Task, error)
}

type Result struct {
	Users int
	Tasks int
}

func Parse(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

func LoadFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Apply saves users first so task assignees resolve. It stops at the first
// failing record.
func Apply(target Target, f *Fixture) (Result, error) {
	var res Result

	for _, user := range f.Users {
		if err := target.SaveUser(user); err != nil {
			return res, fmt.Errorf("save user %s: %w", user.ID, err)
		}
		res.Users++
	}

	for i, draft := range f.Tasks {
		task, err := target.CreateTask(draft)
		if err != nil {
			return res, fmt.Errorf("create task %d (%s): %w", i, draft.Name, err)
		}
		log.Printf("seeded task %s %q [%s]", task.ID, task.Name, task.Status)
		res.Tasks++
	}

	return res, nil
}
