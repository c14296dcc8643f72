package repository

import (
	"database/sql"
	"fmt"

	"github.com/TWRT/buildtrack/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Upsert(user models.User) error {
	query := `
		INSERT INTO users (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email
	`
	if _, err := r.db.Exec(query, user.ID, user.Name, user.Email); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) List() ([]models.User, error) {
	rows, err := r.db.Query(`SELECT id, name, COALESCE(email, '') FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByIDs returns the users found among ids, keyed by id.
func (r *UserRepository) GetByIDs(ids []string) (map[string]models.User, error) {
	found := make(map[string]models.User, len(ids))
	for _, id := range ids {
		var u models.User
		err := r.db.QueryRow(`SELECT id, name, COALESCE(email, '') FROM users WHERE id = ?`, id).
			Scan(&u.ID, &u.Name, &u.Email)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get user %s: %w", id, err)
		}
		found[u.ID] = u
	}
	return found, nil
}
