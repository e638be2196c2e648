// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/classpulse/models"
)

// UserStore is the repository for user accounts. The poll core only needs
// lookups; creation exists for signup.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. The caller is responsible for hashing the
// password first.
func (s *UserStore) Create(name, email, hashedPassword, role string) (*models.User, error) {
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  hashedPassword,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO users (id, name, email, password, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.Email, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetByID returns the user, or sql.ErrNoRows if absent.
func (s *UserStore) GetByID(id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, name, email, password, role, created_at
		FROM users
		WHERE id = $1
	`, id))
}

// GetByEmail returns the user, or sql.ErrNoRows if absent.
func (s *UserStore) GetByEmail(email string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, name, email, password, role, created_at
		FROM users
		WHERE email = $1
	`, email))
}

func (s *UserStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
