// Package store provides storage backends for the enrollment service.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/promibe/poshbot/internal/models"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the maximum number of idle connections.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the maximum time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists users and orders in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// CreateUser inserts a user and returns its id.
func (s *PostgresStore) CreateUser(user models.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO users (name, dob, qualification, phone_number, email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		user.Name, user.DOB.Format("2006-01-02"), user.Qualification, user.PhoneNumber, user.Email, user.CreatedAt,
	).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore CreateUser failed", "error", err, "email", user.Email)
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	slog.Debug("PostgresStore CreateUser succeeded", "user_id", id)
	return id, nil
}

// GetUser retrieves a user by id.
func (s *PostgresStore) GetUser(id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		`SELECT id, name, dob, qualification, phone_number, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.DOB, &u.Qualification, &u.PhoneNumber, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetUser failed", "error", err, "user_id", id)
		return models.User{}, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return u, nil
}

// CreateOrder inserts a course order after verifying the user exists.
func (s *PostgresStore) CreateOrder(order models.CourseOrder) (int64, error) {
	if _, err := s.GetUser(order.UserID); err != nil {
		return 0, err
	}
	if order.Status == "" {
		order.Status = models.OrderStatusAvailable
	}
	if order.OrderedAt.IsZero() {
		order.OrderedAt = time.Now().UTC()
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO course_orders (user_id, course_name, status, ordered_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		order.UserID, order.CourseName, order.Status, order.OrderedAt,
	).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore CreateOrder failed", "error", err, "user_id", order.UserID)
		return 0, fmt.Errorf("failed to insert order for user %d: %w", order.UserID, err)
	}
	slog.Debug("PostgresStore CreateOrder succeeded", "order_id", id, "user_id", order.UserID)
	return id, nil
}

// ListUsers returns all users in insertion order.
func (s *PostgresStore) ListUsers() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT id, name, dob, qualification, phone_number, email, created_at FROM users ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore ListUsers query failed", "error", err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.DOB, &u.Qualification, &u.PhoneNumber, &u.Email, &u.CreatedAt); err != nil {
			slog.Error("PostgresStore ListUsers scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
