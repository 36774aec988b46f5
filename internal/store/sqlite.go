// Package store provides storage backends for the enrollment service.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/promibe/poshbot/internal/models"
)

// DefaultDirPermissions defines the default permissions for database
// directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists users and orders in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store. The DSN is a file path; the
// containing directory is created when missing, and migrations run on open.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateUser inserts a user and returns its id.
func (s *SQLiteStore) CreateUser(user models.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO users (name, dob, qualification, phone_number, email, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name, user.DOB.Format("2006-01-02"), user.Qualification, user.PhoneNumber, user.Email, user.CreatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateUser failed", "error", err, "email", user.Email)
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}
	slog.Debug("SQLiteStore CreateUser succeeded", "user_id", id)
	return id, nil
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(id int64) (models.User, error) {
	var u models.User
	var dob string
	err := s.db.QueryRow(
		`SELECT id, name, dob, qualification, phone_number, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &dob, &u.Qualification, &u.PhoneNumber, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetUser failed", "error", err, "user_id", id)
		return models.User{}, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	u.DOB, err = parseStoredDate(dob)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// CreateOrder inserts a course order after verifying the user exists.
func (s *SQLiteStore) CreateOrder(order models.CourseOrder) (int64, error) {
	if _, err := s.GetUser(order.UserID); err != nil {
		return 0, err
	}
	if order.Status == "" {
		order.Status = models.OrderStatusAvailable
	}
	if order.OrderedAt.IsZero() {
		order.OrderedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO course_orders (user_id, course_name, status, ordered_at) VALUES (?, ?, ?, ?)`,
		order.UserID, order.CourseName, order.Status, order.OrderedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore CreateOrder failed", "error", err, "user_id", order.UserID)
		return 0, fmt.Errorf("failed to insert order for user %d: %w", order.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read order id: %w", err)
	}
	slog.Debug("SQLiteStore CreateOrder succeeded", "order_id", id, "user_id", order.UserID)
	return id, nil
}

// ListUsers returns all users in insertion order.
func (s *SQLiteStore) ListUsers() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT id, name, dob, qualification, phone_number, email, created_at FROM users ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore ListUsers query failed", "error", err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var dob string
		if err := rows.Scan(&u.ID, &u.Name, &dob, &u.Qualification, &u.PhoneNumber, &u.Email, &u.CreatedAt); err != nil {
			slog.Error("SQLiteStore ListUsers scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		if u.DOB, err = parseStoredDate(dob); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}

// parseStoredDate reads a stored date column that may carry a bare date or
// a full timestamp.
func parseStoredDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05-07:00", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable stored date %q", raw)
}
