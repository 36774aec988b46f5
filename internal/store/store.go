// Package store provides storage backends for the enrollment service.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL stores for persistent deployments.
package store

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/promibe/poshbot/internal/models"
)

// ErrUserNotFound is returned when an order references an unknown user.
var ErrUserNotFound = errors.New("user not found")

// Store persists enrollment users and their course orders.
type Store interface {
	// CreateUser inserts a user and returns its id.
	CreateUser(user models.User) (int64, error)
	// GetUser retrieves a user by id; ErrUserNotFound when absent.
	GetUser(id int64) (models.User, error)
	// CreateOrder inserts a course order for an existing user and returns
	// its id; ErrUserNotFound when the user does not exist.
	CreateOrder(order models.CourseOrder) (int64, error)
	// ListUsers returns all users in insertion order.
	ListUsers() ([]models.User, error)
	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration for store construction.
type Opts struct {
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite file path as the DSN.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets a PostgreSQL connection string as the DSN.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a simple in-memory store for tests and development.
type InMemoryStore struct {
	mu     sync.Mutex
	users  []models.User
	orders []models.CourseOrder
	nextID int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	slog.Debug("Creating in-memory store")
	return &InMemoryStore{nextID: 1}
}

// CreateUser inserts a user and returns its id.
func (s *InMemoryStore) CreateUser(user models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextID
	s.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users = append(s.users, user)
	return user.ID, nil
}

// GetUser retrieves a user by id.
func (s *InMemoryStore) GetUser(id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

// CreateOrder inserts a course order, verifying the user exists first.
func (s *InMemoryStore) CreateOrder(order models.CourseOrder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, u := range s.users {
		if u.ID == order.UserID {
			found = true
			break
		}
	}
	if !found {
		return 0, ErrUserNotFound
	}
	order.ID = s.nextID
	s.nextID++
	if order.Status == "" {
		order.Status = models.OrderStatusAvailable
	}
	if order.OrderedAt.IsZero() {
		order.OrderedAt = time.Now().UTC()
	}
	s.orders = append(s.orders, order)
	return order.ID, nil
}

// ListUsers returns all users in insertion order.
func (s *InMemoryStore) ListUsers() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, len(s.users))
	copy(users, s.users)
	return users, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
