package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/promibe/poshbot/internal/models"
)

// TestSQLitePersistenceAcrossReopen writes a user and order, reopens the
// database file, and verifies both survive.
func TestSQLitePersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "poshbot.db")

	s1, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}

	userID, err := s1.CreateUser(testUser())
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	orderID, err := s1.CreateOrder(models.CourseOrder{UserID: userID, CourseName: "excel"})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if orderID == 0 {
		t.Fatal("expected non-zero order id")
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	s2, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s2.Close()

	u, err := s2.GetUser(userID)
	if err != nil {
		t.Fatalf("GetUser after reopen error: %v", err)
	}
	if u.Name != "Promise" {
		t.Errorf("name = %q, want %q", u.Name, "Promise")
	}
	want := time.Date(1995, time.January, 8, 0, 0, 0, 0, time.UTC)
	if !u.DOB.Equal(want) {
		t.Errorf("dob = %v, want %v", u.DOB, want)
	}
}

func TestSQLiteOrderForMissingUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "poshbot.db")

	s, err := NewSQLiteStore(WithSQLiteDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	defer s.Close()

	_, err = s.CreateOrder(models.CourseOrder{UserID: 99, CourseName: "sql"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("expected error when DSN is not set")
	}
}
