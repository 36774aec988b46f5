// Package models defines the core data structures for Poshbot.
//
// It includes intent ids, session states, extracted and normalized enrollment
// profiles, and the persistence records shared between the chat agent and the
// enrollment backend.
package models

import (
	"errors"
	"regexp"
	"time"
)

// Intent ids produced by the intent classifier. The mapping is a fixed table
// owned by the dialogue session; unknown ids degrade to IntentFallback.
const (
	IntentGreetings  = 0
	IntentEnrollment = 1
	IntentPricing    = 2
	IntentTracking   = 3
	IntentFallback   = 4
)

// intentLabels maps classifier ids to their canonical labels.
var intentLabels = map[int]string{
	IntentGreetings:  "greetings",
	IntentEnrollment: "enrollment",
	IntentPricing:    "pricing",
	IntentTracking:   "tracking",
	IntentFallback:   "fallback",
}

// IntentLabel returns the canonical label for an intent id. Unrecognized ids
// map to "fallback".
func IntentLabel(id int) string {
	if label, ok := intentLabels[id]; ok {
		return label
	}
	return "fallback"
}

// SessionState represents the dialogue session state machine position.
type SessionState string

const (
	// StateIdle routes input to the intent classifier.
	StateIdle SessionState = "idle"
	// StateCollecting routes input to the profile extractor.
	StateCollecting SessionState = "collecting"
	// StateCompleted marks that one registration succeeded; behaves as idle.
	StateCompleted SessionState = "completed"
)

// OrderStatusAvailable is the initial status assigned to new course orders.
const OrderStatusAvailable = "available"

// PhoneNumberLength is the required digit count for enrollment phone numbers.
const PhoneNumberLength = 11

// Error variables for validation and better testability.
var (
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrEmptyDOB           = errors.New("dob cannot be empty")
	ErrInvalidDOB         = errors.New("dob must be an ISO 8601 date (YYYY-MM-DD)")
	ErrEmptyQualification = errors.New("qualification cannot be empty")
	ErrInvalidPhoneNumber = errors.New("phone_number must be exactly 11 digits")
	ErrEmptyEmail         = errors.New("email cannot be empty")
	ErrInvalidUserID      = errors.New("user_id must be a positive integer")
	ErrEmptyOrderDetails  = errors.New("order_details cannot be empty")
)

var phoneNumberRe = regexp.MustCompile(`^\d{11}$`)

// ExtractedProfile holds the six enrollment fields pulled out of a single
// utterance. Fields are empty strings until the corresponding rule matched;
// the date of birth stays raw until the normalization step.
type ExtractedProfile struct {
	Name          string `json:"name,omitempty"`
	DOBRaw        string `json:"dob_raw,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Email         string `json:"email,omitempty"`
	Course        string `json:"course,omitempty"`
}

// Complete reports whether every field of the profile is present. A complete
// profile is a precondition for date normalization, not a guarantee that the
// raw date parses.
func (p ExtractedProfile) Complete() bool {
	return p.Name != "" && p.DOBRaw != "" && p.Qualification != "" &&
		p.PhoneNumber != "" && p.Email != "" && p.Course != ""
}

// MissingFields lists the names of fields that were not extracted.
func (p ExtractedProfile) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"dob", p.DOBRaw},
		{"qualification", p.Qualification},
		{"phone_number", p.PhoneNumber},
		{"email", p.Email},
		{"course", p.Course},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// NormalizedProfile is a fully validated enrollment profile ready for the
// backend client. It is created only from a complete ExtractedProfile whose
// raw date of birth normalized successfully.
type NormalizedProfile struct {
	Name          string
	DOB           time.Time
	Qualification string
	PhoneNumber   string
	Email         string
	Course        string
}

// User is the persisted enrollment user record.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	DOB           time.Time `json:"dob"`
	Qualification string    `json:"qualification"`
	PhoneNumber   string    `json:"phone_number"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
}

// CourseOrder is a course order linked to a previously created user.
type CourseOrder struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CourseName string    `json:"course_name"`
	Status     string    `json:"status"`
	OrderedAt  time.Time `json:"ordered_at"`
}

// CreateUserRequest is the wire payload for POST /users.
type CreateUserRequest struct {
	Name          string `json:"name"`
	DOB           string `json:"dob"` // ISO 8601 date (YYYY-MM-DD)
	Qualification string `json:"qualification"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"`
}

// Validate checks that all required user fields are present and well-formed.
func (r *CreateUserRequest) Validate() error {
	if r.Name == "" {
		return ErrEmptyName
	}
	if r.DOB == "" {
		return ErrEmptyDOB
	}
	if _, err := time.Parse("2006-01-02", r.DOB); err != nil {
		return ErrInvalidDOB
	}
	if r.Qualification == "" {
		return ErrEmptyQualification
	}
	if !phoneNumberRe.MatchString(r.PhoneNumber) {
		return ErrInvalidPhoneNumber
	}
	if r.Email == "" {
		return ErrEmptyEmail
	}
	return nil
}

// CreateUserResponse is the wire response for POST /users.
type CreateUserResponse struct {
	UserID int64 `json:"user_id"`
}

// CreateOrderRequest is the wire payload for POST /orders.
type CreateOrderRequest struct {
	UserID       int64  `json:"user_id"`
	OrderDetails string `json:"order_details"`
}

// Validate checks that the order references a user and names a course.
func (r *CreateOrderRequest) Validate() error {
	if r.UserID <= 0 {
		return ErrInvalidUserID
	}
	if r.OrderDetails == "" {
		return ErrEmptyOrderDetails
	}
	return nil
}

// CreateOrderResponse is the wire response for POST /orders.
type CreateOrderResponse struct {
	OrderID int64 `json:"order_id"`
}

// ErrorResponse is the JSON error body returned by the backend API.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Error builds an ErrorResponse with the given detail message.
func Error(detail string) ErrorResponse {
	return ErrorResponse{Detail: detail}
}

// AuditRecord is one structured audit entry written per classified turn.
// Field names match the chat log consumed by downstream tooling.
type AuditRecord struct {
	Timestamp       string `json:"timestamp"`
	UserInput       string `json:"user_input"`
	PredictedIntent string `json:"predicted_intent"`
	BotResponse     string `json:"bot_response"`
}
