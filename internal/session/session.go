// Package session implements the dialogue state machine for Poshbot.
//
// A session owns one conversation: it routes each utterance to either the
// intent classifier (idle, completed) or the profile extractor (collecting),
// enforces the retry and fatal policies, and drives the backend submission
// once a profile is complete. All failures are handled at the turn boundary;
// nothing propagates uncaught out of a single turn.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/promibe/poshbot/internal/backend"
	"github.com/promibe/poshbot/internal/intent"
	"github.com/promibe/poshbot/internal/models"
	"github.com/promibe/poshbot/internal/nlp"
)

// Extractor pulls an enrollment profile out of one utterance.
type Extractor interface {
	Extract(utterance string) models.ExtractedProfile
}

// BackendClient persists a registration as two sequential remote calls.
type BackendClient interface {
	CreateUser(ctx context.Context, profile models.NormalizedProfile) (int64, error)
	CreateOrder(ctx context.Context, userID int64, courseName string) (int64, error)
}

// Auditor records one audit entry per classified turn.
type Auditor interface {
	Record(userInput string, intentID int, botResponse string) error
}

// Result is the outcome of one turn. Done marks the session as terminated;
// a terminated session accepts no further input.
type Result struct {
	Reply string
	Done  bool
}

// Session is one continuous conversation with its own state machine. It is
// not safe for concurrent use: turns are processed one at a time to
// completion.
type Session struct {
	id         string
	state      models.SessionState
	classifier intent.Classifier
	extractor  Extractor
	backend    BackendClient
	auditor    Auditor
	maxRetries int // 0 means unbounded
	retries    int
	pick       func(n int) int // fallback template selector
}

// Option configures a Session.
type Option func(*Session)

// WithMaxRetries caps consecutive failed extraction attempts. The default
// of zero keeps retries unbounded.
func WithMaxRetries(n int) Option {
	return func(s *Session) {
		s.maxRetries = n
	}
}

// WithAuditor attaches an audit sink for classified turns.
func WithAuditor(a Auditor) Option {
	return func(s *Session) {
		s.auditor = a
	}
}

// New creates an idle session.
func New(classifier intent.Classifier, extractor Extractor, bc BackendClient, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		state:      models.StateIdle,
		classifier: classifier,
		extractor:  extractor,
		backend:    bc,
		pick:       rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	slog.Debug("Session created", "session_id", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state machine position.
func (s *Session) State() models.SessionState {
	return s.state
}

// HandleTurn processes one utterance to completion and returns the bot
// reply. The exit-phrase check runs first on every turn, pre-empting
// classification and extraction.
func (s *Session) HandleTurn(ctx context.Context, input string) Result {
	input = strings.TrimSpace(input)

	if exitPhrases[strings.ToLower(input)] {
		slog.Info("Session terminated by exit phrase", "session_id", s.id, "state", s.state)
		return Result{Reply: farewellMessage, Done: true}
	}

	if s.state == models.StateCollecting {
		return s.collectTurn(ctx, input)
	}
	return s.classifyTurn(ctx, input)
}

// classifyTurn handles input in the idle and completed states: classify,
// render the intent template, and either switch to collecting (enrollment)
// or audit the interaction.
func (s *Session) classifyTurn(ctx context.Context, input string) Result {
	intentID, err := s.classifier.Classify(ctx, input)
	if err != nil {
		// Classifier trouble never ends the conversation; degrade to the
		// fallback response and keep the current state.
		slog.Error("Session classify failed, degrading to fallback", "error", err, "session_id", s.id)
		intentID = models.IntentFallback
	}

	reply := s.renderResponse(intentID)
	slog.Debug("Session classified turn", "session_id", s.id, "intent", models.IntentLabel(intentID))

	if intentID == models.IntentEnrollment {
		s.state = models.StateCollecting
		s.retries = 0
		slog.Info("Session entering collection mode", "session_id", s.id)
		return Result{Reply: reply}
	}

	if s.auditor != nil {
		if err := s.auditor.Record(input, intentID, reply); err != nil {
			slog.Error("Session audit record failed", "error", err, "session_id", s.id)
		}
	}
	return Result{Reply: reply}
}

// collectTurn handles input while collecting: extract the profile, then
// either retry, fail the session, or submit to the backend.
func (s *Session) collectTurn(ctx context.Context, input string) Result {
	profile, ok := s.safeExtract(input)
	if !ok || !profile.Complete() {
		s.retries++
		if s.maxRetries > 0 && s.retries >= s.maxRetries {
			slog.Warn("Session retry cap reached", "session_id", s.id, "retries", s.retries)
			return Result{Reply: retriesExhaustedMessage, Done: true}
		}
		slog.Debug("Session extraction incomplete, retrying", "session_id", s.id, "missing", profile.MissingFields(), "retries", s.retries)
		return Result{Reply: retryMessage}
	}

	dob, err := nlp.NormalizeDate(profile.DOBRaw)
	if err != nil {
		// Date normalization failure is fatal to the session, unlike the
		// extraction retry loop above.
		slog.Warn("Session date normalization failed, ending session", "error", err, "session_id", s.id, "dob_raw", profile.DOBRaw)
		return Result{Reply: dateFormatMessage, Done: true}
	}

	normalized := models.NormalizedProfile{
		Name:          profile.Name,
		DOB:           dob,
		Qualification: profile.Qualification,
		PhoneNumber:   profile.PhoneNumber,
		Email:         profile.Email,
		Course:        profile.Course,
	}

	userID, err := s.backend.CreateUser(ctx, normalized)
	if err != nil {
		slog.Error("Session user creation failed, ending session", "error", err, "session_id", s.id)
		return Result{Reply: submissionErrorMessage(err), Done: true}
	}

	// The user record already exists remotely; an order failure is reported
	// without rolling it back.
	orderID, err := s.backend.CreateOrder(ctx, userID, normalized.Course)
	if err != nil {
		slog.Error("Session order creation failed, ending session", "error", err, "session_id", s.id, "user_id", userID)
		return Result{Reply: submissionErrorMessage(err), Done: true}
	}

	s.state = models.StateCompleted
	s.retries = 0
	slog.Info("Session registration completed", "session_id", s.id, "user_id", userID, "order_id", orderID)
	return Result{Reply: confirmationMessage(normalized, userID, orderID)}
}

// safeExtract runs the extractor, converting a panic into a failed
// extraction so malformed input can never break the interactive loop.
func (s *Session) safeExtract(input string) (profile models.ExtractedProfile, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Session extractor panicked", "panic", r, "session_id", s.id)
			profile = models.ExtractedProfile{}
			ok = false
		}
	}()
	return s.extractor.Extract(input), true
}

// renderResponse looks up the fixed template for an intent id. The fallback
// template is chosen uniformly at random from the fixed set.
func (s *Session) renderResponse(intentID int) string {
	if reply, found := intentResponses[intentID]; found {
		return reply
	}
	return fallbackResponses[s.pick(len(fallbackResponses))]
}

// confirmationMessage renders the registration summary with the backend
// identifiers.
func confirmationMessage(p models.NormalizedProfile, userID, orderID int64) string {
	var b strings.Builder
	b.WriteString("Thank you! Here's your profile:\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "DOB: %s\n", p.DOB.Format("2006-01-02"))
	fmt.Fprintf(&b, "Qualification: %s\n", p.Qualification)
	fmt.Fprintf(&b, "Phone: %s\n", p.PhoneNumber)
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	fmt.Fprintf(&b, "Course: %s\n", p.Course)
	fmt.Fprintf(&b, "Your registration is complete! User ID: %d, Order ID: %d.\n", userID, orderID)
	b.WriteString("What else do you want to do? Otherwise kindly say you are done, exit or quit.")
	return b.String()
}

// submissionErrorMessage renders a backend failure, distinguishing a server
// rejection from a transport failure.
func submissionErrorMessage(err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Sorry, the enrollment service rejected your registration (%s). Please start over later.", statusErr.Detail)
	}
	return "Sorry, I couldn't reach the enrollment service. Please try again later."
}
