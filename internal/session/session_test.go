package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/promibe/poshbot/internal/backend"
	"github.com/promibe/poshbot/internal/extract"
	"github.com/promibe/poshbot/internal/models"
)

const enrollmentUtterance = "I am Promise, born on 8th January 1995, B-Tech Computer Science. " +
	"phone number: 07063083925. email address: promise@x.com I want to learn Excel."

// mockClassifier returns a scripted intent id.
type mockClassifier struct {
	intentID int
	err      error
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (int, error) {
	return m.intentID, m.err
}

// mockBackend records calls and returns scripted ids or errors.
type mockBackend struct {
	userID      int64
	orderID     int64
	userErr     error
	orderErr    error
	userCalls   int
	orderCalls  int
	orderUserID int64
	orderCourse string
}

func (m *mockBackend) CreateUser(ctx context.Context, profile models.NormalizedProfile) (int64, error) {
	m.userCalls++
	if m.userErr != nil {
		return 0, m.userErr
	}
	return m.userID, nil
}

func (m *mockBackend) CreateOrder(ctx context.Context, userID int64, courseName string) (int64, error) {
	m.orderCalls++
	m.orderUserID = userID
	m.orderCourse = courseName
	if m.orderErr != nil {
		return 0, m.orderErr
	}
	return m.orderID, nil
}

// mockAuditor captures audit records.
type mockAuditor struct {
	records []models.AuditRecord
}

func (m *mockAuditor) Record(userInput string, intentID int, botResponse string) error {
	m.records = append(m.records, models.AuditRecord{
		UserInput:       userInput,
		PredictedIntent: models.IntentLabel(intentID),
		BotResponse:     botResponse,
	})
	return nil
}

// panicExtractor simulates an extractor crash on malformed input.
type panicExtractor struct{}

func (panicExtractor) Extract(string) models.ExtractedProfile {
	panic("malformed input")
}

func newTestSession(c *mockClassifier, b *mockBackend, opts ...Option) *Session {
	return New(c, extract.NewExtractor(), b, opts...)
}

func TestExitPhrasesTerminate(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Session)
		input string
	}{
		{name: "exit from idle", input: "exit"},
		{name: "quit uppercase", input: "QUIT"},
		{name: "i am done mixed case", input: "I Am Done"},
		{
			name:  "exit from collecting",
			input: "exit",
			setup: func(s *Session) { s.state = models.StateCollecting },
		},
		{
			name:  "exit from completed",
			input: "i am done",
			setup: func(s *Session) { s.state = models.StateCompleted },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			s := newTestSession(&mockClassifier{intentID: models.IntentGreetings}, b)
			if tt.setup != nil {
				tt.setup(s)
			}
			res := s.HandleTurn(context.Background(), tt.input)
			if !res.Done {
				t.Error("exit phrase should terminate the session")
			}
			if res.Reply != farewellMessage {
				t.Errorf("reply = %q, want farewell", res.Reply)
			}
			if b.userCalls != 0 || b.orderCalls != 0 {
				t.Error("exit turn must not touch the backend")
			}
		})
	}
}

func TestGreetingTurnStaysIdleAndAudits(t *testing.T) {
	aud := &mockAuditor{}
	s := newTestSession(&mockClassifier{intentID: models.IntentGreetings}, &mockBackend{}, WithAuditor(aud))

	res := s.HandleTurn(context.Background(), "hello there")
	if res.Done {
		t.Error("greeting turn should not terminate the session")
	}
	if res.Reply != intentResponses[models.IntentGreetings] {
		t.Errorf("reply = %q, want greeting template", res.Reply)
	}
	if s.State() != models.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
	if len(aud.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(aud.records))
	}
	rec := aud.records[0]
	if rec.UserInput != "hello there" || rec.PredictedIntent != "greetings" || rec.BotResponse != res.Reply {
		t.Errorf("unexpected audit record: %+v", rec)
	}
}

func TestEnrollmentIntentEntersCollecting(t *testing.T) {
	aud := &mockAuditor{}
	s := newTestSession(&mockClassifier{intentID: models.IntentEnrollment}, &mockBackend{}, WithAuditor(aud))

	res := s.HandleTurn(context.Background(), "I want to enroll")
	if s.State() != models.StateCollecting {
		t.Errorf("state = %s, want collecting", s.State())
	}
	if res.Done {
		t.Error("enrollment turn should not terminate the session")
	}
	if res.Reply != intentResponses[models.IntentEnrollment] {
		t.Errorf("reply = %q, want enrollment instructions", res.Reply)
	}
	// The mode-switch turn itself runs no extraction and is not audited.
	if len(aud.records) != 0 {
		t.Errorf("enrollment turn must not be audited, got %v", aud.records)
	}
}

func TestFallbackResponseFromFixedSet(t *testing.T) {
	s := newTestSession(&mockClassifier{intentID: 42}, &mockBackend{})

	res := s.HandleTurn(context.Background(), "blorp")
	found := false
	for _, candidate := range fallbackResponses {
		if res.Reply == candidate {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("fallback reply %q not in fixed set", res.Reply)
	}
}

func TestFallbackChoiceUsesPicker(t *testing.T) {
	s := newTestSession(&mockClassifier{intentID: models.IntentFallback}, &mockBackend{})
	s.pick = func(n int) int { return 2 }

	res := s.HandleTurn(context.Background(), "blorp")
	if res.Reply != fallbackResponses[2] {
		t.Errorf("reply = %q, want fallbackResponses[2]", res.Reply)
	}
}

func TestClassifierErrorDegradesToFallback(t *testing.T) {
	s := newTestSession(&mockClassifier{err: errors.New("model offline")}, &mockBackend{})

	res := s.HandleTurn(context.Background(), "hello")
	if res.Done {
		t.Error("classifier failure must not terminate the session")
	}
	found := false
	for _, candidate := range fallbackResponses {
		if res.Reply == candidate {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("reply %q should be a fallback template", res.Reply)
	}
}

func TestCollectingSuccessfulRegistration(t *testing.T) {
	b := &mockBackend{userID: 7, orderID: 3}
	s := newTestSession(&mockClassifier{intentID: models.IntentEnrollment}, b)

	ctx := context.Background()
	s.HandleTurn(ctx, "I want to enroll")
	res := s.HandleTurn(ctx, enrollmentUtterance)

	if res.Done {
		t.Error("successful registration should not terminate the session")
	}
	if s.State() != models.StateCompleted {
		t.Errorf("state = %s, want completed", s.State())
	}
	if b.userCalls != 1 || b.orderCalls != 1 {
		t.Errorf("backend calls = %d users, %d orders, want 1 and 1", b.userCalls, b.orderCalls)
	}
	if b.orderUserID != 7 || b.orderCourse != "excel" {
		t.Errorf("order created with user %d course %q, want 7 / excel", b.orderUserID, b.orderCourse)
	}
	for _, want := range []string{"User ID: 7", "Order ID: 3", "Promise", "1995-01-08", "excel"} {
		if !strings.Contains(res.Reply, want) {
			t.Errorf("confirmation missing %q:\n%s", want, res.Reply)
		}
	}
}

func TestCollectingIncompleteProfileRetries(t *testing.T) {
	b := &mockBackend{}
	s := newTestSession(&mockClassifier{intentID: models.IntentEnrollment}, b)

	ctx := context.Background()
	s.HandleTurn(ctx, "enroll me")
	for i := 0; i < 3; i++ {
		res := s.HandleTurn(ctx, "I am Promise and nothing else")
		if res.Done {
			t.Fatal("incomplete extraction must not terminate the session")
		}
		if res.Reply != retryMessage {
			t.Errorf("reply = %q, want retry prompt", res.Reply)
		}
		if s.State() != models.StateCollecting {
			t.Errorf("state = %s, want collecting", s.State())
		}
	}
	if b.userCalls != 0 {
		t.Error("no backend call may happen before a complete profile")
	}
}

func TestCollectingExtractorPanicIsRetried(t *testing.T) {
	s := New(&mockClassifier{intentID: models.IntentEnrollment}, panicExtractor{}, &mockBackend{})
	ctx := context.Background()
	s.HandleTurn(ctx, "enroll me")

	res := s.HandleTurn(ctx, "anything")
	if res.Done {
		t.Error("extractor crash must stay on the retry path")
	}
	if res.Reply != retryMessage {
		t.Errorf("reply = %q, want retry prompt", res.Reply)
	}
	if s.State() != models.StateCollecting {
		t.Errorf("state = %s, want collecting", s.State())
	}
}

func TestCollectingUnparseableDateIsFatal(t *testing.T) {
	b := &mockBackend{userID: 7, orderID: 3}
	s := newTestSession(&mockClassifier{intentID: models.IntentEnrollment}, b)

	ctx := context.Background()
	s.HandleTurn(ctx, "enroll me")
	res := s.HandleTurn(ctx, "I am Promise, born on Blorptag Nonsense, B-Tech Computer Science. "+
		"phone number: 07063083925. email address: promise@x.com I want to learn Excel.")

	if !res.Done {
		t.Error("unparseable date must terminate the session")
	}
	if res.Reply != dateFormatMessage {
		t.Errorf("reply = %q, want date format hint", res.Reply)
	}
	if b.userCalls != 0 || b.orderCalls != 0 {
		t.Error("no backend call may be issued when the date fails to normalize")
	}
}

func TestCollectingBackendFailures(t *testing.T) {
	tests := []struct {
		name       string
		backend    *mockBackend
		wantOrder  int
		wantInText string
	}{
		{
			name:       "transport failure on user creation",
			backend:    &mockBackend{userErr: fmt.Errorf("%w: connection refused", backend.ErrUnreachable)},
			wantOrder:  0,
			wantInText: "couldn't reach",
		},
		{
			name:       "server rejection on order creation",
			backend:    &mockBackend{userID: 7, orderErr: &backend.StatusError{StatusCode: 404, Detail: "User not found"}},
			wantOrder:  1,
			wantInText: "User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&mockClassifier{intentID: models.IntentEnrollment}, tt.backend)
			ctx := context.Background()
			s.HandleTurn(ctx, "enroll me")
			res := s.HandleTurn(ctx, enrollmentUtterance)

			if !res.Done {
				t.Error("backend failure must terminate the session")
			}
			if !strings.Contains(res.Reply, tt.wantInText) {
				t.Errorf("reply %q missing %q", res.Reply, tt.wantInText)
			}
			if tt.backend.orderCalls != tt.wantOrder {
				t.Errorf("order calls = %d, want %d", tt.backend.orderCalls, tt.wantOrder)
			}
		})
	}
}

func TestCompletedBehavesAsIdle(t *testing.T) {
	b := &mockBackend{userID: 7, orderID: 3}
	c := &mockClassifier{intentID: models.IntentEnrollment}
	s := newTestSession(c, b)

	ctx := context.Background()
	s.HandleTurn(ctx, "enroll me")
	s.HandleTurn(ctx, enrollmentUtterance)
	if s.State() != models.StateCompleted {
		t.Fatalf("state = %s, want completed", s.State())
	}

	// A later enrollment intent re-enters collection.
	res := s.HandleTurn(ctx, "I want to enroll my sister")
	if s.State() != models.StateCollecting {
		t.Errorf("state = %s, want collecting after re-enrollment", s.State())
	}
	if res.Reply != intentResponses[models.IntentEnrollment] {
		t.Errorf("reply = %q, want enrollment instructions", res.Reply)
	}
}

func TestRetryCapTerminatesWhenConfigured(t *testing.T) {
	s := newTestSession(&mockClassifier{intentID: models.IntentEnrollment}, &mockBackend{}, WithMaxRetries(2))
	ctx := context.Background()
	s.HandleTurn(ctx, "enroll me")

	res := s.HandleTurn(ctx, "gibberish")
	if res.Done {
		t.Fatal("first failed attempt should not hit the cap")
	}
	res = s.HandleTurn(ctx, "more gibberish")
	if !res.Done {
		t.Error("second failed attempt should exhaust the cap")
	}
	if res.Reply != retriesExhaustedMessage {
		t.Errorf("reply = %q, want retries exhausted message", res.Reply)
	}
}
