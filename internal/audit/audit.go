// Package audit writes the structured chat audit log.
//
// Each classified turn produces one JSON line: timestamp, user input,
// predicted intent label, and the rendered bot response. The log is
// consumed externally (analytics, model retraining), so record field names
// are part of the interface.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/promibe/poshbot/internal/models"
)

// Logger appends audit records to a file, one JSON object per line.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	now func() time.Time
}

// NewLogger opens (or creates) the audit log file in append mode.
func NewLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Failed to open audit log", "error", err, "path", path)
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	slog.Debug("Audit log opened", "path", path)
	return &Logger{f: f, now: time.Now}, nil
}

// Record appends one audit entry. Write failures are reported to the
// caller; the dialogue loop logs and continues, a broken audit sink never
// breaks a conversation.
func (l *Logger) Record(userInput string, intentID int, botResponse string) error {
	rec := models.AuditRecord{
		Timestamp:       l.now().Format(time.RFC3339),
		UserInput:       userInput,
		PredictedIntent: models.IntentLabel(intentID),
		BotResponse:     botResponse,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	slog.Debug("Closing audit log")
	return l.f.Close()
}
