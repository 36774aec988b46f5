package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/promibe/poshbot/internal/audit"
	"github.com/promibe/poshbot/internal/backend"
	"github.com/promibe/poshbot/internal/extract"
	"github.com/promibe/poshbot/internal/intent"
	"github.com/promibe/poshbot/internal/session"
)

// Default configuration constants
const (
	// DefaultBackendURL is the default enrollment API base URL.
	DefaultBackendURL = "http://localhost:8000"
	// DefaultAuditLogPath is the default audit log file.
	DefaultAuditLogPath = "chat_audit.log"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("Poshbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Poshbot exited successfully")
}

// Config holds environment configuration.
type Config struct {
	BackendURL string
	AuditLog   string
	OpenAIKey  string
	MaxRetries int
	LogLevel   string
}

// Flags holds command line flag values.
type Flags struct {
	backendURL *string
	auditLog   *string
	openaiKey  *string
	maxRetries *int
}

// initializeLogger sets up structured logging on stderr so bot replies on
// stdout stay clean.
func initializeLogger() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("POSHBOT_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and a
// .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BackendURL: os.Getenv("POSHBOT_BACKEND_URL"),
		AuditLog:   os.Getenv("POSHBOT_AUDIT_LOG"),
		OpenAIKey:  os.Getenv("OPENAI_API_KEY"),
	}
	if raw := os.Getenv("POSHBOT_MAX_RETRIES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			slog.Debug("Invalid POSHBOT_MAX_RETRIES, ignoring", "value", raw, "error", err)
		} else {
			config.MaxRetries = n
		}
	}

	if config.BackendURL == "" {
		config.BackendURL = DefaultBackendURL
		slog.Debug("No POSHBOT_BACKEND_URL set, using default", "backend_url", config.BackendURL)
	}
	if config.AuditLog == "" {
		config.AuditLog = DefaultAuditLogPath
		slog.Debug("No POSHBOT_AUDIT_LOG set, using default", "audit_log", config.AuditLog)
	}

	slog.Debug("environment variables loaded",
		"POSHBOT_BACKEND_URL", config.BackendURL,
		"POSHBOT_AUDIT_LOG", config.AuditLog,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"POSHBOT_MAX_RETRIES", config.MaxRetries)

	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		backendURL: flag.String("backend-url", config.BackendURL, "enrollment API base URL (overrides $POSHBOT_BACKEND_URL)"),
		auditLog:   flag.String("audit-log", config.AuditLog, "audit log file path (overrides $POSHBOT_AUDIT_LOG)"),
		openaiKey:  flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for intent classification (overrides $OPENAI_API_KEY)"),
		maxRetries: flag.Int("max-retries", config.MaxRetries, "cap on failed extraction attempts, 0 for unbounded (overrides $POSHBOT_MAX_RETRIES)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"backendURL", *flags.backendURL,
		"auditLog", *flags.auditLog,
		"openaiKeySet", *flags.openaiKey != "",
		"maxRetries", *flags.maxRetries)

	return flags
}

// buildClassifier selects the OpenAI classifier when an API key is
// configured and falls back to the keyword classifier otherwise.
func buildClassifier(apiKey string) (intent.Classifier, error) {
	if apiKey == "" {
		slog.Info("No OpenAI API key configured, using keyword classifier")
		return intent.NewKeywordClassifier(), nil
	}
	slog.Info("OpenAI API key configured, using OpenAI classifier")
	return intent.NewOpenAIClassifier(apiKey)
}

// run wires the session dependencies and drives the interactive loop until
// the user exits or input is exhausted.
func run(flags Flags) error {
	classifier, err := buildClassifier(*flags.openaiKey)
	if err != nil {
		return fmt.Errorf("failed to build classifier: %w", err)
	}

	auditor, err := audit.NewLogger(*flags.auditLog)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer auditor.Close()

	bc := backend.NewClient(*flags.backendURL)
	sess := session.New(classifier, extract.NewExtractor(), bc,
		session.WithAuditor(auditor),
		session.WithMaxRetries(*flags.maxRetries))

	slog.Info("Starting chat session", "session_id", sess.ID(), "backend_url", *flags.backendURL)
	return chatLoop(sess, os.Stdin, os.Stdout)
}

// chatLoop reads one utterance per line and prints the bot reply until the
// session terminates or the input stream ends.
func chatLoop(sess *session.Session, in *os.File, out *os.File) error {
	ctx := context.Background()
	fmt.Fprintf(out, "Bot: %s\n", session.WelcomeMessage)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result := sess.HandleTurn(ctx, line)
		fmt.Fprintf(out, "Bot: %s\n", result.Reply)
		if result.Done {
			slog.Info("Chat session terminated", "session_id", sess.ID())
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	slog.Info("Input stream closed, ending chat session", "session_id", sess.ID())
	return nil
}
