package intent

import (
	"context"
	"testing"

	"github.com/promibe/poshbot/internal/models"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "greeting", input: "hello there", want: models.IntentGreetings},
		{name: "greeting phrase", input: "good morning to you", want: models.IntentGreetings},
		{name: "enrollment", input: "I want to enroll for a course", want: models.IntentEnrollment},
		{name: "enrollment variant", input: "how do I register?", want: models.IntentEnrollment},
		{name: "pricing", input: "how much does the SQL course cost?", want: models.IntentPricing},
		{name: "tracking", input: "I want to track my course progress", want: models.IntentTracking},
		{name: "fallback", input: "the weather is nice today", want: models.IntentFallback},
		{name: "hi not matched inside words", input: "which way now", want: models.IntentFallback},
		{name: "empty input", input: "", want: models.IntentFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s",
					tt.input, models.IntentLabel(got), models.IntentLabel(tt.want))
			}
		})
	}
}
