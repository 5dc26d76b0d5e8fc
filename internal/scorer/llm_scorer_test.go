package scorer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hireloop/recommender/internal/llm"
)

type fakeLLM struct {
	response string
	err      error
	prompt   string
	opts     llm.GenerateOptions
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	f.prompt = prompt
	f.opts = opts
	return f.response, f.err
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
		wantErr  bool
	}{
		{"plain number", "0.85", 0.85, false},
		{"integer", "1", 1.0, false},
		{"markdown fenced", "`0.4`", 0.4, false},
		{"trailing prose", "0.7 because the skills match", 0.7, false},
		{"leading whitespace", "  0.25\n", 0.25, false},
		{"trailing punctuation", "0.5.", 0.5, false},
		{"clamped above one", "3.2", 1.0, false},
		{"clamped below zero", "-0.4", 0.0, false},
		{"no number", "highly relevant", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.response)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseScore(%q) error = %v, wantErr %v", tt.response, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseScore(%q) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	f := &fakeLLM{response: "0.9"}
	s := NewLLMScorer(f, WithModel("test-model"))

	got, err := s.Score(context.Background(), "java developer", "java programming test")
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if got != 0.9 {
		t.Errorf("Score() = %v, want 0.9", got)
	}

	if f.opts.Model != "test-model" {
		t.Errorf("model = %q, want test-model", f.opts.Model)
	}
	if f.opts.Temperature != 0 {
		t.Errorf("temperature = %v, want 0 for deterministic scoring", f.opts.Temperature)
	}
	if !strings.Contains(f.prompt, "java developer") || !strings.Contains(f.prompt, "java programming test") {
		t.Error("prompt is missing query or candidate text")
	}
}

func TestScoreGenerateFailure(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{err: errors.New("model not loaded")})

	if _, err := s.Score(context.Background(), "q", "c"); err == nil {
		t.Error("Score() should fail when generation fails")
	}
}

func TestScoreUnparseableResponse(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{response: "I think this is quite relevant"})

	if _, err := s.Score(context.Background(), "q", "c"); err == nil {
		t.Error("Score() should fail when the response has no number")
	}
}

func TestBuildScorePromptTruncatesCandidate(t *testing.T) {
	long := strings.Repeat("x", 2*maxCandidateChars)
	prompt := buildScorePrompt("query", long)

	if strings.Contains(prompt, long) {
		t.Error("prompt contains untruncated candidate text")
	}
	if !strings.Contains(prompt, strings.Repeat("x", maxCandidateChars)+"...") {
		t.Error("prompt does not contain truncated candidate text")
	}
}
