package scorer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hireloop/recommender/internal/llm"
)

// maxCandidateChars truncates candidate text in the prompt to stay well
// inside small-model context windows.
const maxCandidateChars = 500

// LLMScorer scores (query, candidate) pairs with a text-generation model.
// The model sees query and candidate together and emits a single relevance
// number, approximating a cross-encoder.
type LLMScorer struct {
	llmClient llm.LLM
	model     string
}

// LLMScorerOption is a functional option for configuring LLMScorer.
type LLMScorerOption func(*LLMScorer)

// WithModel sets the model to use for scoring.
func WithModel(model string) LLMScorerOption {
	return func(s *LLMScorer) {
		s.model = model
	}
}

// NewLLMScorer creates a new LLM-based pairwise scorer.
func NewLLMScorer(llmClient llm.LLM, opts ...LLMScorerOption) *LLMScorer {
	s := &LLMScorer{
		llmClient: llmClient,
		model:     "llama3.2", // Default model
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score evaluates the relevance of candidateText to query.
// Returns a value in [0,1]; parse failures are errors so the caller can
// apply its sentinel handling.
func (s *LLMScorer) Score(ctx context.Context, query, candidateText string) (float64, error) {
	prompt := buildScorePrompt(query, candidateText)

	opts := llm.GenerateOptions{
		Model:       s.model,
		Temperature: 0.0, // Deterministic scoring
		MaxTokens:   16,
	}

	response, err := s.llmClient.Generate(ctx, prompt, opts)
	if err != nil {
		return 0, fmt.Errorf("LLM scoring failed: %w", err)
	}

	score, err := parseScore(response)
	if err != nil {
		return 0, fmt.Errorf("failed to parse score from %q: %w", response, err)
	}

	return score, nil
}

// buildScorePrompt constructs the prompt for a single pair.
func buildScorePrompt(query, candidateText string) string {
	if len(candidateText) > maxCandidateChars {
		candidateText = candidateText[:maxCandidateChars] + "..."
	}

	var sb strings.Builder
	sb.WriteString("You are a relevance scoring system for hiring assessments.\n\n")
	sb.WriteString("Hiring query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAssessment: ")
	sb.WriteString(candidateText)
	sb.WriteString("\n\nScore the assessment's relevance to the query from 0.0 to 1.0.\n")
	sb.WriteString("Be strict: irrelevant below 0.3, somewhat relevant 0.3-0.7, highly relevant above 0.7.\n")
	sb.WriteString("Output ONLY the number, no explanation:")

	return sb.String()
}

// parseScore extracts the numeric score from the model output. Models
// occasionally wrap the number in markdown or trailing prose, so the first
// parseable token wins.
func parseScore(response string) (float64, error) {
	response = strings.TrimSpace(response)
	response = strings.Trim(response, "`")

	for _, field := range strings.Fields(response) {
		field = strings.Trim(field, ".,:;")
		score, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		// Clamp to valid range
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		return score, nil
	}

	return 0, fmt.Errorf("no numeric score found")
}

// Ensure LLMScorer implements Scorer interface.
var _ Scorer = (*LLMScorer)(nil)
