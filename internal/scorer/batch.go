package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hireloop/recommender/internal/llm"
)

// BatchScorer scores a whole candidate pool against the query in one call.
// Implementations return one score per candidate text, in input order.
// Callers fall back to per-pair Score calls when the batch call fails.
type BatchScorer interface {
	ScoreBatch(ctx context.Context, query string, candidateTexts []string) ([]float64, error)
}

// candidateScore is one entry of the model's structured batch output.
type candidateScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type batchResponse struct {
	Scores []candidateScore `json:"scores"`
}

// ScoreBatch scores every candidate in a single generation call. The model
// sees the query and all candidates together and emits one JSON document,
// which costs one round trip instead of one per candidate.
func (s *LLMScorer) ScoreBatch(ctx context.Context, query string, candidateTexts []string) ([]float64, error) {
	if len(candidateTexts) == 0 {
		return nil, nil
	}

	prompt := buildBatchPrompt(query, candidateTexts)

	opts := llm.GenerateOptions{
		Model:       s.model,
		Temperature: 0.0, // Deterministic scoring
		MaxTokens:   2048,
	}

	response, err := s.llmClient.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("LLM batch scoring failed: %w", err)
	}

	scores, err := parseBatchResponse(response, len(candidateTexts))
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch scores: %w", err)
	}
	return scores, nil
}

// buildBatchPrompt constructs the prompt listing every candidate with an index.
func buildBatchPrompt(query string, candidateTexts []string) string {
	var sb strings.Builder

	sb.WriteString("You are a relevance scoring system for hiring assessments. Score each assessment's relevance to the hiring query.\n\n")
	sb.WriteString("Hiring query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAssessments to score:\n")

	for i, text := range candidateTexts {
		if len(text) > maxCandidateChars {
			text = text[:maxCandidateChars] + "..."
		}
		sb.WriteString(fmt.Sprintf("[%d]: %s\n\n", i, text))
	}

	sb.WriteString(`Score each assessment from 0.0 to 1.0 based on relevance to the query.
Output ONLY valid JSON in this exact format:
{"scores": [{"index": 0, "score": 0.9}, {"index": 1, "score": 0.3}, ...]}

Be strict: irrelevant assessments should score below 0.3, somewhat relevant 0.3-0.7, highly relevant above 0.7.
Output only JSON, no explanation:`)

	return sb.String()
}

// parseBatchResponse extracts the per-candidate scores. Every candidate must
// be covered; a partial response is an error so the caller can fall back to
// per-pair scoring instead of guessing at the gaps.
func parseBatchResponse(response string, numCandidates int) ([]float64, error) {
	response = strings.TrimSpace(response)

	// Strip markdown code fences if present
	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	}
	response = strings.TrimSpace(response)

	var parsed batchResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, err
	}

	scores := make([]float64, numCandidates)
	covered := make([]bool, numCandidates)
	for _, cs := range parsed.Scores {
		if cs.Index < 0 || cs.Index >= numCandidates {
			continue
		}
		score := cs.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		scores[cs.Index] = score
		covered[cs.Index] = true
	}

	for i, ok := range covered {
		if !ok {
			return nil, fmt.Errorf("candidate %d missing from response", i)
		}
	}
	return scores, nil
}

// Ensure LLMScorer implements BatchScorer.
var _ BatchScorer = (*LLMScorer)(nil)
