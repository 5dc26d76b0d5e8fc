package scorer

import (
	"context"
	"strings"
	"testing"
)

func TestParseBatchResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		num      int
		want     []float64
		wantErr  bool
	}{
		{
			name:     "plain json",
			response: `{"scores": [{"index": 0, "score": 0.9}, {"index": 1, "score": 0.3}]}`,
			num:      2,
			want:     []float64{0.9, 0.3},
		},
		{
			name: "json fenced",
			response: "```json\n" +
				`{"scores": [{"index": 0, "score": 0.5}]}` + "\n```",
			num:  1,
			want: []float64{0.5},
		},
		{
			name:     "clamps out of range",
			response: `{"scores": [{"index": 0, "score": 1.5}, {"index": 1, "score": -0.2}]}`,
			num:      2,
			want:     []float64{1.0, 0.0},
		},
		{
			name:     "out of range index ignored, coverage fails",
			response: `{"scores": [{"index": 5, "score": 0.9}]}`,
			num:      2,
			wantErr:  true,
		},
		{
			name:     "missing candidate",
			response: `{"scores": [{"index": 0, "score": 0.9}]}`,
			num:      2,
			wantErr:  true,
		},
		{
			name:     "not json",
			response: "all of them look great",
			num:      1,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBatchResponse(tt.response, tt.num)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBatchResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for i, w := range tt.want {
				if got[i] != w {
					t.Errorf("scores[%d] = %v, want %v", i, got[i], w)
				}
			}
		})
	}
}

func TestScoreBatch(t *testing.T) {
	f := &fakeLLM{response: `{"scores": [{"index": 0, "score": 0.8}, {"index": 1, "score": 0.2}]}`}
	s := NewLLMScorer(f)

	scores, err := s.ScoreBatch(context.Background(), "java developer", []string{"java test", "typing test"})
	if err != nil {
		t.Fatalf("ScoreBatch() error = %v", err)
	}
	if scores[0] != 0.8 || scores[1] != 0.2 {
		t.Errorf("scores = %v, want [0.8 0.2]", scores)
	}

	if !strings.Contains(f.prompt, "[0]: java test") || !strings.Contains(f.prompt, "[1]: typing test") {
		t.Error("prompt is missing indexed candidates")
	}
}

func TestScoreBatchEmpty(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{})
	scores, err := s.ScoreBatch(context.Background(), "q", nil)
	if err != nil || scores != nil {
		t.Errorf("ScoreBatch(empty) = %v, %v; want nil, nil", scores, err)
	}
}
