// Package catalog defines the assessment catalog model and its storage interfaces.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested item does not exist
var ErrNotFound = errors.New("not found")

// TestType is the single-letter assessment category code used by the catalog.
type TestType string

const (
	TypeAbility     TestType = "A"
	TypeBiodata     TestType = "B"
	TypeCompetency  TestType = "C"
	TypeDevelopment TestType = "D"
	TypeExercise    TestType = "E"
	TypeKnowledge   TestType = "K"
	TypePersonality TestType = "P"
	TypeSimulation  TestType = "S"
)

// TypeNames maps test type codes to their full catalog names.
var TypeNames = map[TestType]string{
	TypeAbility:     "Ability & Aptitude",
	TypeBiodata:     "Biodata & Situational Judgement",
	TypeCompetency:  "Competencies",
	TypeDevelopment: "Development & 360",
	TypeExercise:    "Assessment Exercises",
	TypeKnowledge:   "Knowledge & Skills",
	TypePersonality: "Personality & Behavior",
	TypeSimulation:  "Simulations",
}

// Item is a single catalog assessment. Items are immutable once loaded;
// the embedding is computed once at index-build time and reused for every query.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	TestType    TestType  `json:"test_type"`
	Description string    `json:"description"`
	Languages   []string  `json:"languages,omitempty"`
	DurationMin int       `json:"assessment_length_min,omitempty"`
	Embedding   []float32 `json:"-"`
}

// SearchText returns the text used for lexical signals and pairwise scoring:
// the item name and description, lowercased.
func (it *Item) SearchText() string {
	return strings.ToLower(strings.TrimSpace(it.Name + " " + it.Description))
}

// EmbedText composes the text that is embedded for this item. Long
// descriptions are dropped to keep the embedding focused on the name and
// category, matching how the index was originally tuned.
func (it *Item) EmbedText() string {
	parts := []string{it.Name}
	if desc := strings.TrimSpace(it.Description); desc != "" && len(desc) < 800 {
		parts = append(parts, desc)
	}
	parts = append(parts, fmt.Sprintf("Test Type: %s %s", it.TestType, TypeNames[it.TestType]))
	if len(it.Languages) > 0 {
		langs := it.Languages
		if len(langs) > 3 {
			langs = langs[:3]
		}
		parts = append(parts, "Languages: "+strings.Join(langs, ", "))
	}
	return strings.Join(parts, "\n")
}

// Validate checks the fields required for indexing.
func (it *Item) Validate() error {
	if it.ID == "" {
		return errors.New("item has empty id")
	}
	if it.Name == "" {
		return fmt.Errorf("item %s has empty name", it.ID)
	}
	return nil
}

// Repository defines persistence for catalog items.
type Repository interface {
	// List returns every catalog item in stable insertion order.
	List(ctx context.Context) ([]*Item, error)

	// Upsert inserts or replaces items by ID.
	Upsert(ctx context.Context, items []*Item) error

	// SaveEmbeddings stores precomputed embeddings keyed by item ID.
	SaveEmbeddings(ctx context.Context, embeddings map[string][]float32) error
}
