package ranking

import (
	"regexp"
	"strings"

	"github.com/hireloop/recommender/internal/catalog"
)

// Signal names assigned by the extractor. Each signal is a pure function of
// the query and one candidate, valued in [0,1].
const (
	SignalLexical = "lexical" // token-set overlap of query vs item text
	SignalIntent  = "intent"  // query cues match the item's test type
	SignalBoost   = "boost"   // explicit language/role mention match
)

// Cue patterns mapping query wording to test type categories.
var (
	knowledgeCues   = regexp.MustCompile(`\b(java(script)?|python|sql|react|node|c\+\+|c#|aws|docker|kubernetes|devops|engineer|developer|programming|data|machine|ml|ai|deep)\b`)
	personalityCues = regexp.MustCompile(`\b(collaborat\w*|stakeholder|communication|teamwork|leadership|behaviou?r\w*|personality)\b`)
	abilityCues     = regexp.MustCompile(`\b(numerical|verbal|abstract|reasoning|aptitude|cognitive|ability)\b`)
	simulationCues  = regexp.MustCompile(`\b(simulations?|scenario)\b`)
	competencyCues  = regexp.MustCompile(`\b(competenc\w*)\b`)
	fallbackTech    = regexp.MustCompile(`\b(dev|engineer|developer|analyst|data)\b`)

	// queryTokenPattern keeps compound language tokens like c++ and c# intact.
	queryTokenPattern = regexp.MustCompile(`(?:c\+\+|c#|[A-Za-z0-9_#+\-]+)`)
)

// Explicit technology and role mentions that deserve a lexical boost beyond
// what embedding similarity captures.
var (
	languageTokens = []string{"python", "java", "c++", "c#", "javascript", "js", "sql", "react", "node"}
	roleTokens     = []string{"developer", "engineer", "programmer"}
)

// SignalExtractor computes auxiliary relevance signals per candidate. It has
// no mutable state; extraction is safe to run concurrently.
type SignalExtractor struct{}

// NewSignalExtractor creates a signal extractor.
func NewSignalExtractor() *SignalExtractor {
	return &SignalExtractor{}
}

// Extract computes all signals for one candidate item.
func (e *SignalExtractor) Extract(query string, item *catalog.Item) map[string]float64 {
	return e.extract(newQueryProfile(query), item)
}

// ExtractAll computes signals for every candidate, deriving the query
// profile once.
func (e *SignalExtractor) ExtractAll(query string, candidates []Candidate) {
	profile := newQueryProfile(query)
	for i := range candidates {
		candidates[i].Signals = e.extract(profile, candidates[i].Item)
	}
}

func (e *SignalExtractor) extract(p queryProfile, item *catalog.Item) map[string]float64 {
	itemText := item.SearchText()

	return map[string]float64{
		SignalLexical: jaccardSimilarity(p.tokenSet, tokenSet(itemText)),
		SignalIntent:  intentMatch(p.wantedTypes, item.TestType),
		SignalBoost:   lexicalBoost(p, item, itemText),
	}
}

// queryProfile caches the per-query derivations shared by all candidates.
type queryProfile struct {
	lower       string
	tokenSet    map[string]struct{}
	tokens      map[string]struct{}
	wantedTypes map[catalog.TestType]struct{}
}

func newQueryProfile(query string) queryProfile {
	lower := strings.ToLower(query)

	tokens := make(map[string]struct{})
	for _, tok := range queryTokenPattern.FindAllString(lower, -1) {
		tokens[tok] = struct{}{}
	}

	return queryProfile{
		lower:       lower,
		tokenSet:    tokenSet(lower),
		tokens:      tokens,
		wantedTypes: guessTypes(lower),
	}
}

// guessTypes infers which test type categories the query is asking for.
// A query with no recognizable cues defaults to Knowledge for technical
// wording and Personality otherwise.
func guessTypes(lower string) map[catalog.TestType]struct{} {
	wants := make(map[catalog.TestType]struct{})
	if knowledgeCues.MatchString(lower) {
		wants[catalog.TypeKnowledge] = struct{}{}
	}
	if personalityCues.MatchString(lower) {
		wants[catalog.TypePersonality] = struct{}{}
	}
	if abilityCues.MatchString(lower) {
		wants[catalog.TypeAbility] = struct{}{}
	}
	if simulationCues.MatchString(lower) {
		wants[catalog.TypeSimulation] = struct{}{}
	}
	if competencyCues.MatchString(lower) {
		wants[catalog.TypeCompetency] = struct{}{}
	}
	if len(wants) == 0 {
		if fallbackTech.MatchString(lower) {
			wants[catalog.TypeKnowledge] = struct{}{}
		} else {
			wants[catalog.TypePersonality] = struct{}{}
		}
	}
	return wants
}

// intentMatch is a binary boost: 1 when the item's type is among the types
// the query asks for.
func intentMatch(wanted map[catalog.TestType]struct{}, tt catalog.TestType) float64 {
	if _, ok := wanted[tt]; ok {
		return 1.0
	}
	return 0.0
}

// lexicalBoost rewards items that explicitly mention a language or role term
// present in the query. Graded by where the mention appears: name or
// description is strongest, URL weaker, the languages field weakest.
func lexicalBoost(p queryProfile, item *catalog.Item, itemText string) float64 {
	var boost float64

	urlLower := strings.ToLower(item.URL)
	for _, tok := range languageTokens {
		if _, ok := p.tokens[tok]; !ok {
			continue
		}
		switch {
		case strings.Contains(itemText, tok):
			boost += 1.0
		case strings.Contains(urlLower, tok):
			boost += 0.6
		case languageListed(item.Languages, tok):
			boost += 0.3
		}
	}

	for _, rt := range roleTokens {
		if _, ok := p.tokens[rt]; !ok {
			continue
		}
		if containsWord(itemText, rt) {
			boost += 0.3
		}
	}

	if boost > 1.0 {
		boost = 1.0
	}
	return boost
}

func languageListed(languages []string, tok string) bool {
	for _, l := range languages {
		if strings.Contains(strings.ToLower(l), tok) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

// tokenSet converts text into a set of lowercase words for similarity
// comparison.
func tokenSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		// Remove common punctuation
		word = strings.Trim(word, ".,!?;:\"'()[]{}=<>")
		if len(word) > 2 { // Skip very short tokens
			set[word] = struct{}{}
		}
	}
	return set
}

// jaccardSimilarity computes the Jaccard similarity between two word sets.
// Returns a value between 0 (no overlap) and 1 (identical).
func jaccardSimilarity(set1, set2 map[string]struct{}) float64 {
	if len(set1) == 0 && len(set2) == 0 {
		return 1.0
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	intersection := 0
	for word := range set1 {
		if _, exists := set2[word]; exists {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection

	return float64(intersection) / float64(union)
}
