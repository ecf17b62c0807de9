package mapping

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/merchops/supplier-mdm/internal/domain"
)

// FuzzyPolicy selects how non-exact field names are matched.
type FuzzyPolicy string

const (
	// PolicySimilarity scores unmatched fields by normalized edit distance
	// with a substring boost. This is the default.
	PolicySimilarity FuzzyPolicy = "similarity"
	// PolicySynonyms matches unmatched fields through a fixed table of common
	// field-name variations, with flat partial credit per hit.
	PolicySynonyms FuzzyPolicy = "synonyms"
)

const (
	// Weighting of exact versus fuzzy matches in the combined score. These
	// two constants are the fixed contract; the fuzzy strategy behind them
	// is a policy choice.
	exactWeight = 0.7
	fuzzyWeight = 0.3

	// similarityFloor is the minimum similarity for a fuzzy candidate to
	// count. substringBoost is the minimum similarity granted when one field
	// name contains the other.
	similarityFloor = 0.6
	substringBoost  = 0.8

	// synonymCredit is the flat per-field confidence under PolicySynonyms.
	synonymCredit = 0.5

	// maxDiscoveryRecords bounds observed-field discovery, mirroring the
	// validator's sampling cap.
	maxDiscoveryRecords = 10
)

// Scorer ranks candidate mapping templates against a sample batch. It holds
// only immutable configuration and is safe for concurrent use.
type Scorer struct {
	policy   FuzzyPolicy
	synonyms SynonymTable
}

// NewScorer builds a scorer with the given fuzzy policy. An empty policy
// falls back to similarity scoring; a nil table falls back to the built-in
// synonym groups.
func NewScorer(policy FuzzyPolicy, synonyms SynonymTable) *Scorer {
	if policy == "" {
		policy = PolicySimilarity
	}
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Scorer{policy: policy, synonyms: synonyms}
}

// Suggest returns the best-scoring template for the batch and its combined
// confidence. Templates without declared source fields are excluded from
// comparison entirely. An empty batch or template list yields (nil, 0).
// Ties keep the first template encountered, so iteration order decides.
func (s *Scorer) Suggest(records []domain.Record, templates []domain.MappingTemplate) (*domain.MappingSuggestion, float64) {
	if len(records) == 0 || len(templates) == 0 {
		return nil, 0.0
	}

	observedSet := domain.FieldNames(records, maxDiscoveryRecords)
	observed := make([]string, 0, len(observedSet))
	for name := range observedSet {
		observed = append(observed, name)
	}
	// Fuzzy ties resolve to the first candidate scanned, so the scan order
	// must not depend on map iteration.
	sort.Strings(observed)

	var best *domain.MappingSuggestion
	bestScore := 0.0

	for _, template := range templates {
		fields := template.SourceFields()
		if len(fields) == 0 {
			continue
		}

		suggestion := s.scoreTemplate(template, fields, observedSet, observed)
		// Strictly greater keeps the first template on ties; a template that
		// scores zero is never worth suggesting.
		if suggestion.Confidence > bestScore {
			best = &suggestion
			bestScore = suggestion.Confidence
		}
	}

	if best == nil {
		return nil, 0.0
	}
	return best, bestScore
}

func (s *Scorer) scoreTemplate(template domain.MappingTemplate, fields []string, observedSet map[string]struct{}, observed []string) domain.MappingSuggestion {
	matches := make([]domain.FieldMatch, 0, len(fields))
	consumed := make(map[string]struct{}, len(fields))
	var unmatched []string

	exactHits := 0
	for _, field := range fields {
		if _, ok := observedSet[field]; ok {
			exactHits++
			consumed[field] = struct{}{}
			matches = append(matches, domain.FieldMatch{
				TemplateField: field,
				SampleField:   field,
				Kind:          domain.MatchExact,
				Confidence:    1.0,
			})
			continue
		}
		unmatched = append(unmatched, field)
	}

	exactScore := float64(exactHits) / float64(len(fields))

	fuzzyScore := 1.0 // an empty fuzzy set is vacuously perfect
	if len(unmatched) > 0 {
		total := 0.0
		for _, field := range unmatched {
			sampleField, confidence := s.bestFuzzyMatch(field, observed, consumed)
			if sampleField == "" {
				continue
			}
			total += confidence
			matches = append(matches, domain.FieldMatch{
				TemplateField: field,
				SampleField:   sampleField,
				Kind:          domain.MatchFuzzy,
				Confidence:    confidence,
			})
		}
		fuzzyScore = total / float64(len(unmatched))
	}

	score := clamp01(exactWeight*exactScore + fuzzyWeight*fuzzyScore)

	return domain.MappingSuggestion{
		TemplateID:      template.ID,
		TemplateName:    template.Name,
		FieldMatches:    matches,
		ExactMatchRatio: exactScore,
		FuzzyMatchRatio: fuzzyScore,
		Confidence:      score,
	}
}

// bestFuzzyMatch finds the strongest acceptable pairing for a template field
// among observed fields not already consumed by an exact match. It returns
// ("", 0) when nothing clears the policy's acceptance bar.
func (s *Scorer) bestFuzzyMatch(templateField string, observed []string, consumed map[string]struct{}) (string, float64) {
	switch s.policy {
	case PolicySynonyms:
		for _, candidate := range observed {
			if _, taken := consumed[candidate]; taken {
				continue
			}
			if s.synonyms.SameGroup(templateField, candidate) {
				return candidate, synonymCredit
			}
		}
		return "", 0.0
	default:
		bestField := ""
		bestSim := 0.0
		for _, candidate := range observed {
			if _, taken := consumed[candidate]; taken {
				continue
			}
			sim := similarity(templateField, candidate)
			if sim > bestSim {
				bestSim = sim
				bestField = candidate
			}
		}
		if bestSim < similarityFloor {
			return "", 0.0
		}
		return bestField, bestSim
	}
}

// similarity is a normalized edit-distance ratio in [0,1], boosted to at
// least substringBoost when one name contains the other (case-insensitive).
func similarity(a, b string) float64 {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	if la == lb {
		return 1.0
	}

	longest := len(la)
	if len(lb) > longest {
		longest = len(lb)
	}
	if longest == 0 {
		return 0.0
	}

	ratio := 1.0 - float64(levenshtein.ComputeDistance(la, lb))/float64(longest)

	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		if ratio < substringBoost {
			ratio = substringBoost
		}
	}
	return clamp01(ratio)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
