package matching

import (
	"github.com/qiyas/continuity/internal/domain/mapping"
	"github.com/qiyas/continuity/internal/domain/requirement"
)

// DefaultThreshold is the minimum similarity at which a single best
// candidate is reported instead of the whole taxonomy group.
const DefaultThreshold = 0.90

// Outcome tags a match result.
type Outcome string

const (
	OutcomeMatched   Outcome = "matched"
	OutcomeUnmatched Outcome = "unmatched"
)

// MatchResult is the outcome of matching one current requirement against a
// previous index's requirement set.  Exactly one shape is populated per
// outcome: Matched carries Best and Confidence; Unmatched carries Group,
// which is empty when the candidate pool itself was empty (no previous-year
// signal at all).
type MatchResult struct {
	Outcome    Outcome
	Best       *requirement.Requirement
	Confidence float64
	Group      []*requirement.Requirement
	PoolLevel  string // taxonomy level that selected the pool, "" when empty
}

// Matched reports whether a single best candidate cleared the threshold.
func (r *MatchResult) Matched() bool {
	return r.Outcome == OutcomeMatched
}

// Matcher pairs a current requirement with its previous-cycle counterpart.
// The candidate pool is constrained by taxonomy before any text comparison:
// question wording often changes completely between cycles while taxonomy
// placement stays stable, so bucketing first avoids false positives from
// similarly worded questions in unrelated sections.
type Matcher struct {
	scorer    *Scorer
	threshold float64
}

// NewMatcher builds a matcher over the given scorer.  A non-positive
// threshold falls back to DefaultThreshold.
func NewMatcher(scorer *Scorer, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{scorer: scorer, threshold: threshold}
}

// Match selects the candidate pool for the resolved previous-index triple,
// then scores the current question text against every pool member.  The
// pool cascades sub-domain, element, main area, stopping at the first
// non-empty level; an empty cascade yields Unmatched with an empty group.
// The best candidate is returned only when its similarity reaches the
// threshold, otherwise the entire pool is returned as the fallback group.
func (m *Matcher) Match(questionText string, resolved mapping.Triple, previous []*requirement.Requirement) *MatchResult {
	pool, level := selectPool(resolved, previous)
	if len(pool) == 0 {
		return &MatchResult{Outcome: OutcomeUnmatched}
	}

	var best *requirement.Requirement
	bestScore := 0.0
	for _, cand := range pool {
		score := m.scorer.Ratio(questionText, cand.QuestionAr)
		if best == nil || score > bestScore {
			best, bestScore = cand, score
		}
	}

	if bestScore >= m.threshold {
		return &MatchResult{
			Outcome:    OutcomeMatched,
			Best:       best,
			Confidence: bestScore,
			PoolLevel:  level,
		}
	}
	return &MatchResult{
		Outcome:   OutcomeUnmatched,
		Group:     pool,
		PoolLevel: level,
	}
}

// selectPool returns the first non-empty taxonomy bucket for the triple.
func selectPool(resolved mapping.Triple, previous []*requirement.Requirement) ([]*requirement.Requirement, string) {
	if resolved.SubDomain != "" {
		if pool := filterBy(previous, func(r *requirement.Requirement) bool {
			return r.SubDomainAr == resolved.SubDomain
		}); len(pool) > 0 {
			return pool, "sub_domain"
		}
	}
	if resolved.Element != "" {
		if pool := filterBy(previous, func(r *requirement.Requirement) bool {
			return r.ElementAr == resolved.Element
		}); len(pool) > 0 {
			return pool, "element"
		}
	}
	if resolved.MainArea != "" {
		if pool := filterBy(previous, func(r *requirement.Requirement) bool {
			return r.MainAreaAr == resolved.MainArea
		}); len(pool) > 0 {
			return pool, "main_area"
		}
	}
	return nil, ""
}

func filterBy(reqs []*requirement.Requirement, keep func(*requirement.Requirement) bool) []*requirement.Requirement {
	var out []*requirement.Requirement
	for _, r := range reqs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
