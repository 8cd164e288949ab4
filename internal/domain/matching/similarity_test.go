package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_IdenticalText(t *testing.T) {
	s := NewScorer(NewDefaultNormalizer())

	assert.Equal(t, 1.0, s.Ratio("الحوكمة المؤسسية", "الحوكمة المؤسسية"))
	assert.Equal(t, 1.0, s.Ratio("hello world", "hello world"))
}

func TestScorer_EmptyInput(t *testing.T) {
	s := NewScorer(NewDefaultNormalizer())

	assert.Equal(t, 0.0, s.Ratio("", "الحوكمة"))
	assert.Equal(t, 0.0, s.Ratio("الحوكمة", ""))
	assert.Equal(t, 0.0, s.Ratio("", ""))
	// All-stop-word input normalizes to empty and never matches.
	assert.Equal(t, 0.0, s.Ratio("على من في", "الحوكمة"))
}

func TestScorer_EquivalentAfterNormalization(t *testing.T) {
	s := NewScorer(NewDefaultNormalizer())

	// Article, conjunction, alef variant, and teh marbuta all fold away.
	assert.Equal(t, 1.0, s.Ratio("الحوكمة المؤسسية", "حوكمه مؤسسيه"))
	assert.Equal(t, 1.0, s.Ratio("أمن المعلومات", "امن معلومات"))
}

func TestScorer_KnownRatio(t *testing.T) {
	s := NewScorer(NewDefaultNormalizer())

	// Longest common block "bcd" of length 3 over lengths 4+4.
	assert.InDelta(t, 0.75, s.Ratio("abcd", "bcde"), 1e-9)
	// Disjoint alphabets share nothing.
	assert.Equal(t, 0.0, s.Ratio("abc", "xyz"))
}

func TestScorer_Symmetric(t *testing.T) {
	s := NewScorer(NewDefaultNormalizer())

	pairs := [][2]string{
		{"التخطيط الاستراتيجي للمؤسسة", "الخطة الاستراتيجية"},
		{"ادارة المخاطر", "إدارة مخاطر الأمن"},
		{"abcdef", "abdcef"},
	}
	for _, p := range pairs {
		assert.InDelta(t, s.Ratio(p[0], p[1]), s.Ratio(p[1], p[0]), 1e-9)
	}
}

func TestScorer_MultipleMatchingBlocks(t *testing.T) {
	s := NewScorer(NewDefaultNormalizer())

	// Blocks "ab" and "ef" both count: M = 4 over lengths 6+4.
	assert.InDelta(t, 0.8, s.Ratio("abXXef", "abef"), 1e-9)
}
