package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/pkg/errors"
)

func newTestIndex(t *testing.T, code, indexType string) *Index {
	t.Helper()
	idx, err := NewIndex(code, "مؤشر "+code, indexType)
	require.NoError(t, err)
	return idx
}

func completed(t *testing.T, code, indexType string) *Index {
	t.Helper()
	idx := newTestIndex(t, code, indexType)
	require.NoError(t, idx.MarkCompleted())
	return idx
}

func TestNewIndex(t *testing.T) {
	idx := newTestIndex(t, "ETARI-2025", "ETARI")

	assert.NotEmpty(t, idx.ID)
	assert.Equal(t, StatusNotStarted, idx.Status)
	assert.False(t, idx.IsCompleted)

	_, err := NewIndex("", "مؤشر", "ETARI")
	assert.Error(t, err)
	_, err = NewIndex("ETARI-2025", "مؤشر", "")
	assert.Error(t, err)
}

func TestIndex_Year(t *testing.T) {
	idx := newTestIndex(t, "ETARI-2025", "ETARI")
	year, ok := idx.Year()
	assert.True(t, ok)
	assert.Equal(t, 2025, year)

	idx = newTestIndex(t, "BASELINE", "ETARI")
	_, ok = idx.Year()
	assert.False(t, ok)
}

func TestMarkCompleted(t *testing.T) {
	idx := newTestIndex(t, "ETARI-2024", "ETARI")

	require.NoError(t, idx.MarkCompleted())
	assert.True(t, idx.IsCompleted)
	assert.Equal(t, StatusCompleted, idx.Status)
	require.NotNil(t, idx.CompletedAt)

	err := idx.MarkCompleted()
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexAlreadyComplete))
}

func TestLinkPrevious(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	previous := completed(t, "ETARI-2024", "ETARI")

	require.NoError(t, current.LinkPrevious(previous))
	require.NotNil(t, current.PreviousIndexID)
	assert.Equal(t, previous.ID, *current.PreviousIndexID)
}

func TestLinkPrevious_Invariants(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")

	// Missing target.
	assert.True(t, errors.IsCode(current.LinkPrevious(nil), errors.ErrCodeIndexNotFound))

	// Self link.
	assert.True(t, errors.IsCode(current.LinkPrevious(current), errors.ErrCodeIndexSelfLink))

	// Previous not completed yet.
	inProgress := newTestIndex(t, "ETARI-2024", "ETARI")
	assert.True(t, errors.IsCode(current.LinkPrevious(inProgress), errors.ErrCodeIndexNotCompleted))

	// Different family.
	otherFamily := completed(t, "NAII-2024", "NAII")
	assert.True(t, errors.IsCode(current.LinkPrevious(otherFamily), errors.ErrCodeIndexTypeMismatch))

	// Cycle A→B→A.
	a := completed(t, "ETARI-2023", "ETARI")
	b := completed(t, "ETARI-2024B", "ETARI")
	require.NoError(t, b.LinkPrevious(a))
	assert.True(t, errors.IsCode(a.LinkPrevious(b), errors.ErrCodeIndexCircularLink))
}

func TestUnlinkPrevious(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	previous := completed(t, "ETARI-2024", "ETARI")

	assert.True(t, errors.IsCode(current.UnlinkPrevious(), errors.ErrCodeIndexNotLinked))

	require.NoError(t, current.LinkPrevious(previous))
	require.NoError(t, current.UnlinkPrevious())
	assert.Nil(t, current.PreviousIndexID)
}

func TestUpdateStatus(t *testing.T) {
	idx := newTestIndex(t, "ETARI-2025", "ETARI")

	require.NoError(t, idx.UpdateStatus(StatusInProgress))
	require.NoError(t, idx.UpdateStatus(StatusCompleted))
	require.NoError(t, idx.UpdateStatus(StatusArchived))

	// Archived is terminal.
	err := idx.UpdateStatus(StatusInProgress)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexStatusInvalid))
}
