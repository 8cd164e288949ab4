package recommendation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/pkg/errors"
)

func TestNew(t *testing.T) {
	rec, err := New("req-1", "idx-1", "الوضع الراهن", "يوصى باعتماد سياسة")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(rec.ID), "rec_"))
	assert.Len(t, string(rec.ID), len("rec_")+12)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "يوصى باعتماد سياسة", rec.RecommendationAr)
}

func TestNew_RequiresText(t *testing.T) {
	_, err := New("req-1", "idx-1", "", "   ")
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecommendationTextEmpty))

	_, err = New("", "idx-1", "", "نص")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestApplyText(t *testing.T) {
	rec, err := New("req-1", "idx-1", "قديم", "توصية قديمة")
	require.NoError(t, err)
	rec.Status = StatusInProgress

	require.NoError(t, rec.ApplyText("جديد", "توصية جديدة"))

	assert.Equal(t, "توصية جديدة", rec.RecommendationAr)
	assert.Equal(t, "جديد", rec.CurrentStatusAr)
	// Re-applying text never resets workflow progress.
	assert.Equal(t, StatusInProgress, rec.Status)

	err = rec.ApplyText("", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecommendationTextEmpty))
}

func TestStatusTransitions(t *testing.T) {
	rec, err := New("req-1", "idx-1", "", "توصية")
	require.NoError(t, err)

	require.NoError(t, rec.Start())
	assert.Equal(t, StatusInProgress, rec.Status)

	require.NoError(t, rec.MarkAddressed("user-1", "تمت المعالجة"))
	assert.Equal(t, StatusAddressed, rec.Status)
	assert.Equal(t, "تمت المعالجة", rec.AddressedComment)
	require.NotNil(t, rec.AddressedAt)

	// Terminal state.
	err = rec.Start()
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecommendationStatusInvalid))
}

func TestMarkAddressed_DirectFromPending(t *testing.T) {
	rec, err := New("req-1", "idx-1", "", "توصية")
	require.NoError(t, err)

	require.NoError(t, rec.MarkAddressed("user-1", ""))
	assert.Equal(t, StatusAddressed, rec.Status)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusInProgress))
	assert.True(t, CanTransition(StatusPending, StatusAddressed))
	assert.True(t, CanTransition(StatusInProgress, StatusAddressed))
	assert.False(t, CanTransition(StatusAddressed, StatusPending))
	assert.False(t, CanTransition(StatusInProgress, StatusPending))
}
