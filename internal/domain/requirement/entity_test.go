package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/pkg/errors"
)

func newTestRequirement(t *testing.T) *Requirement {
	t.Helper()
	r, err := NewRequirement("idx-1", "REQ-001", "هل توجد سياسة معتمدة", "الحوكمة")
	require.NoError(t, err)
	return r
}

func TestNewRequirement(t *testing.T) {
	r := newTestRequirement(t)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, AnswerDraft, r.AnswerStatus)
	assert.False(t, r.HasAnswer())

	_, err := NewRequirement("", "REQ-001", "سؤال", "الحوكمة")
	assert.Error(t, err)

	_, err = NewRequirement("idx-1", "REQ-001", "", "الحوكمة")
	assert.Error(t, err)
}

func TestAnswerWorkflow_HappyPath(t *testing.T) {
	r := newTestRequirement(t)

	require.NoError(t, r.SaveAnswer("نعم، السياسة معتمدة", ""))
	assert.True(t, r.HasAnswer())

	require.NoError(t, r.SubmitAnswer())
	assert.Equal(t, AnswerPendingReview, r.AnswerStatus)

	require.NoError(t, r.ApproveAnswer())
	assert.Equal(t, AnswerApproved, r.AnswerStatus)

	require.NoError(t, r.ConfirmAnswer())
	assert.Equal(t, AnswerConfirmed, r.AnswerStatus)
}

func TestAnswerWorkflow_SubmitRequiresText(t *testing.T) {
	r := newTestRequirement(t)

	err := r.SubmitAnswer()
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnswerEmpty))
}

func TestAnswerWorkflow_RejectReturnsToDraft(t *testing.T) {
	r := newTestRequirement(t)
	require.NoError(t, r.SaveAnswer("إجابة", ""))
	require.NoError(t, r.SubmitAnswer())

	require.NoError(t, r.RejectAnswer())
	assert.Equal(t, AnswerDraft, r.AnswerStatus)

	// The text survives the rejection for rework.
	assert.True(t, r.HasAnswer())
}

func TestAnswerWorkflow_RequestChangesFromApproved(t *testing.T) {
	r := newTestRequirement(t)
	require.NoError(t, r.SaveAnswer("إجابة", ""))
	require.NoError(t, r.SubmitAnswer())
	require.NoError(t, r.ApproveAnswer())

	require.NoError(t, r.RequestChanges())
	assert.Equal(t, AnswerDraft, r.AnswerStatus)
}

func TestAnswerWorkflow_InvalidTransitions(t *testing.T) {
	r := newTestRequirement(t)

	// Approve straight from draft.
	assert.True(t, errors.IsCode(r.ApproveAnswer(), errors.ErrCodeAnswerTransitionInvalid))

	// Confirmed is terminal.
	require.NoError(t, r.SaveAnswer("إجابة", ""))
	require.NoError(t, r.SubmitAnswer())
	require.NoError(t, r.ApproveAnswer())
	require.NoError(t, r.ConfirmAnswer())
	assert.True(t, errors.IsCode(r.RequestChanges(), errors.ErrCodeAnswerTransitionInvalid))
	assert.True(t, errors.IsCode(r.SaveAnswer("تعديل", ""), errors.ErrCodeAnswerTransitionInvalid))
}

func TestSaveAnswer_AllowedWhilePendingReview(t *testing.T) {
	r := newTestRequirement(t)
	require.NoError(t, r.SaveAnswer("إجابة", ""))
	require.NoError(t, r.SubmitAnswer())

	// Editing during review keeps the pending status.
	require.NoError(t, r.SaveAnswer("إجابة محدثة", ""))
	assert.Equal(t, AnswerPendingReview, r.AnswerStatus)
	assert.Equal(t, "إجابة محدثة", r.AnswerAr)
}

func TestSection_KeyAndLevel(t *testing.T) {
	s := Section{MainAreaAr: "الحوكمة", ElementAr: "السياسات", SubDomainAr: "حوكمة البيانات"}
	assert.Equal(t, "الحوكمة|السياسات|حوكمة البيانات", s.Key())
	assert.Equal(t, "sub_domain", s.Level())

	assert.Equal(t, "element", Section{MainAreaAr: "م", ElementAr: "ع"}.Level())
	assert.Equal(t, "main_area", Section{MainAreaAr: "م"}.Level())
}
