package requirement

import (
	"github.com/qiyas/continuity/pkg/types/common"
)

// Event types emitted on the answer activity stream.
const (
	EventAnswerSubmitted = "continuity.answer.submitted"
	EventAnswerReviewed  = "continuity.answer.reviewed"
)

// AnswerEvent announces an answer workflow transition.
type AnswerEvent struct {
	common.BaseEvent
	RequirementID string `json:"requirement_id"`
	NewStatus     string `json:"new_status"`
}

// NewAnswerEvent builds the event for one answer transition.  eventType is
// EventAnswerSubmitted for the draft-to-review move and EventAnswerReviewed
// for every reviewer decision.
func NewAnswerEvent(eventType string, requirementID common.ID, newStatus AnswerStatus) *AnswerEvent {
	return &AnswerEvent{
		BaseEvent:     common.NewBaseEvent(eventType, string(requirementID)),
		RequirementID: string(requirementID),
		NewStatus:     string(newStatus),
	}
}
