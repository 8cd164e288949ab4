package index

import (
	"github.com/qiyas/continuity/pkg/types/common"
)

// Event types emitted on the index activity stream.
const (
	EventIndexLinked    = "continuity.index.linked"
	EventIndexCompleted = "continuity.index.completed"
)

// LinkedEvent announces an explicit previous-index link.
type LinkedEvent struct {
	common.BaseEvent
	PreviousIndexID string `json:"previous_index_id"`
}

// NewLinkedEvent builds the event for one link operation.
func NewLinkedEvent(indexID, previousIndexID common.ID) *LinkedEvent {
	return &LinkedEvent{
		BaseEvent:       common.NewBaseEvent(EventIndexLinked, string(indexID)),
		PreviousIndexID: string(previousIndexID),
	}
}

// CompletedEvent announces an index marked complete.
type CompletedEvent struct {
	common.BaseEvent
	Code string `json:"code"`
}

// NewCompletedEvent builds the event for one completion.
func NewCompletedEvent(indexID common.ID, code string) *CompletedEvent {
	return &CompletedEvent{
		BaseEvent: common.NewBaseEvent(EventIndexCompleted, string(indexID)),
		Code:      code,
	}
}
