package continuity

import (
	"github.com/qiyas/continuity/pkg/types/common"
)

// EventBatchProcessed is the event type emitted after a recommendation
// upload batch finishes.  Index and answer lifecycle events are emitted by
// their domain services; only the batch event originates here.
const EventBatchProcessed = "continuity.recommendation_batch.processed"

// BatchProcessedEvent announces a finished recommendation upload batch.
type BatchProcessedEvent struct {
	common.BaseEvent
	TotalRows int `json:"total_rows"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
}

// NewBatchProcessedEvent builds the event for one upload result.
func NewBatchProcessedEvent(indexID common.ID, result *UploadResult) *BatchProcessedEvent {
	return &BatchProcessedEvent{
		BaseEvent: common.NewBaseEvent(EventBatchProcessed, string(indexID)),
		TotalRows: result.TotalRows,
		Matched:   result.Matched,
		Unmatched: result.Unmatched,
		Created:   result.Created,
		Updated:   result.Updated,
	}
}
