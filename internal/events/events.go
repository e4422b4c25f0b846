package events

// Domain event types published to the outbox.
const (
	EventMetricsSubmitted = "metrics.submitted"
	EventMetricsReviewed  = "metrics.reviewed"
	EventBatchCompleted   = "area_batch.completed"
	EventBatchFailed      = "area_batch.failed"
	EventBatchCancelled   = "area_batch.cancelled"
	EventAreaMaterialized = "area.materialized"
)

// MetricsReviewedPayload captures the minimal data consumers need to react
// to a review decision.
type MetricsReviewedPayload struct {
	SubmissionID string `json:"submission_id"`
	EventID      string `json:"event_id"`
	Outcome      string `json:"outcome"`
	ReviewerID   string `json:"reviewer_id"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p MetricsReviewedPayload) ToMap() map[string]any {
	return map[string]any{
		"submission_id": p.SubmissionID,
		"event_id":      p.EventID,
		"outcome":       p.Outcome,
		"reviewer_id":   p.ReviewerID,
	}
}

// BatchTerminalPayload captures a batch reaching a terminal state.
type BatchTerminalPayload struct {
	BatchID     string `json:"batch_id"`
	PartnerID   string `json:"partner_id"`
	Status      string `json:"status"`
	StagedCount int    `json:"staged_count"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p BatchTerminalPayload) ToMap() map[string]any {
	return map[string]any{
		"batch_id":     p.BatchID,
		"partner_id":   p.PartnerID,
		"status":       p.Status,
		"staged_count": p.StagedCount,
	}
}
