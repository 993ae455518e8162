package models

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Query          string `json:"query" binding:"required"`
	Mode           string `json:"mode"`            // "public" or "private"
	FamilyMemberID *uint  `json:"family_member_id"` // nil means "self"
}

// ChatStatus distinguishes a normal answer from a degraded one without
// string matching on the body.
type ChatStatus string

const (
	ChatStatusOK          ChatStatus = "ok"
	ChatStatusUnavailable ChatStatus = "unavailable"
)

// ChatResponse is the processed result of one assistant turn.
type ChatResponse struct {
	Body           string     `json:"body"`
	Citations      []Citation `json:"citations"`
	ProviderUsed   string     `json:"provider_used,omitempty"`
	Status         ChatStatus `json:"status"`
	ResponseTimeMs int        `json:"response_time_ms"`
}

// SummaryJobStatus is the lifecycle of an asynchronous summary job.
type SummaryJobStatus string

const (
	SummaryJobPending SummaryJobStatus = "pending"
	SummaryJobRunning SummaryJobStatus = "running"
	SummaryJobDone    SummaryJobStatus = "done"
	SummaryJobFailed  SummaryJobStatus = "failed"
)

// SummaryJob is the pollable state of a background summary generation.
type SummaryJob struct {
	ID       string           `json:"id"`
	RecordID uint             `json:"record_id"`
	Status   SummaryJobStatus `json:"status"`
	Summary  string           `json:"summary,omitempty"`
	Error    string           `json:"error,omitempty"`
}
