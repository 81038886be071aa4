package models

import (
	"time"

	"github.com/google/uuid"
)

// Content job kinds handled by the agent workers
const (
	JobKindVoiceAnalysis     = "voice_analysis"
	JobKindContentGeneration = "content_generation"
)

// Content job lifecycle states
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ContentJob is the unit of work published to the broker and consumed by
// the agent workers.
type ContentJob struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Kind      string    `json:"kind"`
	Topic     string    `json:"topic,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	Template  string    `json:"template,omitempty"`
	Source    string    `json:"source,omitempty"`   // transcript or seed text
	AudioURL  string    `json:"audioUrl,omitempty"` // recording to transcribe when no transcript is given
	CreatedAt time.Time `json:"createdAt"`
}

// ContentJobResult is what a worker publishes (and caches) once a job
// finishes.
type ContentJobResult struct {
	JobID       uuid.UUID `json:"jobId"`
	Status      string    `json:"status"`
	Content     string    `json:"content,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// ContentJobRequest is the API payload that enqueues a job.
type ContentJobRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=voice_analysis content_generation"`
	Topic    string `json:"topic"`
	Platform string `json:"platform"`
	Template string `json:"template"`
	Source   string `json:"source"`
	AudioURL string `json:"audioUrl" validate:"omitempty,url"`
}
