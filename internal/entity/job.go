package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshalev/slide-explainer/constants"
)

// Job represents a presentation upload job for data transfer between layers.
type Job struct {
	ID           uuid.UUID              `json:"id"`
	UserID       *uuid.UUID             `json:"user_id,omitempty"`
	Filename     string                 `json:"filename"`
	SourcePath   string                 `json:"source_path"`
	SummaryStyle constants.SummaryStyle `json:"summary_style"`
	Language     constants.Language     `json:"language"`
	Status       constants.JobStatus    `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	ClaimedAt    *time.Time             `json:"claimed_at,omitempty"`
	FinishedAt   *time.Time             `json:"finished_at,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Summaries    []SlideSummary         `json:"summaries,omitempty"`
}

// SlideSummary is one slide's explanation, ordered by SlideNumber.
type SlideSummary struct {
	SlideNumber int    `json:"slide_number"`
	Explanation string `json:"explanation"`
}
