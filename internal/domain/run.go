package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the current status of a run
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
	StatusCancelled  RunStatus = "cancelled"
)

// Run is one recorded invocation of the pipeline
type Run struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	URL          string     `json:"url" gorm:"not null"`
	VideoID      string     `json:"video_id,omitempty" gorm:"index"`
	Title        string     `json:"title,omitempty"`
	Action       Action     `json:"action" gorm:"not null"`
	Kind         MediaKind  `json:"kind" gorm:"not null"`
	Convert      bool       `json:"convert"`
	Status       RunStatus  `json:"status" gorm:"not null;index"`
	ErrorMessage string     `json:"error_message,omitempty"`
	FilePath     string     `json:"file_path,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewRun creates a queued run for a request
func NewRun(req Request) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.New().String(),
		URL:       req.URL,
		Action:    req.Action,
		Kind:      req.Kind,
		Convert:   req.Convert,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Request rebuilds the request the run was created from
func (r *Run) Request() Request {
	return Request{
		Action:  r.Action,
		Kind:    r.Kind,
		Convert: r.Convert,
		URL:     r.URL,
	}
}

// MarkProcessing marks the run as processing
func (r *Run) MarkProcessing() {
	r.Status = StatusProcessing
	now := time.Now()
	r.StartedAt = &now
	r.UpdatedAt = now
}

// MarkCompleted marks the run as completed
func (r *Run) MarkCompleted(filePath string, size int64) {
	r.Status = StatusCompleted
	r.FilePath = filePath
	r.FileSize = size
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed marks the run as failed
func (r *Run) MarkFailed(err error) {
	r.Status = StatusFailed
	r.ErrorMessage = err.Error()
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkCancelled marks the run as cancelled
func (r *Run) MarkCancelled() {
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
}

// IsTerminal checks if the run is in a terminal state
func (r *Run) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed || r.Status == StatusCancelled
}

// IsPending checks if the run is waiting in the queue
func (r *Run) IsPending() bool {
	return r.Status == StatusQueued
}

// IsProcessing checks if the run is currently processing
func (r *Run) IsProcessing() bool {
	return r.Status == StatusProcessing
}

// ValidateStatus checks if a status is valid
func ValidateStatus(status RunStatus) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
