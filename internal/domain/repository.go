package domain

// RunRepository defines the interface for run history persistence
type RunRepository interface {
	// Create creates a new run
	Create(run *Run) error

	// Update updates an existing run
	Update(run *Run) error

	// Delete deletes a run by ID
	Delete(id string) error

	// FindByID finds a run by ID, returning ErrRunNotFound when it does not exist
	FindByID(id string) (*Run, error)

	// FindPending finds all queued runs ordered by creation time
	FindPending() ([]*Run, error)

	// FindAll finds runs with optional equality filters, newest first
	FindAll(filters map[string]interface{}) ([]*Run, error)

	// GetStats returns run statistics
	GetStats() (*RunStats, error)

	// FailOrphaned marks runs left processing by a previous process as failed
	FailOrphaned(reason string) (int64, error)
}

// RunStats represents run statistics
type RunStats struct {
	Total      int64 `json:"total"`
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
}
