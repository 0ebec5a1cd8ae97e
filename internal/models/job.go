package models

import "time"

// Job statuses.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job tracks an asynchronous labeling pass.
type Job struct {
	ID           string     `json:"id" db:"id"`
	Mode         Mode       `json:"mode" db:"mode"`
	Status       string     `json:"status" db:"status"`
	Offers       int        `json:"offers" db:"offers"`
	Inserted     int        `json:"inserted" db:"inserted"`
	Suspicious   int        `json:"suspicious" db:"suspicious"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
}
