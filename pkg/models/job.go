package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job tracks analysis runs triggered through POST /api/v1/analyze/trigger.
// The orchestrator process picks the run up out of band; clients poll the
// job until status is completed or failed.
type Job struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	ClientID     uuid.UUID  `db:"client_id"     json:"client_id"`
	Module       string     `db:"module"        json:"module"`
	Status       string     `db:"status"        json:"status"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt    *time.Time `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}
