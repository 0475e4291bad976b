package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses follow the original workflow labels.
const (
	TaskStatusPendiente = "PENDIENTE"
	TaskStatusEnCurso   = "EN_CURSO"
	TaskStatusHecho     = "HECHO"
	TaskStatusRevisado  = "REVISADO"
)

// ValidTaskStatus reports whether s is one of the four workflow statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPendiente, TaskStatusEnCurso, TaskStatusHecho, TaskStatusRevisado:
		return true
	}
	return false
}

// Task is a to-do item generated heuristically from Q9 recommendations
// (or created by hand). Not part of the analysis pipeline proper.
type Task struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	ClientID    uuid.UUID `db:"client_id"   json:"client_id"`
	Title       string    `db:"title"       json:"title"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status"      json:"status"`
	SourceModule string   `db:"source_module" json:"source_module,omitempty"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// TaskNote is a free-text note attached to a task.
type TaskNote struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	TaskID    uuid.UUID `db:"task_id"    json:"task_id"`
	Body      string    `db:"body"       json:"body"`
	Author    string    `db:"author"     json:"author"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
