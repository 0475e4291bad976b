package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a tenant of the platform ("ficha de cliente"). Every other
// entity belongs to a client.
type Client struct {
	ID             uuid.UUID  `db:"id"               json:"id"`
	Name           string     `db:"name"             json:"name"`
	BrandContext   string     `db:"brand_context"    json:"brand_context"`
	Industry       string     `db:"industry"         json:"industry"`
	SpreadsheetID  string     `db:"spreadsheet_id"   json:"spreadsheet_id,omitempty"`
	LastAnalyzedAt *time.Time `db:"last_analyzed_at" json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"       json:"updated_at"`
}
