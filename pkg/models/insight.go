package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ResultMetadata identifies which analysis module produced an envelope.
type ResultMetadata struct {
	Module      string `json:"module"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// AnalysisResult is the envelope shared by all ten analysis modules.
// Results carries a module-specific JSON object; no common shape exists
// across modules beyond this envelope.
type AnalysisResult struct {
	Metadata ResultMetadata  `json:"metadata"`
	Results  json.RawMessage `json:"results"`
	Errors   []string        `json:"errors"`
}

// Insight is one persisted AnalysisResult per (client, module) pair.
// Overwritten on every orchestrator run for that module; no history kept.
type Insight struct {
	ID        uuid.UUID       `db:"id"         json:"id"`
	ClientID  uuid.UUID       `db:"client_id"  json:"client_id"`
	Module    string          `db:"module"     json:"module"`
	Version   int             `db:"version"    json:"version"`
	Payload   json.RawMessage `db:"payload"    json:"payload"`
	Errors    []string        `db:"errors"     json:"errors"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
