// Package tasks turns persisted Q9 recommendations into actionable task
// rows. Purely heuristic: no LLM call, no dedup beyond what the caller does.
package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"socialpulse/pkg/models"
)

const sourceModule = "Q9"

// GenerateFromQ9 maps the Q9 payload to task rows: one per recommendation
// (title from titulo, priority folded into the description) and one per
// opportunity. An empty payload yields no tasks and no error.
func GenerateFromQ9(clientID uuid.UUID, payload json.RawMessage) ([]*models.Task, error) {
	var q9 struct {
		ListaOportunidades []string `json:"lista_oportunidades"`
		Recomendaciones    []struct {
			Titulo      string `json:"titulo"`
			Descripcion string `json:"descripcion"`
			Prioridad   string `json:"prioridad"`
		} `json:"recomendaciones"`
	}
	if err := json.Unmarshal(payload, &q9); err != nil {
		return nil, fmt.Errorf("parse Q9 payload: %w", err)
	}

	now := time.Now().UTC()
	var out []*models.Task

	for _, r := range q9.Recomendaciones {
		title := strings.TrimSpace(r.Titulo)
		if title == "" {
			continue
		}
		desc := strings.TrimSpace(r.Descripcion)
		if r.Prioridad != "" {
			desc = fmt.Sprintf("[prioridad: %s] %s", r.Prioridad, desc)
		}
		out = append(out, newTask(clientID, title, desc, now))
	}

	for _, op := range q9.ListaOportunidades {
		op = strings.TrimSpace(op)
		if op == "" {
			continue
		}
		out = append(out, newTask(clientID, "Oportunidad: "+truncate(op, 120), op, now))
	}

	return out, nil
}

func newTask(clientID uuid.UUID, title, description string, now time.Time) *models.Task {
	return &models.Task{
		ID:           uuid.New(),
		ClientID:     clientID,
		Title:        title,
		Description:  description,
		Status:       models.TaskStatusPendiente,
		SourceModule: sourceModule,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// truncate caps s at n runes; byte slicing would split multi-byte
// characters common in Spanish text.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
