package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func InsightKey(clientID uuid.UUID, module string) string {
	return fmt.Sprintf("insight:%s:%s", clientID, module)
}

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", subject)
}
