package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"socialpulse/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, patch ClientPatch) (*models.Client, error)

	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id uuid.UUID) error

	UpsertDataset(ctx context.Context, clientID uuid.UUID, posts []models.Post, comments []models.Comment) error
	GetDataset(ctx context.Context, clientID uuid.UUID, since *time.Time) (*models.IngestedDataset, error)

	UpsertInsight(ctx context.Context, insight *models.Insight) (*models.Insight, error)
	GetInsight(ctx context.Context, clientID uuid.UUID, module string) (*models.Insight, error)
	ListInsightModules(ctx context.Context, clientID uuid.UUID) ([]string, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, clientID uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error

	CreateTasks(ctx context.Context, tasks []*models.Task) error
	ListTasks(ctx context.Context, clientID uuid.UUID, status string) ([]*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, clientID uuid.UUID, status string) (*models.Task, error)
	CreateTaskNote(ctx context.Context, clientID uuid.UUID, note *models.TaskNote) error
	ListTaskNotes(ctx context.Context, clientID uuid.UUID, taskID uuid.UUID) ([]*models.TaskNote, error)
}

// ClientPatch carries the optional fields of PATCH /clients/{id}; nil means
// leave unchanged.
type ClientPatch struct {
	Name           *string
	BrandContext   *string
	Industry       *string
	SpreadsheetID  *string
	LastAnalyzedAt *time.Time
}

type jobUpdateParams struct {
	ErrorMessage *string
}

type JobUpdateOption func(*jobUpdateParams)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}
