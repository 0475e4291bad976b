package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"socialpulse/internal/api/handler"
	"socialpulse/internal/api/middleware"
	"socialpulse/internal/auth"
	"socialpulse/internal/cache"
	"socialpulse/internal/config"
	"socialpulse/internal/store"
	"socialpulse/pkg/models"
)

// --- fake store ---

type fakeStore struct {
	pingErr error

	client *models.Client
	user   *models.User

	lastLoginCalls atomic.Int32

	dataset       *models.IngestedDataset
	datasetSince  *time.Time
	upsertedPosts int

	insights        map[string]*models.Insight
	upsertedInsight *models.Insight

	jobs       map[uuid.UUID]*models.Job
	createdJob *models.Job

	tasks        []*models.Task
	createdTasks []*models.Task
	listStatus   string

	notes        []*models.TaskNote
	createdNotes []*models.TaskNote
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		insights: map[string]*models.Insight{},
		jobs:     map[uuid.UUID]*models.Job{},
	}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) GetClient(_ context.Context, id uuid.UUID) (*models.Client, error) {
	if f.client == nil || f.client.ID != id {
		return nil, store.ErrNotFound
	}
	return f.client, nil
}

func (f *fakeStore) UpdateClient(_ context.Context, id uuid.UUID, patch store.ClientPatch) (*models.Client, error) {
	if f.client == nil || f.client.ID != id {
		return nil, store.ErrNotFound
	}
	if patch.Name != nil {
		f.client.Name = *patch.Name
	}
	if patch.BrandContext != nil {
		f.client.BrandContext = *patch.BrandContext
	}
	if patch.LastAnalyzedAt != nil {
		f.client.LastAnalyzedAt = patch.LastAnalyzedAt
	}
	return f.client, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if f.user == nil || f.user.Username != username {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeStore) UpdateUserLastLogin(context.Context, uuid.UUID) error {
	f.lastLoginCalls.Add(1)
	return nil
}

func (f *fakeStore) UpsertDataset(_ context.Context, _ uuid.UUID, posts []models.Post, _ []models.Comment) error {
	f.upsertedPosts += len(posts)
	return nil
}

func (f *fakeStore) GetDataset(_ context.Context, clientID uuid.UUID, since *time.Time) (*models.IngestedDataset, error) {
	f.datasetSince = since
	if f.dataset != nil {
		return f.dataset, nil
	}
	return &models.IngestedDataset{ClientID: clientID.String()}, nil
}

func (f *fakeStore) UpsertInsight(_ context.Context, insight *models.Insight) (*models.Insight, error) {
	f.upsertedInsight = insight
	f.insights[insight.Module] = insight
	return insight, nil
}

func (f *fakeStore) GetInsight(_ context.Context, _ uuid.UUID, module string) (*models.Insight, error) {
	insight, ok := f.insights[module]
	if !ok {
		return nil, store.ErrNotFound
	}
	return insight, nil
}

func (f *fakeStore) ListInsightModules(context.Context, uuid.UUID) ([]string, error) {
	modules := make([]string, 0, len(f.insights))
	for m := range f.insights {
		modules = append(modules, m)
	}
	return modules, nil
}

func (f *fakeStore) CreateJob(_ context.Context, job *models.Job) error {
	f.createdJob = job
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStore) GetJob(_ context.Context, id uuid.UUID, clientID uuid.UUID) (*models.Job, error) {
	job, ok := f.jobs[id]
	if !ok || job.ClientID != clientID {
		return nil, store.ErrNotFound
	}
	return job, nil
}

func (f *fakeStore) UpdateJobStatus(context.Context, uuid.UUID, string, ...store.JobUpdateOption) error {
	return nil
}

func (f *fakeStore) CreateTasks(_ context.Context, tasks []*models.Task) error {
	f.createdTasks = append(f.createdTasks, tasks...)
	return nil
}

func (f *fakeStore) ListTasks(_ context.Context, _ uuid.UUID, status string) ([]*models.Task, error) {
	f.listStatus = status
	return f.tasks, nil
}

func (f *fakeStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, clientID uuid.UUID, status string) (*models.Task, error) {
	for _, task := range f.tasks {
		if task.ID == id && task.ClientID == clientID {
			task.Status = status
			return task, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ownsTask(clientID, taskID uuid.UUID) bool {
	for _, task := range f.tasks {
		if task.ID == taskID && task.ClientID == clientID {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateTaskNote(_ context.Context, clientID uuid.UUID, note *models.TaskNote) error {
	if !f.ownsTask(clientID, note.TaskID) {
		return store.ErrNotFound
	}
	f.createdNotes = append(f.createdNotes, note)
	return nil
}

func (f *fakeStore) ListTaskNotes(_ context.Context, clientID uuid.UUID, taskID uuid.UUID) ([]*models.TaskNote, error) {
	if !f.ownsTask(clientID, taskID) {
		return nil, store.ErrNotFound
	}
	return f.notes, nil
}

var _ store.Store = (*fakeStore)(nil)

// --- fake cache ---

type fakeCache struct {
	pingErr   error
	entries   map[string][]byte
	jobStatus map[uuid.UUID]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, jobStatus: map[uuid.UUID]string{}}
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := c.entries[key]
	return raw, ok, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return c.pingErr }

func (c *fakeCache) SetJobStatus(_ context.Context, jobID uuid.UUID, status string, _ time.Duration) error {
	c.jobStatus[jobID] = status
	return nil
}

func (c *fakeCache) GetJobStatus(_ context.Context, jobID uuid.UUID) (string, bool, error) {
	status, ok := c.jobStatus[jobID]
	return status, ok, nil
}

func (c *fakeCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*fakeCache)(nil)

// --- harness ---

// serve routes a single request through a chi router so URL params resolve,
// injecting claims the way the auth middleware would.
func serve(t *testing.T, claims *auth.Claims, method, pattern, target string, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	if claims != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.SetClaims(req.Context(), claims)))
			})
		})
	}
	r.Method(method, pattern, h)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func analystClaims(clientID uuid.UUID) *auth.Claims {
	return &auth.Claims{Username: "analyst01", ClientID: clientID, Role: auth.RoleAnalyst}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func dataField(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NoError(t, json.Unmarshal(body.Data, out))
}

// --- token ---

func TestTokenHandler_IssuesJWT(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	clientID := uuid.New()
	s := newFakeStore()
	s.user = &models.User{
		ID: uuid.New(), ClientID: clientID,
		Username: "analyst01", PasswordHash: string(hash), Role: auth.RoleAnalyst,
	}

	jwtMgr := auth.NewJWTManager(config.AuthConfig{JWTSecret: "s", JWTIssuer: "socialpulse", JWTTTL: time.Hour})
	h := handler.NewTokenHandler(s, jwtMgr)

	w := serve(t, nil, "POST", "/token", "/token",
		`{"username": "analyst01", "password": "hunter2"}`, h)

	require.Equal(t, http.StatusOK, w.Code)
	var data map[string]string
	dataField(t, w, &data)

	claims, err := jwtMgr.Parse(data["token"])
	require.NoError(t, err)
	assert.Equal(t, "analyst01", claims.Username)
	assert.Equal(t, clientID, claims.ClientID)
}

func TestTokenHandler_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	s := newFakeStore()
	s.user = &models.User{Username: "analyst01", PasswordHash: string(hash)}

	jwtMgr := auth.NewJWTManager(config.AuthConfig{JWTSecret: "s", JWTIssuer: "socialpulse", JWTTTL: time.Hour})
	w := serve(t, nil, "POST", "/token", "/token",
		`{"username": "analyst01", "password": "wrong"}`, handler.NewTokenHandler(s, jwtMgr))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
}

func TestTokenHandler_UnknownUser(t *testing.T) {
	jwtMgr := auth.NewJWTManager(config.AuthConfig{JWTSecret: "s", JWTIssuer: "socialpulse", JWTTTL: time.Hour})
	w := serve(t, nil, "POST", "/token", "/token",
		`{"username": "ghost", "password": "x"}`, handler.NewTokenHandler(newFakeStore(), jwtMgr))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
}

func TestTokenHandler_MissingFields(t *testing.T) {
	jwtMgr := auth.NewJWTManager(config.AuthConfig{JWTSecret: "s", JWTIssuer: "socialpulse", JWTTTL: time.Hour})
	w := serve(t, nil, "POST", "/token", "/token",
		`{"username": "analyst01"}`, handler.NewTokenHandler(newFakeStore(), jwtMgr))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

// --- clients ---

func TestGetClientHandler_Found(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.client = &models.Client{ID: clientID, Name: "Acme Coffee"}

	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}",
		"/clients/"+clientID.String(), "", handler.NewGetClientHandler(s))

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Client
	dataField(t, w, &got)
	assert.Equal(t, "Acme Coffee", got.Name)
}

func TestGetClientHandler_ForbiddenForOtherTenant(t *testing.T) {
	requested := uuid.New()
	s := newFakeStore()
	s.client = &models.Client{ID: requested}

	w := serve(t, analystClaims(uuid.New()), "GET", "/clients/{clientID}",
		"/clients/"+requested.String(), "", handler.NewGetClientHandler(s))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestGetClientHandler_BadUUID(t *testing.T) {
	w := serve(t, analystClaims(uuid.New()), "GET", "/clients/{clientID}",
		"/clients/not-a-uuid", "", handler.NewGetClientHandler(newFakeStore()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetClientHandler_NotFound(t *testing.T) {
	clientID := uuid.New()
	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}",
		"/clients/"+clientID.String(), "", handler.NewGetClientHandler(newFakeStore()))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestPatchClientHandler_UpdatesFields(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.client = &models.Client{ID: clientID, Name: "Acme Coffee", Industry: "food & beverage"}

	w := serve(t, analystClaims(clientID), "PATCH", "/clients/{clientID}",
		"/clients/"+clientID.String(),
		`{"brand_context": "premium roaster", "last_analyzed_at": "2026-03-02T10:00:00Z"}`,
		handler.NewPatchClientHandler(s))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "premium roaster", s.client.BrandContext)
	assert.Equal(t, "Acme Coffee", s.client.Name)
	require.NotNil(t, s.client.LastAnalyzedAt)
}

func TestPatchClientHandler_BadTimestamp(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.client = &models.Client{ID: clientID}

	w := serve(t, analystClaims(clientID), "PATCH", "/clients/{clientID}",
		"/clients/"+clientID.String(), `{"last_analyzed_at": "yesterday"}`,
		handler.NewPatchClientHandler(s))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- dataset ---

func TestGetDatasetHandler_SinceParam(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()

	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/dataset",
		"/clients/"+clientID.String()+"/dataset?since=2026-03-01T00:00:00Z", "",
		handler.NewGetDatasetHandler(s))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, s.datasetSince)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), s.datasetSince.UTC())
}

func TestGetDatasetHandler_BadSince(t *testing.T) {
	clientID := uuid.New()
	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/dataset",
		"/clients/"+clientID.String()+"/dataset?since=last-week", "",
		handler.NewGetDatasetHandler(newFakeStore()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostDatasetHandler_Upserts(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()

	w := serve(t, analystClaims(clientID), "POST", "/clients/{clientID}/dataset",
		"/clients/"+clientID.String()+"/dataset",
		`{"posts": [{"post_url": "p1", "caption": "launch"}], "comments": []}`,
		handler.NewPostDatasetHandler(s))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, s.upsertedPosts)

	var counts map[string]int
	dataField(t, w, &counts)
	assert.Equal(t, 1, counts["posts"])
}

func TestPostDatasetHandler_EmptyBody(t *testing.T) {
	clientID := uuid.New()
	w := serve(t, analystClaims(clientID), "POST", "/clients/{clientID}/dataset",
		"/clients/"+clientID.String()+"/dataset", `{"posts": [], "comments": []}`,
		handler.NewPostDatasetHandler(newFakeStore()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- insights ---

func TestPutInsightHandler_UpsertsAndCaches(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	c := newFakeCache()

	body := `{
		"metadata": {"module": "Q1", "version": 2, "description": "", "client_id": "acme", "generated_at": "2026-03-02T10:00:00Z"},
		"results": {"resumen_global_emociones": {"alegria": 0.8}},
		"errors": []
	}`
	w := serve(t, analystClaims(clientID), "PUT", "/clients/{clientID}/insights/{module}",
		"/clients/"+clientID.String()+"/insights/Q1", body,
		handler.NewPutInsightHandler(s, c))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, s.upsertedInsight)
	assert.Equal(t, "Q1", s.upsertedInsight.Module)
	assert.Equal(t, 2, s.upsertedInsight.Version)

	_, cached := c.entries[cache.InsightKey(clientID, "Q1")]
	assert.True(t, cached)
}

func TestPutInsightHandler_ModuleMismatch(t *testing.T) {
	clientID := uuid.New()
	body := `{"metadata": {"module": "Q2", "version": 2}, "results": {}, "errors": []}`

	w := serve(t, analystClaims(clientID), "PUT", "/clients/{clientID}/insights/{module}",
		"/clients/"+clientID.String()+"/insights/Q1", body,
		handler.NewPutInsightHandler(newFakeStore(), newFakeCache()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutInsightHandler_UnknownModule(t *testing.T) {
	clientID := uuid.New()
	w := serve(t, analystClaims(clientID), "PUT", "/clients/{clientID}/insights/{module}",
		"/clients/"+clientID.String()+"/insights/Q99", `{}`,
		handler.NewPutInsightHandler(newFakeStore(), newFakeCache()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetInsightHandler_CacheHitSkipsStore(t *testing.T) {
	clientID := uuid.New()
	c := newFakeCache()

	cached := models.Insight{ClientID: clientID, Module: "Q1", Version: 2, Payload: json.RawMessage(`{"cached": true}`)}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	c.entries[cache.InsightKey(clientID, "Q1")] = raw

	// Store is empty: a miss would 404.
	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/insights/{module}",
		"/clients/"+clientID.String()+"/insights/Q1", "",
		handler.NewGetInsightHandler(newFakeStore(), c))

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Insight
	dataField(t, w, &got)
	assert.JSONEq(t, `{"cached": true}`, string(got.Payload))
}

func TestGetInsightHandler_MissReadsStoreAndRefreshes(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.insights["Q1"] = &models.Insight{ClientID: clientID, Module: "Q1", Version: 2, Payload: json.RawMessage(`{}`)}
	c := newFakeCache()

	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/insights/{module}",
		"/clients/"+clientID.String()+"/insights/Q1", "",
		handler.NewGetInsightHandler(s, c))

	require.Equal(t, http.StatusOK, w.Code)
	_, cached := c.entries[cache.InsightKey(clientID, "Q1")]
	assert.True(t, cached)
}

func TestGetInsightHandler_NotFound(t *testing.T) {
	clientID := uuid.New()
	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/insights/{module}",
		"/clients/"+clientID.String()+"/insights/Q5", "",
		handler.NewGetInsightHandler(newFakeStore(), newFakeCache()))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestListInsightsHandler(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.insights["Q1"] = &models.Insight{Module: "Q1"}

	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/insights",
		"/clients/"+clientID.String()+"/insights", "",
		handler.NewListInsightsHandler(s))

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string][]string
	dataField(t, w, &got)
	assert.Equal(t, []string{"Q1"}, got["modules"])
}

// --- analyze ---

func TestTriggerAnalyzeHandler_AcceptsJob(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	c := newFakeCache()

	w := serve(t, analystClaims(clientID), "POST", "/analyze/trigger",
		"/analyze/trigger", `{"module": "Q3"}`,
		handler.NewTriggerAnalyzeHandler(s, c))

	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, s.createdJob)
	assert.Equal(t, "Q3", s.createdJob.Module)
	assert.Equal(t, models.JobStatusPending, s.createdJob.Status)
	assert.Equal(t, clientID, s.createdJob.ClientID)
	assert.Equal(t, models.JobStatusPending, c.jobStatus[s.createdJob.ID])
}

func TestTriggerAnalyzeHandler_DefaultsToAll(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()

	w := serve(t, analystClaims(clientID), "POST", "/analyze/trigger",
		"/analyze/trigger", `{}`, handler.NewTriggerAnalyzeHandler(s, newFakeCache()))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "all", s.createdJob.Module)
}

func TestTriggerAnalyzeHandler_UnknownModule(t *testing.T) {
	w := serve(t, analystClaims(uuid.New()), "POST", "/analyze/trigger",
		"/analyze/trigger", `{"module": "Q42"}`,
		handler.NewTriggerAnalyzeHandler(newFakeStore(), newFakeCache()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJobHandler_CacheStatusWins(t *testing.T) {
	clientID := uuid.New()
	jobID := uuid.New()
	s := newFakeStore()
	s.jobs[jobID] = &models.Job{ID: jobID, ClientID: clientID, Module: "all", Status: models.JobStatusPending}
	c := newFakeCache()
	c.jobStatus[jobID] = models.JobStatusRunning

	w := serve(t, analystClaims(clientID), "GET", "/analyze/{jobID}",
		"/analyze/"+jobID.String(), "", handler.NewGetJobHandler(s, c))

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Job
	dataField(t, w, &got)
	assert.Equal(t, models.JobStatusRunning, got.Status)
}

func TestGetJobHandler_ScopedToTenant(t *testing.T) {
	jobID := uuid.New()
	s := newFakeStore()
	s.jobs[jobID] = &models.Job{ID: jobID, ClientID: uuid.New()}

	w := serve(t, analystClaims(uuid.New()), "GET", "/analyze/{jobID}",
		"/analyze/"+jobID.String(), "", handler.NewGetJobHandler(s, newFakeCache()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- tasks ---

func TestListTasksHandler_StatusFilter(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.tasks = []*models.Task{{ID: uuid.New(), ClientID: clientID, Status: models.TaskStatusPendiente}}

	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/tasks",
		"/clients/"+clientID.String()+"/tasks?status=PENDIENTE", "",
		handler.NewListTasksHandler(s))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDIENTE", s.listStatus)
}

func TestListTasksHandler_BadStatus(t *testing.T) {
	clientID := uuid.New()
	w := serve(t, analystClaims(clientID), "GET", "/clients/{clientID}/tasks",
		"/clients/"+clientID.String()+"/tasks?status=DONE", "",
		handler.NewListTasksHandler(newFakeStore()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchTaskHandler_UpdatesStatus(t *testing.T) {
	clientID := uuid.New()
	taskID := uuid.New()
	s := newFakeStore()
	s.tasks = []*models.Task{{ID: taskID, ClientID: clientID, Status: models.TaskStatusPendiente}}

	w := serve(t, analystClaims(clientID), "PATCH", "/tasks/{taskID}",
		"/tasks/"+taskID.String(), `{"status": "EN_CURSO"}`,
		handler.NewPatchTaskHandler(s))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TaskStatusEnCurso, s.tasks[0].Status)
}

func TestPatchTaskHandler_BadStatus(t *testing.T) {
	w := serve(t, analystClaims(uuid.New()), "PATCH", "/tasks/{taskID}",
		"/tasks/"+uuid.NewString(), `{"status": "done"}`,
		handler.NewPatchTaskHandler(newFakeStore()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatchTaskHandler_OtherTenantTask(t *testing.T) {
	taskID := uuid.New()
	s := newFakeStore()
	s.tasks = []*models.Task{{ID: taskID, ClientID: uuid.New(), Status: models.TaskStatusPendiente}}

	w := serve(t, analystClaims(uuid.New()), "PATCH", "/tasks/{taskID}",
		"/tasks/"+taskID.String(), `{"status": "HECHO"}`,
		handler.NewPatchTaskHandler(s))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateTasksHandler_NoQ9Insight(t *testing.T) {
	clientID := uuid.New()
	w := serve(t, analystClaims(clientID), "POST", "/clients/{clientID}/tasks/generate-from-q9",
		"/clients/"+clientID.String()+"/tasks/generate-from-q9", "",
		handler.NewGenerateTasksHandler(newFakeStore()))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_Q9_INSIGHT", errorCode(t, w))
}

func TestGenerateTasksHandler_MalformedPayload(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.insights["Q9"] = &models.Insight{ClientID: clientID, Module: "Q9", Payload: json.RawMessage(`not json`)}

	w := serve(t, analystClaims(clientID), "POST", "/clients/{clientID}/tasks/generate-from-q9",
		"/clients/"+clientID.String()+"/tasks/generate-from-q9", "",
		handler.NewGenerateTasksHandler(s))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_Q9_PAYLOAD", errorCode(t, w))
}

func TestGenerateTasksHandler_CreatesTasks(t *testing.T) {
	clientID := uuid.New()
	s := newFakeStore()
	s.insights["Q9"] = &models.Insight{
		ClientID: clientID, Module: "Q9",
		Payload: json.RawMessage(`{
			"lista_oportunidades": ["línea descafeinada"],
			"recomendaciones": [{"titulo": "responder comentarios", "descripcion": "diario", "prioridad": "alta"}]
		}`),
	}

	w := serve(t, analystClaims(clientID), "POST", "/clients/{clientID}/tasks/generate-from-q9",
		"/clients/"+clientID.String()+"/tasks/generate-from-q9", "",
		handler.NewGenerateTasksHandler(s))

	require.Equal(t, http.StatusCreated, w.Code)
	var counts map[string]int
	dataField(t, w, &counts)
	assert.Equal(t, 2, counts["tasks_created"])
	assert.Len(t, s.createdTasks, 2)
}

// --- task notes ---

func TestCreateTaskNoteHandler(t *testing.T) {
	clientID := uuid.New()
	taskID := uuid.New()
	s := newFakeStore()
	s.tasks = []*models.Task{{ID: taskID, ClientID: clientID, Status: models.TaskStatusPendiente}}

	w := serve(t, analystClaims(clientID), "POST", "/tasks/{taskID}/notes",
		"/tasks/"+taskID.String()+"/notes", `{"body": "cliente contactado"}`,
		handler.NewCreateTaskNoteHandler(s))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, s.createdNotes, 1)
	assert.Equal(t, "cliente contactado", s.createdNotes[0].Body)
	assert.Equal(t, "analyst01", s.createdNotes[0].Author)
	assert.Equal(t, taskID, s.createdNotes[0].TaskID)
}

func TestCreateTaskNoteHandler_MissingBody(t *testing.T) {
	w := serve(t, analystClaims(uuid.New()), "POST", "/tasks/{taskID}/notes",
		"/tasks/"+uuid.NewString()+"/notes", `{}`,
		handler.NewCreateTaskNoteHandler(newFakeStore()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskNoteHandler_OtherTenantTask(t *testing.T) {
	taskID := uuid.New()
	s := newFakeStore()
	s.tasks = []*models.Task{{ID: taskID, ClientID: uuid.New(), Status: models.TaskStatusPendiente}}

	w := serve(t, analystClaims(uuid.New()), "POST", "/tasks/{taskID}/notes",
		"/tasks/"+taskID.String()+"/notes", `{"body": "intruso"}`,
		handler.NewCreateTaskNoteHandler(s))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
	assert.Empty(t, s.createdNotes)
}

func TestListTaskNotesHandler(t *testing.T) {
	clientID := uuid.New()
	taskID := uuid.New()
	s := newFakeStore()
	s.tasks = []*models.Task{{ID: taskID, ClientID: clientID, Status: models.TaskStatusPendiente}}
	s.notes = []*models.TaskNote{{ID: uuid.New(), TaskID: taskID, Body: "nota"}}

	w := serve(t, analystClaims(clientID), "GET", "/tasks/{taskID}/notes",
		"/tasks/"+taskID.String()+"/notes", "", handler.NewListTaskNotesHandler(s))

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.TaskNote
	dataField(t, w, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "nota", got[0].Body)
}

func TestListTaskNotesHandler_OtherTenantTask(t *testing.T) {
	taskID := uuid.New()
	s := newFakeStore()
	s.tasks = []*models.Task{{ID: taskID, ClientID: uuid.New(), Status: models.TaskStatusPendiente}}
	s.notes = []*models.TaskNote{{ID: uuid.New(), TaskID: taskID, Body: "nota confidencial"}}

	w := serve(t, analystClaims(uuid.New()), "GET", "/tasks/{taskID}/notes",
		"/tasks/"+taskID.String()+"/notes", "", handler.NewListTaskNotesHandler(s))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "nota confidencial")
}

// --- health ---

func TestHealthHandler_AllUp(t *testing.T) {
	w := serve(t, nil, "GET", "/health", "/health", "",
		handler.NewHealthHandler(newFakeStore(), newFakeCache()))

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	dataField(t, w, &got)
	assert.Equal(t, "ok", got["postgres"])
	assert.Equal(t, "ok", got["redis"])
}

func TestHealthHandler_PostgresDown(t *testing.T) {
	s := newFakeStore()
	s.pingErr = context.DeadlineExceeded

	w := serve(t, nil, "GET", "/health", "/health", "",
		handler.NewHealthHandler(s, newFakeCache()))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, w))
}
