package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/notify"
	"alcyxob/fitlog/internal/repository"
	"alcyxob/fitlog/internal/service"
	"alcyxob/fitlog/internal/session"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	r.users[user.Email] = *user
	return user.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memEntryRepo struct {
	mu      sync.Mutex
	entries []domain.Entry
	clock   time.Time
}

func (r *memEntryRepo) Create(_ context.Context, entry *domain.Entry) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	entry.ID = primitive.NewObjectID()
	entry.RecordedAt = r.clock
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *memEntryRepo) GetRecent(_ context.Context, ownerEmail string, limit int) ([]domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Entry
	for _, e := range r.entries {
		if ownerEmail == "" || e.OwnerEmail == ownerEmail {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEntryRepo) GetAll(_ context.Context) ([]domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Entry(nil), r.entries...), nil
}

type memPreferenceRepo struct {
	mu    sync.Mutex
	prefs map[string]domain.Preference
}

func (r *memPreferenceRepo) Get(_ context.Context, instanceID string) (*domain.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[instanceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memPreferenceRepo) SetDarkMode(_ context.Context, instanceID string, darkMode bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[instanceID] = domain.Preference{InstanceID: instanceID, DarkMode: darkMode}
	return nil
}

type memGoalRepo struct {
	mu    sync.Mutex
	goals map[primitive.ObjectID]domain.Goal
}

func (r *memGoalRepo) Get(_ context.Context, userID primitive.ObjectID) (*domain.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *memGoalRepo) Upsert(_ context.Context, goal *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[goal.UserID] = *goal
	return nil
}

type memWorkoutRepo struct {
	mu       sync.Mutex
	workouts []domain.Workout
}

func (r *memWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout.ID = primitive.NewObjectID()
	workout.RecordedAt = time.Date(2025, 1, 1, 0, len(r.workouts), 0, 0, time.UTC)
	r.workouts = append(r.workouts, *workout)
	return workout.ID, nil
}

func (r *memWorkoutRepo) GetRecentByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Workout{}
	for i := len(r.workouts) - 1; i >= 0 && len(out) < limit; i-- {
		if r.workouts[i].OwnerID == userID {
			out = append(out, r.workouts[i])
		}
	}
	return out, nil
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Manager
	entries  *memEntryRepo
	trigger  *notify.Trigger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	require.NoError(t, err)

	sessions := session.NewManager()
	entryRepo := &memEntryRepo{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	authService := service.NewAuthService(&memUserRepo{users: map[string]domain.User{}}, sessions, session.NewRevocations(0), "test-secret", time.Hour)
	entryService := service.NewEntryService(entryRepo, service.RecentScopeOwner, m)
	summaryService := service.NewSummaryService(entryService, m)
	trigger := notify.NewTrigger(notify.Disabled{}, time.Second, m)
	t.Cleanup(trigger.Wait)

	router := gin.New()
	SetupRoutes(router, Services{
		Auth:        authService,
		Entries:     entryService,
		Workouts:    service.NewWorkoutService(&memWorkoutRepo{}, m),
		Goals:       service.NewGoalService(&memGoalRepo{goals: map[primitive.ObjectID]domain.Goal{}}, m),
		Summary:     summaryService,
		Reports:     service.NewReportService(summaryService, nil, "reports", time.Minute),
		Preferences: service.NewPreferenceService(&memPreferenceRepo{prefs: map[string]domain.Preference{}}),
		Devices:     notify.Disabled{},
		Notifier:    trigger,
		Sessions:    sessions,
		Metrics:     m,
		Registry:    registry,
	})
	return &testServer{router: router, sessions: sessions, entries: entryRepo, trigger: trigger}
}

// do sends a JSON request and decodes the JSON response into out when not nil.
func (s *testServer) do(t *testing.T, method, path, token string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (s *testServer) signUp(t *testing.T, email, instanceID string) string {
	t.Helper()
	var resp AuthResponse
	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email": email, "password": "secret1", "instanceId": instanceID,
	}, &resp)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp.Token
}
