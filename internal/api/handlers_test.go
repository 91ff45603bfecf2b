package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/service"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	s := newTestServer(t)
	var body map[string]string
	w := s.do(t, http.MethodGet, "/ping", "", nil, &body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", body["message"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	var resp AuthResponse
	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "Alice@Example.com", "password": "secret1"}, &resp)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.InstanceID, "an instance id is generated")
	assert.Equal(t, "alice@example.com", resp.User.Email)

	tests := []struct {
		name   string
		path   string
		body   gin.H
		status int
		want   *service.AuthError
	}{
		{"duplicate", "/api/v1/auth/signup", gin.H{"email": "alice@example.com", "password": "secret1"}, http.StatusConflict, service.ErrUserAlreadyExists},
		{"weak password", "/api/v1/auth/signup", gin.H{"email": "bob@example.com", "password": "123"}, http.StatusBadRequest, service.ErrWeakPassword},
		{"bad email", "/api/v1/auth/signup", gin.H{"email": "bob", "password": "secret1"}, http.StatusBadRequest, service.ErrInvalidEmail},
		{"wrong password", "/api/v1/auth/signin", gin.H{"email": "alice@example.com", "password": "nope123"}, http.StatusUnauthorized, service.ErrAuthenticationFailed},
		{"unknown user", "/api/v1/auth/signin", gin.H{"email": "carol@example.com", "password": "secret1"}, http.StatusUnauthorized, service.ErrAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			w := s.do(t, http.MethodPost, tt.path, "", tt.body, &body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.want.Message, body["error"])
			assert.Equal(t, tt.want.Code, body["code"])
		})
	}

	w = s.do(t, http.MethodPost, "/api/v1/auth/signin", "", gin.H{"email": "alice@example.com", "password": "secret1", "instanceId": "tab-2"}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tab-2", resp.InstanceID)
	_, ok := s.sessions.Instance("tab-2").Current()
	assert.True(t, ok)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "alice@example.com", "tab-1")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/me", "", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/me", "not-a-jwt", nil, nil).Code)

	var me MeResponse
	w := s.do(t, http.MethodGet, "/api/v1/me", token, nil, &me)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", me.User.Email)
	assert.NotEmpty(t, me.User.ID)
	assert.Equal(t, "tab-1", me.InstanceID)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/auth/signout", token, nil, nil).Code)
	_, ok := s.sessions.Instance("tab-1").Current()
	assert.False(t, ok)

	var body map[string]string
	w = s.do(t, http.MethodGet, "/api/v1/me", token, nil, &body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been signed out", body["error"])
}

func TestEntries(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "alice@example.com", "tab-1")
	bob := s.signUp(t, "bob@example.com", "tab-2")

	var entry domain.Entry
	w := s.do(t, http.MethodPost, "/api/v1/entries", alice, json.RawMessage(`{"steps":1000,"waterIntake":"1.5","calories":"300"}`), &entry)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice@example.com", entry.OwnerEmail)
	assert.Equal(t, 1000.0, entry.Steps)
	assert.Equal(t, 1.5, entry.WaterIntake)
	assert.False(t, entry.RecordedAt.IsZero())

	var bad struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	w = s.do(t, http.MethodPost, "/api/v1/entries", alice, gin.H{"steps": "", "waterIntake": "1", "calories": "1"}, &bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "All fields are required.", bad.Error)
	assert.Equal(t, []string{"steps"}, bad.Fields)

	w = s.do(t, http.MethodPost, "/api/v1/entries", alice, gin.H{"steps": "lots", "waterIntake": "1", "calories": "1"}, &bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"steps"}, bad.Fields)

	for i := 0; i < 6; i++ {
		s.do(t, http.MethodPost, "/api/v1/entries", alice, gin.H{"steps": i, "waterIntake": 1, "calories": 1}, nil)
	}
	s.do(t, http.MethodPost, "/api/v1/entries", bob, gin.H{"steps": 99, "waterIntake": 1, "calories": 1}, nil)

	var recent []domain.Entry
	w = s.do(t, http.MethodGet, "/api/v1/entries/recent", alice, nil, &recent)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, recent, domain.RecentEntriesLimit)
	assert.Equal(t, 5.0, recent[0].Steps)
	for _, e := range recent {
		assert.Equal(t, "alice@example.com", e.OwnerEmail)
	}

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/entries/recent?limit=x", alice, nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/entries", "", gin.H{}, nil).Code)
}

func TestWorkouts(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "alice@example.com", "tab-1")
	bob := s.signUp(t, "bob@example.com", "tab-2")

	var workout domain.Workout
	w := s.do(t, http.MethodPost, "/api/v1/workouts", alice, json.RawMessage(`{"exercise":"Squat","sets":3,"reps":"12","calories":150}`), &workout)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Squat", workout.Exercise)
	assert.Equal(t, 3, workout.Sets)
	assert.Equal(t, 12, workout.Reps)
	assert.Equal(t, "alice@example.com", workout.OwnerEmail)

	var bad struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	w = s.do(t, http.MethodPost, "/api/v1/workouts", alice, gin.H{"exercise": "Row", "sets": "3"}, &bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"reps", "calories"}, bad.Fields)

	s.do(t, http.MethodPost, "/api/v1/workouts", alice, gin.H{"exercise": "Deadlift", "sets": 5, "reps": 5, "calories": 200}, nil)
	s.do(t, http.MethodPost, "/api/v1/workouts", bob, gin.H{"exercise": "Swim", "sets": 1, "reps": 1, "calories": 400}, nil)

	var recent []domain.Workout
	w = s.do(t, http.MethodGet, "/api/v1/workouts/recent", alice, nil, &recent)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, recent, 2)
	assert.Equal(t, "Deadlift", recent[0].Exercise)
	assert.Equal(t, "Squat", recent[1].Exercise)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/workouts", "", gin.H{}, nil).Code)
}

func TestGoals(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "alice@example.com", "tab-1")
	bob := s.signUp(t, "bob@example.com", "tab-2")

	var goal domain.Goal
	w := s.do(t, http.MethodGet, "/api/v1/goals", alice, nil, &goal)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, goal.Steps)

	w = s.do(t, http.MethodPut, "/api/v1/goals", alice, gin.H{"steps": 10000, "calories": 2000, "water": 0}, &goal)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/goals", alice, nil, &goal)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10000.0, goal.Steps)
	assert.Equal(t, 2000.0, goal.Calories)
	assert.Zero(t, goal.Water)

	var other domain.Goal
	s.do(t, http.MethodGet, "/api/v1/goals", bob, nil, &other)
	assert.Zero(t, other.Steps)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/v1/goals", alice, gin.H{"steps": 1, "calories": 1}, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/v1/goals", alice, gin.H{"steps": -5, "calories": 1, "water": 1}, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/goals", "", nil, nil).Code)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "alice@example.com", "tab-1")
	bob := s.signUp(t, "bob@example.com", "tab-2")

	var empty SummaryResponse
	w := s.do(t, http.MethodGet, "/api/v1/summary", alice, nil, &empty)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, empty.NoData)
	assert.NotNil(t, empty.Rows)

	s.do(t, http.MethodPost, "/api/v1/entries", alice, gin.H{"steps": 10, "calories": 100, "waterIntake": 1.0}, nil)
	s.do(t, http.MethodPost, "/api/v1/entries", bob, gin.H{"steps": 5, "calories": 50, "waterIntake": 0.5}, nil)
	s.do(t, http.MethodPost, "/api/v1/entries", alice, gin.H{"steps": 20, "calories": 200, "waterIntake": 2.0}, nil)

	var summary SummaryResponse
	w = s.do(t, http.MethodGet, "/api/v1/summary", bob, nil, &summary)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, summary.NoData)
	assert.Equal(t, []domain.AggregateRow{
		{SequenceNumber: 1, OwnerEmail: "alice@example.com", TotalSteps: 30, TotalCalories: 300, TotalWaterIntake: 3.0},
		{SequenceNumber: 2, OwnerEmail: "bob@example.com", TotalSteps: 5, TotalCalories: 50, TotalWaterIntake: 0.5},
	}, summary.Rows)

	var body map[string]string
	w = s.do(t, http.MethodPost, "/api/v1/summary/export", alice, nil, &body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Summary export is not configured", body["error"])
}

func TestPreferences(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/preferences", "", nil, nil).Code)

	var pref domain.Preference
	w := s.do(t, http.MethodGet, "/api/v1/preferences?instanceId=tab-1", "", nil, &pref)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, pref.DarkMode)

	w = s.do(t, http.MethodPut, "/api/v1/preferences?instanceId=tab-1", "", gin.H{"darkMode": true}, &pref)
	require.Equal(t, http.StatusOK, w.Code)
	s.do(t, http.MethodGet, "/api/v1/preferences?instanceId=tab-1", "", nil, &pref)
	assert.True(t, pref.DarkMode)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/v1/preferences?instanceId=tab-1", "", gin.H{}, nil).Code)
}

func TestDevices_PushDisabled(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "alice@example.com", "tab-1")

	w := s.do(t, http.MethodPost, "/api/v1/devices", token, gin.H{"platform": "android", "token": "fcm"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/devices", token, gin.H{"platform": "fax", "token": "fcm"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/ping", "", nil, nil)

	w := s.do(t, http.MethodGet, "/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fitlog_http_requests_total{code="200",method="GET",route="/ping"} 1`)
}

func TestFreeText(t *testing.T) {
	tests := []struct {
		in   string
		want FreeText
		err  bool
	}{
		{`"12.5"`, "12.5", false},
		{`12.5`, "12.5", false},
		{`1e3`, "1e3", false},
		{`null`, "", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		var f FreeText
		err := json.Unmarshal([]byte(tt.in), &f)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, f, tt.in)
	}
}
