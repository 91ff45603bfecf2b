package service

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]domain.User
	lookupErr error
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	if _, ok := r.users[user.Email]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	user.ID = primitive.NewObjectID()
	r.users[user.Email] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries []domain.Entry
	err     error
	clock   time.Time
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *domain.Entry) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return primitive.NilObjectID, r.err
	}
	r.clock = r.clock.Add(time.Minute)
	entry.ID = primitive.NewObjectID()
	entry.RecordedAt = r.clock
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *fakeEntryRepo) GetRecent(_ context.Context, ownerEmail string, limit int) ([]domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
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

func (r *fakeEntryRepo) GetAll(_ context.Context) ([]domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return append([]domain.Entry(nil), r.entries...), nil
}

type fakePreferenceRepo struct {
	prefs map[string]domain.Preference
	err   error
}

func (r *fakePreferenceRepo) Get(_ context.Context, instanceID string) (*domain.Preference, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.prefs[instanceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakePreferenceRepo) SetDarkMode(_ context.Context, instanceID string, darkMode bool) error {
	if r.err != nil {
		return r.err
	}
	if r.prefs == nil {
		r.prefs = make(map[string]domain.Preference)
	}
	r.prefs[instanceID] = domain.Preference{InstanceID: instanceID, DarkMode: darkMode}
	return nil
}

type fakeGoalRepo struct {
	mu    sync.Mutex
	goals map[primitive.ObjectID]domain.Goal
	err   error
}

func (r *fakeGoalRepo) Get(_ context.Context, userID primitive.ObjectID) (*domain.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	g, ok := r.goals[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *fakeGoalRepo) Upsert(_ context.Context, goal *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.goals == nil {
		r.goals = make(map[primitive.ObjectID]domain.Goal)
	}
	r.goals[goal.UserID] = *goal
	return nil
}

type fakeWorkoutRepo struct {
	mu       sync.Mutex
	workouts []domain.Workout
	err      error
	clock    time.Time
}

func (r *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return primitive.NilObjectID, r.err
	}
	r.clock = r.clock.Add(time.Minute)
	workout.ID = primitive.NewObjectID()
	workout.RecordedAt = r.clock
	r.workouts = append(r.workouts, *workout)
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) GetRecentByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Workout
	for i := len(r.workouts) - 1; i >= 0 && len(out) < limit; i-- {
		if r.workouts[i].OwnerID == userID {
			out = append(out, r.workouts[i])
		}
	}
	return out, nil
}
