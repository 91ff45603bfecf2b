package repository

import (
	"alcyxob/fitlog/internal/domain" // Import our defined domain models
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// EntryRepository is the shared, append-only fitness entry store.
// Entries are never updated or deleted.
type EntryRepository interface {
	// Create stores the entry and stamps RecordedAt with the server time.
	Create(ctx context.Context, entry *domain.Entry) (primitive.ObjectID, error)
	// GetRecent returns up to limit entries ordered newest first.
	// An empty ownerEmail returns entries of all owners.
	GetRecent(ctx context.Context, ownerEmail string, limit int) ([]domain.Entry, error)
	// GetAll returns every entry in natural (insertion) order.
	GetAll(ctx context.Context) ([]domain.Entry, error)
}

// PreferenceRepository stores per app-instance display preferences.
type PreferenceRepository interface {
	Get(ctx context.Context, instanceID string) (*domain.Preference, error)
	SetDarkMode(ctx context.Context, instanceID string, darkMode bool) error
}

// DeviceRepository stores push delivery targets.
type DeviceRepository interface {
	Upsert(ctx context.Context, device *domain.Device) (*domain.Device, error)
	GetEnabledByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Device, error)
}

// GoalRepository stores one set of daily goals per user.
type GoalRepository interface {
	// Get returns the user's goals or ErrNotFound.
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.Goal, error)
	Upsert(ctx context.Context, goal *domain.Goal) error
}

// WorkoutRepository is the append-only workout log.
type WorkoutRepository interface {
	// Create stores the workout and stamps RecordedAt with the server time.
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	// GetRecentByUser returns up to limit workouts of one user, newest first.
	GetRecentByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error)
}
