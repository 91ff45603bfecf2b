package service

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/repository"
	"context"
	"log"
)

// RecentWorkoutsLimit caps how many workouts Recent returns.
const RecentWorkoutsLimit = 10

// WorkoutService logs workouts for the signed-in user.
type WorkoutService interface {
	Log(ctx context.Context, owner domain.Session, input domain.WorkoutInput) (*domain.Workout, error)
	// Recent returns the owner's workouts, newest first.
	Recent(ctx context.Context, owner domain.Session, limit int) ([]domain.Workout, error)
}

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	metrics     *metrics.Metrics
}

func NewWorkoutService(workoutRepo repository.WorkoutRepository, m *metrics.Metrics) WorkoutService {
	return &workoutService{workoutRepo: workoutRepo, metrics: m}
}

func (s *workoutService) Log(ctx context.Context, owner domain.Session, input domain.WorkoutInput) (*domain.Workout, error) {
	workout, err := domain.ParseWorkoutInput(input)
	if err != nil {
		return nil, err
	}
	ownerID, err := userIDFromSession(owner)
	if err != nil {
		return nil, err
	}
	workout.OwnerID = ownerID
	workout.OwnerEmail = owner.Email

	if _, err := s.workoutRepo.Create(ctx, workout); err != nil {
		s.metrics.StoreError("workout_create")
		return nil, &StoreError{Op: "workout_create", Err: err}
	}
	s.metrics.WorkoutLogged()
	log.Printf("INFO: workout %s (%s) logged for %s", workout.ID.Hex(), workout.Exercise, workout.OwnerEmail)
	return workout, nil
}

func (s *workoutService) Recent(ctx context.Context, owner domain.Session, limit int) ([]domain.Workout, error) {
	if limit <= 0 || limit > RecentWorkoutsLimit {
		limit = RecentWorkoutsLimit
	}
	ownerID, err := userIDFromSession(owner)
	if err != nil {
		return nil, err
	}
	workouts, err := s.workoutRepo.GetRecentByUser(ctx, ownerID, limit)
	if err != nil {
		s.metrics.StoreError("workout_recent")
		return nil, &StoreError{Op: "workout_recent", Err: err}
	}
	return workouts, nil
}
