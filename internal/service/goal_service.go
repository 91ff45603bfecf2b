package service

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/repository"
	"context"
	"errors"
	"math"
)

// GoalInput carries new daily targets. Every target is required.
type GoalInput struct {
	Steps    float64
	Calories float64
	Water    float64
}

// GoalService reads and replaces a user's daily targets.
type GoalService interface {
	// Get returns the stored goals, or zero goals when none were saved.
	Get(ctx context.Context, owner domain.Session) (*domain.Goal, error)
	Update(ctx context.Context, owner domain.Session, input GoalInput) (*domain.Goal, error)
}

type goalService struct {
	goalRepo repository.GoalRepository
	metrics  *metrics.Metrics
}

func NewGoalService(goalRepo repository.GoalRepository, m *metrics.Metrics) GoalService {
	return &goalService{goalRepo: goalRepo, metrics: m}
}

func (s *goalService) Get(ctx context.Context, owner domain.Session) (*domain.Goal, error) {
	userID, err := userIDFromSession(owner)
	if err != nil {
		return nil, err
	}
	goal, err := s.goalRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.Goal{UserID: userID}, nil
		}
		s.metrics.StoreError("goal_get")
		return nil, &StoreError{Op: "goal_get", Err: err}
	}
	return goal, nil
}

func (s *goalService) Update(ctx context.Context, owner domain.Session, input GoalInput) (*domain.Goal, error) {
	var invalid []string
	for _, t := range []struct {
		name  string
		value float64
	}{
		{"steps", input.Steps},
		{"calories", input.Calories},
		{"water", input.Water},
	} {
		if t.value < 0 || math.IsNaN(t.value) || math.IsInf(t.value, 0) {
			invalid = append(invalid, t.name)
		}
	}
	if len(invalid) > 0 {
		return nil, &domain.ValidationError{Fields: invalid, Message: "Goals must be zero or more."}
	}

	userID, err := userIDFromSession(owner)
	if err != nil {
		return nil, err
	}
	goal := &domain.Goal{UserID: userID, Steps: input.Steps, Calories: input.Calories, Water: input.Water}
	if err := s.goalRepo.Upsert(ctx, goal); err != nil {
		s.metrics.StoreError("goal_set")
		return nil, &StoreError{Op: "goal_set", Err: err}
	}
	return goal, nil
}
