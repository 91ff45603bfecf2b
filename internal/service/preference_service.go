package service

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/repository"
	"context"
	"errors"
)

var ErrInstanceRequired = errors.New("instance ID is required")

// PreferenceService reads and writes the per-instance display preference.
type PreferenceService interface {
	Get(ctx context.Context, instanceID string) (*domain.Preference, error)
	SetDarkMode(ctx context.Context, instanceID string, darkMode bool) (*domain.Preference, error)
}

type preferenceService struct {
	prefRepo repository.PreferenceRepository
}

// NewPreferenceService creates a new PreferenceService.
func NewPreferenceService(prefRepo repository.PreferenceRepository) PreferenceService {
	return &preferenceService{prefRepo: prefRepo}
}

// Get returns the stored preference, or the light-mode default when none was saved.
func (s *preferenceService) Get(ctx context.Context, instanceID string) (*domain.Preference, error) {
	if instanceID == "" {
		return nil, ErrInstanceRequired
	}
	pref, err := s.prefRepo.Get(ctx, instanceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.Preference{InstanceID: instanceID}, nil
		}
		return nil, err
	}
	return pref, nil
}

func (s *preferenceService) SetDarkMode(ctx context.Context, instanceID string, darkMode bool) (*domain.Preference, error) {
	if instanceID == "" {
		return nil, ErrInstanceRequired
	}
	if err := s.prefRepo.SetDarkMode(ctx, instanceID, darkMode); err != nil {
		return nil, err
	}
	return &domain.Preference{InstanceID: instanceID, DarkMode: darkMode}, nil
}
