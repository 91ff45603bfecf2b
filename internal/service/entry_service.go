package service

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/repository"
	"context"
	"fmt"
	"log"
)

// RecentScope selects whose entries the recent list shows.
type RecentScope string

const (
	// RecentScopeOwner shows only the signed-in user's entries.
	RecentScopeOwner RecentScope = "owner"
	// RecentScopeAll shows the newest entries of every user.
	RecentScopeAll RecentScope = "all"
)

// ParseRecentScope maps a config value to a RecentScope.
func ParseRecentScope(v string) (RecentScope, error) {
	switch RecentScope(v) {
	case RecentScopeAll, "":
		return RecentScopeAll, nil
	case RecentScopeOwner:
		return RecentScopeOwner, nil
	}
	return "", fmt.Errorf("unknown recent entries scope %q (want %q or %q)", v, RecentScopeOwner, RecentScopeAll)
}

// EntryService records entries and reads them back.
type EntryService interface {
	// Record validates the form and stores an entry owned by the session's user.
	// The returned entry carries the server-assigned timestamp.
	Record(ctx context.Context, owner domain.Session, input domain.EntryInput) (*domain.Entry, error)
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, owner domain.Session, limit int) ([]domain.Entry, error)
	// All returns every entry of every user.
	All(ctx context.Context) ([]domain.Entry, error)
}

type entryService struct {
	entryRepo repository.EntryRepository
	scope     RecentScope
	metrics   *metrics.Metrics
}

// NewEntryService creates a new EntryService.
func NewEntryService(entryRepo repository.EntryRepository, scope RecentScope, m *metrics.Metrics) EntryService {
	return &entryService{entryRepo: entryRepo, scope: scope, metrics: m}
}

func (s *entryService) Record(ctx context.Context, owner domain.Session, input domain.EntryInput) (*domain.Entry, error) {
	entry, err := domain.ParseEntryInput(input)
	if err != nil {
		return nil, err
	}
	ownerID, err := userIDFromSession(owner)
	if err != nil {
		return nil, err
	}
	entry.OwnerID = ownerID
	entry.OwnerEmail = owner.Email

	if _, err := s.entryRepo.Create(ctx, entry); err != nil {
		s.metrics.StoreError("create")
		return nil, &StoreError{Op: "create", Err: err}
	}
	s.metrics.EntryRecorded()
	log.Printf("INFO: entry %s recorded for %s", entry.ID.Hex(), entry.OwnerEmail)
	return entry, nil
}

func (s *entryService) Recent(ctx context.Context, owner domain.Session, limit int) ([]domain.Entry, error) {
	if limit <= 0 || limit > domain.RecentEntriesLimit {
		limit = domain.RecentEntriesLimit
	}
	ownerEmail := ""
	if s.scope == RecentScopeOwner {
		ownerEmail = owner.Email
	}
	entries, err := s.entryRepo.GetRecent(ctx, ownerEmail, limit)
	if err != nil {
		s.metrics.StoreError("recent")
		return nil, &StoreError{Op: "recent", Err: err}
	}
	return entries, nil
}

func (s *entryService) All(ctx context.Context) ([]domain.Entry, error) {
	entries, err := s.entryRepo.GetAll(ctx)
	if err != nil {
		s.metrics.StoreError("all")
		return nil, &StoreError{Op: "all", Err: err}
	}
	return entries, nil
}
