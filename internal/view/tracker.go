package view

import (
	"alcyxob/fitlog/internal/domain"
	"context"
	"errors"
	"log"
	"time"
)

// TrackerState is what the tracker view renders.
type TrackerState struct {
	Email             string         `json:"email,omitempty"`
	Steps             string         `json:"steps"`
	WaterIntake       string         `json:"waterIntake"`
	Calories          string         `json:"calories"`
	Saving            bool           `json:"saving"`
	ValidationMessage string         `json:"validationMessage,omitempty"`
	Entries           []domain.Entry `json:"entries"`
	DarkMode          bool           `json:"darkMode"`
}

// TrackerView records entries and shows the most recent ones.
type TrackerView struct {
	base

	// Guarded by base.mu.
	steps, waterIntake, calories string
	saving                       bool
	validationMessage            string
	entries                      []domain.Entry

	now func() time.Time
}

func NewTrackerView(deps Deps, instanceID string, client Client) *TrackerView {
	return &TrackerView{
		base: base{
			name:       "tracker",
			route:      RouteTracker,
			deps:       deps,
			instanceID: instanceID,
			client:     client,
		},
		entries: []domain.Entry{},
		now:     time.Now,
	}
}

// Mount subscribes to the session first and only then, if signed in, loads
// the recent entries.
func (v *TrackerView) Mount(ctx context.Context, src SessionSource) {
	v.mountBase(ctx, src, v.render)

	v.mu.Lock()
	v.render()
	v.mu.Unlock()

	owner, ok := v.currentSession()
	if !ok {
		return
	}
	v.async(func(ctx context.Context) {
		entries, err := v.deps.Entries.Recent(ctx, owner, domain.RecentEntriesLimit)
		if err != nil {
			log.Printf("ERROR: failed to load recent entries for %s: %v", owner.Email, err)
			return
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.mounted {
			return
		}
		v.entries = capEntries(entries)
		v.render()
	})
}

func (v *TrackerView) Handle(ctx context.Context, msg Message) error {
	switch msg.Type {
	case MsgInput:
		return v.SetInput(msg.Field, msg.Value)
	case MsgSubmit:
		return v.Submit()
	case MsgToggleTheme:
		v.toggleTheme(ctx, v.render)
		return nil
	case MsgLogout:
		return v.Logout(ctx)
	}
	return ErrUnknownMessage
}

// SetInput updates one of the three form fields.
func (v *TrackerView) SetInput(field, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch field {
	case "steps":
		v.steps = value
	case "waterIntake":
		v.waterIntake = value
	case "calories":
		v.calories = value
	default:
		return ErrUnknownField
	}
	v.render()
	return nil
}

// Submit validates the form and starts saving it. Only one save runs at a
// time; the outcome arrives later as a rendered state.
func (v *TrackerView) Submit() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return ErrNotMounted
	}
	if v.saving {
		return ErrSubmissionInFlight
	}
	if v.session == nil {
		return ErrNoSession
	}

	input := domain.EntryInput{Steps: v.steps, WaterIntake: v.waterIntake, Calories: v.calories}
	if _, err := domain.ParseEntryInput(input); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			v.validationMessage = ve.Message
		}
		v.render()
		return err
	}

	owner := *v.session
	v.saving = true
	v.validationMessage = ""
	v.render()

	v.async(func(ctx context.Context) {
		v.save(ctx, owner, input)
	})
	return nil
}

func (v *TrackerView) save(ctx context.Context, owner domain.Session, input domain.EntryInput) {
	entry, err := v.deps.Entries.Record(ctx, owner, input)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	v.saving = false

	if err != nil {
		log.Printf("ERROR: failed to save entry for %s: %v", owner.Email, err)
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			v.validationMessage = ve.Message
		}
		v.render()
		return
	}

	// Local echo uses the client clock; the stored entry keeps the server time.
	echo := *entry
	echo.RecordedAt = v.now()
	v.entries = capEntries(append([]domain.Entry{echo}, v.entries...))
	v.steps, v.waterIntake, v.calories = "", "", ""
	v.render()

	v.deps.Notifier.Fire(owner.UserID, v.client)
}

// Logout signs the session out. The gate then sends the client to RouteAuth.
func (v *TrackerView) Logout(ctx context.Context) error {
	owner, ok := v.currentSession()
	if !ok {
		return ErrNoSession
	}
	return v.deps.Auth.SignOut(ctx, owner)
}

func (v *TrackerView) Unmount() {
	v.unmountBase()
}

// State returns a copy of the current state.
func (v *TrackerView) State() TrackerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *TrackerView) snapshot() TrackerState {
	s := TrackerState{
		Steps:             v.steps,
		WaterIntake:       v.waterIntake,
		Calories:          v.calories,
		Saving:            v.saving,
		ValidationMessage: v.validationMessage,
		Entries:           append([]domain.Entry{}, v.entries...),
		DarkMode:          v.darkMode,
	}
	if v.session != nil {
		s.Email = v.session.Email
	}
	return s
}

// render must be called with v.mu held.
func (v *TrackerView) render() {
	v.client.Render(v.snapshot())
}

func capEntries(entries []domain.Entry) []domain.Entry {
	if len(entries) > domain.RecentEntriesLimit {
		entries = entries[:domain.RecentEntriesLimit]
	}
	return entries
}
