package view

import (
	"alcyxob/fitlog/internal/domain"
	"context"
	"log"
)

type DashboardState struct {
	Rows     []domain.AggregateRow `json:"rows"`
	Loaded   bool                  `json:"loaded"`
	NoData   bool                  `json:"noData"`
	DarkMode bool                  `json:"darkMode"`
}

// DashboardView shows the per-user summary, computed once per mount.
type DashboardView struct {
	base

	// Guarded by base.mu.
	rows   []domain.AggregateRow
	loaded bool
}

func NewDashboardView(deps Deps, instanceID string, client Client) *DashboardView {
	return &DashboardView{
		base: base{
			name:       "dashboard",
			route:      RouteDashboard,
			deps:       deps,
			instanceID: instanceID,
			client:     client,
		},
		rows: []domain.AggregateRow{},
	}
}

func (v *DashboardView) Mount(ctx context.Context, src SessionSource) {
	v.mountBase(ctx, src, v.render)

	v.mu.Lock()
	v.render()
	v.mu.Unlock()

	if _, ok := v.currentSession(); !ok {
		return
	}
	v.async(func(ctx context.Context) {
		rows, err := v.deps.Summary.Summary(ctx)
		if err != nil {
			// The previous rows stay on screen.
			log.Printf("ERROR: failed to load summary: %v", err)
			return
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.mounted {
			return
		}
		v.rows = rows
		v.loaded = true
		v.render()
	})
}

func (v *DashboardView) Handle(ctx context.Context, msg Message) error {
	if msg.Type == MsgToggleTheme {
		v.toggleTheme(ctx, v.render)
		return nil
	}
	return ErrUnknownMessage
}

func (v *DashboardView) Unmount() {
	v.unmountBase()
}

func (v *DashboardView) State() DashboardState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *DashboardView) snapshot() DashboardState {
	return DashboardState{
		Rows:     append([]domain.AggregateRow{}, v.rows...),
		Loaded:   v.loaded,
		NoData:   v.loaded && len(v.rows) == 0,
		DarkMode: v.darkMode,
	}
}

func (v *DashboardView) render() {
	v.client.Render(v.snapshot())
}
