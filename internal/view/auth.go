package view

import (
	"alcyxob/fitlog/internal/service"
	"context"
	"errors"
	"log"
	"strings"
)

const authUnavailableMessage = "Something went wrong. Please try again."

type AuthState struct {
	Email    string `json:"email"`
	IsSignUp bool   `json:"isSignUp"`
	Busy     bool   `json:"busy"`
	Error    string `json:"error,omitempty"`
	Token    string `json:"token,omitempty"` // set once signed in
	DarkMode bool   `json:"darkMode"`
}

// AuthView signs a user up or in. On success the session becomes current on
// the instance and the gate moves the client to the tracker.
type AuthView struct {
	base

	// Guarded by base.mu.
	email, password string
	isSignUp        bool
	busy            bool
	errMessage      string
	token           string
	pendingRoute    string
}

func NewAuthView(deps Deps, instanceID string, client Client) *AuthView {
	v := &AuthView{
		base: base{
			name:       "auth",
			route:      RouteAuth,
			deps:       deps,
			instanceID: instanceID,
			client:     client,
		},
	}
	v.nav = v
	return v
}

// Navigate holds a navigation that arrives while a sign-in is running, so the
// client receives its token before it is moved on.
func (v *AuthView) Navigate(route string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.busy {
		v.pendingRoute = route
		return
	}
	v.client.Navigate(route)
}

func (v *AuthView) Mount(ctx context.Context, src SessionSource) {
	v.mountBase(ctx, src, v.render)

	v.mu.Lock()
	v.render()
	v.mu.Unlock()
}

func (v *AuthView) Handle(ctx context.Context, msg Message) error {
	switch msg.Type {
	case MsgInput:
		return v.SetInput(msg.Field, msg.Value)
	case MsgToggleMode:
		v.mu.Lock()
		v.isSignUp = !v.isSignUp
		v.errMessage = ""
		v.render()
		v.mu.Unlock()
		return nil
	case MsgSubmit:
		return v.Submit()
	case MsgToggleTheme:
		v.toggleTheme(ctx, v.render)
		return nil
	}
	return ErrUnknownMessage
}

func (v *AuthView) SetInput(field, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch field {
	case "email":
		v.email = value
	case "password":
		v.password = value
	default:
		return ErrUnknownField
	}
	v.render()
	return nil
}

// Submit starts a sign-up or sign-in with the current form.
func (v *AuthView) Submit() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		return ErrNotMounted
	}
	if v.busy {
		return ErrSubmissionInFlight
	}
	email, password, signUp := strings.TrimSpace(v.email), v.password, v.isSignUp
	v.busy = true
	v.errMessage = ""
	v.render()

	v.async(func(ctx context.Context) {
		var (
			token string
			err   error
		)
		if signUp {
			token, _, err = v.deps.Auth.SignUp(ctx, v.instanceID, email, password)
		} else {
			token, _, err = v.deps.Auth.SignIn(ctx, v.instanceID, email, password)
		}
		v.finish(token, err)
	})
	return nil
}

func (v *AuthView) finish(token string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	v.busy = false

	if err != nil {
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			v.errMessage = authErr.Message
		} else {
			log.Printf("ERROR: authentication for instance %s failed: %v", v.instanceID, err)
			v.errMessage = authUnavailableMessage
		}
		v.render()
		return
	}
	v.token = token
	v.password = ""
	v.render()

	if v.pendingRoute != "" {
		v.client.Navigate(v.pendingRoute)
		v.pendingRoute = ""
	}
}

func (v *AuthView) Unmount() {
	v.unmountBase()
}

func (v *AuthView) State() AuthState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *AuthView) snapshot() AuthState {
	return AuthState{
		Email:    v.email,
		IsSignUp: v.isSignUp,
		Busy:     v.busy,
		Error:    v.errMessage,
		Token:    v.token,
		DarkMode: v.darkMode,
	}
}

func (v *AuthView) render() {
	v.client.Render(v.snapshot())
}
