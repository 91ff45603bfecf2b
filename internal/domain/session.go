package domain

import "time"

// Session is the authenticated identity bound to one app instance.
type Session struct {
	UserID     string    `json:"userId"` // ObjectID hex
	Email      string    `json:"email"`
	InstanceID string    `json:"instanceId"`
	TokenID    string    `json:"-"` // JWT "jti"; identifies this sign-in
	ExpiresAt  time.Time `json:"expiresAt"`
}
