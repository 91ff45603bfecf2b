package domain

import "time"

// Preference is the per app-instance display preference. It is keyed by the
// instance, not the user, so it is not shared between devices.
type Preference struct {
	InstanceID string    `bson:"_id" json:"instanceId"`
	DarkMode   bool      `bson:"darkMode" json:"darkMode"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}
