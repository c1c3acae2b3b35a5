package domain

import "time"

// Profile holds the public attributes of an authenticated identity.
// One profile exists per identity; it is created on first sign-in and
// never overwritten afterwards.
type Profile struct {
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
