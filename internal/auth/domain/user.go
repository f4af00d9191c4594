package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Profile holds the onboarding answers used to tailor matches and emails.
type Profile struct {
	DesiredRoles     []string `json:"desired_roles,omitempty"`
	Locations        []string `json:"locations,omitempty"`
	Seniority        string   `json:"seniority,omitempty"`
	RemotePreference string   `json:"remote_preference,omitempty"` // "remote", "hybrid", "onsite", "any"
	Skills           []string `json:"skills,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	CVFileName       string   `json:"cv_file_name,omitempty"`
	OnboardingDone   bool     `json:"onboarding_done"`
}

type User struct {
	ID           string                      `json:"id"`
	Email        string                      `json:"email" gorm:"uniqueIndex"`
	Password     string                      `json:"-"` // Never return password in JSON
	Name         string                      `json:"name"`
	AvatarURL    string                      `json:"avatar_url,omitempty"`
	Provider     string                      `json:"provider"` // "email" or "google"
	AccessToken  string                      `json:"-"`        // Google OAuth, used to send mail through Gmail
	RefreshToken string                      `json:"-"`
	Profile      datatypes.JSONType[Profile] `json:"profile"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// HasGmailAccess reports whether mail can be sent on the user's behalf.
func (u *User) HasGmailAccess() bool {
	return u.Provider == "google" && u.AccessToken != ""
}

type RefreshToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at"`
}
