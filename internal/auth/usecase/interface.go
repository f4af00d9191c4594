package usecase

import (
	"context"

	authdomain "jobmatch-backend/internal/auth/domain"
	authdto "jobmatch-backend/internal/auth/dto"
)

// AuthUsecase covers accounts, sessions and the per-user settings that hang off them.
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	GoogleSignIn(ctx context.Context, code string) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	// Logout revokes the refresh token and, when deviceToken is set, stops
	// push notifications to that device.
	Logout(refreshToken, deviceToken string) error
	ValidateToken(token string) (*authdomain.User, error)

	GetProfile(userID string) (*authdomain.Profile, error)
	UpdateProfile(userID string, profile authdomain.Profile) (*authdomain.Profile, error)

	GetMailbox(userID string) (*authdomain.Mailbox, error)
	SaveMailbox(userID string, req *authdto.MailboxRequest) (*authdomain.Mailbox, error)

	RegisterFCMToken(userID, token, deviceInfo string) error
	UnregisterFCMToken(userID, token string) error
}
