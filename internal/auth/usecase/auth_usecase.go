package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	authdomain "jobmatch-backend/internal/auth/domain"
	authdto "jobmatch-backend/internal/auth/dto"
	"jobmatch-backend/internal/auth/repository"
	"jobmatch-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo    repository.UserRepository
	mailboxRepo repository.MailboxRepository
	devices     repository.PushDeviceRepository
	config      *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, mailboxRepo repository.MailboxRepository, devices repository.PushDeviceRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		mailboxRepo: mailboxRepo,
		devices:     devices,
		config:      cfg,
	}
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if user.Provider != "email" {
		return nil, errors.New("please use Google Sign-In for this account")
	}

	if !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, errors.New("invalid email or password")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
		Provider: "email",
	}

	if err := u.userRepo.Create(user); err != nil {
		return nil, err
	}

	return u.generateTokens(user)
}

func (u *authUsecase) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     u.config.GoogleClientID,
		ClientSecret: u.config.GoogleClientSecret,
		RedirectURL:  "postmessage",
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/gmail.send",
		},
	}
}

// GoogleSignIn exchanges an authorization code from the browser for tokens.
// The tokens are kept so application emails can be sent through Gmail.
func (u *authUsecase) GoogleSignIn(ctx context.Context, code string) (*authdto.TokenResponse, error) {
	if u.config.GoogleClientID == "" {
		return nil, errors.New("google sign-in is not configured")
	}

	oauthCfg := u.oauthConfig()
	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange Google code: %w", err)
	}

	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google profile: %w", err)
	}
	if info.VerifiedEmail == nil || !*info.VerifiedEmail {
		return nil, errors.New("google email is not verified")
	}

	user, err := u.userRepo.FindByEmail(info.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &authdomain.User{
			Email:        info.Email,
			Name:         info.Name,
			AvatarURL:    info.Picture,
			Provider:     "google",
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
		}
		if err := u.userRepo.Create(user); err != nil {
			return nil, err
		}
	} else {
		user.Name = info.Name
		user.AvatarURL = info.Picture
		user.Provider = "google"
		user.AccessToken = token.AccessToken
		// Google only returns a refresh token on first consent
		if token.RefreshToken != "" {
			user.RefreshToken = token.RefreshToken
		}
		if err := u.userRepo.Update(user); err != nil {
			return nil, err
		}
	}

	return u.generateTokens(user)
}

func (u *authUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	claims, err := u.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	// Check if token exists in repository
	storedToken, err := u.userRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if storedToken == nil || storedToken.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("refresh token expired")
	}

	// Get user
	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return u.generateTokens(user)
}

func (u *authUsecase) Logout(refreshToken, deviceToken string) error {
	stored, err := u.userRepo.FindRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if err := u.userRepo.DeleteRefreshToken(refreshToken); err != nil {
		return err
	}
	if stored == nil || deviceToken == "" {
		return nil
	}
	return u.devices.Remove(stored.UserID, deviceToken)
}

func (u *authUsecase) generateTokens(user *authdomain.User) (*authdto.TokenResponse, error) {
	// Generate access token
	accessToken, err := u.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	// Generate refresh token
	refreshToken, err := u.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	// Store refresh token
	refreshTokenEntity := &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(u.config.JWTRefreshExpiry),
	}
	if err := u.userRepo.SaveRefreshToken(refreshTokenEntity); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Access and refresh tokens share a signing key, so "typ" keeps one from
// being accepted as the other.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

func (u *authUsecase) generateAccessToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"typ":     tokenTypeAccess,
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) generateRefreshToken(user *authdomain.User) (string, error) {
	claims := jwt.MapClaims{
		"typ":      tokenTypeRefresh,
		"user_id":  user.ID,
		"token_id": uuid.New().String(),
		"exp":      time.Now().Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) parseToken(tokenString, typ string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if claims["typ"] != typ {
		return nil, errors.New("wrong token type")
	}
	return claims, nil
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	claims, err := u.parseToken(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errors.New("user not found")
	}

	return user, nil
}

func (u *authUsecase) GetProfile(userID string) (*authdomain.Profile, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	profile := user.Profile.Data()
	return &profile, nil
}

func (u *authUsecase) UpdateProfile(userID string, profile authdomain.Profile) (*authdomain.Profile, error) {
	profile.DesiredRoles = compactStrings(profile.DesiredRoles)
	profile.Locations = compactStrings(profile.Locations)
	profile.Skills = compactStrings(profile.Skills)

	if err := u.userRepo.UpdateProfile(userID, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (u *authUsecase) GetMailbox(userID string) (*authdomain.Mailbox, error) {
	mailbox, err := u.mailboxRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if mailbox == nil {
		return nil, errors.New("mailbox not found")
	}
	return mailbox, nil
}

func (u *authUsecase) SaveMailbox(userID string, req *authdto.MailboxRequest) (*authdomain.Mailbox, error) {
	if req.IMAPHost != "" && req.IMAPPassword == "" {
		return nil, errors.New("imap password is required when imap host is set")
	}

	mailbox, err := u.mailboxRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if mailbox == nil {
		mailbox = &authdomain.Mailbox{UserID: userID}
	}
	mailbox.EmailAddress = req.EmailAddress
	mailbox.IMAPHost = req.IMAPHost
	mailbox.IMAPUsername = req.IMAPUsername
	if mailbox.IMAPUsername == "" {
		mailbox.IMAPUsername = req.EmailAddress
	}
	mailbox.IMAPPassword = req.IMAPPassword

	if err := u.mailboxRepo.Upsert(mailbox); err != nil {
		return nil, err
	}
	return mailbox, nil
}

func (u *authUsecase) RegisterFCMToken(userID, token, deviceInfo string) error {
	return u.devices.Register(userID, token, deviceInfo)
}

func (u *authUsecase) UnregisterFCMToken(userID, token string) error {
	return u.devices.Remove(userID, token)
}

func compactStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
