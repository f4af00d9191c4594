package usecase

import (
	"reflect"
	"strconv"
	"testing"
	"time"

	authdomain "jobmatch-backend/internal/auth/domain"
	authdto "jobmatch-backend/internal/auth/dto"
	"jobmatch-backend/pkg/config"

	"gorm.io/datatypes"
)

type memUsers struct {
	byID   map[string]*authdomain.User
	tokens map[string]*authdomain.RefreshToken
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*authdomain.User{}, tokens: map[string]*authdomain.RefreshToken{}}
}

func (m *memUsers) Create(user *authdomain.User) error {
	user.ID = "u" + strconv.Itoa(len(m.byID)+1)
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) FindByEmail(email string) (*authdomain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(id string) (*authdomain.User, error) { return m.byID[id], nil }

func (m *memUsers) Update(user *authdomain.User) error {
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) UpdateProfile(userID string, profile authdomain.Profile) error {
	if u := m.byID[userID]; u != nil {
		u.Profile = datatypes.NewJSONType(profile)
	}
	return nil
}

func (m *memUsers) SaveRefreshToken(token *authdomain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *memUsers) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return m.tokens[token], nil
}

func (m *memUsers) DeleteRefreshToken(token string) error {
	delete(m.tokens, token)
	return nil
}

type memMailboxes struct {
	boxes map[string]*authdomain.Mailbox
}

func (m *memMailboxes) FindByUserID(userID string) (*authdomain.Mailbox, error) {
	return m.boxes[userID], nil
}
func (m *memMailboxes) Upsert(mb *authdomain.Mailbox) error {
	m.boxes[mb.UserID] = mb
	return nil
}
func (m *memMailboxes) ListAll() ([]*authdomain.Mailbox, error)  { return nil, nil }
func (m *memMailboxes) TouchLastChecked(string, time.Time) error { return nil }

type memDevices struct {
	owners map[string]string // token -> user
}

func (m *memDevices) Register(userID, token, _ string) error {
	m.owners[token] = userID
	return nil
}
func (m *memDevices) TokensForUser(userID string) ([]string, error) {
	var out []string
	for token, owner := range m.owners {
		if owner == userID {
			out = append(out, token)
		}
	}
	return out, nil
}
func (m *memDevices) Remove(userID, token string) error {
	if m.owners[token] == userID {
		delete(m.owners, token)
	}
	return nil
}
func (m *memDevices) Prune(tokens []string) error {
	for _, t := range tokens {
		delete(m.owners, t)
	}
	return nil
}

func newTestAuth() (AuthUsecase, *memUsers, *memMailboxes) {
	uc, users, boxes, _ := newTestAuthWithDevices()
	return uc, users, boxes
}

func newTestAuthWithDevices() (AuthUsecase, *memUsers, *memMailboxes, *memDevices) {
	users := newMemUsers()
	boxes := &memMailboxes{boxes: map[string]*authdomain.Mailbox{}}
	devices := &memDevices{owners: map[string]string{}}
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Minute, JWTRefreshExpiry: time.Hour}
	return NewAuthUsecase(users, boxes, devices, cfg), users, boxes, devices
}

func TestRegisterLoginAndValidate(t *testing.T) {
	uc, _, _ := newTestAuth()

	resp, err := uc.Register(&authdto.RegisterRequest{Email: "ana@example.com", Password: "secret1", Name: "Ana"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := uc.Register(&authdto.RegisterRequest{Email: "ana@example.com", Password: "other12", Name: "Ana"}); err == nil {
		t.Fatal("duplicate email should be rejected")
	}

	user, err := uc.ValidateToken(resp.AccessToken)
	if err != nil || user.Email != "ana@example.com" {
		t.Fatalf("ValidateToken = %v, %v", user, err)
	}

	if _, err := uc.Login(&authdto.LoginRequest{Email: "ana@example.com", Password: "wrong12"}); err == nil {
		t.Fatal("wrong password should fail")
	}
	if _, err := uc.Login(&authdto.LoginRequest{Email: "ana@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := uc.ValidateToken("garbage"); err == nil {
		t.Fatal("garbage token should fail")
	}
}

func TestRefreshAndLogout(t *testing.T) {
	uc, _, _ := newTestAuth()
	resp, err := uc.Register(&authdto.RegisterRequest{Email: "bo@example.com", Password: "secret1", Name: "Bo"})
	if err != nil {
		t.Fatal(err)
	}

	refreshed, err := uc.RefreshToken(resp.RefreshToken)
	if err != nil || refreshed.User.Email != "bo@example.com" {
		t.Fatalf("RefreshToken = %v, %v", refreshed, err)
	}

	if err := uc.Logout(resp.RefreshToken, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.RefreshToken(resp.RefreshToken); err == nil {
		t.Fatal("refresh after logout should fail")
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	uc, _, _ := newTestAuth()
	resp, err := uc.Register(&authdto.RegisterRequest{Email: "cy@example.com", Password: "secret1", Name: "Cy"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := uc.ValidateToken(resp.RefreshToken); err == nil {
		t.Fatal("refresh token accepted as an access token")
	}
	if _, err := uc.RefreshToken(resp.AccessToken); err == nil {
		t.Fatal("access token accepted as a refresh token")
	}
	if _, err := uc.ValidateToken(resp.AccessToken); err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
}

func TestLogoutForgetsOnlyThisDevice(t *testing.T) {
	uc, _, _, devices := newTestAuthWithDevices()
	resp, err := uc.Register(&authdto.RegisterRequest{Email: "di@example.com", Password: "secret1", Name: "Di"})
	if err != nil {
		t.Fatal(err)
	}
	other, err := uc.Register(&authdto.RegisterRequest{Email: "ed@example.com", Password: "secret1", Name: "Ed"})
	if err != nil {
		t.Fatal(err)
	}
	userID := resp.User.ID
	_ = uc.RegisterFCMToken(userID, "laptop", "Chrome")
	_ = uc.RegisterFCMToken(userID, "phone", "Android")
	_ = uc.RegisterFCMToken(other.User.ID, "desktop", "Firefox")

	// someone else's token is left alone
	if err := uc.UnregisterFCMToken(userID, "desktop"); err != nil {
		t.Fatal(err)
	}
	if err := uc.Logout(resp.RefreshToken, "laptop"); err != nil {
		t.Fatal(err)
	}

	if tokens, _ := devices.TokensForUser(userID); len(tokens) != 1 || tokens[0] != "phone" {
		t.Fatalf("devices after logout = %v", tokens)
	}
	if tokens, _ := devices.TokensForUser(other.User.ID); len(tokens) != 1 {
		t.Fatalf("other user's devices = %v", tokens)
	}
}

func TestGoogleAccountCannotUsePassword(t *testing.T) {
	uc, users, _ := newTestAuth()
	users.Create(&authdomain.User{Email: "g@example.com", Provider: "google"})

	if _, err := uc.Login(&authdto.LoginRequest{Email: "g@example.com", Password: "whatever"}); err == nil {
		t.Fatal("google account should not log in with a password")
	}
}

func TestUpdateProfileCompactsLists(t *testing.T) {
	uc, users, _ := newTestAuth()
	users.Create(&authdomain.User{Email: "c@example.com", Provider: "email"})

	got, err := uc.UpdateProfile("u1", authdomain.Profile{
		Skills:    []string{" Go ", "go", "", "SQL"},
		Locations: []string{"Berlin", "berlin"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Skills, []string{"Go", "SQL"}) || !reflect.DeepEqual(got.Locations, []string{"Berlin"}) {
		t.Fatalf("profile = %+v", got)
	}

	stored, _ := uc.GetProfile("u1")
	if !reflect.DeepEqual(stored.Skills, []string{"Go", "SQL"}) {
		t.Fatalf("stored profile = %+v", stored)
	}
}

func TestSaveMailbox(t *testing.T) {
	uc, _, boxes := newTestAuth()

	if _, err := uc.GetMailbox("u1"); err == nil {
		t.Fatal("missing mailbox should be an error")
	}
	if _, err := uc.SaveMailbox("u1", &authdto.MailboxRequest{EmailAddress: "me@example.com", IMAPHost: "imap.example.com:993"}); err == nil {
		t.Fatal("imap host without password should be rejected")
	}

	mb, err := uc.SaveMailbox("u1", &authdto.MailboxRequest{EmailAddress: "me@example.com", IMAPHost: "imap.example.com:993", IMAPPassword: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if mb.IMAPUsername != "me@example.com" || boxes.boxes["u1"] != mb {
		t.Fatalf("mailbox = %+v", mb)
	}
}
