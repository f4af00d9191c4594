package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/usecase"
	authdomain "jobmatch-backend/internal/auth/domain"
	authdto "jobmatch-backend/internal/auth/dto"
	"jobmatch-backend/pkg/ai"
	"jobmatch-backend/pkg/config"
	"jobmatch-backend/pkg/recommend"
	"jobmatch-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type rejectingAuth struct{}

func (rejectingAuth) Login(*authdto.LoginRequest) (*authdto.TokenResponse, error) {
	return nil, errors.New("no")
}
func (rejectingAuth) Register(*authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	return nil, errors.New("no")
}
func (rejectingAuth) GoogleSignIn(context.Context, string) (*authdto.TokenResponse, error) {
	return nil, errors.New("no")
}
func (rejectingAuth) RefreshToken(string) (*authdto.TokenResponse, error) {
	return nil, errors.New("no")
}
func (rejectingAuth) Logout(string, string) error { return nil }
func (rejectingAuth) ValidateToken(string) (*authdomain.User, error) {
	return nil, errors.New("invalid token")
}
func (rejectingAuth) GetProfile(string) (*authdomain.Profile, error) { return nil, nil }
func (rejectingAuth) UpdateProfile(string, authdomain.Profile) (*authdomain.Profile, error) {
	return nil, nil
}
func (rejectingAuth) GetMailbox(string) (*authdomain.Mailbox, error) { return nil, nil }
func (rejectingAuth) SaveMailbox(string, *authdto.MailboxRequest) (*authdomain.Mailbox, error) {
	return nil, nil
}
func (rejectingAuth) RegisterFCMToken(string, string, string) error { return nil }
func (rejectingAuth) UnregisterFCMToken(string, string) error       { return nil }

type stubMonitor struct{}

func (stubMonitor) CheckMailboxes(context.Context) (*dto.MonitorSummary, error) {
	return &dto.MonitorSummary{MailboxesChecked: 2}, nil
}

type stubClassifier struct{}

func (stubClassifier) ProcessUnprocessed(context.Context) (*dto.ClassifySummary, error) {
	return nil, usecase.ErrAIUnavailable
}
func (stubClassifier) SetClassifier(ai.StatusClassifier) {}

type stubDigest struct{}

func (stubDigest) SendJobDigests(context.Context) (*dto.DigestSummary, error) {
	return &dto.DigestSummary{UsersChecked: 1}, nil
}

type stubRecommender struct{}

func (stubRecommender) ShowJobs(context.Context, string) ([]recommend.Job, error) { return nil, nil }

func newTestHandler(internalKey string) *Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(rejectingAuth{}, nil, nil, stubClassifier{}, stubMonitor{}, stubDigest{}, stubRecommender{}, sse.NewManager(), &config.Config{InternalAPIKey: internalKey})
}

func serve(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndAuth(t *testing.T) {
	r := newTestHandler("").Router()

	if w := serve(r, http.MethodGet, "/api/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/applications", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("applications without token = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/inbox", "", map[string]string{"Authorization": "Bearer bad"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("inbox with bad token = %d", w.Code)
	}
	if w := serve(r, http.MethodOptions, "/api/inbox", "", map[string]string{"Origin": "http://localhost:5173"}); w.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d", w.Code)
	}
}

func TestInternalRoutesUseKey(t *testing.T) {
	r := newTestHandler("k").Router()

	if w := serve(r, http.MethodPost, "/api/internal/monitor-mailbox", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("without key = %d", w.Code)
	}
	w := serve(r, http.MethodPost, "/api/internal/monitor-mailbox", "", map[string]string{"X-Internal-Key": "k"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"mailboxes_checked":2`) {
		t.Fatalf("with key = %d %s", w.Code, w.Body)
	}
	w = serve(r, http.MethodPost, "/api/internal/process-email-responses", "", map[string]string{"X-Internal-Key": "k"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("classifier without AI = %d", w.Code)
	}
}

func TestSettingsRoutesNeedInternalKey(t *testing.T) {
	InitRuntimeConfig("auto", "http://localhost:11434", "llama3")
	bearer := map[string]string{"Authorization": "Bearer bad"}

	open := newTestHandler("").Router()
	if w := serve(open, http.MethodPut, "/api/settings/ai", `{"ollama_base_url":"http://evil"}`, bearer); w.Code != http.StatusForbidden {
		t.Fatalf("settings without configured key = %d", w.Code)
	}

	r := newTestHandler("k").Router()
	if w := serve(r, http.MethodPost, "/api/settings/ai/test", `{"ollama_base_url":"http://169.254.169.254"}`, bearer); w.Code != http.StatusUnauthorized {
		t.Fatalf("connection test without key = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/api/settings/ai", "", map[string]string{"X-Internal-Key": "k"})
	if w.Code != http.StatusOK {
		t.Fatalf("settings with key = %d", w.Code)
	}
	if GetRuntimeOllamaBaseURL() != "http://localhost:11434" {
		t.Fatalf("runtime url changed to %q", GetRuntimeOllamaBaseURL())
	}

	w = serve(r, http.MethodPost, "/api/internal/send-job-notifications", "", map[string]string{"X-Internal-Key": "k"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"users_checked":1`) {
		t.Fatalf("digest = %d %s", w.Code, w.Body)
	}
}

func settingsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/settings", GetAISettings)
	r.PUT("/settings", UpdateAISettings)
	r.POST("/settings/test", TestOllamaConnection)
	return r
}

func TestUpdateAISettings(t *testing.T) {
	InitRuntimeConfig("auto", "http://localhost:11434", "llama3")
	r := settingsRouter()

	w := serve(r, http.MethodPut, "/settings", `{"ollama_base_url":"http://gpu-box:11434"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d %s", w.Code, w.Body)
	}
	if GetRuntimeOllamaBaseURL() != "http://gpu-box:11434" || GetRuntimeOllamaModel() != "llama3" {
		t.Fatalf("runtime = %q %q", GetRuntimeOllamaBaseURL(), GetRuntimeOllamaModel())
	}
	if w := serve(r, http.MethodPut, "/settings", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("update without url = %d", w.Code)
	}
	w = serve(r, http.MethodGet, "/settings", "", nil)
	if !strings.Contains(w.Body.String(), `"provider":"auto"`) {
		t.Fatalf("settings = %s", w.Body)
	}
}

func TestOllamaConnectionCheck(t *testing.T) {
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer ollama.Close()
	InitRuntimeConfig("ollama", ollama.URL, "llama3")
	r := settingsRouter()

	if w := serve(r, http.MethodPost, "/settings/test", "", nil); w.Code != http.StatusOK {
		t.Fatalf("current server = %d %s", w.Code, w.Body)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	w := serve(r, http.MethodPost, "/settings/test", `{"ollama_base_url":"`+down.URL+`"}`, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing server = %d", w.Code)
	}
}
