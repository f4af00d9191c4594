package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/usecase"
	"jobmatch-backend/pkg/ai"
	"jobmatch-backend/pkg/recommend"

	"github.com/gin-gonic/gin"
)

type fakeApps struct {
	err     error
	userID  string
	ids     []string
	request dto.UpdateStatusRequest
}

func (f *fakeApps) Like(ctx context.Context, userID string, req dto.LikeRequest) (*domain.Application, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Application{ID: "a1", UserID: userID, JobID: req.JobID, Position: req.Position, Status: domain.StatusLiked}, nil
}

func (f *fakeApps) RemoveLiked(ctx context.Context, userID, id string) error { return f.err }

func (f *fakeApps) ListApplications(ctx context.Context, userID, bucket string) ([]*domain.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*domain.Application{{ID: "a1"}}, nil
}

func (f *fakeApps) GetApplication(ctx context.Context, userID, id string) (*domain.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Application{ID: id}, nil
}

func (f *fakeApps) GetHistory(ctx context.Context, userID, id string) ([]*domain.StatusEvent, error) {
	return []*domain.StatusEvent{}, f.err
}

func (f *fakeApps) UpdateStatus(ctx context.Context, userID, id string, req dto.UpdateStatusRequest) (*domain.Application, error) {
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Application{ID: id, Status: domain.Status(req.Status)}, nil
}

func (f *fakeApps) ApplyToSelected(ctx context.Context, userID string, ids []string) (*dto.ApplyResponse, error) {
	f.userID, f.ids = userID, ids
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ApplyResponse{Applied: ids, Ignored: []string{}, JobID: "job-1"}, nil
}

func (f *fakeApps) GetSimulation(ctx context.Context, userID, jobID string) (*domain.SimulationJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SimulationJob{ID: jobID, UserID: userID}, nil
}

func (f *fakeApps) SendApplicationEmails(ctx context.Context, userID string, ids []string) ([]dto.SendEmailResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []dto.SendEmailResult{{ApplicationID: "a1", Success: true}, {ApplicationID: "a2", Error: "boom"}}, nil
}

func (f *fakeApps) SetDrafter(ai.EmailDrafter)              {}
func (f *fakeApps) SetMailSender(sender usecase.MailSender) {}

type fakeInbox struct {
	query string
	limit int
}

func (f *fakeInbox) GetInbox(ctx context.Context, userID string) (*dto.InboxResponse, error) {
	return &dto.InboxResponse{Messages: []*domain.InboxMessage{}, Counts: map[string]int{"rejected": 2}}, nil
}

func (f *fakeInbox) GetStats(ctx context.Context, userID string) (*dto.DashboardStats, error) {
	return &dto.DashboardStats{TotalApplications: 3}, nil
}

func (f *fakeInbox) Search(ctx context.Context, userID, query string, limit int) ([]*domain.InboxMessage, error) {
	f.query, f.limit = query, limit
	return []*domain.InboxMessage{}, nil
}

func (f *fakeInbox) SetMessageIndex(usecase.MessageIndex) {}

func newTestRouter(apps *fakeApps, inbox *fakeInbox) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Next()
	})
	h := NewApplicationHandler(apps, inbox)
	r.POST("/api/applications", h.Like)
	r.GET("/api/applications", h.List)
	r.GET("/api/applications/:id", h.Get)
	r.DELETE("/api/applications/:id", h.Remove)
	r.PATCH("/api/applications/:id/status", h.UpdateStatus)
	r.POST("/api/applications/apply", h.Apply)
	r.POST("/api/applications/send-emails", h.SendEmails)
	r.GET("/api/simulations/:id", h.GetSimulation)
	r.GET("/api/inbox", h.Inbox)
	r.GET("/api/inbox/search", h.Search)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApplyAccepted(t *testing.T) {
	apps := &fakeApps{}
	w := do(newTestRouter(apps, &fakeInbox{}), http.MethodPost, "/api/applications/apply", `{"application_ids":["a1","a2"]}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp dto.ApplyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.JobID != "job-1" || len(resp.Applied) != 2 || apps.userID != "u1" {
		t.Fatalf("resp = %+v, user %q", resp, apps.userID)
	}
}

func TestApplyRequiresIDs(t *testing.T) {
	w := do(newTestRouter(&fakeApps{}, &fakeInbox{}), http.MethodPost, "/api/applications/apply", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{usecase.ErrApplicationNotFound, http.StatusNotFound},
		{usecase.ErrSimulationNotFound, http.StatusNotFound},
		{usecase.ErrForbidden, http.StatusForbidden},
		{usecase.ErrNoApplications, http.StatusBadRequest},
		{usecase.ErrInvalidBucket, http.StatusBadRequest},
		{usecase.ErrReservedStatus, http.StatusBadRequest},
		{usecase.ErrStatusConflict, http.StatusConflict},
		{usecase.ErrAIUnavailable, http.StatusServiceUnavailable},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := newTestRouter(&fakeApps{err: tc.err}, &fakeInbox{})
		if w := do(r, http.MethodGet, "/api/applications/a1", ""); w.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestUpdateStatusPassesExpectedVersion(t *testing.T) {
	apps := &fakeApps{}
	w := do(newTestRouter(apps, &fakeInbox{}), http.MethodPatch, "/api/applications/a1/status", `{"status":"hired","expected_version":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if apps.request.ExpectedVersion == nil || *apps.request.ExpectedVersion != 4 {
		t.Fatalf("request = %+v", apps.request)
	}
}

func TestUpdateStatusConflict(t *testing.T) {
	r := newTestRouter(&fakeApps{err: usecase.ErrStatusConflict}, &fakeInbox{})
	w := do(r, http.MethodPatch, "/api/applications/a1/status", `{"status":"hired","expected_version":1}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSendEmailsCounts(t *testing.T) {
	w := do(newTestRouter(&fakeApps{}, &fakeInbox{}), http.MethodPost, "/api/applications/send-emails", `{"application_ids":["a1","a2"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Sent   int `json:"sent"`
		Failed int `json:"failed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Sent != 1 || body.Failed != 1 {
		t.Fatalf("body = %+v", body)
	}
}

func TestInboxAndSearch(t *testing.T) {
	inbox := &fakeInbox{}
	r := newTestRouter(&fakeApps{}, inbox)

	w := do(r, http.MethodGet, "/api/inbox", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"rejected":2`) {
		t.Fatalf("inbox = %d %s", w.Code, w.Body)
	}

	if w := do(r, http.MethodGet, "/api/inbox/search", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("search without q = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/inbox/search?q=offer&limit=5", ""); w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if inbox.query != "offer" || inbox.limit != 5 {
		t.Fatalf("search args = %q, %d", inbox.query, inbox.limit)
	}
}

type fakeRecommender struct {
	jobs []recommend.Job
	err  error
}

func (f *fakeRecommender) ShowJobs(ctx context.Context, userID string) ([]recommend.Job, error) {
	return f.jobs, f.err
}

func TestRecommendationsBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/recommendations", NewRecommendationHandler(&fakeRecommender{err: errors.New("timeout")}).List)

	w := do(r, http.MethodGet, "/api/recommendations", "")
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "Failed to fetch job recommendations") {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
}

type fakeClassifierUsecase struct{ err error }

func (f *fakeClassifierUsecase) ProcessUnprocessed(ctx context.Context) (*dto.ClassifySummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ClassifySummary{EmailsProcessed: 3}, nil
}

func (f *fakeClassifierUsecase) SetClassifier(ai.StatusClassifier) {}

type fakeMonitor struct{}

func (fakeMonitor) CheckMailboxes(ctx context.Context) (*dto.MonitorSummary, error) {
	return &dto.MonitorSummary{MailboxesChecked: 1}, nil
}

type fakeDigest struct{}

func (fakeDigest) SendJobDigests(ctx context.Context) (*dto.DigestSummary, error) {
	return &dto.DigestSummary{UsersChecked: 2, EmailsSent: 2}, nil
}

func TestInternalRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewInternalHandler(&fakeClassifierUsecase{}, fakeMonitor{}, fakeDigest{})
	internal := r.Group("/api/internal", InternalKeyMiddleware("s3cret"))
	internal.POST("/process-email-responses", h.ProcessEmailResponses)
	internal.POST("/monitor-mailbox", h.MonitorMailbox)
	internal.POST("/send-job-notifications", h.SendJobNotifications)

	if w := do(r, http.MethodPost, "/api/internal/process-email-responses", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("without key = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/internal/process-email-responses", nil)
	req.Header.Set("X-Internal-Key", "s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"emails_processed":3`) {
		t.Fatalf("with key = %d %s", w.Code, w.Body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/internal/send-job-notifications", nil)
	req.Header.Set("X-Internal-Key", "s3cret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"emails_sent":2`) {
		t.Fatalf("digest = %d %s", w.Code, w.Body)
	}
}

func TestClassifierUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewInternalHandler(&fakeClassifierUsecase{err: usecase.ErrAIUnavailable}, fakeMonitor{}, fakeDigest{})
	r.POST("/run", InternalKeyMiddleware(""), h.ProcessEmailResponses)

	if w := do(r, http.MethodPost, "/run", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAdminKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	closed := gin.New()
	closed.PUT("/settings", AdminKeyMiddleware(""), ok)
	if w := do(closed, http.MethodPut, "/settings", ""); w.Code != http.StatusForbidden {
		t.Fatalf("no key configured = %d", w.Code)
	}

	r := gin.New()
	r.PUT("/settings", AdminKeyMiddleware("s3cret"), ok)
	if w := do(r, http.MethodPut, "/settings", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing key = %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodPut, "/settings", nil)
	req.Header.Set("X-Internal-Key", "s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("with key = %d", w.Code)
	}
}
