package delivery

import (
	"crypto/subtle"
	"net/http"

	"jobmatch-backend/internal/application/usecase"

	"github.com/gin-gonic/gin"
)

// InternalHandler exposes the batch jobs to cron and ops tooling.
type InternalHandler struct {
	classifier usecase.ClassifierUsecase
	monitor    usecase.MonitorUsecase
	digest     usecase.JobDigestUsecase
}

func NewInternalHandler(classifier usecase.ClassifierUsecase, monitor usecase.MonitorUsecase, digest usecase.JobDigestUsecase) *InternalHandler {
	return &InternalHandler{classifier: classifier, monitor: monitor, digest: digest}
}

// POST /api/internal/process-email-responses
func (h *InternalHandler) ProcessEmailResponses(c *gin.Context) {
	summary, err := h.classifier.ProcessUnprocessed(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/internal/monitor-mailbox
func (h *InternalHandler) MonitorMailbox(c *gin.Context) {
	summary, err := h.monitor.CheckMailboxes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/internal/send-job-notifications
func (h *InternalHandler) SendJobNotifications(c *gin.Context) {
	summary, err := h.digest.SendJobDigests(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// InternalKeyMiddleware requires the X-Internal-Key header to equal key.
// An empty key leaves the routes open, for local development.
func InternalKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && !checkKey(c, key) {
			return
		}
		c.Next()
	}
}

// AdminKeyMiddleware is InternalKeyMiddleware without the open default:
// with no key configured every request is refused.
func AdminKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "INTERNAL_API_KEY is not configured"})
			c.Abort()
			return
		}
		if !checkKey(c, key) {
			return
		}
		c.Next()
	}
}

func checkKey(c *gin.Context, key string) bool {
	if subtle.ConstantTimeCompare([]byte(c.GetHeader("X-Internal-Key")), []byte(key)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid internal key"})
		c.Abort()
		return false
	}
	return true
}
