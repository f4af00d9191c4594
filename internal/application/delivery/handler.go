package delivery

import (
	"net/http"
	"strconv"

	"jobmatch-backend/internal/application/dto"
	"jobmatch-backend/internal/application/usecase"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	appUsecase   usecase.ApplicationUsecase
	inboxUsecase usecase.InboxUsecase
}

func NewApplicationHandler(appUsecase usecase.ApplicationUsecase, inboxUsecase usecase.InboxUsecase) *ApplicationHandler {
	return &ApplicationHandler{appUsecase: appUsecase, inboxUsecase: inboxUsecase}
}

// Like saves a recommended job to the liked list
// POST /api/applications
func (h *ApplicationHandler) Like(c *gin.Context) {
	var req dto.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.appUsecase.Like(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// GET /api/applications?bucket=liked|active|rejected|all
func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.appUsecase.ListApplications(c.Request.Context(), c.GetString("userID"), c.Query("bucket"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps, "total": len(apps)})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.appUsecase.GetApplication(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) History(c *gin.Context) {
	events, err := h.appUsecase.GetHistory(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Remove takes a job off the liked list
// DELETE /api/applications/:id
func (h *ApplicationHandler) Remove(c *gin.Context) {
	if err := h.appUsecase.RemoveLiked(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "application removed"})
}

// UpdateStatus is a manual status change. Send expected_version to detect
// concurrent updates; a stale version answers 409.
// PATCH /api/applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.appUsecase.UpdateStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Apply submits the selected liked jobs. Employer replies are simulated by
// a background job; poll /api/simulations/:id or listen on /api/events.
// POST /api/applications/apply
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.appUsecase.ApplyToSelected(c.Request.Context(), c.GetString("userID"), req.ApplicationIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// POST /api/applications/send-emails
func (h *ApplicationHandler) SendEmails(c *gin.Context) {
	var req dto.SendEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.appUsecase.SendApplicationEmails(c.Request.Context(), c.GetString("userID"), req.ApplicationIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "sent": sent, "failed": len(results) - sent})
}

// GET /api/simulations/:id
func (h *ApplicationHandler) GetSimulation(c *gin.Context) {
	job, err := h.appUsecase.GetSimulation(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// GET /api/inbox
func (h *ApplicationHandler) Inbox(c *gin.Context) {
	inbox, err := h.inboxUsecase.GetInbox(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inbox)
}

// GET /api/inbox/stats
func (h *ApplicationHandler) Stats(c *gin.Context) {
	stats, err := h.inboxUsecase.GetStats(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/inbox/search?q=&limit=
func (h *ApplicationHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	msgs, err := h.inboxUsecase.Search(c.Request.Context(), c.GetString("userID"), query, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "query": query, "total": len(msgs)})
}
