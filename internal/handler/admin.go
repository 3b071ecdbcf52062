package handler

import (
	"net/http"
	"strconv"

	"teranga/internal/authz"
	"teranga/internal/middleware"
	"teranga/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// AdminHandler exposes the dead letter queue of the background workers.
type AdminHandler struct{ rdb *redis.Client }

func NewAdminHandler(rdb *redis.Client) *AdminHandler { return &AdminHandler{rdb: rdb} }

// DeadLetters godoc
// @Summary Inspect failed background jobs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Entries to return (default 20)"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} apierror.APIError
// @Router /v1/admin/jobs/dlq [get]
func (h *AdminHandler) DeadLetters(c *gin.Context) {
	if err := authz.Require(middleware.ActorFrom(c), authz.PermJobsManage); err != nil {
		respondError(c, err)
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 || limit > 500 {
		limit = 20
	}

	ctx := c.Request.Context()
	total, err := worker.DLQLength(ctx, h.rdb, worker.QueueAlerts)
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := worker.PeekDLQ(ctx, h.rdb, worker.QueueAlerts, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": worker.QueueAlerts, "total": total, "entries": entries})
}

// RequeueDeadLetters godoc
// @Summary Move every failed job back onto its queue
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} apierror.APIError
// @Router /v1/admin/jobs/dlq/requeue [post]
func (h *AdminHandler) RequeueDeadLetters(c *gin.Context) {
	if err := authz.Require(middleware.ActorFrom(c), authz.PermJobsManage); err != nil {
		respondError(c, err)
		return
	}
	n, err := worker.RequeueDLQ(c.Request.Context(), h.rdb, worker.QueueAlerts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": worker.QueueAlerts, "requeued": n})
}
