package handler

import (
	"net/http"
	"strconv"

	"hotelbilling/internal/apierror"
	"hotelbilling/internal/dto"
	"hotelbilling/internal/service"
	"hotelbilling/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ReconciliationHandler struct {
	svc   service.ReconciliationService
	queue worker.ReconciliationEnqueuer // nil when Redis is not configured
}

func NewReconciliationHandler(svc service.ReconciliationService, queue worker.ReconciliationEnqueuer) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc, queue: queue}
}

// Repair godoc
// @Summary      Reconcile invoices against reservations
// @Description  Deletes invoices whose reservation no longer exists and reports invoices whose reservation lacks stay dates.
// @Description  With async=true the sweep is queued for the worker pool and 202 is returned.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        async query    bool false "Queue the sweep instead of running it inline"
// @Success      200  {object} dto.RepairResponse
// @Success      202  {object} dto.QueuedResponse
// @Failure      400  {object} apierror.APIError
// @Failure      500  {object} apierror.APIError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/admin/invoices/repair [post]
func (h *ReconciliationHandler) Repair(c *gin.Context) {
	async := false
	if raw := c.Query("async"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid async flag"))
			return
		}
		async = v
	}
	if async {
		h.enqueue(c)
		return
	}

	resp, err := h.svc.RepairInvoices(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) enqueue(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("Job queue unavailable"))
		return
	}
	if err := h.queue.EnqueueReconciliation(c.Request.Context(), worker.TriggerManual); err != nil {
		log.Error().Err(err).Str("trigger", worker.TriggerManual).Msg("enqueue reconciliation failed")
		c.JSON(http.StatusServiceUnavailable, apierror.New("Job queue unavailable"))
		return
	}
	c.JSON(http.StatusAccepted, dto.QueuedResponse{Message: "Reconciliation queued", Trigger: worker.TriggerManual})
}
