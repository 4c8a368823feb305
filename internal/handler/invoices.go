package handler

import (
	"net/http"

	"hotelbilling/internal/apierror"
	"hotelbilling/internal/dto"
	"hotelbilling/internal/middleware"
	"hotelbilling/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// Generate godoc
// @Summary      Generate an invoice for a reservation
// @Description  Prices the stay (room and services per night), stores a PENDING invoice due seven days after checkout.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.GenerateInvoiceRequest true "Reservation to bill"
// @Success      201  {object} dto.GenerateInvoiceResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/invoices [post]
func (h *InvoicesHandler) Generate(c *gin.Context) {
	var req dto.GenerateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	reservationID := uuid.MustParse(req.ReservationID)

	resp, err := h.svc.GenerateInvoice(c.Request.Context(), reservationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetByReservation godoc
// @Summary      Invoice for a reservation
// @Description  Clients only see invoices for their own reservations.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        reservation_id path     string true "Reservation UUID"
// @Success      200            {object} dto.InvoiceResponse
// @Failure      404            {object} apierror.APIError
// @Router       /v1/invoices/reservation/{reservation_id} [get]
func (h *InvoicesHandler) GetByReservation(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("reservation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid reservation ID"))
		return
	}

	resp, err := h.svc.GetByReservation(c.Request.Context(), reservationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if claims := middleware.GetClaims(c); claims != nil && claims.Role == middleware.RoleClient && !ownedBy(resp, claims.Subject) {
		writeServiceError(c, service.ErrInvoiceNotFound)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func ownedBy(inv *dto.InvoiceResponse, clientID string) bool {
	return inv.Reservation != nil && inv.Reservation.Client != nil && inv.Reservation.Client.ID == clientID
}

// List godoc
// @Summary      List invoices
// @Description  Newest first. client_id restricts to that client's reservations; status filters by invoice status.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        status    query    string false "PENDING | PAID | PARTIAL | REFUNDED"
// @Param        client_id query    string false "Client UUID"
// @Success      200       {array}  dto.InvoiceResponse
// @Failure      400       {object} apierror.APIError
// @Router       /v1/invoices [get]
func (h *InvoicesHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
	if !bindQuery(c, &filter) {
		return
	}

	var (
		resp []dto.InvoiceResponse
		err  error
	)
	if filter.ClientID != "" {
		resp, err = h.svc.ListForClient(c.Request.Context(), uuid.MustParse(filter.ClientID), filter.Status)
	} else {
		resp, err = h.svc.ListAll(c.Request.Context(), filter.Status)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMine godoc
// @Summary      Invoices of the authenticated client
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        status query    string false "PENDING | PAID | PARTIAL | REFUNDED"
// @Success      200    {array}  dto.InvoiceResponse
// @Router       /v1/invoices/mine [get]
func (h *InvoicesHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	clientID, err := uuid.Parse(claims.Subject)
	if err != nil {
		c.JSON(http.StatusForbidden, apierror.New("Token subject is not a client ID"))
		return
	}

	resp, err := h.svc.ListForClient(c.Request.Context(), clientID, c.Query("status"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update an invoice
// @Description  Only status and payment_id may change. Unknown fields are rejected. An empty body is a no-op.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                   true "Invoice UUID"
// @Param        body body     dto.UpdateInvoiceRequest true "New status and/or payment link"
// @Success      200  {object} dto.UpdateInvoiceResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/invoices/{id} [patch]
func (h *InvoicesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid invoice ID"))
		return
	}
	var req dto.UpdateInvoiceRequest
	if !decodeStrict(c, &req) {
		return
	}

	resp, err := h.svc.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
