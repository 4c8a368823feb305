package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type GenerateInvoiceRequest struct {
	ReservationID string `json:"reservation_id" validate:"required,uuid"`
}

// UpdateInvoiceRequest is the full set of fields a caller may change on an invoice.
// PaymentID links a payment recorded by the payment subsystem.
// Handlers decode it with unknown fields disallowed.
type UpdateInvoiceRequest struct {
	Status    *string `json:"status"`
	PaymentID *string `json:"payment_id"`
}

// InvoiceFilter is bound from the query string of GET /v1/invoices.
type InvoiceFilter struct {
	Status   string `form:"status"`
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CostBreakdown is the derived pricing view returned with a freshly generated invoice.
// It is never persisted.
type CostBreakdown struct {
	Nights       int64           `json:"nights"`
	RoomPrice    decimal.Decimal `json:"room_price"`
	RoomCost     decimal.Decimal `json:"room_cost"`
	ServicesCost decimal.Decimal `json:"services_cost"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	DueDate      string          `json:"due_date"`
}

type GenerateInvoiceResponse struct {
	Message   string          `json:"message"`
	Breakdown CostBreakdown   `json:"breakdown"`
	Invoice   InvoiceResponse `json:"invoice"`
}

type UpdateInvoiceResponse struct {
	Message string          `json:"message"`
	Invoice InvoiceResponse `json:"invoice"`
}

type InvoiceResponse struct {
	ID            string               `json:"id"`
	ReservationID string               `json:"reservation_id"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	DueDate       string               `json:"due_date"`
	Status        string               `json:"status"`
	IssuedAt      string               `json:"issued_at"`
	PaymentID     *string              `json:"payment_id"`
	Reservation   *ReservationResponse `json:"reservation,omitempty"`
	Payment       *PaymentResponse     `json:"payment,omitempty"`
}

type ReservationResponse struct {
	ID       string            `json:"id"`
	CheckIn  *string           `json:"check_in"`
	CheckOut *string           `json:"check_out"`
	Client   *ClientResponse   `json:"client,omitempty"`
	Room     *RoomResponse     `json:"room,omitempty"`
	Services []ServiceResponse `json:"services"`
}

type ClientResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RoomResponse struct {
	ID     string          `json:"id"`
	Number string          `json:"number"`
	Type   string          `json:"type,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Hotel  *HotelResponse  `json:"hotel,omitempty"`
}

type HotelResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

type ServiceResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type PaymentResponse struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt *string         `json:"paid_at"`
}

// RepairResponse summarises one reconciliation sweep.
// Total = Orphaned + Incomplete + Valid.
type RepairResponse struct {
	Message    string `json:"message"`
	Total      int    `json:"total"`
	Orphaned   int    `json:"orphaned"`
	Incomplete int    `json:"incomplete"`
	Valid      int    `json:"valid"`
}

// QueuedResponse acknowledges a job handed to the worker pool.
type QueuedResponse struct {
	Message string `json:"message"`
	Trigger string `json:"trigger"`
}
