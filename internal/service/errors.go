package service

import (
	"errors"
	"fmt"
)

// Domain errors returned by the billing services. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrInvoiceNotFound     = fmt.Errorf("invoice %w", ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("payment %w", ErrNotFound)
	ErrAlreadyExists       = errors.New("an invoice already exists for this reservation")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidInput        = errors.New("invalid input")
)
