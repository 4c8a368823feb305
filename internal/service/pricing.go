package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDueAfter is the payment term: an invoice is due this long after checkout.
const InvoiceDueAfter = 7 * 24 * time.Hour

// PricingInput carries everything the calculator needs. RoomPrice is a pointer so that a missing
// room price is distinguishable from a free room.
type PricingInput struct {
	RoomPrice     *decimal.Decimal
	ServicePrices []decimal.Decimal
	CheckIn       time.Time
	CheckOut      time.Time
}

type PricingResult struct {
	Nights       int64
	RoomCost     decimal.Decimal
	ServicesCost decimal.Decimal
	TotalAmount  decimal.Decimal
}

// BillableNights is the stay length in days, rounded up, never less than one.
func BillableNights(checkIn, checkOut time.Time) int64 {
	const day = 24 * time.Hour
	d := checkOut.Sub(checkIn)
	nights := int64(d / day)
	if d%day > 0 {
		nights++
	}
	if nights < 1 {
		nights = 1
	}
	return nights
}

// CalculatePrice computes the amount due for a stay.
// Selected services are charged once per night, not once per stay:
//
//	total = roomPrice*nights + sum(servicePrices)*nights
func CalculatePrice(in PricingInput) (PricingResult, error) {
	if in.RoomPrice == nil {
		return PricingResult{}, fmt.Errorf("%w: room price is missing", ErrInvalidInput)
	}
	if in.RoomPrice.IsNegative() {
		return PricingResult{}, fmt.Errorf("%w: room price %s is negative", ErrInvalidInput, in.RoomPrice)
	}

	servicesCost := decimal.Zero
	for i, p := range in.ServicePrices {
		if p.IsNegative() {
			return PricingResult{}, fmt.Errorf("%w: service price #%d (%s) is negative", ErrInvalidInput, i+1, p)
		}
		servicesCost = servicesCost.Add(p)
	}

	nights := BillableNights(in.CheckIn, in.CheckOut)
	n := decimal.NewFromInt(nights)
	roomCost := in.RoomPrice.Mul(n)

	return PricingResult{
		Nights:       nights,
		RoomCost:     roomCost,
		ServicesCost: servicesCost,
		TotalAmount:  roomCost.Add(servicesCost.Mul(n)),
	}, nil
}

// DueDate returns checkout + InvoiceDueAfter.
func DueDate(checkOut time.Time) time.Time {
	return checkOut.Add(InvoiceDueAfter)
}
