package dto

import (
	"time"
)

// CreateDonationRequest represents the request payload for recording a donation
type CreateDonationRequest struct {
	DonorUUID     string     `json:"donor_uuid" validate:"required,uuid4" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount        float64    `json:"amount" validate:"required,gt=0" example:"150.00"`
	Currency      string     `json:"currency" validate:"omitempty,len=3,alpha" example:"USD"`
	Date          *time.Time `json:"date,omitempty" example:"2024-03-01T00:00:00Z"`
	PaymentMethod *string    `json:"payment_method,omitempty" validate:"omitempty,max=100" example:"bank_transfer"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateDonationRequest represents the request payload for updating a donation
type UpdateDonationRequest struct {
	Amount        *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Currency      *string    `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Date          *time.Time `json:"date,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty" validate:"omitempty,max=100"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// DonationResponse represents a donation in API responses
type DonationResponse struct {
	UUID          string     `json:"uuid"`
	DonorUUID     string     `json:"donor_uuid"`
	DonorName     string     `json:"donor_name,omitempty"`
	Amount        float64    `json:"amount" example:"150.00"`
	Currency      string     `json:"currency" example:"USD"`
	Date          time.Time  `json:"date"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// ListDonationsRequest represents pagination and filtering for donation listing
type ListDonationsRequest struct {
	DonorUUID  *string    `query:"donor_uuid" validate:"omitempty,uuid4"`
	Currency   *string    `query:"currency" validate:"omitempty,len=3,alpha"`
	DateAfter  *time.Time `query:"date_after"`
	DateBefore *time.Time `query:"date_before"`
	Page       int        `query:"page" validate:"omitempty,min=1"`
	PageSize   int        `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListDonationsResponse represents a page of donations with running totals
type ListDonationsResponse struct {
	Items      []DonationResponse `json:"items"`
	Totals     map[string]float64 `json:"totals"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

// Donation error codes
const (
	ErrorDonationNotFound  = "DONATION_NOT_FOUND"
	ErrorAmountNotPositive = "AMOUNT_NOT_POSITIVE"
)
