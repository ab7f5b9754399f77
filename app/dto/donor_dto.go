package dto

import (
	"time"
)

// AddressDTO mirrors the donor postal address JSON document
type AddressDTO struct {
	Street  *string `json:"street,omitempty" validate:"omitempty,max=255"`
	City    *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State   *string `json:"state,omitempty" validate:"omitempty,max=100"`
	Zip     *string `json:"zip,omitempty" validate:"omitempty,max=20"`
	Country *string `json:"country,omitempty" validate:"omitempty,max=100"`
}

// CreateDonorRequest represents the request payload for creating a donor
type CreateDonorRequest struct {
	Name        string      `json:"name" validate:"required,min=1,max=255" example:"Jane Smith"`
	Email       string      `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Phone       *string     `json:"phone,omitempty" validate:"omitempty,max=50" example:"+15551234567"`
	HelpType    string      `json:"help_type" validate:"required,oneof=financial physical both" example:"financial"`
	LastContact *time.Time  `json:"last_contact,omitempty" example:"2024-03-01T00:00:00Z"`
	Address     *AddressDTO `json:"address,omitempty"`
}

// UpdateDonorRequest represents the request payload for updating a donor
type UpdateDonorRequest struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email       *string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       *string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	HelpType    *string     `json:"help_type,omitempty" validate:"omitempty,oneof=financial physical both"`
	LastContact *time.Time  `json:"last_contact,omitempty"`
	Address     *AddressDTO `json:"address,omitempty"`
}

// DonorResponse represents a donor in API responses
type DonorResponse struct {
	UUID        string      `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string      `json:"name" example:"Jane Smith"`
	Email       string      `json:"email" example:"jane@example.com"`
	Phone       *string     `json:"phone,omitempty"`
	HelpType    string      `json:"help_type" example:"financial"`
	LastContact *time.Time  `json:"last_contact,omitempty"`
	Address     *AddressDTO `json:"address,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// ListDonorsRequest represents pagination and filtering for donor listing
type ListDonorsRequest struct {
	Name              *string    `query:"name" validate:"omitempty,max=255"`
	HelpType          *string    `query:"help_type" validate:"omitempty,oneof=financial physical both"`
	LastContactAfter  *time.Time `query:"last_contact_after"`
	LastContactBefore *time.Time `query:"last_contact_before"`
	Page              int        `query:"page" validate:"omitempty,min=1"`
	PageSize          int        `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListDonorsResponse represents a page of donors
type ListDonorsResponse struct {
	Items      []DonorResponse `json:"items"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

// Donor error codes
const (
	ErrorDonorNotFound           = "DONOR_NOT_FOUND"
	ErrorDonorEmailAlreadyExists = "DONOR_EMAIL_ALREADY_EXISTS"
)
