package dto

import (
	"time"
)

// DonorReportRequest filters the donor Excel export
type DonorReportRequest struct {
	HelpType          *string    `query:"help_type" validate:"omitempty,oneof=financial physical both"`
	LastContactAfter  *time.Time `query:"last_contact_after"`
	LastContactBefore *time.Time `query:"last_contact_before"`
}

// DonationReportRequest filters the donation Excel export
type DonationReportRequest struct {
	Currency   *string    `query:"currency" validate:"omitempty,len=3,alpha"`
	DateAfter  *time.Time `query:"date_after"`
	DateBefore *time.Time `query:"date_before"`
}
