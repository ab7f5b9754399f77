// Package dto contains Data Transfer Objects for API request and response structures
package dto

import (
	"time"
)

// SendFilter carries the optional audience criteria for a campaign send or
// preview. Absent criteria match all donors; the last-contact bounds are
// inclusive and the upper bound must not precede the lower bound.
type SendFilter struct {
	HelpType          *string    `json:"help_type,omitempty" validate:"omitempty,oneof=financial physical both" example:"financial"`
	LastContactAfter  *time.Time `json:"last_contact_after,omitempty" example:"2024-01-01T00:00:00Z"`
	LastContactBefore *time.Time `json:"last_contact_before,omitempty" example:"2024-06-30T23:59:59Z"`
}

// BoundsConsistent reports whether the two date bounds are mutually consistent
func (f *SendFilter) BoundsConsistent() bool {
	if f.LastContactAfter != nil && f.LastContactBefore != nil {
		return !f.LastContactBefore.Before(*f.LastContactAfter)
	}
	return true
}

// CreateCampaignRequest represents the request payload for creating an email campaign
type CreateCampaignRequest struct {
	Subject string `json:"subject" validate:"required,min=1,max=200" example:"Spring fundraising update"`
	Body    string `json:"body" validate:"required,min=1,max=50000" example:"<p>Dear friend, ...</p>"`
}

// UpdateCampaignRequest represents the request payload for updating a draft campaign
type UpdateCampaignRequest struct {
	Subject *string `json:"subject,omitempty" validate:"omitempty,min=1,max=200"`
	Body    *string `json:"body,omitempty" validate:"omitempty,min=1,max=50000"`
}

// CampaignResponse represents a campaign in API responses
type CampaignResponse struct {
	UUID           string     `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Subject        string     `json:"subject" example:"Spring fundraising update"`
	Body           string     `json:"body,omitempty"`
	Status         string     `json:"status" example:"draft"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	RecipientCount int        `json:"recipient_count" example:"0"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// ListCampaignsRequest represents pagination and filtering for campaign listing
type ListCampaignsRequest struct {
	Status   *string `query:"status" validate:"omitempty,oneof=draft sent"`
	Page     int     `query:"page" validate:"omitempty,min=1"`
	PageSize int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListCampaignsResponse represents a page of campaigns
type ListCampaignsResponse struct {
	Items      []CampaignResponse `json:"items"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

// SendCampaignRequest represents the request payload for dispatching a campaign
type SendCampaignRequest struct {
	Filters SendFilter `json:"filters"`
}

// SendCampaignResponse is the immediate acknowledgment returned while the
// send continues in the background.
type SendCampaignResponse struct {
	Message    string `json:"message" example:"Campaign send started"`
	CampaignID string `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TaskID     string `json:"task_id" example:"8f14e45f-ceea-4e17-9a9c-1b5f9a2d7c21"`
}

// SendTaskStatusResponse reports the state of a background send task
type SendTaskStatusResponse struct {
	TaskID         string     `json:"task_id"`
	CampaignID     string     `json:"campaign_id"`
	Status         string     `json:"status" example:"running"`
	RecipientCount int        `json:"recipient_count,omitempty"`
	BatchCount     int        `json:"batch_count,omitempty"`
	ErrorCode      string     `json:"error_code,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	QueuedAt       time.Time  `json:"queued_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// PreviewRecipientsRequest represents the request payload for a recipient preview
type PreviewRecipientsRequest struct {
	Filters SendFilter `json:"filters"`
}

// DonorPreview is the abbreviated donor shape returned by the preview
type DonorPreview struct {
	Name        string     `json:"name" example:"Jane Smith"`
	Email       string     `json:"email" example:"jane@example.com"`
	HelpType    string     `json:"help_type" example:"financial"`
	LastContact *time.Time `json:"last_contact,omitempty"`
}

// PreviewRecipientsResponse returns the audience size and the first few donors
type PreviewRecipientsResponse struct {
	Count  int64          `json:"count" example:"1200"`
	Sample []DonorPreview `json:"sample"`
}

// Campaign error codes
const (
	ErrorCampaignNotFound    = "CAMPAIGN_NOT_FOUND"
	ErrorCampaignAlreadySent = "CAMPAIGN_ALREADY_SENT"
	ErrorEmptyAudience       = "EMPTY_AUDIENCE"
	ErrorSendInProgress      = "SEND_IN_PROGRESS"
	ErrorProviderFailure     = "PROVIDER_FAILURE"
	ErrorSendTaskNotFound    = "SEND_TASK_NOT_FOUND"
)
