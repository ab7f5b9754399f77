package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CampaignStatus represents the lifecycle status of an email campaign
type CampaignStatus string

const (
	CampaignStatusDraft CampaignStatus = "draft"
	CampaignStatusSent  CampaignStatus = "sent"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusSent:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// EmailCampaign represents a single bulk-email send unit with one
// subject/body sent at most once.
type EmailCampaign struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_email_campaigns_uuid" json:"uuid"`
	Subject        string         `gorm:"size:200;not null" json:"subject"`
	Body           string         `gorm:"type:text;not null" json:"body"`
	Status         CampaignStatus `gorm:"type:campaign_status;not null;default:'draft';index:idx_email_campaigns_status" json:"status"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	RecipientCount int            `gorm:"not null;default:0" json:"recipient_count"`
	CreatedAt      time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_email_campaigns_created_at" json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`

	// Relations
	Recipients []Donor `gorm:"many2many:campaign_recipients;joinForeignKey:CampaignID;joinReferences:DonorID" json:"recipients,omitempty"`
}

// TableName returns the table name for the model
func (EmailCampaign) TableName() string {
	return "email_campaigns"
}

// BeforeCreate is called before creating a new record
func (c *EmailCampaign) BeforeCreate() error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *EmailCampaign) BeforeUpdate() error {
	now := time.Now().UTC()
	c.UpdatedAt = &now
	return nil
}

// IsEditable checks if the campaign subject/body can still change.
// Once sent, the campaign is immutable.
func (c *EmailCampaign) IsEditable() bool {
	return c.Status == CampaignStatusDraft
}

// IsDeletable checks if the campaign can be deleted
func (c *EmailCampaign) IsDeletable() bool {
	return c.Status == CampaignStatusDraft
}

// CanTransitionTo checks if the campaign can transition to the given status.
// The only legal transition is draft -> sent; sent is terminal.
func (c *EmailCampaign) CanTransitionTo(newStatus CampaignStatus) bool {
	switch c.Status {
	case CampaignStatusDraft:
		return newStatus == CampaignStatusSent
	default:
		return false
	}
}

// CampaignFilter represents filter criteria for email campaign queries
type CampaignFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	Subject       *string         `json:"subject,omitempty"`
	SentAfter     *time.Time      `json:"sent_after,omitempty"`
	SentBefore    *time.Time      `json:"sent_before,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}

// GetStatusDisplayName returns a human-readable status name
func (c *EmailCampaign) GetStatusDisplayName() string {
	switch c.Status {
	case CampaignStatusDraft:
		return "Draft"
	case CampaignStatusSent:
		return "Sent"
	default:
		return "Unknown"
	}
}
