// Package models contains domain entities for the donor administration backend
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       *uint           `gorm:"index:idx_audit_user_id" json:"user_id,omitempty"`
	User         *User           `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Action       string          `gorm:"size:100;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionLoginSuccessful     = "login_successful"
	AuditActionLoginFailed         = "login_failed"
	AuditActionDonorCreated        = "donor_created"
	AuditActionDonorUpdated        = "donor_updated"
	AuditActionDonorDeleted        = "donor_deleted"
	AuditActionDonationRecorded    = "donation_recorded"
	AuditActionCampaignCreated     = "campaign_created"
	AuditActionCampaignUpdated     = "campaign_updated"
	AuditActionCampaignDeleted     = "campaign_deleted"
	AuditActionCampaignSendQueued  = "campaign_send_queued"
	AuditActionCampaignSent        = "campaign_sent"
	AuditActionCampaignSendFailed  = "campaign_send_failed"
	AuditActionReportExported      = "report_exported"
	AuditActionCampaignImageSaved  = "campaign_image_saved"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	UserID        *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
